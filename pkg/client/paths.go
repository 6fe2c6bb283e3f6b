package client

import (
	"fmt"
	"net/url"
	"strings"
)

// Ref names a function or profile stored in a remote repository.
// An empty Commit means the latest commit.
type Ref struct {
	Owner      string
	Repository string
	Commit     string
}

// ParseRef parses "owner/repo" or "owner/repo/commit".
func ParseRef(s string) (*Ref, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("client: invalid reference %q, want owner/repo[/commit]", s)
	}
	r := &Ref{Owner: parts[0], Repository: parts[1]}
	if len(parts) == 3 {
		r.Commit = parts[2]
	}
	return r, nil
}

// String returns the reference in owner/repo[/commit] form.
func (r *Ref) String() string {
	s := r.Owner + "/" + r.Repository
	if r.Commit != "" {
		s += "/" + r.Commit
	}
	return s
}

func (r *Ref) path() string {
	p := "/" + url.PathEscape(r.Owner) + "/" + url.PathEscape(r.Repository)
	if r.Commit != "" {
		p += "/" + url.PathEscape(r.Commit)
	}
	return p
}

// ExecutionPath returns the endpoint for executing fn with profile.
func ExecutionPath(fn, profile *Ref) string {
	switch {
	case fn == nil && profile == nil:
		return "/functions"
	case profile == nil:
		return "/functions" + fn.path()
	case fn == nil:
		return "/functions/profiles" + profile.path()
	default:
		return "/functions" + fn.path() + "/profiles" + profile.path()
	}
}

// ComputePath returns the endpoint for computing a profile of fn.
func ComputePath(fn *Ref) string {
	if fn == nil {
		return "/functions/profiles/compute"
	}
	return "/functions" + fn.path() + "/profiles/compute"
}
