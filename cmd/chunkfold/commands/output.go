package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// printer renders folded snapshots, optionally through a jq query.
type printer struct {
	w      io.Writer
	format string
	query  *gojq.Query
}

func newPrinter(w io.Writer, format, expr string) (*printer, error) {
	switch format {
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid format %q (want json|yaml)", format)
	}
	p := &printer{w: w, format: format}
	if expr != "" {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
		}
		p.query = query
	}
	return p, nil
}

func (p *printer) print(v any) error {
	data, err := toGeneric(v)
	if err != nil {
		return err
	}
	if p.query == nil {
		return p.write(data)
	}

	iter := p.query.Run(data)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := out.(error); ok {
			if halt, ok := err.(*gojq.HaltError); ok && halt.Value() == nil {
				return nil
			}
			return fmt.Errorf("query: %w", err)
		}
		if err := p.write(out); err != nil {
			return err
		}
	}
}

func (p *printer) write(v any) error {
	switch p.format {
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
}

// toGeneric converts a typed snapshot into the map/slice form gojq and
// yaml expect, keeping JSON field names and omissions.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return out, nil
}
