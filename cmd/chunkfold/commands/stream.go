package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jg-phare/chunkfold/pkg/client"
	"github.com/jg-phare/chunkfold/pkg/sse"
	"github.com/jg-phare/chunkfold/pkg/stream"
)

// streamFlags are shared by every command that opens a live stream.
type streamFlags struct {
	file    string
	record  string
	headers map[string]string
}

func (f *streamFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "request file, YAML or JSON (- for stdin)")
	cmd.Flags().StringVar(&f.record, "record", "", "write the received event stream to this file")
	cmd.Flags().StringToStringVarP(&f.headers, "header", "H", nil, "extra request header key=value (repeatable)")
}

func (a *app) chatCommand() *cobra.Command {
	var flags streamFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Stream a chat completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStream(cmd, "chat", "/chat/completions", &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) vectorCommand() *cobra.Command {
	var flags streamFlags
	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Stream a vector completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStream(cmd, "vector", "/vector/completions", &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) executeCommand() *cobra.Command {
	var (
		flags            streamFlags
		function, profile string
	)
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Stream a function execution",
		Long: `Stream a function execution.

--function and --profile take owner/repository[/commit]. When omitted, the
request file must carry the function or profile inline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fn, err := optionalRef(function)
			if err != nil {
				return err
			}
			prof, err := optionalRef(profile)
			if err != nil {
				return err
			}
			return a.runStream(cmd, "function", client.ExecutionPath(fn, prof), &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&function, "function", "", "remote function owner/repository[/commit]")
	cmd.Flags().StringVar(&profile, "profile", "", "remote profile owner/repository[/commit]")
	return cmd
}

func (a *app) computeProfileCommand() *cobra.Command {
	var (
		flags    streamFlags
		function string
	)
	cmd := &cobra.Command{
		Use:   "compute-profile",
		Short: "Stream a function profile computation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fn, err := optionalRef(function)
			if err != nil {
				return err
			}
			return a.runStream(cmd, "profile", client.ComputePath(fn), &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&function, "function", "", "remote function owner/repository[/commit]")
	return cmd
}

func optionalRef(s string) (*client.Ref, error) {
	if s == "" {
		return nil, nil
	}
	return client.ParseRef(s)
}

func (a *app) runStream(cmd *cobra.Command, kindName, path string, flags *streamFlags) error {
	k, err := lookupKind(kindName)
	if err != nil {
		return err
	}
	req, err := a.readRequest(flags.file)
	if err != nil {
		return err
	}
	out, closeOut, err := a.printer()
	if err != nil {
		return err
	}
	defer closeOut()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	var opts []client.RequestOption
	for key, value := range flags.headers {
		opts = append(opts, client.WithHeader(key, value))
	}
	body, err := a.client.Post(ctx, path, req, opts...)
	if err != nil {
		return err
	}

	streamOpts := []stream.Option{stream.WithLogger(a.log)}
	var rec *recorder
	if flags.record != "" {
		if rec, err = newRecorder(flags.record); err != nil {
			body.Close()
			return err
		}
		streamOpts = append(streamOpts, stream.WithTap(rec.tap))
	}

	snapshot, foldErr := k.fold(ctx, body, streamOpts...)
	if rec != nil {
		if err := rec.finish(foldErr); err != nil {
			a.log.WithError(err).Warn("recording incomplete")
		}
	}

	if snapshot != nil {
		if err := out.print(snapshot); err != nil {
			return err
		}
	}
	if foldErr != nil {
		if fe, ok := stream.AsFetchError(foldErr); ok {
			a.log.WithFields(logrus.Fields{
				"code":      fe.Code,
				"kind":      fe.Kind(),
				"retryable": fe.Retryable(),
			}).Error("stream failed")
		}
		return foldErr
	}
	return nil
}

// readRequest decodes a YAML or JSON request body. An empty path sends an
// empty object.
func (a *app) readRequest(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	var r io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req any
	if err := yaml.NewDecoder(r).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode request %s: %w", path, err)
	}
	if req != nil {
		if _, ok := req.(map[string]any); !ok {
			return nil, fmt.Errorf("decode request %s: want a mapping, got %T", path, req)
		}
	}
	return req, nil
}

// recorder writes tapped payloads to an event-stream file.
type recorder struct {
	f   *os.File
	w   *sse.Writer
	err error
}

func newRecorder(path string) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return &recorder{f: f, w: sse.NewWriter(f)}, nil
}

func (r *recorder) tap(payload []byte) {
	if r.err == nil {
		r.err = r.w.Data(payload)
	}
}

// finish terminates the recording with the done sentinel when the stream
// completed cleanly and closes the file.
func (r *recorder) finish(streamErr error) error {
	if r.err == nil {
		if streamErr == nil {
			r.err = r.w.Done()
		} else {
			r.err = r.w.Close()
		}
	}
	if err := r.f.Close(); err != nil && r.err == nil {
		r.err = err
	}
	return r.err
}
