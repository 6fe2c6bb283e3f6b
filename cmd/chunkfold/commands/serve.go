package commands

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jg-phare/chunkfold/pkg/sse"
)

func (a *app) serveCommand() *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve <recording>",
		Short: "Serve a recorded event stream over HTTP",
		Long: `Serve a recorded event stream over HTTP.

Every POST, whatever the path, is answered with the recording's chunks,
paced by --delay. Point --api-base of another chunkfold at it to exercise a
client without a live backend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           replayHandler(args[0], delay, a.log),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, a.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between chunks")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, log logrus.FieldLogger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	log.WithField("addr", ln.Addr().String()).Info("serving recording")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// replayHandler streams the data payloads of the recording at path. The
// recording is re-read per request so it may change between requests.
func replayHandler(path string, delay time.Duration, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f, err := os.Open(path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		reqLog := log.WithField("path", r.URL.Path)
		sw := sse.NewWriter(w)
		dec := sse.NewDecoder(f)
		sent := 0
		for {
			ev, err := dec.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				reqLog.WithError(err).Warn("read recording")
				return
			}
			for _, payload := range ev.Data {
				if payload == sse.Done {
					_ = sw.Done()
					reqLog.WithField("chunks", sent).Debug("replayed")
					return
				}
				if sent > 0 && delay > 0 {
					select {
					case <-r.Context().Done():
						return
					case <-time.After(delay):
					}
				}
				if err := sw.Data([]byte(payload)); err != nil {
					return
				}
				sent++
			}
		}
		reqLog.WithField("chunks", sent).Debug("replayed without done sentinel")
	})
}
