// Package commands implements the chunkfold command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jg-phare/chunkfold/cmd/chunkfold/internal/config"
	"github.com/jg-phare/chunkfold/pkg/client"
)

// app holds per-invocation state shared by subcommands.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *logrus.Logger

	client *client.Client

	// global flags
	cfgFile    string
	envFile    string
	outputFile string
	format     string
	query      string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the command tree with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds a fresh command tree bound to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		log:    logrus.New(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	a.log.SetOutput(stderr)

	root := &cobra.Command{
		Use:   "chunkfold",
		Short: "Stream and fold incremental API responses",
		Long: `chunkfold opens streaming chat, vector, function execution and profile
computation requests and prints the folded snapshot once the stream ends.

Recorded event streams can be folded offline with replay, or served back
over HTTP with serve.

Examples:
  # Stream a chat completion and print only the text
  chunkfold chat -f chat.yaml -q '.choices[0].delta.content'

  # Execute a remote function with a remote profile and record the stream
  chunkfold execute --function acme/scorer --profile acme/weights -f input.json --record run.sse

  # Fold every recording below ./runs
  chunkfold replay 'runs/**/*.sse'
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.StringVarP(&a.outputFile, "output", "o", "", "output file (default: stdout)")
	pf.StringVar(&a.format, "format", "json", "output format: json|yaml")
	pf.StringVarP(&a.query, "query", "q", "", "jq expression applied to each snapshot")
	pf.String("api-base", "", "API base URL")
	pf.String("api-key", "", "API key")
	pf.String("log-level", "", "log level: trace|debug|info|warn|error")
	pf.String("log-format", "", "log format: text|json")
	pf.Duration("timeout", 0, "overall request timeout (0 = none)")

	a.bindFlag("api.base_url", pf.Lookup("api-base"))
	a.bindFlag("api.api_key", pf.Lookup("api-key"))
	a.bindFlag("logging.level", pf.Lookup("log-level"))
	a.bindFlag("logging.format", pf.Lookup("log-format"))
	a.bindFlag("api.timeout", pf.Lookup("timeout"))

	root.AddCommand(
		a.chatCommand(),
		a.vectorCommand(),
		a.executeCommand(),
		a.computeProfileCommand(),
		a.replayCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(a.envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	a.log.SetLevel(level)
	switch cfg.Logging.Format {
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	a.client = client.New(client.Config{
		BaseURL:     cfg.API.BaseURL,
		APIKey:      cfg.API.APIKey,
		UserAgent:   cfg.API.UserAgent,
		XTitle:      cfg.API.XTitle,
		HTTPReferer: cfg.API.HTTPReferer,
		Headers:     cfg.API.Headers,
		Logger:      a.log,
	})

	a.log.WithFields(logrus.Fields{
		"base_url": cfg.API.BaseURL,
		"command":  cmd.Name(),
	}).Debug("configured")
	return nil
}

// bindFlag lets a flag override key. Flag names are static, so a failed
// bind is a programming error.
func (a *app) bindFlag(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind %s: %v", key, err))
	}
}

// printer opens the configured output and returns a printer writing to it
// with a func that closes it.
func (a *app) printer() (*printer, func() error, error) {
	w := a.stdout
	closeFn := func() error { return nil }
	if a.outputFile != "" {
		f, err := os.Create(a.outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open output: %w", err)
		}
		w, closeFn = f, f.Close
	}
	p, err := newPrinter(w, a.format, a.query)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}

// withTimeout applies the configured request timeout to ctx.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.API.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.API.Timeout)
	}
	return context.WithCancel(ctx)
}
