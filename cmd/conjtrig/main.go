// Package main provides the conjtrig binary entry point.
// conjtrig parses TriG documents with conjecture (CONJ) and settlement (SETT)
// graph blocks, writing the statements as N-Quads or into a BadgerDB quad store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/conjtrig/internal/config"
	"github.com/aleksaelezovic/conjtrig/internal/encoding"
	"github.com/aleksaelezovic/conjtrig/internal/metrics"
	"github.com/aleksaelezovic/conjtrig/internal/storage"
	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
	"github.com/aleksaelezovic/conjtrig/pkg/store"
	"github.com/aleksaelezovic/conjtrig/pkg/trig"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "conjtrig"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by all commands
type app struct {
	configPath  string
	logLevel    string
	metricsFile string
	storePath   string
	baseIRI     string

	out    io.Writer
	errOut io.Writer

	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "TriG parser with conjecture and settlement graphs",
		Long: `conjtrig parses TriG documents extended with CONJ and SETT graph blocks.

CONJ blocks put their statements into a shadow graph, marking the graph name as
conjectural. SETT blocks do the same and then confirm the conjecture with a
conj:settles statement from the original graph to its shadow.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write prometheus metrics to this file after the command")
	flags.StringVar(&a.baseIRI, "base", "", "Base IRI for relative IRIs")

	cmd.AddCommand(a.parseCmd(), a.loadCmd(), a.graphsCmd(), a.dumpCmd(), a.watchCmd(), a.verifyCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.out, "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// execute runs the command line. Cobra skips post-run hooks when a command fails,
// so the metrics file is written here to record failed parses too.
func (a *app) execute(ctx context.Context, args []string) (err error) {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	defer func() {
		if ferr := a.finish(); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()
	return cmd.ExecuteContext(ctx)
}

// setup configures logging, loads the layered configuration and creates the metrics
func (a *app) setup() error {
	bootstrap := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg, err := config.NewLoader(bootstrap).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Metrics.File = a.metricsFile
	}
	if a.baseIRI != "" {
		cfg.Parser.BaseIRI = a.baseIRI
	}
	if a.storePath != "" {
		cfg.Store.Path = a.storePath
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	a.cfg = cfg
	a.metrics = metrics.New()
	return nil
}

// finish writes the metrics file when one is configured
func (a *app) finish() error {
	if a.cfg == nil || a.cfg.Metrics.File == "" {
		return nil
	}
	if err := a.metrics.WriteToTextfile(a.cfg.Metrics.File); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	a.logger.Debug("Wrote metrics", slog.String("path", a.cfg.Metrics.File))
	return nil
}

// newParser creates a parser sending counted statements to h
func (a *app) newParser(h rdf.Handler) (*trig.Parser, error) {
	opts, err := a.cfg.Parser.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		trig.WithLogger(a.logger),
		trig.WithViolationHandler(a.metrics.ViolationHandler(func(v trig.Violation) {
			a.logger.Warn("Recoverable violation",
				slog.String("class", string(v.Class)),
				slog.Int("line", v.Line),
				slog.Int("column", v.Column),
				slog.String("message", v.Message))
		})),
	)
	return trig.NewParser(a.metrics.Handler(h), opts...), nil
}

// parseFile parses one input into h; "-" reads standard input
func (a *app) parseFile(ctx context.Context, path string, h rdf.Handler) (trig.Stats, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path) // #nosec G304 - input path is chosen by the user
		if err != nil {
			return trig.Stats{}, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	p, err := a.newParser(h)
	if err != nil {
		return trig.Stats{}, err
	}

	start := time.Now()
	err = p.Parse(ctx, r)
	elapsed := time.Since(start)
	stats := p.Stats()
	a.metrics.ObserveParse(stats, err, elapsed)

	a.logger.Info("Parsed",
		slog.String("input", path),
		slog.Int64("statements", stats.Statements),
		slog.Int("conjectures", stats.Conjectures),
		slog.Int64("settlements", stats.Settlements),
		slog.Int64("violations", stats.Violations),
		slog.Duration("elapsed", elapsed))
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

// openStore opens the configured BadgerDB quad store
func (a *app) openStore() (*store.QuadStore, error) {
	badgerStorage, err := storage.OpenBadgerStorage(a.cfg.Store.Path, storage.Options{
		InMemory:   config.Enabled(a.cfg.Store.InMemory),
		SyncWrites: config.Enabled(a.cfg.Store.SyncWrites),
		Logger:     a.logger,
	})
	if err != nil {
		return nil, err
	}
	return store.NewQuadStore(badgerStorage, encoding.NewTermEncoder(), encoding.NewTermDecoder()), nil
}
