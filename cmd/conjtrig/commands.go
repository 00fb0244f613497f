package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/conjtrig/internal/nquads"
	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
	"github.com/aleksaelezovic/conjtrig/pkg/store"
)

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse TriG files and print the statements as N-Quads",
		Long:  `Parse TriG files (or standard input when none or "-" is given) and print every statement as an N-Quads line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			w := rdf.NewNQuadsWriter(a.out)
			var errs []error
			for _, path := range args {
				if _, err := a.parseFile(cmd.Context(), path, w); err != nil {
					errs = append(errs, err)
				}
			}
			if err := w.Flush(); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}
}

func (a *app) loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load file...",
		Short: "Parse TriG files into the quad store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := a.openStore()
			if err != nil {
				return err
			}
			defer qs.Close()

			for _, path := range args {
				if err := a.loadFile(cmd.Context(), qs, path, nil); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&a.storePath, "store", "", "Quad store directory (overrides store.path)")
	return cmd
}

// loadFile parses path into qs, also passing each statement to tee when it is set.
// Statements emitted before a fatal error are kept.
func (a *app) loadFile(ctx context.Context, qs *store.QuadStore, path string, tee rdf.Handler) error {
	loader := store.NewLoader(qs, a.cfg.Store.BatchSize)
	var h rdf.Handler = loader
	if tee != nil {
		h = rdf.Tee(loader, tee)
	}
	_, parseErr := a.parseFile(ctx, path, h)
	if err := loader.Flush(); err != nil {
		return errors.Join(parseErr, fmt.Errorf("write statements: %w", err))
	}
	if err := qs.Sync(); err != nil {
		return errors.Join(parseErr, fmt.Errorf("sync store: %w", err))
	}
	a.logger.Info("Loaded",
		slog.String("input", path),
		slog.Int("received", loader.Seen()),
		slog.Int("added", loader.Added()))
	return parseErr
}

func (a *app) graphsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "List the named graphs in the quad store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := a.openStore()
			if err != nil {
				return err
			}
			defer qs.Close()

			graphs, err := qs.Graphs()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "GRAPH\tSTATEMENTS")
			for _, g := range graphs {
				_, _ = fmt.Fprintf(tw, "%s\t%d\n", rdf.FormatTerm(g.Graph), g.Statements)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&a.storePath, "store", "", "Quad store directory (overrides store.path)")
	return cmd
}

func (a *app) dumpCmd() *cobra.Command {
	var graph string
	var defaultGraph bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the statements of the quad store as N-Quads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := a.openStore()
			if err != nil {
				return err
			}
			defer qs.Close()

			pattern := &store.Pattern{}
			switch {
			case defaultGraph:
				pattern.Graph = rdf.NewDefaultGraph()
			case graph != "":
				pattern.Graph = rdf.NewNamedNode(graph)
			}

			it, err := qs.Match(pattern)
			if err != nil {
				return err
			}
			defer it.Close()

			w := rdf.NewNQuadsWriter(a.out)
			for it.Next() {
				q, err := it.Quad()
				if err != nil {
					return err
				}
				if err := w.HandleStatement(q); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&a.storePath, "store", "", "Quad store directory (overrides store.path)")
	cmd.Flags().StringVar(&graph, "graph", "", "Only print statements of this named graph (IRI)")
	cmd.Flags().BoolVar(&defaultGraph, "default-graph", false, "Only print statements of the default graph")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify input.trig expected.nq",
		Short: "Check that a TriG file parses to the statements of an N-Quads file",
		Long: `Parse a TriG file and compare its statements with an N-Quads file.
Blank node labels may differ between the two; the sets must be equal up to renaming them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collector := rdf.NewCollector()
			if _, err := a.parseFile(cmd.Context(), args[0], collector); err != nil {
				return err
			}

			f, err := os.Open(args[1]) // #nosec G304 - input path is chosen by the user
			if err != nil {
				return fmt.Errorf("open expected statements: %w", err)
			}
			defer f.Close()
			expected, err := nquads.ReadAll(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			if !rdf.Isomorphic(expected, collector.Quads) {
				return fmt.Errorf("%s: %d statements do not match the %d expected in %s",
					args[0], len(collector.Quads), len(expected), args[1])
			}
			_, _ = fmt.Fprintf(a.out, "ok: %d statements\n", len(expected))
			return nil
		},
	}
}
