package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"designreport/internal/domain/export"
	"designreport/internal/domain/report"
	"designreport/internal/platform/config"
	"designreport/internal/platform/sheet"
)

type generateFlags struct {
	grid    string
	archive string
	month   string
	year    int
	out     string
	verbose bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reportgen",
		Short:         "Build the monthly design team report from Grid and Archive exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd(), newMonthsCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write report.xlsx, report.txt, report.pdf and merged.xlsx for one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.grid, "grid", "", "Grid workbook (.xlsx)")
	cmd.Flags().StringVar(&flags.archive, "archive", "", "Archive workbook (.xlsx)")
	cmd.Flags().StringVar(&flags.month, "month", "", "month name, English or Russian")
	cmd.Flags().IntVar(&flags.year, "year", 0, "report year")
	cmd.Flags().StringVar(&flags.out, "out", ".", "output directory")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log skipped cells")
	_ = cmd.MarkFlagRequired("grid")
	_ = cmd.MarkFlagRequired("archive")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newMonthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List accepted month names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range report.MonthNames() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runGenerate(stdout, stderr io.Writer, flags generateFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	opts := cfg.Report.Options()
	opts.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var grid, archive sheet.Table
	var g errgroup.Group
	g.Go(func() (err error) {
		grid, err = sheet.ReadFile(flags.grid)
		return err
	})
	g.Go(func() (err error) {
		archive, err = sheet.ReadFile(flags.archive)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out, err := report.NewGenerator(opts).Generate(grid.Rows, archive.Rows, flags.month, flags.year)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flags.out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := []struct {
		name   string
		render func(io.Writer) error
	}{
		{"report.xlsx", func(w io.Writer) error { return export.WriteWorkbook(w, out.Report) }},
		{"report.txt", func(w io.Writer) error { return export.WriteText(w, out.TextReport) }},
		{"report.pdf", func(w io.Writer) error { return export.WritePDF(w, out, export.PDFOptions{FontPath: cfg.PDFFontPath}) }},
		{"merged.xlsx", func(w io.Writer) error { return export.WriteMergedWorkbook(w, grid, archive) }},
	}
	var errs []error
	for _, f := range files {
		var buf bytes.Buffer
		if err := f.render(&buf); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			continue
		}
		if err := os.WriteFile(filepath.Join(flags.out, f.name), buf.Bytes(), 0o644); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	_, err = fmt.Fprint(stdout, out.TextReport)
	return err
}
