// Command mrf-extract streams a gzip-compressed negotiated-rates MRF
// file and emits one CSV row per matching (provider, code, price)
// tuple, given a query file naming the NPIs and billing codes to look
// for.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/mrf-extract/internal/archive"
	"github.com/gyeh/mrf-extract/internal/mrf"
	"github.com/gyeh/mrf-extract/internal/progress"
)

const defaultBufferKB = 128 * 1024 // 128 MiB, per spec §6's default

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		outPath       string
		stdGzip       bool
		progressMode  string
		archiveDest   string
		archiveRegion string
	)

	cmd := &cobra.Command{
		Use:   "mrf-extract <query-file> <data-file> [buffer-size-kb]",
		Short: "Extract negotiated-price rows from a machine-readable transparency file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, outPath, stdGzip, progressMode, archiveDest, archiveRegion)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file for CSV rows (default: stdout)")
	cmd.Flags().BoolVar(&stdGzip, "std-gzip", false, "use the standard library's single-threaded gzip reader instead of pgzip")
	cmd.Flags().StringVar(&progressMode, "progress", "auto", "diagnostic reporter: auto, bar, log, or none")
	cmd.Flags().StringVar(&archiveDest, "archive-s3", "", "s3://bucket/key destination for a best-effort copy of the output")
	cmd.Flags().StringVar(&archiveRegion, "archive-region", "", "AWS region for --archive-s3 (defaults to the SDK's standard resolution)")

	return cmd
}

func run(cmd *cobra.Command, args []string, outPath string, stdGzip bool, progressMode, archiveDest, archiveRegion string) error {
	queryPath, dataPath := args[0], args[1]
	bufKB := defaultBufferKB
	if len(args) == 3 {
		n, err := parsePositiveInt(args[2])
		if err != nil {
			return fmt.Errorf("buffer size: %w", err)
		}
		bufKB = n
	}

	qf, err := os.Open(queryPath)
	if err != nil {
		return fmt.Errorf("opening query file: %w", err)
	}
	query, err := mrf.ReadQuery(qf)
	qf.Close()
	if err != nil {
		return fmt.Errorf("reading query file: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	rep, err := newReporter(progressMode)
	if err != nil {
		return err
	}
	defer rep.Done()

	emitter := mrf.NewEmitter(out)
	driver := mrf.NewDriver(query, emitter, rep)

	open := func() (*mrf.Source, io.Closer, error) {
		r, closer, err := mrf.OpenData(dataPath, bufKB*1024, stdGzip)
		if err != nil {
			return nil, nil, fmt.Errorf("opening data file: %w", err)
		}
		return mrf.NewSource(r), closer, nil
	}

	nonFatal, runErr := driver.Run(open)
	if runErr != nil {
		return runErr
	}

	mrf.ReportUnmatched(query, rep)

	if archiveDest != "" && outPath != "" {
		if err := archive.Archive(context.Background(), archiveDest, outPath, archiveRegion); err != nil {
			rep.Warn(fmt.Sprintf("archival to %s failed: %v", archiveDest, err))
		}
	}

	if nonFatal {
		return fmt.Errorf("run completed with non-fatal errors")
	}
	return nil
}

func newReporter(mode string) (mrf.Reporter, error) {
	switch mode {
	case "auto":
		if isTerminal(os.Stderr) {
			return progress.NewMPBReporter(), nil
		}
		return progress.NewLogReporter(), nil
	case "bar":
		return progress.NewMPBReporter(), nil
	case "log":
		return progress.NewLogReporter(), nil
	case "none":
		return mrf.NoopReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown --progress mode %q (want auto, bar, log, or none)", mode)
	}
}

// isTerminal reports whether f looks like an interactive character
// device rather than a redirected file or pipe.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
