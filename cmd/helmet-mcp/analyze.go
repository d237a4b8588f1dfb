package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/helmet-detect-mcp/internal/analysis"
	"github.com/ironsheep/helmet-detect-mcp/internal/config"
	"github.com/ironsheep/helmet-detect-mcp/internal/detection"
	"github.com/ironsheep/helmet-detect-mcp/internal/imaging"
	"github.com/ironsheep/helmet-detect-mcp/internal/selection"
)

// report is the outcome of a one-shot analysis.
type report struct {
	File            string                   `json:"file"`
	State           analysis.State           `json:"state"`
	Metrics         *analysis.DisplayMetrics `json:"metrics,omitempty"`
	ComplianceColor *imaging.ColorResult     `json:"compliance_color,omitempty"`
	Output          string                   `json:"output,omitempty"`
}

// runAnalyze implements the analyze subcommand and returns the exit code.
func runAnalyze(cfg *config.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	out := fs.String("out", "", "write the annotated preview to `file`")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: helmet-mcp analyze [-out file] [-json] <image>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := analyzeFile(ctx, cfg, logger, fs.Arg(0), *out)
	if err != nil {
		logger.Error("analyze failed", "file", fs.Arg(0), "error", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			logger.Error("failed to encode report", "error", err)
			return 1
		}
	} else {
		printReport(os.Stdout, rep)
	}

	if rep.State.Status != analysis.Succeeded {
		return 1
	}
	return 0
}

// analyzeFile selects path, runs one analysis and optionally writes the
// annotated preview to out. Selection and analysis are torn down before it
// returns.
func analyzeFile(ctx context.Context, cfg *config.Config, logger *slog.Logger, path, out string) (*report, error) {
	sel := selection.NewManager(logger)
	defer sel.Close()

	det := detection.New(cfg.Detection.URL, cfg.Detection.HealthURL, cfg.Detection.TimeoutDuration(), logger)
	orch := analysis.New(sel, det, logger)
	defer orch.Close()

	in, err := selection.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !sel.Select(in) {
		return nil, errors.New("file is empty")
	}

	state, ok := orch.Analyze(ctx)
	if !ok && state.Status == analysis.Submitting {
		return nil, fmt.Errorf("analysis interrupted: %w", ctx.Err())
	}

	rep := &report{File: in.Name, State: state}
	m, ok := orch.Metrics()
	if !ok {
		return rep, nil
	}
	c := imaging.ComplianceColor(m.ComplianceRate)
	rep.Metrics = &m
	rep.ComplianceColor = &c

	if out != "" {
		if err := writePreview(sel, m, cfg.Preview, out); err != nil {
			return nil, err
		}
		rep.Output = out
	}
	return rep, nil
}

func writePreview(sel *selection.Manager, m analysis.DisplayMetrics, opts config.PreviewConfig, out string) error {
	p, ok := sel.Preview()
	if !ok {
		return errors.New("no preview: the selected file is not an image")
	}
	img, err := p.Image()
	if err != nil {
		return err
	}

	var box *imaging.Box
	label := ""
	if r := m.Overlay; r != nil {
		box = &imaging.Box{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
		label = m.ConfidenceLabel()
	}

	composed, err := imaging.Compose(img, box, imaging.OverlayOptions{
		Color:        opts.OverlayColor,
		Thickness:    opts.OverlayThickness,
		MaxDimension: opts.MaxDimension,
		Label:        label,
	})
	if err != nil {
		return err
	}
	return imaging.Save(composed.Image, out)
}

func printReport(w io.Writer, rep *report) {
	fmt.Fprintf(w, "File:          %s\n", rep.File)
	fmt.Fprintf(w, "Status:        %s\n", rep.State.Status)

	if rep.State.Status == analysis.Failed {
		fmt.Fprintf(w, "Message:       %s\n", rep.State.Message)
		return
	}
	m := rep.Metrics
	if m == nil {
		return
	}

	fmt.Fprintf(w, "Subjects:      %d (%d with helmet, %d without)\n",
		m.TotalSubjects, m.SubjectsWithHelmet, m.SubjectsWithoutHelmet)
	fmt.Fprintf(w, "Compliance:    %.1f%% (%s)\n", m.ComplianceRate, rep.ComplianceColor.Hex)
	fmt.Fprintf(w, "Confidence:    %.1f%%\n", m.ConfidencePercent)
	if r := m.Overlay; r != nil {
		fmt.Fprintf(w, "Bounding box:  left=%.0f top=%.0f width=%.0f height=%.0f\n", r.Left, r.Top, r.Width, r.Height)
	}
	if rep.Output != "" {
		fmt.Fprintf(w, "Preview:       %s\n", rep.Output)
	}
}
