package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"vaxmap/internal/analysis/visual"
	"vaxmap/internal/dashboard"
	"vaxmap/internal/logger"
)

const (
	FileWorkbook      = "report.xlsx"
	FileHistogramPNG  = "histogram.png"
	FileHistogramHTML = "histogram.html"
	FileScreenshot    = "dashboard.png"
)

// Options controls what the bundle contains.
type Options struct {
	OutDir     string
	Chart      visual.Options
	Screenshot bool
}

// WriteBundle writes the workbook and chart files into opts.OutDir and
// returns the written paths. A failed screenshot is logged and skipped so a
// missing Chrome does not lose the rest of the report.
func WriteBundle(ctx context.Context, ds *dashboard.Dataset, opts Options) ([]string, error) {
	if ds == nil {
		return nil, fmt.Errorf("no dataset loaded")
	}
	dir := opts.OutDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	xlsx, err := WorkbookBytes(ds)
	if err != nil {
		return written, err
	}
	if err := write(FileWorkbook, xlsx); err != nil {
		return written, err
	}

	img, err := visual.HistogramPNG(ds.Histogram, opts.Chart)
	if err != nil {
		return written, err
	}
	if err := write(FileHistogramPNG, img.Bytes); err != nil {
		return written, err
	}

	html, err := visual.HistogramHTML(ds.Histogram, opts.Chart)
	if err != nil {
		return written, err
	}
	if err := write(FileHistogramHTML, html); err != nil {
		return written, err
	}

	if opts.Screenshot {
		shot, err := visual.SummaryScreenshot(ctx, ds.Histogram, ds.Stats, ds.HasStats, opts.Chart)
		if err != nil {
			logger.Warnf("dashboard screenshot skipped: %v", err)
		} else if err := write(FileScreenshot, shot.Bytes); err != nil {
			return written, err
		}
	}
	return written, nil
}
