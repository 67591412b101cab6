// Package report exports the loaded dataset as a spreadsheet plus chart
// files.
package report

import (
	"bytes"
	"fmt"

	"vaxmap/internal/choropleth"
	"vaxmap/internal/dashboard"
	"vaxmap/internal/geo"

	"github.com/xuri/excelize/v2"
)

const (
	SheetCounties  = "Counties"
	SheetStats     = "Stats"
	SheetHistogram = "Histogram"
)

var countyHeaders = []string{"#", "County", "fullyVaxPer10k", "Rate (%)", "Band", "Color"}

// Workbook builds the export workbook. The caller owns the returned file.
func Workbook(ds *dashboard.Dataset) (*excelize.File, error) {
	if ds == nil {
		return nil, fmt.Errorf("no dataset loaded")
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetCounties); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeCounties(f, ds); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeStats(f, ds); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeHistogram(f, ds.Histogram); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WorkbookBytes renders the workbook as xlsx bytes.
func WorkbookBytes(ds *dashboard.Dataset) ([]byte, error) {
	f, err := Workbook(ds)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCounties(f *excelize.File, ds *dashboard.Dataset) error {
	if err := writeHeader(f, SheetCounties, countyHeaders, 16); err != nil {
		return err
	}
	var features []geo.Feature
	if ds.Collection != nil {
		features = ds.Collection.Features
	}
	// extra property columns, in first-seen order
	var extras []string
	seen := map[string]bool{geo.PropName: true, geo.PropRate: true}
	for _, feat := range features {
		for _, k := range feat.KeyOrder {
			if !seen[k] {
				seen[k] = true
				extras = append(extras, k)
			}
		}
	}
	for i, k := range extras {
		cell, _ := excelize.CoordinatesToCellName(len(countyHeaders)+i+1, 1)
		if err := f.SetCellValue(SheetCounties, cell, k); err != nil {
			return err
		}
	}

	for i, feat := range features {
		row := i + 2
		band := choropleth.ClassifyRaw(feat.Raw())
		values := []any{feat.Index, feat.Name(), feat.Raw(), feat.Rate(), band.Label, band.Color}
		props := feat.Properties()
		for _, k := range extras {
			v, ok := props[k]
			if !ok {
				values = append(values, nil)
				continue
			}
			values = append(values, dashboard.FormatValue(v))
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetCounties, cell, &values); err != nil {
			return err
		}
		if err := fillCell(f, SheetCounties, 6, row, band.Color); err != nil {
			return err
		}
	}
	return nil
}

func writeStats(f *excelize.File, ds *dashboard.Dataset) error {
	if _, err := f.NewSheet(SheetStats); err != nil {
		return err
	}
	if err := writeHeader(f, SheetStats, []string{"Metric", "Value"}, 22); err != nil {
		return err
	}
	rows := [][]any{
		{"Source", ds.Source},
		{"Loaded at", ds.LoadedAt.UTC().Format("2006-01-02 15:04:05 MST")},
		{"Total counties", ds.Len()},
		{"Counties with data", ds.Stats.Counted},
	}
	if ds.HasStats {
		d := ds.Stats.Display()
		rows = append(rows,
			[]any{"Average vaccination", d.Average},
			[]any{"Highest rate", d.Max},
			[]any{"Lowest rate", d.Min},
		)
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetStats, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func writeHistogram(f *excelize.File, h choropleth.Histogram) error {
	if _, err := f.NewSheet(SheetHistogram); err != nil {
		return err
	}
	if err := writeHeader(f, SheetHistogram, []string{"Band", "Counties", "Color"}, 14); err != nil {
		return err
	}
	for i, b := range h {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{b.Label, b.Count, b.Color}
		if err := f.SetSheetRow(SheetHistogram, cell, &values); err != nil {
			return err
		}
		if err := fillCell(f, SheetHistogram, 3, row, b.Color); err != nil {
			return err
		}
	}
	last := len(h) + 1
	return f.AddChart(SheetHistogram, "E2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", SheetHistogram),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetHistogram, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetHistogram, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Vaccination Rate Distribution"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

func writeHeader(f *excelize.File, sheet string, headers []string, width float64) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func fillCell(f *excelize.File, sheet string, col, row int, hex string) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
	})
	if err != nil {
		return err
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return f.SetCellStyle(sheet, cell, cell, style)
}
