package exporter

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/xuri/excelize/v2"

	"fpcli/internal/config"
	"fpcli/internal/photometry"
)

// WorkbookExporter writes the cross-subject Excel summaries.
type WorkbookExporter struct {
	paths *config.Paths
}

// NewWorkbookExporter creates a new workbook exporter
func NewWorkbookExporter(paths *config.Paths) *WorkbookExporter {
	return &WorkbookExporter{paths: paths}
}

// WriteSummary writes the summary workbook: one metrics row per subject on
// the Summary sheet, and a metric glossary on the Explanation sheet. The
// batch run ID is stamped on the Explanation sheet so a workbook can be
// matched to its log stream. Statistics that could not be computed are left
// as empty cells, never written as zeros.
func (e *WorkbookExporter) WriteSummary(results []*photometry.SubjectResult, windows []photometry.Window, mode photometry.Mode, runID string) error {
	f := excelize.NewFile()

	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	headers := summaryHeaders(windows, mode)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write summary header: %w", err)
		}
	}

	for r, res := range results {
		rowIdx := r + 2
		byName := make(map[string]photometry.WindowMetrics, len(res.Windows))
		for _, wm := range res.Windows {
			byName[wm.Window] = wm
		}

		col := 1
		cell, _ := excelize.CoordinatesToCellName(col, rowIdx)
		if err := f.SetCellValue(sheet, cell, res.Subject); err != nil {
			return fmt.Errorf("failed to write summary row for %s: %w", res.Subject, err)
		}
		col++

		for _, w := range windows {
			wm, ok := byName[w.Name]
			stats := []photometry.Stat{wm.Mean, wm.Std, wm.AUC}
			if mode == photometry.ModeDeltaF {
				stats = append(stats, wm.AUCPos)
			}
			stats = append(stats, wm.Peak, wm.PeakTime)

			for _, s := range stats {
				if ok && s.Valid {
					cell, _ := excelize.CoordinatesToCellName(col, rowIdx)
					if err := f.SetCellValue(sheet, cell, s.Value); err != nil {
						return fmt.Errorf("failed to write summary row for %s: %w", res.Subject, err)
					}
				}
				col++
			}
		}

		cell, _ = excelize.CoordinatesToCellName(col, rowIdx)
		if err := f.SetCellValue(sheet, cell, res.PeakCount); err != nil {
			return fmt.Errorf("failed to write summary row for %s: %w", res.Subject, err)
		}
	}

	if err := e.writeExplanation(f, mode, runID); err != nil {
		return err
	}

	slog.Info("Writing summary workbook",
		slog.String("path", e.paths.SummaryWorkbook),
		slog.Int("subjects", len(results)))

	if err := f.SaveAs(e.paths.SummaryWorkbook); err != nil {
		return fmt.Errorf("failed to save summary workbook: %w", err)
	}
	return nil
}

// summaryHeaders builds the Summary sheet column names in window order.
func summaryHeaders(windows []photometry.Window, mode photometry.Mode) []string {
	headers := []string{"subject"}
	for _, w := range windows {
		headers = append(headers, w.Name+"_mean", w.Name+"_std", w.Name+"_auc")
		if mode == photometry.ModeDeltaF {
			headers = append(headers, w.Name+"_auc_pos")
		}
		headers = append(headers, w.Name+"_peak", w.Name+"_peak_time")
	}
	return append(headers, "peak_count")
}

// writeExplanation fills the Explanation sheet with one row per output
// column family, followed by the run identity.
func (e *WorkbookExporter) writeExplanation(f *excelize.File, mode photometry.Mode, runID string) error {
	const sheet = "Explanation"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create explanation sheet: %w", err)
	}

	normalization := "Normalized signal is the z-score of the motion-corrected signal against the baseline interval (sample standard deviation, divisor n-1)."
	if mode == photometry.ModeDeltaF {
		normalization = "Normalized signal is baseline-relative dF/F, re-expressed in z units against the same baseline interval (sample standard deviation, divisor n-1)."
	}

	rows := [][2]string{
		{"Item", "Description"},
		{"subject", "Subject identifier derived from the recording filename up to the first underscore."},
		{"<window>_mean", "Mean of the normalized signal over the named window, clipped to the analyzed span."},
		{"<window>_std", "Sample standard deviation over the window (divisor n-1); empty when the window holds a single sample."},
		{"<window>_auc", "Trapezoidal integral of the normalized signal over the window, in normalized units times seconds."},
	}
	if mode == photometry.ModeDeltaF {
		rows = append(rows, [2]string{"<window>_auc_pos", "Simpson integral of the strictly positive part of the dF/F series over the window."})
	}
	rows = append(rows,
		[2]string{"<window>_peak", "Largest normalized value in the window; ties keep the earliest sample."},
		[2]string{"<window>_peak_time", "Recording time in seconds at which the window peak occurs."},
		[2]string{"peak_count", "Local maxima at or above the amplitude threshold across the full recording, including any at time zero."},
		[2]string{"normalization", normalization},
		[2]string{"empty cells", "A statistic that could not be computed is left empty rather than written as zero."},
	)
	if runID != "" {
		rows = append(rows, [2]string{"run_id", runID})
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write explanation row: %w", err)
			}
		}
	}
	return nil
}

// WriteCohort writes the cohort workbook: the shared integer-second grid
// with one column per subject. Seconds a subject has no sample in stay
// empty.
func (e *WorkbookExporter) WriteCohort(frame *photometry.CohortFrame) error {
	f := excelize.NewFile()

	const sheet = "Traces"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name cohort sheet: %w", err)
	}

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := f.SetCellValue(sheet, cell, "time"); err != nil {
		return fmt.Errorf("failed to write cohort header: %w", err)
	}
	for j, subject := range frame.Subjects {
		cell, _ := excelize.CoordinatesToCellName(j+2, 1)
		if err := f.SetCellValue(sheet, cell, subject); err != nil {
			return fmt.Errorf("failed to write cohort header: %w", err)
		}
	}

	for i, second := range frame.Seconds {
		rowIdx := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetCellValue(sheet, cell, second); err != nil {
			return fmt.Errorf("failed to write cohort row %d: %w", second, err)
		}
		for j := range frame.Subjects {
			v := frame.Values[i][j]
			if math.IsNaN(v) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+2, rowIdx)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cohort row %d: %w", second, err)
			}
		}
	}

	slog.Info("Writing cohort workbook",
		slog.String("path", e.paths.CohortWorkbook),
		slog.Int("seconds", len(frame.Seconds)),
		slog.Int("subjects", len(frame.Subjects)))

	if err := f.SaveAs(e.paths.CohortWorkbook); err != nil {
		return fmt.Errorf("failed to save cohort workbook: %w", err)
	}
	return nil
}
