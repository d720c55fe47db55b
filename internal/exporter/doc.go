// Package exporter writes every artifact of a batch run.
//
// This package contains four main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// TraceExporter: Writes one processed CSV per subject with the raw,
// drift-corrected, motion-corrected and normalized series row-aligned with
// the input recording.
//
// WorkbookExporter: Writes the cross-subject Excel artifacts, the metric
// summary workbook and the cohort trace workbook.
//
// ChartExporter: Renders each subject's normalized trace with detected
// peaks to SVG.
//
// Example usage:
//
//	traces := exporter.NewTraceExporter(paths)
//	err := traces.WriteProcessed(result)
//
//	books := exporter.NewWorkbookExporter(paths)
//	err = books.WriteSummary(results, windows, mode, runID)
//	err = books.WriteCohort(frame)
package exporter
