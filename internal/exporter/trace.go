package exporter

import (
	"fmt"

	"fpcli/internal/config"
	"fpcli/internal/photometry"
)

// processedHeaders are the columns of a per-subject processed trace, in
// pipeline stage order. ingest.ReadProcessed looks the time and normalized
// columns up by these exact names.
var processedHeaders = []string{
	"time",
	"signal_raw",
	"reference_raw",
	"signal_drift",
	"reference_drift",
	"signal_clean",
	"normalized",
}

// TraceExporter writes per-subject processed traces.
type TraceExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewTraceExporter creates a new processed trace exporter
func NewTraceExporter(paths *config.Paths) *TraceExporter {
	return &TraceExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

// WriteProcessed exports every derived series of one subject, row-aligned
// with the input recording.
func (e *TraceExporter) WriteProcessed(res *photometry.SubjectResult) error {
	stream, err := e.csvWriter.CreateStreamWriter(e.paths.ProcessedCSVPath(res.Subject), processedHeaders)
	if err != nil {
		return fmt.Errorf("failed to create processed trace for %s: %w", res.Subject, err)
	}

	tr, d := res.Trace, res.Derived
	for i := 0; i < tr.Len(); i++ {
		record := []string{
			formatSample(tr.Time[i]),
			formatSample(tr.Signal[i]),
			formatSample(tr.Reference[i]),
			formatSample(d.SignalDrift[i]),
			formatSample(d.ReferenceDrift[i]),
			formatSample(d.SignalClean[i]),
			formatSample(d.Normalized[i]),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write processed row %d for %s: %w", i, res.Subject, err)
		}
	}

	return stream.Close()
}
