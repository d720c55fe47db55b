package exporter

import (
	batcherrors "fpcli/internal/errors"
)

// WriteFailureReport writes one row per failed subject so a batch can be
// audited without reading logs.
func (w *CSVWriter) WriteFailureReport(filePath string, failures []*batcherrors.SubjectError) error {
	records := make([][]string, 0, len(failures))
	for _, f := range failures {
		records = append(records, []string{f.Subject, f.Stage, f.Err.Error()})
	}
	return w.WriteSimpleCSV(filePath, []string{"subject", "stage", "error"}, records)
}
