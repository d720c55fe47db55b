// Package ingest discovers and reads per-subject photometry recordings.
//
// Raw recordings are CSV exports from the acquisition software. The real
// header row is not always the first line of the file; ReadTrace sniffs it
// within the first few lines and maps the time, signal and reference columns
// by header name rather than by position. Rows with unparsable cells in any
// mapped column are dropped.
//
// The package also reads back the pipeline's own processed CSVs
// (ReadProcessed) so cohort aggregation can be rerun without repeating the
// numeric pipeline.
package ingest
