// Package sink persists fetched rows as partitioned files. Each task
// owns exactly one partition, so a rewrite of the same partition is a
// clean overwrite rather than a duplicate append.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/tushare"
)

// Sink receives the rows of one resolved task, keyed by the task's
// partition within its dataset.
type Sink interface {
	Write(dataset, partition string, res *tushare.Result) error
}

// CSVSink writes each partition as
// <base>/<dataset>/<partition>/data.csv. An empty partition writes to
// the dataset root. Writes go through a temp file and a rename, so a
// partition is either the old complete file or the new complete file,
// never a torn write.
type CSVSink struct {
	base   string
	logger *logrus.Logger
}

// NewCSVSink creates a CSVSink rooted at base.
func NewCSVSink(base string, logger *logrus.Logger) (*CSVSink, error) {
	if base == "" {
		return nil, fmt.Errorf("sink requires a base directory")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &CSVSink{base: base, logger: logger}, nil
}

// Write persists one partition, replacing any previous contents.
func (s *CSVSink) Write(dataset, partition string, res *tushare.Result) error {
	dir := filepath.Join(s.base, dataset, filepath.FromSlash(partition))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create partition directory: %w", err)
	}

	target := filepath.Join(dir, "data.csv")

	tmp, err := os.CreateTemp(dir, "data-*.csv.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, res); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write partition %s/%s: %w", dataset, partition, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace partition file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"dataset":   dataset,
		"partition": partition,
		"rows":      res.Rows(),
	}).Debug("Wrote partition")

	return nil
}

func writeCSV(f *os.File, res *tushare.Result) error {
	w := csv.NewWriter(f)

	if len(res.Fields) > 0 {
		if err := w.Write(res.Fields); err != nil {
			return err
		}
	}

	record := make([]string, len(res.Fields))
	for _, row := range res.Items {
		for i := range record {
			if i < len(row) {
				record[i] = tushare.CellString(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
