// Package ledger is the durable record of which fetch tasks have
// already resolved. It is the resumption mechanism: the planner filters
// out done and skipped keys, so re-running never repeats finished work.
package ledger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists progress records. All writes are key-scoped upserts, so
// concurrent workers never lose records to read-modify-write races.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewStore creates a Store on an already-migrated database.
func NewStore(logger *logrus.Logger, db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("ledger store requires a database")
	}
	return &Store{db: db, logger: logger}, nil
}

// MarkDone records a successful task with its row count.
func (s *Store) MarkDone(dataset, key string, rows, attempts int) error {
	return s.record(Record{
		Dataset:  dataset,
		TaskKey:  key,
		Status:   StatusDone,
		Rows:     rows,
		Attempts: attempts,
	})
}

// MarkSkipped records a task that can never succeed.
func (s *Store) MarkSkipped(dataset, key, reason string) error {
	return s.record(Record{
		Dataset: dataset,
		TaskKey: key,
		Status:  StatusSkipped,
		Reason:  reason,
	})
}

// MarkFailed records a task that exhausted its retries.
func (s *Store) MarkFailed(dataset, key, reason string, attempts int) error {
	return s.record(Record{
		Dataset:  dataset,
		TaskKey:  key,
		Status:   StatusFailed,
		Reason:   reason,
		Attempts: attempts,
	})
}

func (s *Store) record(rec Record) error {
	rec.UpdatedAt = time.Now()

	result := s.db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "dataset"}, {Name: "task_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "reason", "attempts", "row_count", "updated_at",
			}),
		}).
		Create(&rec)
	if result.Error != nil {
		return fmt.Errorf("failed to record progress for %s/%s: %w", rec.Dataset, rec.TaskKey, result.Error)
	}

	s.logger.WithFields(logrus.Fields{
		"dataset":  rec.Dataset,
		"task_key": rec.TaskKey,
		"status":   rec.Status,
	}).Debug("Recorded task outcome")

	return nil
}

// CompletedKeys returns the set of task keys for dataset that are done
// or permanently skipped, i.e. the keys the planner must not emit again.
func (s *Store) CompletedKeys(dataset string) (map[string]struct{}, error) {
	var keys []string
	err := s.db.Model(&Record{}).
		Where("dataset = ? AND status IN ?", dataset, []Status{StatusDone, StatusSkipped}).
		Pluck("task_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load completed keys for %s: %w", dataset, err)
	}

	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

// IsDoneOrSkipped reports whether the task already resolved terminally
// in a previous run.
func (s *Store) IsDoneOrSkipped(dataset, key string) (bool, error) {
	var count int64
	err := s.db.Model(&Record{}).
		Where("dataset = ? AND task_key = ? AND status IN ?", dataset, key, []Status{StatusDone, StatusSkipped}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query progress for %s/%s: %w", dataset, key, err)
	}
	return count > 0, nil
}

// FailedRecords returns every failed record for reporting.
func (s *Store) FailedRecords() ([]Record, error) {
	var records []Record
	err := s.db.
		Where("status = ?", StatusFailed).
		Order("dataset, task_key").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load failed records: %w", err)
	}
	return records, nil
}
