package ledger

import "time"

// Status is the terminal state of one fetch task.
type Status string

const (
	// StatusDone means the task fetched and persisted successfully.
	// Done tasks are never re-executed on later runs.
	StatusDone Status = "done"
	// StatusSkipped means the task can never succeed (permission or
	// parameter rejection) and is not retried on later runs
	StatusSkipped Status = "skipped"
	// StatusFailed means the task exhausted its retries; it is
	// replanned on the next run
	StatusFailed Status = "failed"
)

// Record is one durable progress entry, keyed by dataset and task key.
type Record struct {
	Dataset   string    `gorm:"primaryKey;size:64;column:dataset" json:"dataset"`
	TaskKey   string    `gorm:"primaryKey;size:512;column:task_key" json:"task_key"`
	Status    Status    `gorm:"size:16;not null;column:status" json:"status"`
	Reason    string    `gorm:"column:reason" json:"reason,omitempty"`
	Attempts  int       `gorm:"column:attempts" json:"attempts"`
	Rows      int       `gorm:"column:row_count" json:"rows"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Record) TableName() string {
	return "progress_records"
}
