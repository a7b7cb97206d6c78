package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceReconcile backfills invoices for Won quotations whose
	// online generation failed.
	TaskInvoiceReconcile = "invoices:reconcile"
	// TaskSessionPurge removes expired rows from the session audit table.
	TaskSessionPurge = "sessions:purge"
	// TaskStatementBuild issues last month's statement for every client
	// with outstanding invoices.
	TaskStatementBuild = "statements:build"
)

// InvoiceReconcilePayload bounds a single reconciliation sweep.
type InvoiceReconcilePayload struct {
	Limit int `json:"limit"`
}

// NewInvoiceReconcileTask constructs an Asynq task for a reconciliation run.
func NewInvoiceReconcileTask(payload InvoiceReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceReconcile, data), nil
}

// NewSessionPurgeTask constructs an Asynq task for the session purge.
func NewSessionPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionPurge, nil)
}

// NewStatementBuildTask constructs an Asynq task for the monthly statement run.
func NewStatementBuildTask() *asynq.Task {
	return asynq.NewTask(TaskStatementBuild, nil)
}
