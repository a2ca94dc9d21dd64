package audit

import (
	"context"

	"github.com/weiawesome/labor-market/pkg/log"
)

// Audit actions for job writes.
const (
	ActionCreateJob = "job.create"
	ActionUpdateJob = "job.update"
	ActionDeleteJob = "job.delete"
	ActionExpireJob = "job.expire"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, jobID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldJobID, jobID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, userID, jobID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldJobID, jobID).
		Str(FieldDetail, detail).
		Msg(msg)
}
