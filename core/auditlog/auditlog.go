package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/api/background"
)

const (
	ActionUpload = "UPLOAD"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

type Entry struct {
	ID        int64     `json:"id" db:"entry_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	SubjectID string    `json:"subjectId" db:"subject_id"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func Append(ctx context.Context, db sqlx.ExtContext, e Entry) error {
	const q = `
	INSERT INTO audit_logs (user_id, action, subject_id, label, created_at)
	VALUES (:user_id, :action, :subject_id, :label, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, e); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}

	return nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Entry, error) {
	const q = `SELECT * FROM audit_logs ORDER BY created_at, entry_id`

	entries := []Entry{}
	if err := sqlx.SelectContext(ctx, db, &entries, q); err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}

	return entries, nil
}

// Record appends an entry off the request path. The write is best
// effort: a failure is logged by the runner and never rolls back the
// action being audited.
func Record(bg *background.Background, db *sqlx.DB, userID, action, subjectID, label string) {
	e := Entry{
		UserID:    userID,
		Action:    action,
		SubjectID: subjectID,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}

	bg.Add("audit-log", func(ctx context.Context) error {
		return Append(ctx, db, e)
	})
}
