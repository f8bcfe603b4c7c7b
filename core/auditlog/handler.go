package auditlog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/api/web"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		entries, err := List(ctx, db)
		if err != nil {
			return fmt.Errorf("listing audit log: %w", err)
		}

		return web.Respond(ctx, w, entries, http.StatusOK)
	}
}
