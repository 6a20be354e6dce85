package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

// classify wraps err with the domain sentinel for its class while keeping the
// driver error in the chain. Already-classified errors pass through.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case domerrors.IsNotFound(err), domerrors.IsInvalidInput(err), domerrors.IsConflict(err),
		domerrors.IsForbidden(err), domerrors.IsUnavailable(err):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", domerrors.ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.Is(err, sql.ErrConnDone), strings.Contains(err.Error(), "database is closed"):
		return fmt.Errorf("%w: %w", domerrors.ErrUnavailable, err)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch code := sqliteErr.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", domerrors.ErrConflict, err)
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			code == sqlite3.SQLITE_CONSTRAINT_CHECK,
			code == sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %w", domerrors.ErrInvalidInput, err)
		case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", domerrors.ErrUnavailable, err)
		}
	}
	return err
}
