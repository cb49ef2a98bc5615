package history

import (
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/kbukum/asrkit/errors"
)

// isBusy reports a locked database, which a later attempt may get past.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"database is locked", "sqlite_busy", "database table is locked"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// fromDatabase converts a database error to an AppError.
func fromDatabase(err error, resource, id string) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource, id)
	}
	appErr := errors.Database(err)
	if isBusy(err) {
		appErr.Retryable = true
		appErr.Message = "The history database is busy. Please try again."
	}
	return appErr
}
