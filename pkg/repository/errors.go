package repository

import (
	"database/sql"
	"errors"
)

// MapError translates sql.ErrNoRows to notFoundErr and leaves every other
// error untouched, so driver details stay available to errors.As.
func MapError(err error, notFoundErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}
	return err
}
