package common

import (
	"errors"

	"github.com/agriintel/agri-intel/logger"
)

// Combine joins the non-nil errors, returning nil when all of them are nil.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover must be deferred directly. It logs and swallows a panic.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
