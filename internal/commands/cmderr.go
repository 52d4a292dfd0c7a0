package commands

import (
	"errors"
	"log/slog"

	"github.com/dotcommander/memhook/internal/output"
)

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// The JSON error envelope is the output; the original error is not repeated.
	return "error already printed"
}

func (e printedError) Unwrap() error { return e.err }

// cmdErr logs err, prints the JSON error envelope and marks it as printed so
// Execute does not log it a second time.
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	var pe printedError
	if errors.As(err, &pe) {
		return err
	}
	attrs := []any{"error", err.Error()}
	type slogAttrError interface {
		SlogAttrs() []any
	}
	var detailed slogAttrError
	if errors.As(err, &detailed) {
		attrs = append(attrs, detailed.SlogAttrs()...)
	}
	slog.Error("command error", attrs...)
	_ = output.PrintError(err)
	return printedError{err: err}
}
