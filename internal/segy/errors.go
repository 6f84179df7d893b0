package segy

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedFile         = errors.New("file shorter than the 3600-byte SEG-Y header region")
	ErrUnsupportedFormatCode = errors.New("unsupported data sample format code")
	ErrTruncatedTrace        = errors.New("trailing partial trace")
	ErrNoTraces              = errors.New("file contains no traces")
)

// ConversionError reports a sample decode or encode failure during
// standardization, identifying the trace it occurred in.
type ConversionError struct {
	Trace  int
	Offset int64
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("trace %d at offset %d: %v", e.Trace, e.Offset, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
