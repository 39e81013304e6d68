package convert

import (
	"context"
	"errors"

	"github.com/dgallion1/txt2epub/internal/epub"
	"github.com/dgallion1/txt2epub/internal/parser"
)

// FailureKind groups conversion errors for reporting.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureDecode    FailureKind = "decode"
	FailureSource    FailureKind = "source"
	FailurePackaging FailureKind = "packaging"
	FailureCanceled  FailureKind = "canceled"
	FailureOther     FailureKind = "other"
)

// Classify maps an error returned by Convert to its FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var decodeErr *parser.DecodeError
	var sourceErr *SourceError
	var packErr *epub.PackagingError
	switch {
	case errors.As(err, &decodeErr):
		return FailureDecode
	case errors.As(err, &sourceErr):
		return FailureSource
	case errors.As(err, &packErr):
		return FailurePackaging
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	default:
		return FailureOther
	}
}
