// Package apierr maps domain errors to Connect error codes.
package apierr

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/chunk"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/repository"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/reporting"
)

var invalidArgument = []error{
	normalizer.ErrNoData,
	normalizer.ErrNoCategoryColumn,
	chunk.ErrInvalidChunk,
	filetype.ErrUnknownFileType,
	classification.ErrEmptyMapping,
	classification.ErrEmptyLabel,
	reporting.ErrWrongRoute,
	sniffer.ErrEmptyFile,
	sniffer.ErrNoHeadersFound,
}

var notFound = []error{
	reporting.ErrNoDataset,
	reporting.ErrOpportunityNotFound,
	repository.ErrDatasetNotFound,
}

// Code returns the Connect code for err.
func Code(err error) connect.Code {
	var (
		schemaErr     *sniffer.SchemaInferenceError
		groupErr      *classification.InvalidGroupError
		dupErr        *classification.DuplicateLabelError
		incompleteErr *chunk.IncompleteUploadError
		connectErr    *connect.Error
	)

	switch {
	case errors.As(err, &connectErr):
		return connectErr.Code()
	case errors.As(err, &schemaErr), errors.As(err, &groupErr), errors.As(err, &dupErr), isAny(err, invalidArgument):
		return connect.CodeInvalidArgument
	case errors.As(err, &incompleteErr):
		return connect.CodeDataLoss
	case errors.Is(err, chunk.ErrCapacityExhausted):
		return connect.CodeResourceExhausted
	case errors.Is(err, chunk.ErrUploadCompleted):
		return connect.CodeAlreadyExists
	case errors.Is(err, classification.ErrForbidden):
		return connect.CodePermissionDenied
	case isAny(err, notFound):
		return connect.CodeNotFound
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}

// ToConnect wraps err in a Connect error carrying its code. Internal errors
// keep a generic message so storage details do not leak to clients.
func ToConnect(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	code := Code(err)
	if code == connect.CodeInternal {
		return connect.NewError(code, errors.New("internal error"))
	}
	return connect.NewError(code, err)
}

// Unauthenticated is returned by handlers called without a principal.
func Unauthenticated() error {
	return connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
