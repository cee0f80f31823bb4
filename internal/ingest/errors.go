package ingest

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure. Each kind maps to one HTTP
// status at the boundary and to one failed step inside the pipeline.
type Kind string

const (
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindInvalidInput    Kind = "invalid_input"
	KindUpstreamFetch   Kind = "upstream_fetch_failed"
	KindTranscodeFailed Kind = "transcode_failed"
	KindPublishUpload   Kind = "publish_upload_failed"
	KindCatalogWrite    Kind = "catalog_write_failed"
)

// Error is the pipeline's failure type. ExitCode is only meaningful
// for KindTranscodeFailed; it is -1 when the subprocess never ran.
type Error struct {
	Kind     Kind
	Msg      string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the failure kind to the boundary status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// KindOf extracts the failure kind from an error chain, or "" when
// the error did not originate in the pipeline.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func errUnauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func errForbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func errInvalid(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Msg: msg}
}

func wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
