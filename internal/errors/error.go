package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionInvalid   = errors.New("session is invalid")
	ErrEmptyToken       = errors.New("missing auth token")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
