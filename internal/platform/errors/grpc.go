package errors

import (
	"context"
	stderrors "errors"

	"github.com/louisbranch/spinvault/internal/platform/errors/i18n"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultLocale is the locale used when a caller sends none.
const DefaultLocale = i18n.BaseLocale

// HandleError converts err into a gRPC status for a client response. Domain
// errors carry their code, metadata, and a message rendered from the locale's
// catalog; anything else becomes a generic Internal status.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if stderrors.As(err, &appErr) && appErr.Code != CodeUnknown {
		catalog := i18n.GetCatalog(locale)
		return appErr.ToGRPCStatus(catalog.Locale(), catalog.Format(string(appErr.Code), appErr.Metadata))
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request deadline exceeded")
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}
