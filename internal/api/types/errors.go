package types

import (
	"errors"

	appErr "github.com/av-estimator/engine/pkg/errors"
)

// FromAppError converts err into the wire error. Errors without an AppError
// in their chain are reported as internal without leaking their text.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		out := &APIError{Code: string(e.Code), Message: e.Message}
		if e.Code == appErr.CodeInternal || e.Code == appErr.CodeUnknown {
			return out
		}
		if e.Err != nil {
			out.Details = e.Err.Error()
		}
		return out
	}
	return &APIError{Code: string(appErr.CodeInternal), Message: "internal error"}
}
