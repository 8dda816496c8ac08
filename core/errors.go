package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	FlowErrorUnknownConsumer   = "AUTHFLOW_UNKNOWN_CONSUMER"
	FlowErrorDuplicateConsumer = "AUTHFLOW_DUPLICATE_CONSUMER"
	FlowErrorTokenNotFound     = "AUTHFLOW_TOKEN_NOT_FOUND"
	FlowErrorWrongState        = "AUTHFLOW_WRONG_STATE"
	FlowErrorTokenExpired      = "AUTHFLOW_TOKEN_EXPIRED"
	FlowErrorCodeMismatch      = "AUTHFLOW_CODE_MISMATCH"
	FlowErrorBadCredentials    = "AUTHFLOW_BAD_CREDENTIALS"
	FlowErrorStoreUnavailable  = "AUTHFLOW_STORE_UNAVAILABLE"
	FlowErrorBadInput          = "AUTHFLOW_BAD_INPUT"
	FlowErrorInternal          = "AUTHFLOW_INTERNAL_ERROR"
)

func flowErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureFlowErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrConsumerNotFound):
		return newFlowError(err.Error(), goerrors.CategoryNotFound, FlowErrorUnknownConsumer)
	case errors.Is(err, ErrDuplicateConsumer):
		return newFlowError(err.Error(), goerrors.CategoryConflict, FlowErrorDuplicateConsumer)
	case errors.Is(err, ErrTokenNotFound):
		return newFlowError(err.Error(), goerrors.CategoryNotFound, FlowErrorTokenNotFound)
	case errors.Is(err, ErrTokenExpired):
		return newFlowError(err.Error(), goerrors.CategoryAuth, FlowErrorTokenExpired)
	case errors.Is(err, ErrVerificationCodeMismatch):
		return newFlowError(err.Error(), goerrors.CategoryAuth, FlowErrorCodeMismatch)
	case errors.Is(err, ErrBadCredentials):
		return newFlowError(err.Error(), goerrors.CategoryAuth, FlowErrorBadCredentials)
	case errors.Is(err, ErrWrongTokenState),
		errors.Is(err, ErrInvalidTokenStateTransition),
		errors.Is(err, ErrTokenVersionConflict),
		errors.Is(err, ErrDuplicateTokenValue):
		return newFlowError(err.Error(), goerrors.CategoryConflict, FlowErrorWrongState)
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return newFlowError(err.Error(), goerrors.CategoryExternal, FlowErrorStoreUnavailable)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
		return newFlowError(err.Error(), goerrors.CategoryBadInput, FlowErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureFlowErrorEnvelope(mapped)
}

func newFlowError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureFlowErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureFlowErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = flowHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultFlowTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultFlowTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return FlowErrorBadInput
	case goerrors.CategoryNotFound:
		return FlowErrorTokenNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return FlowErrorBadCredentials
	case goerrors.CategoryConflict:
		return FlowErrorWrongState
	case goerrors.CategoryExternal:
		return FlowErrorStoreUnavailable
	default:
		return FlowErrorInternal
	}
}

func flowHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
