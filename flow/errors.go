package flow

import (
	"net/http"

	"github.com/goliatone/go-authflow/core"
	goerrors "github.com/goliatone/go-errors"
)

func flowError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func flowBadInput(message string, metadata map[string]any) error {
	return flowError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.FlowErrorBadInput,
		metadata,
	)
}

func flowInternal(message string, metadata map[string]any) error {
	return flowError(
		message,
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		core.FlowErrorInternal,
		metadata,
	)
}
