package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/domain/model/auth"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/errutil"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrInvalidCaseNumber):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrUnauthorized),
		errors.Is(err, auth.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrCaseNotFound),
		errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrAlreadyProvisioned):
		return http.StatusConflict
	case errors.Is(err, model.ErrCounterNotFound),
		errors.Is(err, usecase.ErrAssistantDisabled),
		errors.Is(err, usecase.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrAllocation):
		// retry budget exhausted under contention
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Warn("failed to write response", "error", err.Error())
	}
}

// decodeJSON reads a JSON body into v. Malformed bodies are input errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(usecase.ErrInvalidInput, "request body is empty")
		}
		return goerr.Wrap(usecase.ErrInvalidInput, "malformed JSON body", goerr.V("error", err.Error()))
	}
	return nil
}
