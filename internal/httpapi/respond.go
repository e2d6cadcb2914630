package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/p-n-ai/pai-quiz/internal/bonus"
	"github.com/p-n-ai/pai-quiz/internal/validate"
)

const (
	msgInvalidData = "Invalid data"
	msgInternal    = "Internal server error"
	maxJSONBody    = 1 << 20
)

type errorBody struct {
	Message string                `json:"message"`
	Errors  []validate.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

// fail maps err to a status code and a client-safe body. Unexpected errors
// are logged and replaced by a generic message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.Error
	var gerr *bonus.GenerationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: msgInvalidData, Errors: verr.Fields})
	case errors.Is(err, bonus.ErrBudgetExhausted):
		writeMessage(w, http.StatusTooManyRequests, "Daily bonus question limit reached. Please try again tomorrow.")
	case errors.As(err, &gerr):
		slog.Error("bonus generation failed",
			"request_id", middleware.GetReqID(r.Context()),
			"reason", gerr.Reason,
			"error", gerr.Unwrap(),
		)
		writeMessage(w, http.StatusInternalServerError, gerr.Reason)
	default:
		slog.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// pathParam returns the trimmed URL parameter, or writes a 400 and returns
// false when it is blank.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message: msgInvalidData,
			Errors:  []validate.FieldError{{Field: name, Message: "must not be blank"}},
		})
		return "", false
	}
	return v, true
}

// readBody reads a JSON request body, capped at maxJSONBody.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		writeMessage(w, http.StatusBadRequest, "Could not read request body")
		return nil, false
	}
	return raw, true
}
