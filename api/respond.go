package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Reaishma/Healthcare-informatics-solution/storage"
	"github.com/Reaishma/Healthcare-informatics-solution/validation"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

var success = map[string]bool{"success": true}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into v. Malformed bodies become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.Fail("body", "required", "request body is empty")
		}
		return validation.Fail("body", "json", err.Error())
	}
	return nil
}

// pathID parses a positive numeric URL parameter.
func pathID(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, validation.Fail(name, "id", "must be a positive integer")
	}
	return id, nil
}

// queryID parses an optional numeric query parameter; absent means nil.
func queryID(r *http.Request, name string) (*uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, validation.Fail(name, "id", "must be a non-negative integer")
	}
	return &id, nil
}

// fail maps err onto a status code. what names the resource ("workflow") and
// action the operation ("update workflow") for the message.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error, what, action string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid " + what + " data", Errors: verr.Fields})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: capitalize(what) + " not found"})
	default:
		h.logger.Error("request failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("action", action),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Failed to " + action})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
