package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// apiError carries the response for a failed request step.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func (e *apiError) write(w http.ResponseWriter) {
	writeError(w, e.Status, e.Code, e.Message)
}

func badRequest(code, msg string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: msg}
}

func internalError(err error) *apiError {
	return &apiError{Status: http.StatusInternalServerError, Code: "internal", Message: err.Error()}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) *apiError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apiError{Status: http.StatusRequestEntityTooLarge, Code: "body_too_large", Message: "request body too large"}
		}
		return badRequest("invalid_body", "invalid request body")
	}
	return nil
}

func parseUUIDParam(raw, name string) (*uuid.UUID, *apiError) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, badRequest("invalid_"+name, "invalid "+name)
	}
	return &id, nil
}

var queryDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDateParam(raw, name string) (*time.Time, *apiError) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, badRequest("invalid_"+name, "invalid "+name+", expected YYYY-MM-DD")
}
