package transporthttp

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "example.com/actuaryjobs/internal/errors"
)

type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title,omitempty"`
	Status   int                 `json:"status,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Meta     map[string]any      `json:"meta,omitempty"`
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string, errs map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Title:  title,
		Status: status,
		Detail: detail,
		Errors: errs,
	})
}

// WriteError maps a domain error to its problem response. Untyped errors are 500s.
func WriteError(w http.ResponseWriter, err error) {
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		WriteProblem(w, http.StatusInternalServerError, "internal error", err.Error(), nil)
		return
	}
	switch de.Type {
	case apperrors.ErrTypeValidation:
		WriteProblem(w, http.StatusBadRequest, "validation failed", de.Message, de.Fields)
	case apperrors.ErrTypeMalformedBatch:
		WriteProblem(w, http.StatusBadRequest, "malformed batch", de.Message, nil)
	case apperrors.ErrTypeNotFound:
		WriteProblem(w, http.StatusNotFound, "not found", de.Message, nil)
	default:
		WriteProblem(w, http.StatusInternalServerError, "database error", de.Error(), nil)
	}
}
