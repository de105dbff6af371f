package domain

import (
	"fmt"
	"strings"
)

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// ValidateNewJob checks the fields a single-record create requires.
// Bulk ingestion deliberately skips this; the storage constraints are its only guard.
func ValidateNewJob(j *Job) []FieldError {
	var errs []FieldError
	required := []struct {
		name  string
		value string
	}{
		{"title", j.Title},
		{"company", j.Company},
		{"location", j.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, FieldError{f.name, "required"})
		}
	}
	return errs
}

// MissingFieldsMessage renders the user-facing message for a failed create.
func MissingFieldsMessage(errs []FieldError) string {
	names := make([]string, 0, len(errs))
	for _, fe := range errs {
		names = append(names, fe.Field)
	}
	return "Missing required fields: " + strings.Join(names, ", ")
}
