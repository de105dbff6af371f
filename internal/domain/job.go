package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Job is the canonical persisted job posting.
// Tags are kept in their stored, comma-joined form; use SplitTags for the list view.
type Job struct {
	ID          int64
	Title       string
	Company     string
	Location    string
	Salary      string
	Description string
	JobType     string
	Tags        string
	PostingDate time.Time
}

// RawJob is one record of a scraped batch, exactly as posted to the bulk endpoint.
type RawJob struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    TextList `json:"location"`
	Salary      string   `json:"salary"`
	Description string   `json:"description"`
	JobType     *string  `json:"job_type"`
	Tags        TextList `json:"tags"`
	PostingDate string   `json:"posting_date"`
}

// TextList accepts either a JSON string or a JSON list of strings.
// Lists are joined with JoinTags; null decodes to "".
type TextList string

func (t *TextList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = TextList(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*t = TextList(JoinTags(parts))
	return nil
}

// Optional records whether a JSON field was present, and its value (nil for null).
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// JobPatch is a partial update; only Set fields are written.
type JobPatch struct {
	Title       Optional[string]
	Company     Optional[string]
	Location    Optional[string]
	Salary      Optional[string]
	Description Optional[string]
	JobType     Optional[string]
	Tags        Optional[string]
}

// Empty reports whether the patch touches no field.
func (p JobPatch) Empty() bool {
	return !p.Title.Set && !p.Company.Set && !p.Location.Set && !p.Salary.Set &&
		!p.Description.Set && !p.JobType.Set && !p.Tags.Set
}

type SortOrder string

const (
	SortNewestFirst SortOrder = "posting_date_desc"
	SortOldestFirst SortOrder = "posting_date_asc"
)

// ParseSortOrder maps the sort query value; anything unknown means newest first.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortOldestFirst {
		return SortOldestFirst
	}
	return SortNewestFirst
}

// JobFilter narrows a listing. Empty fields mean "no filter".
type JobFilter struct {
	JobType  string // exact match
	Location string // case-insensitive substring
	Tag      string // case-insensitive substring
	Sort     SortOrder
}

// Defaults and limits shared by the ingest and CRUD paths.
const (
	DefaultJobType    = "Full-time"
	NotAvailable      = "N/A"
	PostingDateLayout = "2006-01-02 15:04:05"
)
