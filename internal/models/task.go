package models

import "slices"

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Tag string

const (
	TagWork     Tag = "Work"
	TagStudy    Tag = "Study"
	TagPersonal Tag = "Personal"
	TagHealth   Tag = "Health"
	TagShopping Tag = "Shopping"
	TagOther    Tag = "Other"
)

// Tags is the fixed tag vocabulary in display order.
var Tags = []Tag{TagWork, TagStudy, TagPersonal, TagHealth, TagShopping, TagOther}

func (t Tag) Valid() bool {
	return slices.Contains(Tags, t)
}

// Task is a single checklist entry. Status false means pending.
type Task struct {
	ID          int64    `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Status      bool     `json:"status" yaml:"status"`
	Tags        []Tag    `json:"tags" yaml:"tags"`
	Date        string   `json:"date" yaml:"date"`
}

func (t *Task) HasTag(tag Tag) bool {
	return slices.Contains(t.Tags, tag)
}

func (t Task) Clone() Task {
	t.Tags = slices.Clone(t.Tags)
	if t.Tags == nil {
		t.Tags = []Tag{}
	}
	return t
}

type Stats struct {
	CompletedCount  int     `json:"completedCount"`
	TotalCount      int     `json:"totalCount"`
	ProgressPercent float64 `json:"progressPercent"`
}
