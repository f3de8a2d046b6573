package models

// Draft is the unpersisted form state used to compose or edit a task.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Tags        []Tag    `json:"tags"`
	EditingID   *int64   `json:"editingId,omitempty"`
}
