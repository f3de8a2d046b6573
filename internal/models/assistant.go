package models

import "time"

// AssistantSnapshot is the last known state of the local AI assistant.
type AssistantSnapshot struct {
	IsAvailable    bool       `json:"isAvailable"`
	IsInstalled    bool       `json:"isInstalled"`
	PreferredModel string     `json:"preferredModel"`
	Models         []string   `json:"models"`
	IsChecking     bool       `json:"isChecking"`
	CheckedAt      *time.Time `json:"checkedAt,omitempty"`
	Error          string     `json:"error,omitempty"`
}
