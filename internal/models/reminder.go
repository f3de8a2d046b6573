package models

import "time"

type Reminder struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	RemindAt  string    `json:"remindAt"`
	Triggered bool      `json:"triggered"`
	CreatedAt time.Time `json:"createdAt"`
}
