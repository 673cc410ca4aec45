package models

import "time"

type Notification struct {
	ID        int64     `json:"id" db:"id"`
	MemberID  string    `json:"member_id" db:"member_id"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
