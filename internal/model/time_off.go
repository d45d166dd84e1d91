package model

import "time"

// TimeOff период, когда владелец недоступен (отпуск, больничный)
type TimeOff struct {
	ID        int64        `json:"id"`
	OwnerID   int64        `json:"owner_id"`
	Interval  TimeInterval `json:"interval"`
	Reason    string       `json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
}
