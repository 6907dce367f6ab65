package model

import "time"

type Subject struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"` // unique, e.g. MATHS
	Name      string    `json:"name"` // display name, e.g. Mathematics
	CreatedAt time.Time `json:"created_at"`
}
