package models

import "time"

// Ward is an optional grouping for beds (a floor, a wing). Beds reference it
// by id; nothing else hangs off it.
type Ward struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `json:"name" gorm:"size:100"`
	Note string `json:"note,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
