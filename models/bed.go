package models

import (
	"time"

	"gorm.io/gorm"
)

// Bed is a named capacity slot. Retired beds keep their row (and their stay
// history) forever; Active is the only thing that changes.
type Bed struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Code     string `json:"code" gorm:"column:code;uniqueIndex;type:varchar(50)"`
	Category string `json:"category" gorm:"column:category;index;type:varchar(20)"`
	WardID   *uint  `json:"ward_id,omitempty" gorm:"column:ward_id;index"`
	Active   bool   `json:"active" gorm:"column:active;index"`
	Note     string `json:"note" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Ward *Ward `gorm:"foreignKey:WardID" json:"ward,omitempty"`
}
