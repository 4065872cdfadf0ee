package models

import (
	"time"
)

// BedTypeSetting holds display metadata for one care category. One row per
// code, upserted by administrators. Deleting a row never touches beds already
// carrying the category code. Rows are metadata with no history worth keeping,
// so removal is a hard delete; the unique code index must not stay pinned by
// a soft-deleted row.
type BedTypeSetting struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Code       string `json:"code" gorm:"column:code;uniqueIndex;type:varchar(20)"`
	Name       string `json:"name" gorm:"column:name;size:100"`
	CodePrefix string `json:"code_prefix" gorm:"column:code_prefix;size:20"`
	Color      string `json:"color,omitempty" gorm:"column:color;size:20"`
	SortOrder  int    `json:"sort_order" gorm:"column:sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
