package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReconcileLog is an audit row written once per successful reconciliation.
// Details carries the result payload (created/retired/skipped plus any minted
// bed codes) as JSON.
type ReconcileLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Category string         `json:"category" gorm:"column:category;size:20;index"`
	Target   int            `json:"target" gorm:"column:target"`
	WardID   *uint          `json:"ward_id,omitempty" gorm:"column:ward_id"`
	Details  datatypes.JSON `json:"details" gorm:"column:details"`

	CreatedAt time.Time `json:"created_at"`
}
