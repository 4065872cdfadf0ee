package models

import (
	"time"
)

// Stay statuses. Reserved and occupied both count as "open" for conflict and
// busy-count purposes; only the occupy endpoint's initial status differs.
const (
	StayStatusReserved  = "reserved"
	StayStatusOccupied  = "occupied"
	StayStatusCompleted = "completed"
	StayStatusCancelled = "cancelled"
)

// OpenStayStatuses are the statuses that make a bed busy.
var OpenStayStatuses = []string{StayStatusReserved, StayStatusOccupied}

// BedStay links a patient to a bed for a time range. EndAt stays nil while the
// stay is open; cancelled stays never get an EndAt (they were never occupied
// in a meaningful sense).
type BedStay struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ReferenceCode string `json:"reference_code" gorm:"column:reference_code;size:64;index"`

	BedID      uint   `json:"bed_id" gorm:"column:bed_id;index"`
	PatientsID string `json:"patients_id" gorm:"column:patients_id;size:64;index"`

	StartAt time.Time  `json:"start_at" gorm:"column:start_at"`
	EndAt   *time.Time `json:"end_at,omitempty" gorm:"column:end_at"`
	Status  string     `json:"status" gorm:"column:status;size:32;index"`

	EndReason           string `json:"end_reason,omitempty" gorm:"column:end_reason;size:64"`
	Note                string `json:"note,omitempty" gorm:"type:text"`
	SourceAppointmentID *uint  `json:"source_appointment_id,omitempty" gorm:"column:source_appointment_id"`
	By                  string `json:"by,omitempty" gorm:"column:by;size:64"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Bed Bed `gorm:"foreignKey:BedID;references:ID" json:"bed,omitempty"`
}

// IsOpen reports whether the stay still holds its bed.
func (s *BedStay) IsOpen() bool {
	return s.Status == StayStatusReserved || s.Status == StayStatusOccupied
}
