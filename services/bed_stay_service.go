package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EndReasonTransfer marks the closing half of a transfer.
const EndReasonTransfer = "transfer"

// BedStayService is the occupancy ledger. Every mutation runs inside one
// transaction; occupy and transfer take a FOR UPDATE lock on the bed row
// before the overlap check, so two racing admissions for the same bed resolve
// to exactly one success and one conflict.
type BedStayService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewBedStayService(db *gorm.DB, log *zap.Logger) *BedStayService {
	return &BedStayService{DB: db, Log: log}
}

// OccupyInput carries the fields of a new admission.
type OccupyInput struct {
	BedID               uint
	PatientsID          string
	StartAt             time.Time
	Note                string
	SourceAppointmentID *uint
	By                  string
}

// Occupy opens a new stay on a bed. Fails with ErrConflict when the bed
// already has an open or overlapping stay.
func (s *BedStayService) Occupy(in OccupyInput) (*models.BedStay, error) {
	if in.BedID == 0 {
		return nil, fmt.Errorf("%w: bed_id is required", ErrValidation)
	}
	in.PatientsID = strings.TrimSpace(in.PatientsID)
	if in.PatientsID == "" {
		return nil, fmt.Errorf("%w: patients_id is required", ErrValidation)
	}
	if in.StartAt.IsZero() {
		return nil, fmt.Errorf("%w: start_at is required", ErrValidation)
	}

	var stay models.BedStay
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		bed, err := lockBed(tx, in.BedID)
		if err != nil {
			return err
		}
		if !bed.Active {
			return fmt.Errorf("%w: bed '%s' is retired", ErrValidation, bed.Code)
		}

		if err := checkNoOverlap(tx, bed, in.StartAt); err != nil {
			return err
		}

		stay = models.BedStay{
			ReferenceCode:       uuid.NewString(),
			BedID:               bed.ID,
			PatientsID:          in.PatientsID,
			StartAt:             in.StartAt,
			Status:              models.StayStatusOccupied,
			Note:                strings.TrimSpace(in.Note),
			SourceAppointmentID: in.SourceAppointmentID,
			By:                  strings.TrimSpace(in.By),
		}
		return tx.Create(&stay).Error
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("stay opened",
		zap.Uint("stay_id", stay.ID),
		zap.Uint("bed_id", stay.BedID),
		zap.String("patients_id", stay.PatientsID))
	if err := s.DB.Preload("Bed").First(&stay, stay.ID).Error; err != nil {
		return nil, err
	}
	return &stay, nil
}

// End closes an open stay at the given time. An id that does not denote an
// open stay (unknown, completed, cancelled) yields ErrNotFound, so repeated
// calls are harmless.
func (s *BedStayService) End(id uint, at time.Time, reason string) (*models.BedStay, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var stay models.BedStay
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := findOpenStay(tx, id, &stay); err != nil {
			return err
		}
		return closeStay(tx, &stay, at, models.StayStatusCompleted, strings.TrimSpace(reason))
	})
	if err != nil {
		return nil, err
	}
	return &stay, nil
}

// Cancel marks an open stay cancelled without recording an end time; the stay
// never meaningfully occupied the bed.
func (s *BedStayService) Cancel(id uint) (*models.BedStay, error) {
	var stay models.BedStay
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := findOpenStay(tx, id, &stay); err != nil {
			return err
		}
		stay.Status = models.StayStatusCancelled
		return tx.Model(&stay).Update("status", models.StayStatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	return &stay, nil
}

// TransferInput carries the fields of a bed-to-bed move.
type TransferInput struct {
	ToBedID uint
	At      time.Time
	Note    string
	By      string
}

// Transfer ends the stay on its current bed and opens a new one on the target
// bed, both inside a single transaction. A conflict on the target rolls the
// whole thing back; the original stay stays open.
func (s *BedStayService) Transfer(stayID uint, in TransferInput) (*models.BedStay, error) {
	if in.ToBedID == 0 {
		return nil, fmt.Errorf("%w: to_bed_id is required", ErrValidation)
	}
	if in.At.IsZero() {
		in.At = time.Now().UTC()
	}

	var next models.BedStay
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var stay models.BedStay
		if err := findOpenStay(tx, stayID, &stay); err != nil {
			return err
		}
		if stay.BedID == in.ToBedID {
			return fmt.Errorf("%w: stay is already on bed %d", ErrValidation, in.ToBedID)
		}

		// Lock both bed rows in id order so two crossing transfers cannot
		// deadlock.
		target, err := lockBedPair(tx, stay.BedID, in.ToBedID)
		if err != nil {
			return err
		}
		if !target.Active {
			return fmt.Errorf("%w: bed '%s' is retired", ErrValidation, target.Code)
		}

		if err := checkNoOverlap(tx, target, in.At); err != nil {
			return err
		}

		if err := closeStay(tx, &stay, in.At, models.StayStatusCompleted, EndReasonTransfer); err != nil {
			return err
		}

		next = models.BedStay{
			ReferenceCode:       uuid.NewString(),
			BedID:               target.ID,
			PatientsID:          stay.PatientsID,
			StartAt:             in.At,
			Status:              models.StayStatusOccupied,
			Note:                strings.TrimSpace(in.Note),
			SourceAppointmentID: stay.SourceAppointmentID,
			By:                  strings.TrimSpace(in.By),
		}
		return tx.Create(&next).Error
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("stay transferred",
		zap.Uint("stay_id", stayID),
		zap.Uint("to_bed_id", in.ToBedID))
	if err := s.DB.Preload("Bed").First(&next, next.ID).Error; err != nil {
		return nil, err
	}
	return &next, nil
}

// ForceEndActiveForPatient closes every open stay of a patient, in any bed.
// Called by the patient-lifecycle collaborator on discharge or death. Zero
// open stays is a no-op, not an error.
func (s *BedStayService) ForceEndActiveForPatient(patientsID string, at time.Time, reason string) (int64, error) {
	patientsID = strings.TrimSpace(patientsID)
	if patientsID == "" {
		return 0, fmt.Errorf("%w: patients_id is required", ErrValidation)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var closed int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BedStay{}).
			Where("patients_id = ? AND status IN ?", patientsID, models.OpenStayStatuses).
			Updates(map[string]interface{}{
				"status":     models.StayStatusCompleted,
				"end_at":     at,
				"end_reason": strings.TrimSpace(reason),
			})
		closed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		s.Log.Info("force-ended open stays",
			zap.String("patients_id", patientsID),
			zap.Int64("count", closed))
	}
	return closed, nil
}

// HistoryByPatient returns every stay of a patient, any status, newest first.
func (s *BedStayService) HistoryByPatient(patientsID string) ([]models.BedStay, error) {
	patientsID = strings.TrimSpace(patientsID)
	if patientsID == "" {
		return nil, fmt.Errorf("%w: patients_id is required", ErrValidation)
	}
	var stays []models.BedStay
	err := s.DB.Preload("Bed").
		Where("patients_id = ?", patientsID).
		Order("start_at DESC, id DESC").
		Find(&stays).Error
	if err != nil {
		return nil, err
	}
	return stays, nil
}

// CurrentOccupancy returns every open stay with its bed, for the live board.
func (s *BedStayService) CurrentOccupancy() ([]models.BedStay, error) {
	var stays []models.BedStay
	err := s.DB.Preload("Bed").Preload("Bed.Ward").
		Where("status IN ?", models.OpenStayStatuses).
		Order("start_at DESC, id DESC").
		Find(&stays).Error
	if err != nil {
		return nil, err
	}
	return stays, nil
}

// lockBed loads a bed under FOR UPDATE inside tx.
func lockBed(tx *gorm.DB, id uint) (*models.Bed, error) {
	var bed models.Bed
	if err := lockForUpdate(tx).First(&bed, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bed %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &bed, nil
}

// lockBedPair locks two bed rows in ascending id order and returns the target.
func lockBedPair(tx *gorm.DB, sourceID, targetID uint) (*models.Bed, error) {
	first, second := sourceID, targetID
	if second < first {
		first, second = second, first
	}
	var target *models.Bed
	for _, id := range []uint{first, second} {
		bed, err := lockBed(tx, id)
		if err != nil {
			return nil, err
		}
		if bed.ID == targetID {
			target = bed
		}
	}
	return target, nil
}

// checkNoOverlap rejects a new open-ended stay starting at startAt when the
// bed already has an open or overlapping one. Must run after the bed row is
// locked so the check and the insert cannot interleave with another writer.
func checkNoOverlap(tx *gorm.DB, bed *models.Bed, startAt time.Time) error {
	var overlapping int64
	err := tx.Model(&models.BedStay{}).
		Where("bed_id = ? AND status IN ?", bed.ID, models.OpenStayStatuses).
		Where("end_at IS NULL OR end_at > ?", startAt).
		Count(&overlapping).Error
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return fmt.Errorf("%w: bed '%s' already occupied in that timeframe", ErrConflict, bed.Code)
	}
	return nil
}

// findOpenStay loads a stay that is still open, locking it for update.
func findOpenStay(tx *gorm.DB, id uint, stay *models.BedStay) error {
	err := lockForUpdate(tx).
		Where("id = ? AND status IN ?", id, models.OpenStayStatuses).
		First(stay).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: stay %d is not open", ErrNotFound, id)
	}
	return err
}

// closeStay finalizes a stay in place and persists the change.
func closeStay(tx *gorm.DB, stay *models.BedStay, at time.Time, status, reason string) error {
	stay.EndAt = &at
	stay.Status = status
	stay.EndReason = reason
	return tx.Model(stay).Updates(map[string]interface{}{
		"end_at":     at,
		"status":     status,
		"end_reason": reason,
	}).Error
}
