package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BedService owns the bed catalog: creation, listing, counting, and the
// retire/reactivate lifecycle. Beds are soft-state: retirement flips Active,
// never deletes the row.
type BedService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewBedService(db *gorm.DB, log *zap.Logger) *BedService {
	return &BedService{DB: db, Log: log}
}

// BedFilter narrows bed queries; zero values mean "any".
type BedFilter struct {
	Category string
	WardID   *uint
}

func (f BedFilter) apply(q *gorm.DB) *gorm.DB {
	if code := NormalizeTypeCode(f.Category); code != "" {
		q = q.Where("category = ?", code)
	}
	if f.WardID != nil {
		q = q.Where("ward_id = ?", *f.WardID)
	}
	return q
}

// CategoryCount is one row of CountByCategory.
type CategoryCount struct {
	Category     string `json:"category"`
	ActiveCount  int64  `json:"active_count"`
	RetiredCount int64  `json:"retired_count"`
}

func (s *BedService) Create(code, category string, wardID *uint, note string) (*models.Bed, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: bed code is required", ErrValidation)
	}
	cat := NormalizeTypeCode(category)
	if cat == "" {
		return nil, fmt.Errorf("%w: bed category is required", ErrValidation)
	}

	bed := models.Bed{
		Code:     code,
		Category: cat,
		WardID:   wardID,
		Active:   true,
		Note:     strings.TrimSpace(note),
	}
	if err := s.DB.Create(&bed).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: bed code '%s' already exists", ErrValidation, code)
		}
		return nil, err
	}
	s.Log.Info("bed created", zap.String("code", bed.Code), zap.String("category", bed.Category))
	return &bed, nil
}

// ListActive returns the usable inventory, optionally narrowed by filter.
func (s *BedService) ListActive(f BedFilter) ([]models.Bed, error) {
	var beds []models.Bed
	q := f.apply(s.DB.Where("active = ?", true)).Preload("Ward").Order("code ASC")
	if err := q.Find(&beds).Error; err != nil {
		return nil, err
	}
	return beds, nil
}

// ListAvailable returns active beds with no open stay overlapping [from, to).
// A nil to means an open-ended window.
func (s *BedService) ListAvailable(from time.Time, to *time.Time, f BedFilter) ([]models.Bed, error) {
	if from.IsZero() {
		return nil, fmt.Errorf("%w: 'from' is required", ErrValidation)
	}
	if to != nil && !to.After(from) {
		return nil, fmt.Errorf("%w: 'to' must be after 'from'", ErrValidation)
	}

	// A stay [start_at, end_at-or-inf) intersects [from, to-or-inf) when it
	// has not ended before the window opens and does not start after it closes.
	busy := s.DB.Model(&models.BedStay{}).
		Select("bed_id").
		Where("status IN ?", models.OpenStayStatuses).
		Where("end_at IS NULL OR end_at > ?", from)
	if to != nil {
		busy = busy.Where("start_at < ?", *to)
	}

	var beds []models.Bed
	q := f.apply(s.DB.Where("active = ?", true)).
		Where("id NOT IN (?)", busy).
		Preload("Ward").
		Order("code ASC")
	if err := q.Find(&beds).Error; err != nil {
		return nil, err
	}
	return beds, nil
}

// CountByCategory reports active and retired bed counts per category, for the
// summary view and for reconciliation.
func (s *BedService) CountByCategory() ([]CategoryCount, error) {
	var counts []CategoryCount
	err := s.DB.Model(&models.Bed{}).
		Select("category, " +
			"SUM(CASE WHEN active THEN 1 ELSE 0 END) AS active_count, " +
			"SUM(CASE WHEN active THEN 0 ELSE 1 END) AS retired_count").
		Group("category").
		Order("category ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Retire flags a bed out of the usable inventory. Refused while the bed has
// an open stay; an occupancy record must never be orphaned.
func (s *BedService) Retire(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var bed models.Bed
		if err := lockForUpdate(tx).First(&bed, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: bed %d", ErrNotFound, id)
			}
			return err
		}

		var open int64
		if err := tx.Model(&models.BedStay{}).
			Where("bed_id = ? AND status IN ?", bed.ID, models.OpenStayStatuses).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: bed '%s' has an open stay", ErrConflict, bed.Code)
		}

		return tx.Model(&bed).Update("active", false).Error
	})
}

// Reactivate puts a retired bed back into the inventory.
func (s *BedService) Reactivate(id uint) error {
	res := s.DB.Model(&models.Bed{}).Where("id = ?", id).Update("active", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: bed %d", ErrNotFound, id)
	}
	return nil
}

// Update applies a partial admin edit (note, ward move). Identity and
// lifecycle fields are stripped; retire/reactivate have their own entry points.
func (s *BedService) Update(id uint, fields map[string]interface{}) (*models.Bed, error) {
	for _, k := range []string{"id", "code", "category", "active", "created_at", "updated_at", "deleted_at"} {
		delete(fields, k)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields in payload", ErrValidation)
	}

	res := s.DB.Model(&models.Bed{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: bed %d", ErrNotFound, id)
	}

	var bed models.Bed
	if err := s.DB.Preload("Ward").First(&bed, id).Error; err != nil {
		return nil, err
	}
	return &bed, nil
}
