package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-backend/models"

	"gorm.io/gorm"
)

// BedTypeService owns the per-category display metadata (name, code prefix,
// color, sort order). Rows are upserted by code; removing one never touches
// beds already carrying the category.
type BedTypeService struct {
	DB *gorm.DB
}

func NewBedTypeService(db *gorm.DB) *BedTypeService {
	return &BedTypeService{DB: db}
}

// NormalizeTypeCode uppercases a category or prefix code and strips anything
// outside [A-Z0-9_-], so "ltc" and "LTC" denote the same category.
func NormalizeTypeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	var b strings.Builder
	for _, r := range code {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GetTypes returns all category metadata in display order plus the time of
// the most recent change. An empty catalog is an empty list, not an error.
func (s *BedTypeService) GetTypes() ([]models.BedTypeSetting, time.Time, error) {
	types := make([]models.BedTypeSetting, 0)
	err := s.DB.Order("sort_order ASC, code ASC").Find(&types).Error
	if err != nil {
		return nil, time.Time{}, err
	}
	var updatedAt time.Time
	for _, t := range types {
		if t.UpdatedAt.After(updatedAt) {
			updatedAt = t.UpdatedAt
		}
	}
	return types, updatedAt, nil
}

// GetByCode looks one category up by normalized code.
func (s *BedTypeService) GetByCode(code string) (*models.BedTypeSetting, error) {
	norm := NormalizeTypeCode(code)
	if norm == "" {
		return nil, fmt.Errorf("%w: type code is required", ErrValidation)
	}
	var setting models.BedTypeSetting
	if err := s.DB.Where("code = ?", norm).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bed type '%s'", ErrNotFound, norm)
		}
		return nil, err
	}
	return &setting, nil
}

// Upsert creates or updates the metadata row for a category. Codes collide on
// their normalized form, so two administrators entering "ltc" and "LTC" edit
// the same row.
func (s *BedTypeService) Upsert(code, name, codePrefix, color string, sortOrder *int) (*models.BedTypeSetting, error) {
	norm := NormalizeTypeCode(code)
	if norm == "" {
		return nil, fmt.Errorf("%w: type code is required", ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: type name is required", ErrValidation)
	}
	prefix := NormalizeTypeCode(codePrefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: code prefix is required", ErrValidation)
	}

	var setting models.BedTypeSetting
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("code = ?", norm).First(&setting).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			setting = models.BedTypeSetting{
				Code:       norm,
				Name:       name,
				CodePrefix: prefix,
				Color:      strings.TrimSpace(color),
			}
			if sortOrder != nil {
				setting.SortOrder = *sortOrder
			}
			return tx.Create(&setting).Error
		}
		if err != nil {
			return err
		}

		setting.Name = name
		setting.CodePrefix = prefix
		setting.Color = strings.TrimSpace(color)
		if sortOrder != nil {
			setting.SortOrder = *sortOrder
		}
		return tx.Save(&setting).Error
	})
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Remove deletes the metadata for a category. Beds carrying the code are left
// alone; the summary falls back to the bare code.
func (s *BedTypeService) Remove(code string) error {
	norm := NormalizeTypeCode(code)
	if norm == "" {
		return fmt.Errorf("%w: type code is required", ErrValidation)
	}
	res := s.DB.Where("code = ?", norm).Delete(&models.BedTypeSetting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: bed type '%s'", ErrNotFound, norm)
	}
	return nil
}
