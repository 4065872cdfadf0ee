package services

import (
	"fmt"
	"strings"

	"hospital-backend/models"

	"gorm.io/gorm"
)

// WardService is a thin persistence wrapper for the ward grouping resource.
type WardService struct {
	DB *gorm.DB
}

func NewWardService(db *gorm.DB) *WardService {
	return &WardService{DB: db}
}

func (s *WardService) GetAll() ([]models.Ward, error) {
	var wards []models.Ward
	err := s.DB.Order("name ASC").Find(&wards).Error
	return wards, err
}

func (s *WardService) Create(name, note string) (*models.Ward, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: ward name is required", ErrValidation)
	}
	ward := models.Ward{Name: name, Note: strings.TrimSpace(note)}
	if err := s.DB.Create(&ward).Error; err != nil {
		return nil, err
	}
	return &ward, nil
}
