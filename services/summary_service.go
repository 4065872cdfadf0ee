package services

import (
	"sort"

	"hospital-backend/models"

	"gorm.io/gorm"
)

// SummaryService is the read-only dashboard aggregation: per-category bed
// counts joined with catalog metadata.
type SummaryService struct {
	DB *gorm.DB
}

func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{DB: db}
}

// SummaryType is the display half of a summary row. Categories without a
// catalog entry fall back to the bare code.
type SummaryType struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Prefix    string `json:"prefix"`
	Color     string `json:"color,omitempty"`
	SortOrder int    `json:"sort_order"`
}

// SummaryCounts is the numeric half of a summary row.
type SummaryCounts struct {
	Active  int64 `json:"active"`
	Busy    int64 `json:"busy"`
	Free    int64 `json:"free"`
	Retired int64 `json:"retired"`
}

// SummaryRow is one category on the dashboard.
type SummaryRow struct {
	Type   SummaryType   `json:"type"`
	Counts SummaryCounts `json:"counts"`
}

type busyCount struct {
	Category string
	Busy     int64
}

// GetSummary merges bed counts, open-stay counts and catalog metadata into
// one row per category, sorted by sort order then code. Free never goes
// negative, even when the counts are transiently inconsistent.
func (s *SummaryService) GetSummary() ([]SummaryRow, error) {
	var bedCounts []CategoryCount
	err := s.DB.Model(&models.Bed{}).
		Select("category, " +
			"SUM(CASE WHEN active THEN 1 ELSE 0 END) AS active_count, " +
			"SUM(CASE WHEN active THEN 0 ELSE 1 END) AS retired_count").
		Group("category").
		Scan(&bedCounts).Error
	if err != nil {
		return nil, err
	}

	var busy []busyCount
	err = s.DB.Model(&models.BedStay{}).
		Select("beds.category AS category, COUNT(*) AS busy").
		Joins("JOIN beds ON beds.id = bed_stays.bed_id").
		Where("bed_stays.status IN ?", models.OpenStayStatuses).
		Group("beds.category").
		Scan(&busy).Error
	if err != nil {
		return nil, err
	}

	var types []models.BedTypeSetting
	if err := s.DB.Find(&types).Error; err != nil {
		return nil, err
	}

	rows := map[string]*SummaryRow{}
	rowFor := func(code string) *SummaryRow {
		if row, ok := rows[code]; ok {
			return row
		}
		row := &SummaryRow{Type: SummaryType{Code: code, Name: code, Prefix: code}}
		rows[code] = row
		return row
	}

	for _, t := range types {
		row := rowFor(t.Code)
		row.Type.Name = t.Name
		row.Type.Prefix = t.CodePrefix
		row.Type.Color = t.Color
		row.Type.SortOrder = t.SortOrder
	}
	for _, c := range bedCounts {
		row := rowFor(c.Category)
		row.Counts.Active = c.ActiveCount
		row.Counts.Retired = c.RetiredCount
	}
	for _, b := range busy {
		rowFor(b.Category).Counts.Busy = b.Busy
	}

	out := make([]SummaryRow, 0, len(rows))
	for _, row := range rows {
		free := row.Counts.Active - row.Counts.Busy
		if free < 0 {
			free = 0
		}
		row.Counts.Free = free
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type.SortOrder != out[j].Type.SortOrder {
			return out[i].Type.SortOrder < out[j].Type.SortOrder
		}
		return out[i].Type.Code < out[j].Type.Code
	})
	return out, nil
}
