package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTypeCode(t *testing.T) {
	assert.Equal(t, "LTC", NormalizeTypeCode("ltc"))
	assert.Equal(t, "LTC", NormalizeTypeCode("  LTC  "))
	assert.Equal(t, "LTC-2", NormalizeTypeCode("ltc 2"))
	assert.Equal(t, "ICU_A", NormalizeTypeCode("icu_a"))
	assert.Equal(t, "", NormalizeTypeCode("  !!  "))
}

func TestGetTypes_EmptyCatalogIsEmptyList(t *testing.T) {
	db := newTestDB(t)
	svc := NewBedTypeService(db)

	types, updatedAt, err := svc.GetTypes()
	require.NoError(t, err)
	assert.Empty(t, types)
	assert.True(t, updatedAt.IsZero())
}

func TestUpsert_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewBedTypeService(db)

	_, err := svc.Upsert("", "Long-Term Care", "LTC", "", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Upsert("LTC", "", "LTC", "", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Upsert("LTC", "Long-Term Care", "", "", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

// Two administrators entering "ltc" and "LTC" edit the same row.
func TestUpsert_NormalizedCollision(t *testing.T) {
	db := newTestDB(t)
	svc := NewBedTypeService(db)

	first, err := svc.Upsert("LTC", "Long-Term Care", "LTC", "#2196f3", nil)
	require.NoError(t, err)

	order := 5
	second, err := svc.Upsert("ltc", "Long Term Care", "ltc", "", &order)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Long Term Care", second.Name)
	assert.Equal(t, 5, second.SortOrder)

	types, updatedAt, err := svc.GetTypes()
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.False(t, updatedAt.IsZero())
}

func TestGetTypes_DisplayOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewBedTypeService(db)

	two := 2
	one := 1
	_, err := svc.Upsert("PC", "Palliative Care", "PC", "", &two)
	require.NoError(t, err)
	_, err = svc.Upsert("LTC", "Long-Term Care", "LTC", "", &one)
	require.NoError(t, err)
	_, err = svc.Upsert("ICU", "Intensive Care", "ICU", "", &one)
	require.NoError(t, err)

	types, _, err := svc.GetTypes()
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "ICU", types[0].Code)
	assert.Equal(t, "LTC", types[1].Code)
	assert.Equal(t, "PC", types[2].Code)
}

func TestGetByCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewBedTypeService(db)

	_, err := svc.Upsert("LTC", "Long-Term Care", "LTC", "", nil)
	require.NoError(t, err)

	setting, err := svc.GetByCode("ltc")
	require.NoError(t, err)
	assert.Equal(t, "Long-Term Care", setting.Name)

	_, err = svc.GetByCode("ICU")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetByCode("  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRemove(t *testing.T) {
	db := newTestDB(t)
	svc := NewBedTypeService(db)

	_, err := svc.Upsert("LTC", "Long-Term Care", "LTC", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Remove("ltc"))
	assert.ErrorIs(t, svc.Remove("ltc"), ErrNotFound)

	types, _, err := svc.GetTypes()
	require.NoError(t, err)
	assert.Empty(t, types)
}

// A removed code must be free for reuse: the unique index on code cannot stay
// pinned by the deleted row.
func TestUpsert_AfterRemove(t *testing.T) {
	db := newTestDB(t)
	svc := NewBedTypeService(db)

	_, err := svc.Upsert("LTC", "Long-Term Care", "LTC", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Remove("LTC"))

	setting, err := svc.Upsert("LTC", "Long-Term Care", "LTC", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "LTC", setting.Code)

	types, _, err := svc.GetTypes()
	require.NoError(t, err)
	require.Len(t, types, 1)
}
