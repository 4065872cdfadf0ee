package services

import (
	"sync"
	"testing"
	"time"

	"hospital-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupy_OpensStay(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-00000001", StartAt: ts(1, 8)})
	require.NoError(t, err)

	assert.Equal(t, models.StayStatusOccupied, stay.Status)
	assert.Nil(t, stay.EndAt)
	assert.NotEmpty(t, stay.ReferenceCode)
	assert.Equal(t, "LTC-001", stay.Bed.Code)
}

func TestOccupy_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	_, err := svc.Occupy(OccupyInput{PatientsID: "HN-1", StartAt: ts(1, 8)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Occupy(OccupyInput{BedID: bed.ID, StartAt: ts(1, 8)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Occupy(OccupyInput{BedID: 9999, PatientsID: "HN-1", StartAt: ts(1, 8)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOccupy_RetiredBedRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")
	require.NoError(t, db.Model(bed).Update("active", false).Error)

	_, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOccupy_ConflictOnOpenStay(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	_, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-00000001", StartAt: ts(1, 8)})
	require.NoError(t, err)

	_, err = svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-00000002", StartAt: ts(1, 9)})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOccupy_ClosedStayDoesNotConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)
	_, err = svc.End(stay.ID, ts(1, 12), "discharge")
	require.NoError(t, err)

	_, err = svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-2", StartAt: ts(1, 13)})
	assert.NoError(t, err)
}

// The no-overlap invariant under concurrency: many racing admissions for one
// bed must produce exactly one open stay.
func TestOccupy_ConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Occupy(OccupyInput{
				BedID:      bed.ID,
				PatientsID: "HN-RACE",
				StartAt:    ts(1, 8),
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)

	var open int64
	require.NoError(t, db.Model(&models.BedStay{}).
		Where("bed_id = ? AND status IN ?", bed.ID, models.OpenStayStatuses).
		Count(&open).Error)
	assert.EqualValues(t, 1, open)
}

func TestEnd_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)

	ended, err := svc.End(stay.ID, ts(1, 12), "discharge")
	require.NoError(t, err)
	assert.Equal(t, models.StayStatusCompleted, ended.Status)
	require.NotNil(t, ended.EndAt)
	assert.True(t, ended.EndAt.Equal(ts(1, 12)))
	assert.Equal(t, "discharge", ended.EndReason)

	// Second end: the id no longer denotes an open stay.
	_, err = svc.End(stay.ID, ts(1, 13), "discharge")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel_LeavesNoEndAt(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(stay.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StayStatusCancelled, cancelled.Status)

	var reloaded models.BedStay
	require.NoError(t, db.First(&reloaded, stay.ID).Error)
	assert.Nil(t, reloaded.EndAt)

	_, err = svc.Cancel(stay.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The bed frees up immediately.
	_, err = svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-2", StartAt: ts(1, 9)})
	assert.NoError(t, err)
}

func TestTransfer_MovesStay(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	src := mustCreateBed(t, db, "LTC-001", "LTC")
	dst := mustCreateBed(t, db, "LTC-002", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: src.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)

	next, err := svc.Transfer(stay.ID, TransferInput{ToBedID: dst.ID, At: ts(1, 12), By: "nurse-7"})
	require.NoError(t, err)
	assert.Equal(t, dst.ID, next.BedID)
	assert.Equal(t, "HN-1", next.PatientsID)
	assert.Equal(t, models.StayStatusOccupied, next.Status)
	assert.True(t, next.StartAt.Equal(ts(1, 12)))

	var old models.BedStay
	require.NoError(t, db.First(&old, stay.ID).Error)
	assert.Equal(t, models.StayStatusCompleted, old.Status)
	require.NotNil(t, old.EndAt)
	assert.True(t, old.EndAt.Equal(ts(1, 12)))
	assert.Equal(t, EndReasonTransfer, old.EndReason)
}

func TestTransfer_ConflictLeavesSourceOpen(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	src := mustCreateBed(t, db, "LTC-001", "LTC")
	dst := mustCreateBed(t, db, "LTC-002", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: src.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)
	_, err = svc.Occupy(OccupyInput{BedID: dst.ID, PatientsID: "HN-2", StartAt: ts(1, 8)})
	require.NoError(t, err)

	_, err = svc.Transfer(stay.ID, TransferInput{ToBedID: dst.ID, At: ts(1, 12)})
	assert.ErrorIs(t, err, ErrConflict)

	// All-or-nothing: the source stay is untouched.
	var reloaded models.BedStay
	require.NoError(t, db.First(&reloaded, stay.ID).Error)
	assert.Equal(t, models.StayStatusOccupied, reloaded.Status)
	assert.Nil(t, reloaded.EndAt)
	assert.Empty(t, reloaded.EndReason)
}

func TestTransfer_SameBedRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)

	_, err = svc.Transfer(stay.ID, TransferInput{ToBedID: bed.ID, At: ts(1, 12)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestForceEndActiveForPatient(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	a := mustCreateBed(t, db, "LTC-001", "LTC")
	b := mustCreateBed(t, db, "PC-001", "PC")

	_, err := svc.Occupy(OccupyInput{BedID: a.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)
	_, err = svc.Occupy(OccupyInput{BedID: b.ID, PatientsID: "HN-1", StartAt: ts(1, 9)})
	require.NoError(t, err)

	closed, err := svc.ForceEndActiveForPatient("HN-1", ts(2, 0), "deceased")
	require.NoError(t, err)
	assert.EqualValues(t, 2, closed)

	var open int64
	require.NoError(t, db.Model(&models.BedStay{}).
		Where("patients_id = ? AND status IN ?", "HN-1", models.OpenStayStatuses).
		Count(&open).Error)
	assert.Zero(t, open)

	// No open stays left: a no-op, not an error.
	closed, err = svc.ForceEndActiveForPatient("HN-1", ts(2, 1), "deceased")
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestHistoryByPatient_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	first, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)
	_, err = svc.End(first.ID, ts(2, 8), "discharge")
	require.NoError(t, err)
	second, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(3, 8)})
	require.NoError(t, err)

	history, err := svc.HistoryByPatient("HN-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, "LTC-001", history[0].Bed.Code)
}

func TestCurrentOccupancy(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	a := mustCreateBed(t, db, "LTC-001", "LTC")
	b := mustCreateBed(t, db, "PC-001", "PC")

	open, err := svc.Occupy(OccupyInput{BedID: a.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)
	ended, err := svc.Occupy(OccupyInput{BedID: b.ID, PatientsID: "HN-2", StartAt: ts(1, 8)})
	require.NoError(t, err)
	_, err = svc.End(ended.ID, ts(1, 12), "discharge")
	require.NoError(t, err)

	current, err := svc.CurrentOccupancy()
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, open.ID, current[0].ID)
	assert.Equal(t, "LTC-001", current[0].Bed.Code)
}

func TestEnd_DefaultsToNow(t *testing.T) {
	db := newTestDB(t)
	svc := newStayService(db)
	bed := mustCreateBed(t, db, "LTC-001", "LTC")

	stay, err := svc.Occupy(OccupyInput{BedID: bed.ID, PatientsID: "HN-1", StartAt: ts(1, 8)})
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	ended, err := svc.End(stay.ID, time.Time{}, "")
	require.NoError(t, err)
	require.NotNil(t, ended.EndAt)
	assert.True(t, ended.EndAt.After(before))
}
