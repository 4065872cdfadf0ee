package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hospital-backend/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReconcileService adjusts the active bed inventory of a category toward an
// administrator-specified target. Growth reuses retired beds before minting
// new ones; shrinkage never touches a bed with an open stay and reports the
// shortfall instead of failing.
type ReconcileService struct {
	DB    *gorm.DB
	Types *BedTypeService
	Log   *zap.Logger
}

func NewReconcileService(db *gorm.DB, types *BedTypeService, log *zap.Logger) *ReconcileService {
	return &ReconcileService{DB: db, Types: types, Log: log}
}

// ReconcileResult describes what one reconciliation run changed.
type ReconcileResult struct {
	Category        string   `json:"category"`
	Created         int      `json:"created"`
	Reactivated     int      `json:"reactivated"`
	Retired         int      `json:"retired"`
	SkippedOccupied int      `json:"skipped_occupied"`
	MintedCodes     []string `json:"minted_codes,omitempty"`
}

// ReconcileItem is one entry of a bulk request.
type ReconcileItem struct {
	Code   string `json:"code"`
	Target *int   `json:"target"`
	WardID *uint  `json:"ward_id,omitempty"`
}

// ReconcileOutcome is the per-item report of a bulk run.
type ReconcileOutcome struct {
	Code   string           `json:"code"`
	OK     bool             `json:"ok"`
	Result *ReconcileResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Reconcile brings the active bed count of one category (optionally scoped to
// a ward) to target. The whole run commits in a single transaction; an audit
// row is written alongside.
func (s *ReconcileService) Reconcile(category string, target int, wardID *uint) (*ReconcileResult, error) {
	code := NormalizeTypeCode(category)
	if code == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: target must be a non-negative integer", ErrValidation)
	}

	result := &ReconcileResult{Category: code}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		scope := func(q *gorm.DB) *gorm.DB {
			q = q.Where("category = ?", code)
			if wardID != nil {
				q = q.Where("ward_id = ?", *wardID)
			}
			return q
		}

		var active int64
		if err := scope(tx.Model(&models.Bed{})).Where("active = ?", true).Count(&active).Error; err != nil {
			return err
		}

		switch {
		case int64(target) > active:
			return s.grow(tx, scope, code, wardID, int(int64(target)-active), result)
		case int64(target) < active:
			return s.shrink(tx, scope, int(active-int64(target)), result)
		default:
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	s.logRun(code, target, wardID, result)
	return result, nil
}

// ReconcileBulk runs Reconcile once per item, each in its own transaction.
// One item's failure never aborts the others; every outcome is reported.
func (s *ReconcileService) ReconcileBulk(items []ReconcileItem) []ReconcileOutcome {
	outcomes := make([]ReconcileOutcome, 0, len(items))
	for _, item := range items {
		out := ReconcileOutcome{Code: NormalizeTypeCode(item.Code)}
		if out.Code == "" {
			out.Code = strings.TrimSpace(item.Code)
		}

		if item.Target == nil {
			out.Error = "target is required"
			outcomes = append(outcomes, out)
			continue
		}

		res, err := s.Reconcile(item.Code, *item.Target, item.WardID)
		if err != nil {
			out.Error = err.Error()
			outcomes = append(outcomes, out)
			continue
		}
		out.OK = true
		out.Result = res
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// RecentLogs returns the latest reconciliation audit rows.
func (s *ReconcileService) RecentLogs(limit int) ([]models.ReconcileLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.ReconcileLog
	err := s.DB.Order("id DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// grow reactivates retired beds first (keeps their codes and history), then
// mints new beds for any remaining deficit.
func (s *ReconcileService) grow(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB, code string, wardID *uint, deficit int, result *ReconcileResult) error {
	var retired []models.Bed
	err := scope(lockForUpdate(tx)).
		Where("active = ?", false).
		Order("id ASC").
		Limit(deficit).
		Find(&retired).Error
	if err != nil {
		return err
	}
	for i := range retired {
		if err := tx.Model(&retired[i]).Update("active", true).Error; err != nil {
			return err
		}
		result.Reactivated++
		deficit--
	}

	if deficit == 0 {
		return nil
	}

	// Resolve the minting prefix on tx: a lookup through the root DB would
	// block whenever the pool is down to the connection the transaction holds.
	prefix := code
	var setting models.BedTypeSetting
	switch err := tx.Where("code = ?", code).First(&setting).Error; {
	case err == nil:
		prefix = setting.CodePrefix
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	seq, err := nextCodeSequence(tx, prefix)
	if err != nil {
		return err
	}
	for i := 0; i < deficit; i++ {
		bed := models.Bed{
			Code:     fmt.Sprintf("%s-%03d", prefix, seq+i),
			Category: code,
			WardID:   wardID,
			Active:   true,
		}
		if err := tx.Create(&bed).Error; err != nil {
			return err
		}
		result.Created++
		result.MintedCodes = append(result.MintedCodes, bed.Code)
	}
	return nil
}

// shrink retires up to k currently idle beds, beds with no stay history
// first. Occupied beds are skipped and counted, never retired.
func (s *ReconcileService) shrink(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB, k int, result *ReconcileResult) error {
	open := tx.Model(&models.BedStay{}).
		Select("bed_id").
		Where("status IN ?", models.OpenStayStatuses)
	anyStay := tx.Model(&models.BedStay{}).Select("bed_id")

	// Pristine beds first: nothing in the ledger references them at all.
	var candidates []models.Bed
	err := scope(lockForUpdate(tx)).
		Where("active = ?", true).
		Where("id NOT IN (?)", anyStay).
		Order("id DESC").
		Limit(k).
		Find(&candidates).Error
	if err != nil {
		return err
	}

	if len(candidates) < k {
		var used []models.Bed
		err := scope(lockForUpdate(tx)).
			Where("active = ?", true).
			Where("id NOT IN (?)", open).
			Where("id IN (?)", anyStay).
			Order("id DESC").
			Limit(k-len(candidates)).
			Find(&used).Error
		if err != nil {
			return err
		}
		candidates = append(candidates, used...)
	}

	for i := range candidates {
		if err := tx.Model(&candidates[i]).Update("active", false).Error; err != nil {
			return err
		}
		result.Retired++
	}
	result.SkippedOccupied = k - result.Retired
	return nil
}

// likeEscaper neutralizes LIKE metacharacters; normalized prefixes may carry
// underscores, which LIKE would otherwise treat as single-char wildcards.
// '!' as the escape character reads the same under MySQL and SQLite string
// literal rules, unlike a backslash.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// nextCodeSequence returns one past the highest numeric suffix among existing
// "PREFIX-NNN" codes, retired beds included, so a code is never minted twice.
// Only codes of exactly that shape count; "PREFIX-EXTRA-005" does not.
func nextCodeSequence(tx *gorm.DB, prefix string) (int, error) {
	var codes []string
	err := tx.Model(&models.Bed{}).
		Where("code LIKE ? ESCAPE '!'", likeEscaper.Replace(prefix)+"-%").
		Pluck("code", &codes).Error
	if err != nil {
		return 0, err
	}

	max := 0
	for _, c := range codes {
		suffix := strings.TrimPrefix(c, prefix+"-")
		if suffix == "" || !isDigits(suffix) {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// logRun writes the audit row. Failures here are logged and swallowed; the
// reconciliation itself already committed.
func (s *ReconcileService) logRun(code string, target int, wardID *uint, result *ReconcileResult) {
	details, err := json.Marshal(result)
	if err != nil {
		s.Log.Warn("reconcile audit marshal failed", zap.Error(err))
		return
	}
	entry := models.ReconcileLog{
		Category: code,
		Target:   target,
		WardID:   wardID,
		Details:  datatypes.JSON(details),
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		s.Log.Warn("reconcile audit write failed", zap.Error(err))
		return
	}

	s.Log.Info("inventory reconciled",
		zap.String("category", code),
		zap.Int("target", target),
		zap.Int("created", result.Created),
		zap.Int("reactivated", result.Reactivated),
		zap.Int("retired", result.Retired),
		zap.Int("skipped_occupied", result.SkippedOccupied))
}
