package controllers

import (
	"net/http"
	"strconv"

	"hospital-backend/services"
	"hospital-backend/utils"

	"github.com/gin-gonic/gin"
)

// BedSettingsController groups the administrative surface: the bed-type
// catalog, inventory reconciliation, and the dashboard summary.
type BedSettingsController struct {
	Types     *services.BedTypeService
	Reconcile *services.ReconcileService
	Summary   *services.SummaryService
}

func NewBedSettingsController(types *services.BedTypeService, reconcile *services.ReconcileService, summary *services.SummaryService) *BedSettingsController {
	return &BedSettingsController{Types: types, Reconcile: reconcile, Summary: summary}
}

// GetSummary (GET /api/bed-settings/summary)
func (bsc *BedSettingsController) GetSummary(c *gin.Context) {
	rows, err := bsc.Summary.GetSummary()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": rows})
}

// GetTypes (GET /api/bed-settings/types). An empty catalog is an empty list
// with a null updated_at; the key is always present.
func (bsc *BedSettingsController) GetTypes(c *gin.Context) {
	types, updatedAt, err := bsc.Types.GetTypes()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	var updated interface{}
	if !updatedAt.IsZero() {
		updated = updatedAt
	}
	c.JSON(http.StatusOK, gin.H{"types": types, "updated_at": updated})
}

type upsertTypePayload struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	CodePrefix string `json:"code_prefix"`
	Color      string `json:"color"`
	SortOrder  *int   `json:"sort_order"`
}

// UpsertType (POST /api/bed-settings/types)
func (bsc *BedSettingsController) UpsertType(c *gin.Context) {
	var payload upsertTypePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	setting, err := bsc.Types.Upsert(payload.Code, payload.Name, payload.CodePrefix, payload.Color, payload.SortOrder)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// RemoveType (DELETE /api/bed-settings/types/:code). Beds carrying the
// category code are untouched.
func (bsc *BedSettingsController) RemoveType(c *gin.Context) {
	if err := bsc.Types.Remove(c.Param("code")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"removed": c.Param("code")})
}

type reconcilePayload struct {
	Target *int  `json:"target"`
	WardID *uint `json:"ward_id"`
}

// ReconcileType (POST /api/bed-settings/types/:code/reconcile) adjusts one
// category's active bed count toward the target.
func (bsc *BedSettingsController) ReconcileType(c *gin.Context) {
	var payload reconcilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	if payload.Target == nil {
		utils.JSONError(c, http.StatusBadRequest, "target is required")
		return
	}

	result, err := bsc.Reconcile.Reconcile(c.Param("code"), *payload.Target, payload.WardID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reconcileBulkPayload struct {
	Targets []services.ReconcileItem `json:"targets"`
}

// ReconcileBulk (POST /api/bed-settings/reconcile) runs one reconciliation
// per item, continue-on-error; the envelope is always a 200 with per-item
// outcomes.
func (bsc *BedSettingsController) ReconcileBulk(c *gin.Context) {
	var payload reconcileBulkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	if len(payload.Targets) == 0 {
		utils.JSONError(c, http.StatusBadRequest, "targets is required")
		return
	}

	outcomes := bsc.Reconcile.ReconcileBulk(payload.Targets)
	utils.JSONSuccess(c, http.StatusOK, gin.H{"results": outcomes})
}

// GetReconcileLog (GET /api/bed-settings/reconcile-log?limit=) returns the
// latest audit rows.
func (bsc *BedSettingsController) GetReconcileLog(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	logs, err := bsc.Reconcile.RecentLogs(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
