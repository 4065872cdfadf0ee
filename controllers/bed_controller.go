package controllers

import (
	"net/http"
	"strconv"
	"time"

	"hospital-backend/services"
	"hospital-backend/utils"

	"github.com/gin-gonic/gin"
)

type BedController struct {
	Service *services.BedService
}

func NewBedController(service *services.BedService) *BedController {
	return &BedController{Service: service}
}

// bedFilterFromQuery reads the optional ?category=&ward_id= pair.
func bedFilterFromQuery(c *gin.Context) (services.BedFilter, bool) {
	f := services.BedFilter{Category: c.Query("category")}
	if raw := c.Query("ward_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid ward_id")
			return f, false
		}
		id := uint(n)
		f.WardID = &id
	}
	return f, true
}

// GetBeds (GET /api/beds) lists the active inventory.
func (bc *BedController) GetBeds(c *gin.Context) {
	f, ok := bedFilterFromQuery(c)
	if !ok {
		return
	}
	beds, err := bc.Service.ListActive(f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, beds)
}

type createBedPayload struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	WardID   *uint  `json:"ward_id"`
	Note     string `json:"note"`
}

// CreateBed (POST /api/beds)
func (bc *BedController) CreateBed(c *gin.Context) {
	var payload createBedPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	bed, err := bc.Service.Create(payload.Code, payload.Category, payload.WardID, payload.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bed)
}

// GetAvailableBeds (GET /api/beds/available?from=&to=&category=&ward_id=)
// lists beds with no open or overlapping stay inside the window.
func (bc *BedController) GetAvailableBeds(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid or missing 'from' (RFC3339)")
		return
	}
	var to *time.Time
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid 'to' (RFC3339)")
			return
		}
		to = &t
	}
	f, ok := bedFilterFromQuery(c)
	if !ok {
		return
	}

	beds, err := bc.Service.ListAvailable(from, to, f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, beds)
}

// UpdateBed (PATCH /api/beds/:id) applies a partial admin edit.
func (bc *BedController) UpdateBed(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	bed, err := bc.Service.Update(id, fields)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bed)
}

// RetireBed (POST /api/beds/:id/retire)
func (bc *BedController) RetireBed(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := bc.Service.Retire(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"retired": id})
}

// ReactivateBed (POST /api/beds/:id/reactivate)
func (bc *BedController) ReactivateBed(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := bc.Service.Reactivate(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"reactivated": id})
}
