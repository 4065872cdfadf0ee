package controllers

import (
	"net/http"
	"time"

	"hospital-backend/services"
	"hospital-backend/utils"

	"github.com/gin-gonic/gin"
)

type BedStayController struct {
	Service *services.BedStayService
}

func NewBedStayController(service *services.BedStayService) *BedStayController {
	return &BedStayController{Service: service}
}

type occupyPayload struct {
	BedID               uint       `json:"bed_id"`
	PatientsID          string     `json:"patients_id"`
	StartAt             *time.Time `json:"start_at"`
	Note                string     `json:"note"`
	SourceAppointmentID *uint      `json:"source_appointment_id"`
	By                  string     `json:"by"`
}

// CreateStay (POST /api/bed-stays) admits a patient to a bed. 409 when the
// bed already has an open or overlapping stay.
func (sc *BedStayController) CreateStay(c *gin.Context) {
	var payload occupyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	in := services.OccupyInput{
		BedID:               payload.BedID,
		PatientsID:          payload.PatientsID,
		Note:                payload.Note,
		SourceAppointmentID: payload.SourceAppointmentID,
		By:                  payload.By,
	}
	if payload.StartAt != nil {
		in.StartAt = *payload.StartAt
	}

	stay, err := sc.Service.Occupy(in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stay)
}

type endStayPayload struct {
	At     *time.Time `json:"at"`
	Reason string     `json:"reason"`
}

// EndStay (PATCH /api/bed-stays/:id/end). 404 when the id no longer denotes
// an open stay, so repeated calls are safe.
func (sc *BedStayController) EndStay(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var payload endStayPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	var at time.Time
	if payload.At != nil {
		at = *payload.At
	}
	stay, err := sc.Service.End(id, at, payload.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stay)
}

// CancelStay (POST /api/bed-stays/:id/cancel)
func (sc *BedStayController) CancelStay(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	stay, err := sc.Service.Cancel(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stay)
}

type transferPayload struct {
	ToBedID uint       `json:"to_bed_id"`
	At      *time.Time `json:"at"`
	Note    string     `json:"note"`
	By      string     `json:"by"`
}

// TransferStay (POST /api/bed-stays/:id/transfer) moves the patient to
// another bed atomically. 409 on target conflict leaves the source stay open.
func (sc *BedStayController) TransferStay(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var payload transferPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	in := services.TransferInput{
		ToBedID: payload.ToBedID,
		Note:    payload.Note,
		By:      payload.By,
	}
	if payload.At != nil {
		in.At = *payload.At
	}

	stay, err := sc.Service.Transfer(id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stay)
}

// GetPatientHistory (GET /api/bed-stays/patients/:patients_id/history)
func (sc *BedStayController) GetPatientHistory(c *gin.Context) {
	stays, err := sc.Service.HistoryByPatient(c.Param("patients_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stays)
}

// ForceEndForPatient (POST /api/bed-stays/patients/:patients_id/force-end)
// closes every open stay of a patient; the patient-lifecycle collaborator
// calls this on discharge or death. Zero open stays is still a 200.
func (sc *BedStayController) ForceEndForPatient(c *gin.Context) {
	var payload endStayPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
			return
		}
	}

	var at time.Time
	if payload.At != nil {
		at = *payload.At
	}
	closed, err := sc.Service.ForceEndActiveForPatient(c.Param("patients_id"), at, payload.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"closed": closed})
}

// GetCurrentOccupancy (GET /api/bed-stays/current)
func (sc *BedStayController) GetCurrentOccupancy(c *gin.Context) {
	stays, err := sc.Service.CurrentOccupancy()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stays)
}
