package controllers

import (
	"net/http"

	"hospital-backend/services"
	"hospital-backend/utils"

	"github.com/gin-gonic/gin"
)

type WardController struct {
	Service *services.WardService
}

func NewWardController(service *services.WardService) *WardController {
	return &WardController{Service: service}
}

// GetWards (GET /api/wards)
func (wc *WardController) GetWards(c *gin.Context) {
	wards, err := wc.Service.GetAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wards)
}

type createWardPayload struct {
	Name string `json:"name"`
	Note string `json:"note"`
}

// CreateWard (POST /api/wards)
func (wc *WardController) CreateWard(c *gin.Context) {
	var payload createWardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	ward, err := wc.Service.Create(payload.Name, payload.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ward)
}
