package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hospital-backend/controllers"
	"hospital-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires every controller under /api.
func SetupRouter(
	bc *controllers.BedController,
	sc *controllers.BedStayController,
	bsc *controllers.BedSettingsController,
	wc *controllers.WardController,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		beds := api.Group("/beds")
		{
			beds.GET("", bc.GetBeds)
			beds.POST("", bc.CreateBed)

			// /available must be registered before /:id routes.
			beds.GET("/available", bc.GetAvailableBeds)

			beds.PATCH("/:id", bc.UpdateBed)
			beds.POST("/:id/retire", bc.RetireBed)
			beds.POST("/:id/reactivate", bc.ReactivateBed)
		}

		stays := api.Group("/bed-stays")
		{
			stays.POST("", sc.CreateStay)
			stays.GET("/current", sc.GetCurrentOccupancy)
			stays.PATCH("/:id/end", sc.EndStay)
			stays.POST("/:id/cancel", sc.CancelStay)
			stays.POST("/:id/transfer", sc.TransferStay)
			stays.GET("/patients/:patients_id/history", sc.GetPatientHistory)
			stays.POST("/patients/:patients_id/force-end", sc.ForceEndForPatient)
		}

		settings := api.Group("/bed-settings")
		{
			settings.GET("/summary", bsc.GetSummary)
			settings.GET("/types", bsc.GetTypes)
			settings.POST("/types", bsc.UpsertType)
			settings.DELETE("/types/:code", bsc.RemoveType)
			settings.POST("/types/:code/reconcile", bsc.ReconcileType)
			settings.POST("/reconcile", bsc.ReconcileBulk)
			settings.GET("/reconcile-log", bsc.GetReconcileLog)
		}

		wards := api.Group("/wards")
		{
			wards.GET("", wc.GetWards)
			wards.POST("", wc.CreateWard)
		}
	}

	return r
}
