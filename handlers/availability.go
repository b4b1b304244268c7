package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorhive/services/tutoring"
	"tutorhive/utils"
)

// AvailabilityHandler exposes the consumer-facing availability surface.
type AvailabilityHandler struct {
	Svc    *tutoring.DefaultAvailabilityService
	Logger *zap.Logger
}

func NewAvailabilityHandler(svc *tutoring.DefaultAvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: svc, Logger: logger}
}

// GetAvailabilityHandler returns a tutor's bookable windows. The response
// carries usingFallback so clients can render substitute data as
// provisional.
func (h *AvailabilityHandler) GetAvailabilityHandler(c *gin.Context) {
	tutorID := c.Param("tutorID")
	if tutorID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid request", "tutorID is required")
		return
	}

	view, err := h.Svc.GetWithFallback(c.Request.Context(), tutorID)
	if err != nil {
		h.Logger.Error("failed to fetch availability", zap.String("tutorId", tutorID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch availability", err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateManualAvailabilityHandler publishes a manual availability window
// for the authenticated tutor.
func (h *AvailabilityHandler) CreateManualAvailabilityHandler(c *gin.Context) {
	tutorID := c.GetString("userID")

	var input struct {
		Title    string    `json:"title" binding:"required"`
		Start    time.Time `json:"start" binding:"required"`
		End      time.Time `json:"end" binding:"required"`
		Subjects []string  `json:"subjects"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	rec, err := h.Svc.CreateManual(c.Request.Context(), tutorID, input.Title, input.Start, input.End, input.Subjects)
	if err != nil {
		var validationErr *tutoring.ValidationError
		if errors.As(err, &validationErr) {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", validationErr.Error())
			return
		}
		h.Logger.Error("failed to create manual availability", zap.String("tutorId", tutorID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to create availability", err.Error())
		return
	}

	c.JSON(http.StatusCreated, rec)
}
