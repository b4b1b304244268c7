package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bookingRepo "tutorhive/database/repository/booking"
	"tutorhive/services/tutoring"
	"tutorhive/utils"
)

// BookingHandler exposes slot booking and cancellation.
type BookingHandler struct {
	Coordinator tutoring.BookingCoordinator
	Bookings    bookingRepo.Repository
	Logger      *zap.Logger
}

func NewBookingHandler(coordinator tutoring.BookingCoordinator, bookings bookingRepo.Repository, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Coordinator: coordinator, Bookings: bookings, Logger: logger}
}

// BookSlotHandler reserves one slot for the authenticated student. A
// conflict returns 409 with the occupying booking reference so the client
// re-fetches availability and re-prompts.
func (h *BookingHandler) BookSlotHandler(c *gin.Context) {
	studentID := c.GetString("userID")

	var input struct {
		AvailabilityID string `json:"availabilityId" binding:"required"`
		SlotIndex      *int   `json:"slotIndex" binding:"required"`
		Notes          string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Coordinator.Book(c.Request.Context(), input.AvailabilityID, *input.SlotIndex, studentID, input.Notes)
	if err != nil {
		var conflictErr *tutoring.ConflictError
		var notFoundErr *tutoring.NotFoundError
		var validationErr *tutoring.ValidationError
		switch {
		case errors.As(err, &conflictErr):
			c.JSON(http.StatusConflict, gin.H{
				"error":           "slot already booked",
				"availabilityId":  conflictErr.AvailabilityID,
				"slotIndex":       conflictErr.SlotIndex,
				"existingBooking": conflictErr.Existing,
			})
		case errors.As(err, &notFoundErr):
			utils.JSONError(c, http.StatusNotFound, "not found", notFoundErr.Error())
		case errors.As(err, &validationErr):
			utils.JSONError(c, http.StatusBadRequest, "invalid booking request", validationErr.Error())
		default:
			h.Logger.Error("booking failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "booking failed", err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, session)
}

// CancelBookingHandler releases a booking. The caller must be the booking's
// student or the availability's tutor.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	requesterID := c.GetString("userID")

	var input struct {
		AvailabilityID string `json:"availabilityId" binding:"required"`
		SlotIndex      *int   `json:"slotIndex" binding:"required"`
		SessionID      string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	err := h.Coordinator.Cancel(c.Request.Context(), input.AvailabilityID, *input.SlotIndex, input.SessionID, requesterID)
	if err != nil {
		var notFoundErr *tutoring.NotFoundError
		var forbiddenErr *tutoring.ForbiddenError
		switch {
		case errors.As(err, &notFoundErr):
			utils.JSONError(c, http.StatusNotFound, "not found", notFoundErr.Error())
		case errors.As(err, &forbiddenErr):
			utils.JSONError(c, http.StatusForbidden, "forbidden", forbiddenErr.Error())
		default:
			h.Logger.Error("cancellation failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "cancellation failed", err.Error())
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMySessionsHandler returns the authenticated student's sessions.
func (h *BookingHandler) ListMySessionsHandler(c *gin.Context) {
	studentID := c.GetString("userID")

	sessions, err := h.Bookings.ListSessionsByStudent(c.Request.Context(), studentID, 100)
	if err != nil {
		h.Logger.Error("failed to list sessions", zap.String("studentId", studentID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list sessions", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
