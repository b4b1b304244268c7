package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	credentialRepo "tutorhive/database/repository/credential"
	"tutorhive/models"
	"tutorhive/services/calendar"
	syncsvc "tutorhive/services/sync"
	"tutorhive/utils"
)

// CalendarHandler manages a tutor's calendar connection lifecycle and
// exposes a manual sync trigger.
type CalendarHandler struct {
	Credentials credentialRepo.Repository
	Registry    *syncsvc.Registry
	Logger      *zap.Logger
}

func NewCalendarHandler(credentials credentialRepo.Repository, registry *syncsvc.Registry, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{Credentials: credentials, Registry: registry, Logger: logger}
}

// ConnectCalendarHandler stores the tutor's OAuth credential and starts
// their background sync scheduler. The first reconcile pass runs shortly
// after this request returns.
func (h *CalendarHandler) ConnectCalendarHandler(c *gin.Context) {
	tutorID := c.GetString("userID")

	var input struct {
		AccessToken  string    `json:"accessToken" binding:"required"`
		RefreshToken string    `json:"refreshToken" binding:"required"`
		Expiry       time.Time `json:"expiry"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	cred := models.Credential{
		TutorID:      tutorID,
		AccessToken:  input.AccessToken,
		RefreshToken: input.RefreshToken,
		Expiry:       input.Expiry,
	}
	if err := h.Credentials.Save(c.Request.Context(), cred); err != nil {
		h.Logger.Error("failed to save calendar credential", zap.String("tutorId", tutorID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to connect calendar", err.Error())
		return
	}

	// The scheduler outlives this request; it stops on disconnect or
	// process shutdown, not when the request context is cancelled.
	h.Registry.Ensure(context.Background(), tutorID)
	h.Logger.Info("calendar connected", zap.String("tutorId", tutorID))

	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// DisconnectCalendarHandler stops the tutor's scheduler and deletes the
// stored credential. Already-synced availability records are kept.
func (h *CalendarHandler) DisconnectCalendarHandler(c *gin.Context) {
	tutorID := c.GetString("userID")

	h.Registry.Remove(tutorID)
	if err := h.Credentials.Delete(c.Request.Context(), tutorID); err != nil {
		h.Logger.Error("failed to delete calendar credential", zap.String("tutorId", tutorID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to disconnect calendar", err.Error())
		return
	}

	h.Logger.Info("calendar disconnected", zap.String("tutorId", tutorID))
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// TriggerSyncHandler runs one reconcile pass immediately, subject to the
// scheduler's single-flight and frequency guards. Skipped runs report why.
func (h *CalendarHandler) TriggerSyncHandler(c *gin.Context) {
	tutorID := c.GetString("userID")

	scheduler := h.Registry.Ensure(context.Background(), tutorID)
	reason, result, err := scheduler.RunOnce(c.Request.Context())
	if err != nil {
		var needsReconnection *calendar.NeedsReconnectionError
		if errors.As(err, &needsReconnection) {
			utils.JSONError(c, http.StatusUnauthorized, "calendar authorization expired", "reconnect the calendar to resume syncing")
			return
		}
		h.Logger.Error("manual sync failed", zap.String("tutorId", tutorID), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "sync failed", err.Error())
		return
	}

	switch reason {
	case syncsvc.RunCompleted:
		c.JSON(http.StatusOK, gin.H{"reason": reason, "result": result})
	case syncsvc.RunNotConnected:
		utils.JSONError(c, http.StatusConflict, "calendar not connected", "connect a calendar before syncing")
	default:
		// already_running or too_frequent: the sync is effectively in hand.
		c.JSON(http.StatusAccepted, gin.H{"reason": reason})
	}
}
