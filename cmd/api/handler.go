package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	notifdomain "vaccine-backend/internal/notification/domain"
	notifrepo "vaccine-backend/internal/notification/repository"
	"vaccine-backend/internal/notification/usecase"
	recipientdomain "vaccine-backend/internal/recipient/domain"
	recipientrepo "vaccine-backend/internal/recipient/repository"
)

// Handler exposes the thin HTTP surface over the dispatch core.
type Handler struct {
	sender    usecase.SenderUsecase
	directory recipientrepo.RecipientRepository
	records   notifrepo.NotificationRepository
	logger    *zap.Logger
}

func NewHandler(sender usecase.SenderUsecase, directory recipientrepo.RecipientRepository, records notifrepo.NotificationRepository, logger *zap.Logger) *Handler {
	return &Handler{
		sender:    sender,
		directory: directory,
		records:   records,
		logger:    logger,
	}
}

type registerTokenRequest struct {
	UserID     string `json:"userId"`
	Role       string `json:"role"`
	FCMToken   string `json:"fcmToken"`
	HospitalID string `json:"hospitalId"`
}

// RegisterToken upserts the delivery token for a recipient. Hospitals are
// keyed by hospitalId, parents and admins by email.
func (h *Handler) RegisterToken(c *gin.Context) {
	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FCMToken == "" {
		c.String(http.StatusBadRequest, "Missing FCM token")
		return
	}

	role, err := recipientdomain.ParseRole(req.Role)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid role")
		return
	}

	id := req.UserID
	if role == recipientdomain.RoleHospital && req.HospitalID != "" {
		id = req.HospitalID
	}
	if id == "" {
		c.String(http.StatusBadRequest, "Missing required identifier (userId or hospitalId)")
		return
	}

	if err := h.directory.SaveToken(c.Request.Context(), role, id, req.FCMToken); err != nil {
		h.logger.Error("Failed to save delivery token",
			zap.String("role", string(role)),
			zap.String("recipient", id),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Failed to save token")
		return
	}

	h.logger.Info("Delivery token registered",
		zap.String("role", string(role)),
		zap.String("recipient", id),
	)
	c.String(http.StatusOK, "Token saved")
}

type sendNotificationRequest struct {
	To    string                 `json:"to"`
	Role  string                 `json:"role"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Type  string                 `json:"type"`
	Data  map[string]interface{} `json:"data"`
}

// SendNotification synchronously invokes the sender for an ad-hoc message.
func (h *Handler) SendNotification(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.To == "" || req.Title == "" || req.Body == "" {
		c.String(http.StatusBadRequest, "Missing required fields: to, title, body")
		return
	}

	role, err := recipientdomain.ParseRole(req.Role)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid recipient role")
		return
	}

	outcome, err := h.sender.Send(c.Request.Context(), role, req.To, req.Title, req.Body, req.Type, req.Data)
	switch outcome {
	case usecase.OutcomeDelivered:
		c.String(http.StatusOK, "Notification sent")
	case usecase.OutcomeSkipped:
		c.String(http.StatusNotFound, "FCM token not found for recipient")
	default:
		h.logger.Error("Ad-hoc notification failed",
			zap.String("role", string(role)),
			zap.String("recipient", req.To),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Failed to send notification")
	}
}

type scheduleNotificationRequest struct {
	To            string                 `json:"to"`
	Role          string                 `json:"role"`
	Title         string                 `json:"title"`
	Body          string                 `json:"body"`
	Type          string                 `json:"type"`
	Data          map[string]interface{} `json:"data"`
	ScheduledTime time.Time              `json:"scheduledTime"`
}

// ScheduleNotification pre-creates a pending scheduled record for the poller
// (or the creation hook, when it is already due).
func (h *Handler) ScheduleNotification(c *gin.Context) {
	var req scheduleNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.To == "" || req.Title == "" || req.Body == "" || req.ScheduledTime.IsZero() {
		c.String(http.StatusBadRequest, "Missing required fields: to, title, body, scheduledTime")
		return
	}

	role, err := recipientdomain.ParseRole(req.Role)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid recipient role")
		return
	}

	record := &notifdomain.Notification{
		RecipientRole: string(role),
		RecipientID:   req.To,
		Title:         req.Title,
		Body:          req.Body,
		Type:          req.Type,
		Payload:       usecase.FlattenPayload(req.Type, req.Data),
		IsScheduled:   true,
		ScheduledTime: req.ScheduledTime,
		Status:        notifdomain.StatusPending,
	}
	if err := h.records.Create(c.Request.Context(), record); err != nil {
		h.logger.Error("Failed to create scheduled notification", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to schedule notification")
		return
	}

	h.logger.Info("Notification scheduled",
		zap.String("notification", record.ID),
		zap.Time("scheduledTime", req.ScheduledTime),
	)
	c.JSON(http.StatusOK, gin.H{"id": record.ID})
}

// Liveness is the plain-text root probe.
func (h *Handler) Liveness(c *gin.Context) {
	c.String(http.StatusOK, "Child Vaccination Backend is running!")
}

// Health is the JSON health probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
