package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	notifdomain "vaccine-backend/internal/notification/domain"
	recipientdomain "vaccine-backend/internal/recipient/domain"
	"vaccine-backend/pkg/fcm"
)

// Outcome classifies one delivery attempt.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Directory is the recipient token lookup the sender depends on.
type Directory interface {
	GetToken(ctx context.Context, role recipientdomain.Role, id string) (string, error)
	ClearToken(ctx context.Context, role recipientdomain.Role, id string) error
}

// RecordAppender appends delivered notifications to the delivery log.
type RecordAppender interface {
	Create(ctx context.Context, n *notifdomain.Notification) error
}

// Messenger delivers one message to one device token.
type Messenger interface {
	SendToDevice(ctx context.Context, token string, notification fcm.NotificationData) error
}

// SenderUsecase is the idempotent delivery primitive. It does not deduplicate:
// two identical successful calls attempt two deliveries and append two log
// entries. Deduplication belongs to the callers (watch edge detection, the
// scheduled-record claim).
type SenderUsecase interface {
	Send(ctx context.Context, role recipientdomain.Role, id, title, body, msgType string, payload map[string]interface{}) (Outcome, error)
}

type senderUsecase struct {
	directory Directory
	records   RecordAppender
	messenger Messenger
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSenderUsecase creates the sender. timeout bounds each provider call.
func NewSenderUsecase(directory Directory, records RecordAppender, messenger Messenger, timeout time.Duration, logger *zap.Logger) SenderUsecase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &senderUsecase{
		directory: directory,
		records:   records,
		messenger: messenger,
		timeout:   timeout,
		logger:    logger,
	}
}

func (s *senderUsecase) Send(ctx context.Context, role recipientdomain.Role, id, title, body, msgType string, payload map[string]interface{}) (Outcome, error) {
	token, err := s.directory.GetToken(ctx, role, id)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("resolve token for %s %s: %w", role, id, err)
	}
	if token == "" {
		// Unreachable recipient: expected, nothing was attempted, no log entry.
		s.logger.Info("No delivery token registered, skipping send",
			zap.String("role", string(role)),
			zap.String("recipient", id),
			zap.String("type", msgType),
		)
		return OutcomeSkipped, nil
	}

	data := FlattenPayload(msgType, payload)

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.messenger.SendToDevice(sendCtx, token, fcm.NotificationData{
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		if errors.Is(err, fcm.ErrTokenNotRegistered) {
			// Self-healing: the token is permanently dead, evict it so the
			// next send short-circuits to skipped.
			s.logger.Warn("Delivery token no longer registered, evicting",
				zap.String("role", string(role)),
				zap.String("recipient", id),
			)
			if clearErr := s.directory.ClearToken(ctx, role, id); clearErr != nil {
				s.logger.Error("Failed to evict invalid token",
					zap.String("role", string(role)),
					zap.String("recipient", id),
					zap.Error(clearErr),
				)
			}
			return OutcomeFailed, err
		}
		return OutcomeFailed, fmt.Errorf("send to %s %s: %w", role, id, err)
	}

	record := &notifdomain.Notification{
		RecipientRole: string(role),
		RecipientID:   id,
		Title:         title,
		Body:          body,
		Type:          data["type"],
		Payload:       data,
		IsRead:        false,
		CreatedAt:     time.Now(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		// The push already left; a logging failure must not turn a delivered
		// notification into a failed one.
		s.logger.Error("Notification delivered but logging failed",
			zap.String("role", string(role)),
			zap.String("recipient", id),
			zap.Error(err),
		)
	}

	s.logger.Info("Notification delivered",
		zap.String("role", string(role)),
		zap.String("recipient", id),
		zap.String("type", data["type"]),
	)
	return OutcomeDelivered, nil
}

// FlattenPayload converts an arbitrary scalar payload into the flat
// string-to-string map the push transport requires, always carrying a type tag.
func FlattenPayload(msgType string, payload map[string]interface{}) map[string]string {
	data := make(map[string]string, len(payload)+1)
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			data[k] = val
		case bool:
			data[k] = strconv.FormatBool(val)
		case int:
			data[k] = strconv.Itoa(val)
		case int64:
			data[k] = strconv.FormatInt(val, 10)
		case float64:
			data[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			data[k] = ""
		default:
			data[k] = fmt.Sprint(val)
		}
	}
	if msgType == "" {
		msgType = "default"
	}
	data["type"] = msgType
	return data
}
