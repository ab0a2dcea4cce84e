package fcm

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ErrTokenNotRegistered marks a permanent delivery failure: the device token is
// no longer known to the push provider and must be evicted by the caller.
var ErrTokenNotRegistered = errors.New("fcm: registration token not registered")

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates a new FCM client from an initialized Firebase app.
func NewClient(ctx context.Context, app *firebase.App) (*Client, error) {
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &Client{messagingClient: messagingClient}, nil
}

// NewApp initializes the Firebase app shared by messaging and auth.
func NewApp(ctx context.Context, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title string
	Body  string
	Data  map[string]string // Custom data payload, must be flat string/string
}

// SendToDevice sends a push notification to a specific device token.
// A permanently invalid token is reported as ErrTokenNotRegistered so the
// caller can clean up the directory entry.
func (c *Client) SendToDevice(ctx context.Context, token string, notification NotificationData) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
	}

	_, err := c.messagingClient.Send(ctx, message)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return fmt.Errorf("send to device: %w", ErrTokenNotRegistered)
		}
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}
