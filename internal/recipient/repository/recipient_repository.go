package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vaccine-backend/internal/recipient/domain"
)

// RecipientRepository is the directory mapping (role, id) to a delivery token.
type RecipientRepository interface {
	// GetToken returns the live token for a recipient, or "" when the
	// recipient has no token registered. Absence is not an error.
	GetToken(ctx context.Context, role domain.Role, id string) (string, error)
	// SaveToken upserts the token field only, leaving unrelated fields of
	// the recipient document untouched.
	SaveToken(ctx context.Context, role domain.Role, id string, token string) error
	// ClearToken removes only the token field.
	ClearToken(ctx context.Context, role domain.Role, id string) error
}

type recipientRepository struct {
	client *firestore.Client
}

// NewRecipientRepository creates a Firestore-backed directory.
func NewRecipientRepository(client *firestore.Client) RecipientRepository {
	return &recipientRepository{client: client}
}

func (r *recipientRepository) doc(role domain.Role, id string) *firestore.DocumentRef {
	return r.client.Collection(role.Collection()).Doc(id)
}

func (r *recipientRepository) GetToken(ctx context.Context, role domain.Role, id string) (string, error) {
	snap, err := r.doc(role, id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("get %s %s: %w", role, id, err)
	}

	token, ok := snap.Data()["fcmToken"].(string)
	if !ok {
		return "", nil
	}
	return token, nil
}

func (r *recipientRepository) SaveToken(ctx context.Context, role domain.Role, id string, token string) error {
	_, err := r.doc(role, id).Set(ctx, map[string]interface{}{"fcmToken": token}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("save token for %s %s: %w", role, id, err)
	}
	return nil
}

func (r *recipientRepository) ClearToken(ctx context.Context, role domain.Role, id string) error {
	_, err := r.doc(role, id).Update(ctx, []firestore.Update{
		{Path: "fcmToken", Value: firestore.Delete},
	})
	if err != nil {
		// The recipient document may already be gone; eviction is idempotent.
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("clear token for %s %s: %w", role, id, err)
	}
	return nil
}
