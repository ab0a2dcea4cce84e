package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	notifdomain "vaccine-backend/internal/notification/domain"
	recipientdomain "vaccine-backend/internal/recipient/domain"
	"vaccine-backend/pkg/fcm"
)

type fakeDirectory struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{tokens: make(map[string]string)}
}

func dirKey(role recipientdomain.Role, id string) string {
	return string(role) + "/" + id
}

func (d *fakeDirectory) GetToken(_ context.Context, role recipientdomain.Role, id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tokens[dirKey(role, id)], nil
}

func (d *fakeDirectory) ClearToken(_ context.Context, role recipientdomain.Role, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tokens, dirKey(role, id))
	return nil
}

type fakeRecords struct {
	mu      sync.Mutex
	created []notifdomain.Notification
}

func (r *fakeRecords) Create(_ context.Context, n *notifdomain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *n)
	return nil
}

type fakeMessenger struct {
	mu    sync.Mutex
	sent  []string // tokens
	errFn func(token string) error
}

func (m *fakeMessenger) SendToDevice(_ context.Context, token string, _ fcm.NotificationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errFn != nil {
		if err := m.errFn(token); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, token)
	return nil
}

func newSender(dir *fakeDirectory, records *fakeRecords, messenger *fakeMessenger) SenderUsecase {
	return NewSenderUsecase(dir, records, messenger, time.Second, zap.NewNop())
}

func TestSendSkipsWhenNoToken(t *testing.T) {
	dir := newFakeDirectory()
	records := &fakeRecords{}
	messenger := &fakeMessenger{}
	sender := newSender(dir, records, messenger)

	outcome, err := sender.Send(context.Background(), recipientdomain.RoleParent, "a@x.com", "Hi", "Body", "test", nil)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Empty(t, messenger.sent)
	assert.Empty(t, records.created, "skipped send must not write a log entry")
}

func TestSendDeliveredWritesRecord(t *testing.T) {
	dir := newFakeDirectory()
	dir.tokens[dirKey(recipientdomain.RoleParent, "a@x.com")] = "T1"
	records := &fakeRecords{}
	messenger := &fakeMessenger{}
	sender := newSender(dir, records, messenger)

	outcome, err := sender.Send(context.Background(), recipientdomain.RoleParent, "a@x.com", "Hi", "Body", "test", map[string]interface{}{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeDelivered, outcome)
	assert.Equal(t, []string{"T1"}, messenger.sent)

	require.Len(t, records.created, 1)
	rec := records.created[0]
	assert.Equal(t, "parent", rec.RecipientRole)
	assert.Equal(t, "a@x.com", rec.RecipientID)
	assert.Equal(t, "Hi", rec.Title)
	assert.Equal(t, "Body", rec.Body)
	assert.Equal(t, "test", rec.Type)
	assert.False(t, rec.IsRead)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSendNoImplicitDedup(t *testing.T) {
	dir := newFakeDirectory()
	dir.tokens[dirKey(recipientdomain.RoleParent, "a@x.com")] = "T1"
	records := &fakeRecords{}
	messenger := &fakeMessenger{}
	sender := newSender(dir, records, messenger)

	for i := 0; i < 2; i++ {
		outcome, err := sender.Send(context.Background(), recipientdomain.RoleParent, "a@x.com", "Hi", "Body", "test", nil)
		require.NoError(t, err)
		require.Equal(t, OutcomeDelivered, outcome)
	}

	assert.Len(t, messenger.sent, 2)
	assert.Len(t, records.created, 2, "the primitive must not deduplicate identical sends")
}

func TestSendPermanentFailureEvictsToken(t *testing.T) {
	dir := newFakeDirectory()
	dir.tokens[dirKey(recipientdomain.RoleHospital, "hosp-1")] = "DEAD"
	records := &fakeRecords{}
	messenger := &fakeMessenger{errFn: func(string) error {
		return fcm.ErrTokenNotRegistered
	}}
	sender := newSender(dir, records, messenger)

	outcome, err := sender.Send(context.Background(), recipientdomain.RoleHospital, "hosp-1", "Hi", "Body", "test", nil)

	assert.Equal(t, OutcomeFailed, outcome)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fcm.ErrTokenNotRegistered))
	assert.Empty(t, records.created, "failed send must not write a log entry")

	token, getErr := dir.GetToken(context.Background(), recipientdomain.RoleHospital, "hosp-1")
	require.NoError(t, getErr)
	assert.Empty(t, token, "permanently invalid token must be evicted")

	// Next send short-circuits to skipped.
	outcome, err = sender.Send(context.Background(), recipientdomain.RoleHospital, "hosp-1", "Hi", "Body", "test", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestSendTransientFailureKeepsToken(t *testing.T) {
	dir := newFakeDirectory()
	dir.tokens[dirKey(recipientdomain.RoleParent, "a@x.com")] = "T1"
	records := &fakeRecords{}
	messenger := &fakeMessenger{errFn: func(string) error {
		return errors.New("unavailable")
	}}
	sender := newSender(dir, records, messenger)

	outcome, err := sender.Send(context.Background(), recipientdomain.RoleParent, "a@x.com", "Hi", "Body", "test", nil)

	assert.Equal(t, OutcomeFailed, outcome)
	require.Error(t, err)
	assert.Empty(t, records.created)

	token, getErr := dir.GetToken(context.Background(), recipientdomain.RoleParent, "a@x.com")
	require.NoError(t, getErr)
	assert.Equal(t, "T1", token, "transient failure must leave the token untouched")
}

func TestFlattenPayload(t *testing.T) {
	data := FlattenPayload("reminder", map[string]interface{}{
		"str":   "v",
		"int":   7,
		"i64":   int64(9),
		"f":     1.5,
		"b":     true,
		"empty": nil,
	})

	assert.Equal(t, map[string]string{
		"str":   "v",
		"int":   "7",
		"i64":   "9",
		"f":     "1.5",
		"b":     "true",
		"empty": "",
		"type":  "reminder",
	}, data)
}

func TestFlattenPayloadDefaultsType(t *testing.T) {
	data := FlattenPayload("", nil)
	assert.Equal(t, "default", data["type"])
}
