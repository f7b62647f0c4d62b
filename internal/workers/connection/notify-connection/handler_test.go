// internal/workers/connection/notify-connection/handler_test.go
package notifyconnection

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/models"
	"matrix-core/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockConnections struct {
	Stored map[string]*models.Connection
}

func (m *MockConnections) Get(ctx context.Context, id string) (*models.Connection, error) {
	c, ok := m.Stored[id]
	if !ok {
		return nil, errors.NewConnectionNotFoundError(id)
	}
	return c, nil
}

type MockRecipients struct {
	Known map[string]notify.Recipient
}

func (m *MockRecipients) Recipient(ctx context.Context, id string) (notify.Recipient, error) {
	r, ok := m.Known[id]
	if !ok {
		return notify.Recipient{}, errors.NewUserNotFoundError(id)
	}
	return r, nil
}

type MockNotifier struct {
	Err  error
	Sent []notify.Recipient
}

func (m *MockNotifier) NotifyConnection(ctx context.Context, recipient notify.Recipient, conn *models.Connection) (*notify.Result, error) {
	if m.Err != nil {
		return &notify.Result{Status: notify.StatusFailed}, m.Err
	}
	m.Sent = append(m.Sent, recipient)
	return &notify.Result{NotificationID: "n-1", Status: notify.StatusSent, EmailSent: true}, nil
}

func fixtures() (*MockConnections, *MockRecipients) {
	conns := &MockConnections{Stored: map[string]*models.Connection{
		"c-1": {ID: "c-1", FromUser: "u-1", ToUser: "p-1", ConnectionType: models.ConnectionTypeRecommendation, Status: models.ConnectionPending},
		"c-2": {ID: "c-2", FromUser: "u-1", ToUser: "ghost", ConnectionType: models.ConnectionTypeDirect, Status: models.ConnectionPending},
	}}
	recipients := &MockRecipients{Known: map[string]notify.Recipient{
		"p-1": {UserID: "p-1", Name: "СтройДом", Email: "info@stroydom.ru"},
	}}
	return conns, recipients
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute_Sends(t *testing.T) {
	conns, recipients := fixtures()
	notifier := &MockNotifier{}
	h := NewHandler(&Config{Timeout: time.Second}, conns, recipients, notifier, logger.NewTestLogger(t), nil)

	out, err := h.Execute(context.Background(), &Input{ConnectionID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, notify.StatusSent, out.NotificationStatus)
	assert.True(t, out.Notification.EmailSent)
	require.Len(t, notifier.Sent, 1)
	assert.Equal(t, "info@stroydom.ru", notifier.Sent[0].Email)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       *Input
		notifyErr   error
		wantCode    errors.ErrorCode
		wantRetries int
	}{
		{"missing id", &Input{}, nil, errors.ErrCodeInvalidInput, 0},
		{"unknown connection", &Input{ConnectionID: "c-404"}, nil, errors.ErrCodeConnectionNotFound, 0},
		{"unknown recipient", &Input{ConnectionID: "c-2"}, nil, errors.ErrCodeUserNotFound, 0},
		{
			"send failure is retried",
			&Input{ConnectionID: "c-1"},
			errors.NewNotificationSendFailedError("email", stderrors.New("throttled")),
			errors.ErrCodeNotificationSendFailed,
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conns, recipients := fixtures()
			h := NewHandler(&Config{Timeout: time.Second}, conns, recipients, &MockNotifier{Err: tt.notifyErr}, logger.NewNoOpLogger(), nil)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode))
			assert.Equal(t, tt.wantRetries, errors.ConvertToBPMNError(errors.AsStandardError(err)).Retries)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(nil)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
