// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"time"

	"matrix-core/internal/common/config"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
	StatusFailed   = "failed"
)

// Recipient is the contact data of the notified user.
type Recipient struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// Result describes one notification attempt.
type Result struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"`
}

// Notifier delivers connection notifications over SES and SNS.
type Notifier struct {
	cfg    config.NotificationConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

// New builds a notifier. Either client may be nil when its channel is disabled.
func New(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (n *Notifier) emailEnabled() bool { return n.cfg.Email.Enabled && n.ses != nil }
func (n *Notifier) smsEnabled() bool   { return n.cfg.SMS.Enabled && n.sns != nil }

// NotifyConnection tells the target of a new connection about it.
func (n *Notifier) NotifyConnection(ctx context.Context, recipient Recipient, conn *models.Connection) (*Result, error) {
	result := &Result{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if !n.emailEnabled() && !n.smsEnabled() {
		n.logger.Debug("notifications disabled", map[string]interface{}{
			"connectionId": conn.ID,
		})
		return result, nil
	}

	subject, body := connectionMessage(recipient, conn)

	if n.emailEnabled() && recipient.Email != "" {
		if err := n.sendEmail(ctx, recipient.Email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error":        err,
				"connectionId": conn.ID,
			})
			result.Status = StatusFailed
			return result, errors.NewNotificationSendFailedError("email", err)
		}
		result.EmailSent = true
	}

	if n.smsEnabled() && recipient.Phone != "" {
		if err := n.sendSMS(ctx, recipient.Phone, body); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error":        err,
				"connectionId": conn.ID,
			})
			result.Status = StatusFailed
			return result, errors.NewNotificationSendFailedError("sms", err)
		}
		result.SMSSent = true
	}

	if result.EmailSent || result.SMSSent {
		result.Status = StatusSent
	}
	n.logger.Info("connection notification processed", map[string]interface{}{
		"connectionId": conn.ID,
		"status":       result.Status,
	})
	return result, nil
}

func connectionMessage(recipient Recipient, conn *models.Connection) (string, string) {
	subject := "Новый запрос на сотрудничество"
	greeting := "Здравствуйте!"
	if recipient.Name != "" {
		greeting = fmt.Sprintf("Здравствуйте, %s!", recipient.Name)
	}
	body := fmt.Sprintf("%s\n\nВам поступил новый запрос на сотрудничество (%s).", greeting, conn.ConnectionType)
	if conn.ConnectionScore > 0 {
		body += fmt.Sprintf(" Совпадение с запросом: %.0f%%.", conn.ConnectionScore*100)
	}
	body += fmt.Sprintf("\nНомер запроса: %s", conn.ID)
	return subject, body
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.cfg.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.cfg.SMS.SenderID),
			},
		}
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}
