// internal/workers/connection/notify-connection/models.go
package notifyconnection

import "matrix-core/internal/notify"

type Input struct {
	ConnectionID string `json:"connectionId"`
}

type Output struct {
	Notification       *notify.Result `json:"notification"`
	NotificationStatus string         `json:"notificationStatus"`
}
