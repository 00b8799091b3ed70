// Package notify carries resume status changes from the worker to the
// websocket relay over Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"eliteapply/internal/database"
)

// TypeResumeStatus is the only message type published today.
const TypeResumeStatus = "resume_status"

// ResumeStatusMessage 字段名与前端解析保持一致。
type ResumeStatusMessage struct {
	Type          string                `json:"type"`
	ResumeID      database.ResumeID     `json:"resume_id"`
	Status        database.ResumeStatus `json:"status"`
	ErrorCode     int                   `json:"error_code"`
	ErrorMessage  string                `json:"error_message"`
	CorrelationID string                `json:"correlation_id"`
}

// Publisher is the subset of *redis.Client used to publish.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Channel returns the per-user channel name.
func Channel(userID database.UserID) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

// Notifier publishes status messages.
type Notifier struct {
	pub Publisher
}

func NewNotifier(pub Publisher) *Notifier {
	return &Notifier{pub: pub}
}

// ResumeStatus publishes msg on the owner's channel; Type is filled in.
func (n *Notifier) ResumeStatus(ctx context.Context, userID database.UserID, msg ResumeStatusMessage) error {
	msg.Type = TypeResumeStatus
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := Channel(userID)
	if err := n.pub.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
