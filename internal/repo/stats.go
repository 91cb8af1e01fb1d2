// Aggregate queries backing conditional responses. The handlers fold these
// counts and high-water timestamps into weak ETags for list endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
)

// ConversationsStats counts a user's live conversations and reports the most
// recent updated_at among them. An empty set yields (0, nil, nil).
func ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ? AND is_deleted = ?", userID, false)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order-and-limit instead of MAX(): sqlite returns MAX(datetime) as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// MessagesStats counts a conversation's messages and reports the newest
// message timestamp. An empty conversation yields (0, nil, nil).
func MessagesStats(ctx context.Context, db *gorm.DB, conversationID string) (count int64, maxTS *time.Time, err error) {
	q := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		Timestamp time.Time
	}
	if err = q.Select("timestamp").Order("timestamp DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.Timestamp, nil
}
