package notify

import (
	"strconv"
	"time"
)

// Notification is one persisted sink entry. Consumers read it either from
// the listing endpoint or from the per-recipient Redis channel it was
// published to.
type Notification struct {
	ID          int64      `json:"id"`
	RecipientID int64      `json:"recipient_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Channel names the Redis pub/sub channel of one recipient.
func Channel(recipientID int64) string {
	return "notif:user:" + strconv.FormatInt(recipientID, 10)
}
