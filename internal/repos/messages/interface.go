package messages

import (
	"context"
	"database/sql"
	"time"
)

type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Body       string
	Read       bool
	CreatedAt  time.Time
}

type Messages interface {
	Insert(ctx context.Context, tx *sql.Tx, m Message) error
	ListByReceiver(ctx context.Context, receiverID string, limit int) ([]Message, error)
}
