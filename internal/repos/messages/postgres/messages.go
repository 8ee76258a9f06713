package messages

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/cashcow/internal/repos/messages"
)

var _ messages.Messages = (*messagesRepo)(nil)

type messagesRepo struct{ db *sql.DB }

func New(db *sql.DB) *messagesRepo {
	return &messagesRepo{db: db}
}

func (r *messagesRepo) Insert(ctx context.Context, tx *sql.Tx, m messages.Message) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.SenderID, m.ReceiverID, m.Body, m.Read, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

func (r *messagesRepo) ListByReceiver(ctx context.Context, receiverID string, limit int) ([]messages.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, body, read, created_at
		FROM messages
		WHERE receiver_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, receiverID, limit)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]messages.Message, 0)

	for rows.Next() {
		var m messages.Message

		err = rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Read, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		out = append(out, m)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return out, nil
}
