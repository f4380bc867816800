package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/pdfchat/internal/domain/message"
)

// ThreadStore implements conversation memory on the messages table.
type ThreadStore struct {
	db *sql.DB
}

// History returns the thread's messages in append order.
func (s *ThreadStore) History(ctx context.Context, threadID string) ([]message.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM messages WHERE thread_id = ? ORDER BY seq`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var msgs []message.Message
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m, err := message.Unmarshal(payload)
		if err != nil {
			return nil, fmt.Errorf("thread %s: %w", threadID, err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread %s: %w", threadID, err)
	}
	return msgs, nil
}

// Append inserts messages in one transaction.
func (s *ThreadStore) Append(ctx context.Context, threadID string, msgs ...message.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO messages (thread_id, payload) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		payload, err := message.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, threadID, payload); err != nil {
			return fmt.Errorf("insert message into %s: %w", threadID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}
