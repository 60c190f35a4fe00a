package chat

import (
	"database/sql"
	"strings"
	"time"
)

type Message struct {
	ID          int       `json:"id"`
	MemberID    int       `json:"member_id"`
	UserID      int       `json:"user_id"`
	Position    int       `json:"position"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	SourceCount int       `json:"source_count"`
	Confidence  string    `json:"confidence,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

// Append inserts the next turn for the (member, admin) conversation. The
// position is claimed with a unique key; on a concurrent append the insert
// collides and is retried with a fresh position, so no turn is lost.
func (r *HistoryRepository) Append(memberID, userID int, role, content string, sourceCount int, confidence string) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		var pos int
		if err = r.db.QueryRow(`SELECT COALESCE(MAX(position),0)+1 FROM chat_messages WHERE member_id=? AND user_id=?`, memberID, userID).Scan(&pos); err != nil {
			return err
		}
		_, err = r.db.Exec(`INSERT INTO chat_messages (member_id, user_id, position, role, content, source_count, confidence) VALUES (?,?,?,?,?,?,?)`,
			memberID, userID, pos, role, content, sourceCount, confidence)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "Duplicate entry") {
			return err
		}
	}
	return err
}

func (r *HistoryRepository) History(memberID, userID int) ([]Message, error) {
	rows, err := r.db.Query(`SELECT id, member_id, user_id, position, role, content, source_count, confidence, created_at FROM chat_messages WHERE member_id=? AND user_id=? ORDER BY position ASC`, memberID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.MemberID, &m.UserID, &m.Position, &m.Role, &m.Content, &m.SourceCount, &m.Confidence, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *HistoryRepository) Clear(memberID, userID int) error {
	_, err := r.db.Exec(`DELETE FROM chat_messages WHERE member_id=? AND user_id=?`, memberID, userID)
	return err
}
