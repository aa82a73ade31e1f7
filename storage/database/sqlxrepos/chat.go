package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/chat"
	"github.com/etarip26/EduConnect/storage/database"
)

type roomRow struct {
	ID            string    `db:"id"`
	MatchID       string    `db:"match_id"`
	StudentID     string    `db:"student_id"`
	TeacherID     string    `db:"teacher_id"`
	LastMessageAt null.Time `db:"last_message_at"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row roomRow) room() chat.Room {
	r := chat.Room{
		ID:        row.ID,
		MatchID:   row.MatchID,
		StudentID: row.StudentID,
		TeacherID: row.TeacherID,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.LastMessageAt.Valid {
		at := row.LastMessageAt.Time.UTC()
		r.LastMessageAt = &at
	}
	return r
}

type messageRow struct {
	ID        string    `db:"id"`
	RoomID    string    `db:"room_id"`
	SenderID  string    `db:"sender_id"`
	Content   string    `db:"content"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (row messageRow) message() chat.Message {
	return chat.Message{
		ID:        row.ID,
		RoomID:    row.RoomID,
		SenderID:  row.SenderID,
		Content:   row.Content,
		Status:    row.Status,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type chatRepository struct {
	db core.DB
}

func NewChatRepository(db core.DB) chat.Repository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) CreateRoom(ctx context.Context, r chat.Room) (chat.Room, error) {
	const q = `
		INSERT INTO chat_rooms (id, match_id, student_id, teacher_id, last_message_at, created_at, updated_at)
		VALUES (:id, :match_id, :student_id, :teacher_id, :last_message_at, :created_at, :updated_at)`
	row := roomRow{
		ID:            r.ID,
		MatchID:       r.MatchID,
		StudentID:     r.StudentID,
		TeacherID:     r.TeacherID,
		LastMessageAt: null.TimeFromPtr(r.LastMessageAt),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return chat.Room{}, chat.ErrRoomExists
		}
		return chat.Room{}, err
	}
	return r, nil
}

func (repo *chatRepository) getRoom(ctx context.Context, col, val string) (chat.Room, error) {
	var row roomRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM chat_rooms WHERE `+col+` = $1`, val); err != nil {
		return chat.Room{}, notFound(err, chat.ErrRoomNotFound)
	}
	return row.room(), nil
}

func (repo *chatRepository) GetRoom(ctx context.Context, id string) (chat.Room, error) {
	return repo.getRoom(ctx, "id", id)
}

func (repo *chatRepository) GetRoomByMatch(ctx context.Context, matchID string) (chat.Room, error) {
	return repo.getRoom(ctx, "match_id", matchID)
}

func (repo *chatRepository) ListRoomsByMember(ctx context.Context, userID string) ([]chat.Room, error) {
	const q = `
		SELECT * FROM chat_rooms
		WHERE student_id = $1 OR teacher_id = $1
		ORDER BY COALESCE(last_message_at, created_at) DESC`
	var rows []roomRow
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "listing chat rooms")
	}
	rooms := make([]chat.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.room())
	}
	return rooms, nil
}

func (repo *chatRepository) CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	const q = `
		INSERT INTO chat_messages (id, room_id, sender_id, content, status, created_at)
		VALUES (:id, :room_id, :sender_id, :content, :status, :created_at)`
	row := messageRow{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE chat_rooms SET last_message_at = $1, updated_at = $1 WHERE id = $2`, m.CreatedAt, m.RoomID,
		)
		return err
	})
	if err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func (repo *chatRepository) ListMessages(ctx context.Context, roomID string) ([]chat.Message, error) {
	var rows []messageRow
	if err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM chat_messages WHERE room_id = $1 ORDER BY created_at`, roomID,
	); err != nil {
		return nil, errors.Wrap(err, "listing chat messages")
	}
	msgs := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.message())
	}
	return msgs, nil
}

func (repo *chatRepository) MarkMessagesSeen(ctx context.Context, roomID, readerID string) (int, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE chat_messages SET status = $1 WHERE room_id = $2 AND sender_id <> $3 AND status <> $1`,
		chat.StatusSeen, roomID, readerID,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
