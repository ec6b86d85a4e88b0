package db

import (
	"fmt"
	"slices"

	"github.com/mahaj/chatroom/pkg/model"
)

// Row is the flattened form of a relayed message as stored in Scylla.
type Row struct {
	RoomID          string
	Seq             int64
	ID              string
	Type            string
	UserID          string
	Username        string
	UserAvatar      string
	Content         string
	ReplyUserID     string
	ReplyUsername   string
	ReplyUserAvatar string
	ReplyContent    string
	HasReply        bool
	CreatedAt       int64
}

// RowFromEnvelope flattens a relayed message frame.
func RowFromEnvelope(env model.Envelope) (Row, error) {
	if env.Message == nil {
		return Row{}, fmt.Errorf("envelope %d in room %s has no message", env.Seq, env.Room)
	}
	m := env.Message
	r := Row{
		RoomID:     env.Room,
		Seq:        env.Seq,
		ID:         m.ID,
		Type:       string(m.Type),
		UserID:     m.Main.ID,
		Username:   m.Main.Username,
		UserAvatar: m.Main.UserAvatar,
		Content:    m.Main.Content,
		CreatedAt:  m.CreatedAt,
	}
	if m.Reply != nil {
		r.HasReply = true
		r.ReplyUserID = m.Reply.ID
		r.ReplyUsername = m.Reply.Username
		r.ReplyUserAvatar = m.Reply.UserAvatar
		r.ReplyContent = m.Reply.Content
	}
	return r, nil
}

// Message rebuilds the chat message.
func (r Row) Message() model.Message {
	m := model.Message{
		ID:   r.ID,
		Type: model.MessageType(r.Type),
		Main: model.MessageDetail{
			ID:         r.UserID,
			Username:   r.Username,
			UserAvatar: r.UserAvatar,
			Content:    r.Content,
		},
		CreatedAt: r.CreatedAt,
	}
	if r.HasReply {
		m.Reply = &model.MessageDetail{
			ID:         r.ReplyUserID,
			Username:   r.ReplyUsername,
			UserAvatar: r.ReplyUserAvatar,
			Content:    r.ReplyContent,
		}
	}
	return m
}

type MessageRepository struct {
	db *Session
}

func NewMessageRepository(session *Session) *MessageRepository {
	return &MessageRepository{db: session}
}

func (r *MessageRepository) Save(row Row) error {
	query := `INSERT INTO messages (room_id, seq, id, type, user_id, username, user_avatar, content,
		reply_user_id, reply_username, reply_user_avatar, reply_content, has_reply, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := r.db.Query(query,
		row.RoomID, row.Seq, row.ID, row.Type, row.UserID, row.Username, row.UserAvatar, row.Content,
		row.ReplyUserID, row.ReplyUsername, row.ReplyUserAvatar, row.ReplyContent, row.HasReply, row.CreatedAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("save message %s: %w", row.ID, err)
	}
	return nil
}

// History returns the latest limit messages of a room, oldest first. A limit
// of zero or less returns everything.
func (r *MessageRepository) History(roomID string, limit int) ([]model.Message, error) {
	query := `SELECT room_id, seq, id, type, user_id, username, user_avatar, content,
		reply_user_id, reply_username, reply_user_avatar, reply_content, has_reply, created_at
		FROM messages WHERE room_id = ?`
	args := []interface{}{roomID}
	if limit > 0 {
		query += ` ORDER BY seq DESC LIMIT ?`
		args = append(args, limit)
	}
	iter := r.db.Query(query, args...).Iter()

	var messages []model.Message
	var row Row
	for iter.Scan(&row.RoomID, &row.Seq, &row.ID, &row.Type, &row.UserID, &row.Username, &row.UserAvatar, &row.Content,
		&row.ReplyUserID, &row.ReplyUsername, &row.ReplyUserAvatar, &row.ReplyContent, &row.HasReply, &row.CreatedAt) {
		messages = append(messages, row.Message())
		row = Row{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("history %s: %w", roomID, err)
	}
	if limit > 0 {
		slices.Reverse(messages)
	}
	return messages, nil
}
