package model

import "time"

type MessageType string

const (
	TypeText   MessageType = "TEXT"
	TypeSystem MessageType = "SYSTEM"
)

// User is a chat participant. It never changes during a session.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	UserAvatar string `json:"userAvatar,omitempty"`
}

// MessageDetail is a snapshot of who said what. It is copied by value into
// messages and replies and never mutated afterwards.
type MessageDetail struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	UserAvatar string `json:"userAvatar,omitempty"`
	Content    string `json:"content"`
}

// User returns the author fields of the detail.
func (d MessageDetail) User() User {
	return User{ID: d.ID, Username: d.Username, UserAvatar: d.UserAvatar}
}

type Message struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Main      MessageDetail  `json:"main"`
	Reply     *MessageDetail `json:"reply"`
	CreatedAt int64          `json:"createdAt"`
}

// Time returns CreatedAt as a time.Time in the local zone.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

// Detail flattens the user with a content string.
func Detail(u User, content string) MessageDetail {
	return MessageDetail{
		ID:         u.ID,
		Username:   u.Username,
		UserAvatar: u.UserAvatar,
		Content:    content,
	}
}

// IDGenerator hands out identifiers that are unique with overwhelming
// probability. Implementations live in pkg/idgen and pkg/snowflake.
type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// New builds a fully populated message. The content is taken as given; callers
// reject empty submissions before getting here. SYSTEM messages never carry a
// reply.
func New(ids IDGenerator, clock Clock, typ MessageType, user User, content string, reply *MessageDetail) Message {
	msg := Message{
		ID:        ids.NewID(),
		Type:      typ,
		Main:      Detail(user, content),
		CreatedAt: clock.Now().UnixMilli(),
	}
	if reply != nil && typ != TypeSystem {
		r := *reply
		msg.Reply = &r
	}
	return msg
}
