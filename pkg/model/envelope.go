package model

type FrameKind string

const (
	FrameMessage FrameKind = "message"
	FrameLeave   FrameKind = "leave"
)

// Envelope is the frame exchanged over the websocket and the record written
// to Kafka. Room, Origin and Seq are filled in by the gateway.
type Envelope struct {
	Kind    FrameKind `json:"kind"`
	Room    string    `json:"room,omitempty"`
	Origin  string    `json:"origin,omitempty"`
	Seq     int64     `json:"seq,omitempty"`
	Message *Message  `json:"message,omitempty"`
	User    *User     `json:"user,omitempty"`
}
