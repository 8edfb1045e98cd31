package ws

import "encoding/json"

// EventKind tags outbound domain events.
type EventKind string

const (
	EventSongSelected     EventKind = "song-selected"
	EventRehearsalEnded   EventKind = "rehearsal-ended"
	EventUserConnected    EventKind = "user-connected"
	EventUserDisconnected EventKind = "user-disconnected"
)

// Envelope is the outbound wire frame.
type Envelope struct {
	Type    EventKind   `json:"type"`
	Payload interface{} `json:"payload"`
}

// Inbound message kinds accepted from clients.
const (
	MsgBindUser     = "bind-user"
	MsgUnbindUser   = "unbind-user"
	MsgJoinSession  = "join-session"
	MsgLeaveSession = "leave-session"
	MsgSelectSong   = "select-song"
	MsgEndRehearsal = "end-rehearsal"
)

// Inbound is the envelope read from clients. Only the fields relevant to the
// declared type are populated.
type Inbound struct {
	Type      string          `json:"type"`
	UserID    string          `json:"userId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Song      json.RawMessage `json:"song,omitempty"`
}

// Song is the slice of a song payload the coordinator looks at. The full
// value is owned and validated by the song-catalog collaborator and is
// forwarded to recipients untouched.
type Song struct {
	Title string `json:"title"`
}

type PresencePayload struct {
	UserID string `json:"userId"`
}

type RehearsalEndedPayload struct {
	SessionID string `json:"sessionId"`
}
