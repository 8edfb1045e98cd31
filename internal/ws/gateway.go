package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/bandroom/backend/internal/roster"
	"github.com/gorilla/websocket"
)

const defaultSendBuffer = 64

// Gateway drives each connection from accept to teardown and keeps the
// roster and hub consistent along the way. Messages from one connection are
// dispatched in arrival order; different connections are handled on their
// own goroutines.
type Gateway struct {
	roster     *roster.Roster
	hub        *Hub
	sendBuffer int
	writeWait  time.Duration
}

func NewGateway(r *roster.Roster, h *Hub, sendBuffer int, writeWait time.Duration) *Gateway {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Gateway{
		roster:     r,
		hub:        h,
		sendBuffer: sendBuffer,
		writeWait:  writeWait,
	}
}

// Run serves one connection until its transport drops: registers it with the
// hub, dispatches its frames, and tears it down on read error.
func (g *Gateway) Run(conn *websocket.Conn) {
	c := g.register(conn)
	log.Printf("client connected: %s", c.id)
	defer g.disconnect(c.id)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		g.dispatch(c.id, data)
	}
}

// register wraps conn in a client handle and adds it to the hub. The
// connection starts anonymous; it becomes addressable by user only after a
// bind-user frame.
func (g *Gateway) register(conn *websocket.Conn) *client {
	c := newClient(conn, g.sendBuffer, g.writeWait)
	g.hub.add(c)
	return c
}

// dispatch routes one inbound frame. A frame that cannot be parsed or names
// no target is logged and dropped; nothing a client sends can take the
// coordinator down.
func (g *Gateway) dispatch(connID string, data []byte) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("client %s: dropping malformed frame: %v", connID, err)
		return
	}

	switch msg.Type {
	case MsgBindUser:
		g.bindUser(connID, msg.UserID)
	case MsgUnbindUser:
		g.unbindUser(connID)
	case MsgJoinSession:
		if msg.SessionID == "" {
			log.Printf("client %s: join-session without sessionId", connID)
			return
		}
		log.Printf("client %s joining rehearsal %s", connID, msg.SessionID)
		g.roster.Join(msg.SessionID, connID)
	case MsgLeaveSession:
		if msg.SessionID == "" {
			log.Printf("client %s: leave-session without sessionId", connID)
			return
		}
		log.Printf("client %s leaving rehearsal %s", connID, msg.SessionID)
		g.roster.Leave(msg.SessionID, connID)
	case MsgSelectSong:
		g.selectSong(connID, msg.SessionID, msg.Song)
	case MsgEndRehearsal:
		g.endRehearsal(connID, msg.SessionID)
	default:
		log.Printf("client %s: unknown message type %q", connID, msg.Type)
	}
}

// bindUser associates the authenticated user with this connection and makes
// the presence change globally visible. The userId arrives verified by the
// auth collaborator; a previous binding for the same user is displaced
// silently (last bind wins, e.g. on reconnect).
func (g *Gateway) bindUser(connID, userID string) {
	if userID == "" {
		log.Printf("client %s: bind-user without userId", connID)
		return
	}
	log.Printf("binding user %s to client %s", userID, connID)
	g.roster.Bind(userID, connID)
	g.hub.SendToAll(EventUserConnected, PresencePayload{UserID: userID})
}

// unbindUser is a quiet detach: the connection stays registered and keeps
// its session memberships, and no presence event is broadcast. Only a full
// disconnect announces the user's departure.
func (g *Gateway) unbindUser(connID string) {
	if userID, ok := g.roster.Unbind(connID); ok {
		log.Printf("unbound user %s from client %s", userID, connID)
	}
}

// selectSong fans the song out to the session's current members. Any
// connected client may announce a song for a session it can name, bound or
// not; authorization belongs to an external collaborator.
func (g *Gateway) selectSong(connID, sessionID string, song json.RawMessage) {
	if sessionID == "" || len(song) == 0 {
		log.Printf("client %s: select-song missing sessionId or song", connID)
		return
	}
	var s Song
	if err := json.Unmarshal(song, &s); err != nil {
		log.Printf("client %s: dropping unparseable song payload: %v", connID, err)
		return
	}
	log.Printf("song selected for rehearsal %s: %s", sessionID, s.Title)
	g.hub.SendToSession(sessionID, EventSongSelected, song)
}

// endRehearsal notifies the session's members. It does not remove anyone
// from the session; membership decays only through explicit leaves and
// disconnects. Ending a rehearsal nobody joined delivers to nobody.
func (g *Gateway) endRehearsal(connID, sessionID string) {
	if sessionID == "" {
		log.Printf("client %s: end-rehearsal without sessionId", connID)
		return
	}
	log.Printf("ending rehearsal %s", sessionID)
	g.hub.SendToSession(sessionID, EventRehearsalEnded, RehearsalEndedPayload{SessionID: sessionID})
}

// disconnect is the terminal transition. Removal from the hub is the
// idempotence gate: only the first call for a connection still in the table
// touches the roster and broadcasts presence.
func (g *Gateway) disconnect(connID string) {
	c := g.hub.remove(connID)
	if c == nil {
		return
	}
	userID, bound := g.roster.Release(connID)
	log.Printf("client disconnected: %s (connected %s)", connID, time.Since(c.createdAt).Round(time.Millisecond))
	if bound {
		g.hub.SendToAll(EventUserDisconnected, PresencePayload{UserID: userID})
	}
}
