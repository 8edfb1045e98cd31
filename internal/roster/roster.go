package roster

import (
	"sync"
)

// Roster tracks which user is bound to which connection, and which rehearsal
// sessions each connection has joined. A single mutex covers both structures
// so a disconnect can drop the user binding and every membership atomically;
// without that, a join racing a disconnect could leave a membership entry
// behind for a connection that is no longer registered.
type Roster struct {
	mu       sync.Mutex
	userConn map[string]string // userID -> connID
	connUser map[string]string // connID -> userID

	sessions     map[string]map[string]struct{} // sessionID -> member connIDs
	connSessions map[string]map[string]struct{} // connID -> joined sessionIDs
}

func New() *Roster {
	return &Roster{
		userConn:     make(map[string]string),
		connUser:     make(map[string]string),
		sessions:     make(map[string]map[string]struct{}),
		connSessions: make(map[string]map[string]struct{}),
	}
}

// Bind associates userID with connID in both directions. If either side is
// already bound elsewhere the prior entry is displaced (last bind wins); the
// displaced connection is not notified and self-discovers staleness only by
// disconnecting. Bind always succeeds.
func (r *Roster) Bind(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.userConn[userID]; ok {
		delete(r.connUser, old)
	}
	if old, ok := r.connUser[connID]; ok {
		delete(r.userConn, old)
	}
	r.userConn[userID] = connID
	r.connUser[connID] = userID
}

// Unbind removes the binding for connID in both directions and returns the
// userID that was bound. Unbinding a connection with no binding is a no-op.
func (r *Roster) Unbind(connID string) (userID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.connUser[connID]
	if !ok {
		return "", false
	}
	delete(r.connUser, connID)
	delete(r.userConn, userID)
	return userID, true
}

// ConnectionFor returns the connection currently bound to userID.
func (r *Roster) ConnectionFor(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.userConn[userID]
	return connID, ok
}

// UserFor returns the user currently bound to connID.
func (r *Roster) UserFor(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.connUser[connID]
	return userID, ok
}

// Release removes every trace of connID in one critical section: the user
// binding and all session memberships. Returns the user that was bound, if
// any. Releasing an unknown connection is a no-op.
func (r *Roster) Release(connID string) (userID string, bound bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveAllLocked(connID)
	userID, bound = r.connUser[connID]
	if bound {
		delete(r.connUser, connID)
		delete(r.userConn, userID)
	}
	return userID, bound
}

// BoundCount returns the number of live user bindings.
func (r *Roster) BoundCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connUser)
}
