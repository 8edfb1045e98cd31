package roster

// Session membership is deliberately lifecycle-free: a session exists exactly
// as long as it has members, and the empty map entry is removed when the last
// member leaves. Ending a rehearsal is a broadcast concern, not bookkeeping.

// Join adds connID to the session's member set. Joining twice has no
// additional effect.
func (r *Roster) Join(sessionID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.sessions[sessionID]
	if members == nil {
		members = make(map[string]struct{})
		r.sessions[sessionID] = members
	}
	members[connID] = struct{}{}

	joined := r.connSessions[connID]
	if joined == nil {
		joined = make(map[string]struct{})
		r.connSessions[connID] = joined
	}
	joined[sessionID] = struct{}{}
}

// Leave removes connID from the session's member set. Leaving a session the
// connection never joined is a no-op.
func (r *Roster) Leave(sessionID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.sessions[sessionID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.sessions, sessionID)
		}
	}
	if joined, ok := r.connSessions[connID]; ok {
		delete(joined, sessionID)
		if len(joined) == 0 {
			delete(r.connSessions, connID)
		}
	}
}

// LeaveAll removes connID from every session it belongs to.
func (r *Roster) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveAllLocked(connID)
}

func (r *Roster) leaveAllLocked(connID string) {
	for sessionID := range r.connSessions[connID] {
		members := r.sessions[sessionID]
		delete(members, connID)
		if len(members) == 0 {
			delete(r.sessions, sessionID)
		}
	}
	delete(r.connSessions, connID)
}

// MembersOf returns a snapshot of the session's member connection IDs. A
// session nobody has joined yields an empty slice; the roster keeps no
// session metadata beyond membership, so an unknown session and an empty one
// are indistinguishable.
func (r *Roster) MembersOf(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.sessions[sessionID]
	out := make([]string, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	return out
}

// SessionCount returns the number of sessions with at least one member.
func (r *Roster) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
