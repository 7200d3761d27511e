package state

import "context"

// Phase identifies the current step of a user's workflow.
type Phase string

const (
	// PhaseIdle indicates there is no active workflow.
	PhaseIdle Phase = "idle"
	// PhaseAwaitingVoice waits for a voice clip to publish.
	PhaseAwaitingVoice Phase = "awaiting_voice"
	// PhaseAwaitingCaption waits for the caption of an already published clip.
	PhaseAwaitingCaption Phase = "awaiting_caption"
	// PhaseAwaitingAdminForward waits for a forwarded message whose sender gets promoted.
	PhaseAwaitingAdminForward Phase = "awaiting_admin_forward"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseAwaitingVoice, PhaseAwaitingCaption, PhaseAwaitingAdminForward:
		return true
	}
	return false
}

// Session stores the conversation state of a single user.
// PendingBroadcastRef and PendingMediaRef are set together and only while
// Phase is PhaseAwaitingCaption.
type Session struct {
	UserID              int64  `json:"user_id"`
	Phase               Phase  `json:"phase"`
	PendingBroadcastRef int    `json:"pending_broadcast_ref,omitempty"`
	PendingMediaRef     string `json:"pending_media_ref,omitempty"`
}

// Idle returns the default session for a user.
func Idle(userID int64) Session {
	return Session{UserID: userID, Phase: PhaseIdle}
}

// WithPhase returns a copy moved to p with pending references dropped.
func (s Session) WithPhase(p Phase) Session {
	return Session{UserID: s.UserID, Phase: p}
}

// AwaitCaption returns a copy waiting for the caption of the given channel post.
func (s Session) AwaitCaption(broadcastRef int, mediaRef string) Session {
	return Session{
		UserID:              s.UserID,
		Phase:               PhaseAwaitingCaption,
		PendingBroadcastRef: broadcastRef,
		PendingMediaRef:     mediaRef,
	}
}

// HasPending reports whether a published but uncaptioned clip is referenced.
func (s Session) HasPending() bool {
	return s.PendingBroadcastRef != 0 && s.PendingMediaRef != ""
}

// Consistent reports whether the pending references agree with the phase.
func (s Session) Consistent() bool {
	if !s.Phase.Valid() {
		return false
	}
	hasRef := s.PendingBroadcastRef != 0
	hasMedia := s.PendingMediaRef != ""
	if hasRef != hasMedia {
		return false
	}
	return hasRef == (s.Phase == PhaseAwaitingCaption)
}

// normalized repairs a session that breaks the pending-reference invariant.
func (s Session) normalized(userID int64) Session {
	s.UserID = userID
	if s.Consistent() {
		return s
	}
	if s.Phase == PhaseAwaitingCaption || !s.Phase.Valid() {
		return Idle(userID)
	}
	return s.WithPhase(s.Phase)
}

// Store owns all sessions. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the user's session or a default idle one. It never fails.
	Get(userID int64) Session
	// Set overwrites the user's session.
	Set(userID int64, s Session)
	// Reset is Set with the default idle session.
	Reset(userID int64)
	// Lock serializes event handling for one user until the returned func is called.
	Lock(userID int64) (unlock func())
	// Active lists sessions that are not idle.
	Active() []Session
}

// Mirror persists sessions outside the process.
type Mirror interface {
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, userID int64) error
	LoadAll(ctx context.Context) ([]Session, error)
}
