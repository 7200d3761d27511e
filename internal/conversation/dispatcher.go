package conversation

import (
	"context"

	"github.com/m3rciful/voicequotes/core/telegram/state"
	"github.com/m3rciful/voicequotes/internal/admins"
)

// Dispatcher routes decoded events to the state machine or the inline search.
type Dispatcher struct {
	sessions state.Store
	admins   admins.Registry
	machine  *Machine
	search   *Searcher
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(sessions state.Store, registry admins.Registry, machine *Machine, search *Searcher) *Dispatcher {
	return &Dispatcher{sessions: sessions, admins: registry, machine: machine, search: search}
}

// Dispatch handles one inbound event. It never panics on unknown events and
// always returns what the transport has to deliver.
func (d *Dispatcher) Dispatch(ctx context.Context, in Inbound) Outcome {
	if in.Event == nil {
		return Outcome{}
	}
	if q, ok := in.Event.(Query); ok {
		return d.search.Answer(ctx, q)
	}

	if requiresAdmin(in.Event) {
		ok, err := d.admins.Contains(ctx, in.UserID)
		if err != nil {
			return d.machine.storageFailure(ctx, "admins.contains", err)
		}
		if !ok {
			return failed(newError(KindUnauthorized, Kind(in.Event), nil), textUseSearch)
		}
	}

	unlock := d.sessions.Lock(in.UserID)
	defer unlock()
	return d.machine.Handle(ctx, in)
}
