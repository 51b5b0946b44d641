package routing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

// ErrNotAnOption is returned when a chooser selection is not one of the offered participants.
var ErrNotAnOption = errors.New("participant is not an option")

// Transport delivers a prompt to every connected process. Delivery is at most once.
type Transport interface {
	Send(ctx context.Context, p Prompt) error
}

// Opener starts a local negotiation for a prompt.
type Opener interface {
	Open(ctx context.Context, p Prompt) error
}

// Choice is a pending chooser presented to an authority.
type Choice struct {
	Prompt     Prompt
	TargetName string
	Options    []session.Participant
}

// Chooser presents a Choice. The selection comes back later through Router.Choose.
type Chooser interface {
	Present(ctx context.Context, c Choice) error
}

// RosterSource provides roster snapshots.
type RosterSource interface {
	Snapshot() session.Snapshot
}

// Result is the routing outcome for one target.
type Result struct {
	Target   entity.Ref
	Decision Decision
	Err      error
}

// Router routes damage events on behalf of one participant.
type Router struct {
	self      string
	roster    RosterSource
	store     entity.Store
	transport Transport
	opener    Opener
	chooser   Chooser
	logger    *zap.Logger
}

// NewRouter creates a Router for participant self.
//
// Precondition: all arguments must be non-nil and self non-empty.
func NewRouter(self string, roster RosterSource, store entity.Store, transport Transport, opener Opener, chooser Chooser, logger *zap.Logger) *Router {
	return &Router{
		self:      self,
		roster:    roster,
		store:     store,
		transport: transport,
		opener:    opener,
		chooser:   chooser,
		logger:    logger,
	}
}

// Route decides and executes one routing outcome per target.
//
// Postcondition: For each target exactly one of open-local, forward, present
// chooser, or stall happens. A target whose entity cannot be loaded yields a
// Result with Err set and no other effect.
func (r *Router) Route(ctx context.Context, ev DamageEvent) []Result {
	results := make([]Result, 0, len(ev.Targets))
	for _, target := range ev.Targets {
		results = append(results, r.routeOne(ctx, ev, target))
	}
	return results
}

func (r *Router) routeOne(ctx context.Context, ev DamageEvent, target entity.Ref) Result {
	res := Result{Target: target}
	e, err := r.store.Load(ctx, target)
	if err != nil {
		res.Err = fmt.Errorf("routing %q: %w", target, err)
		return res
	}

	snap := r.roster.Snapshot()
	d := Decide(snap, r.self, target, e.Ownership)
	res.Decision = d
	r.logger.Debug("routing decision",
		zap.String("event_id", ev.ID),
		zap.String("target", string(target)),
		zap.String("kind", d.Kind.String()),
		zap.String("recipient", d.Recipient),
		zap.String("reason", d.Reason),
	)

	switch d.Kind {
	case KindOpenLocal:
		res.Err = r.opener.Open(ctx, ev.PromptFor(target, r.self))
	case KindForward:
		res.Err = r.transport.Send(ctx, ev.PromptFor(target, d.Recipient))
	case KindChoose:
		res.Err = r.chooser.Present(ctx, Choice{
			Prompt:     ev.PromptFor(target, ""),
			TargetName: e.Name,
			Options:    d.Options,
		})
	case KindStalled:
		r.logger.Warn("routing stalled",
			zap.String("event_id", ev.ID),
			zap.String("target", string(target)),
			zap.String("reason", d.Reason),
		)
	}
	return res
}

// Choose forwards a pending choice to the selected participant.
//
// Postcondition: Returns ErrNotAnOption if participantID was not offered.
func (r *Router) Choose(ctx context.Context, c Choice, participantID string) error {
	for _, opt := range c.Options {
		if opt.ID != participantID {
			continue
		}
		p := c.Prompt
		p.Recipient = participantID
		r.logger.Debug("chooser selection",
			zap.String("event_id", p.EventID),
			zap.String("target", string(p.Target)),
			zap.String("recipient", participantID),
		)
		return r.transport.Send(ctx, p)
	}
	return fmt.Errorf("choosing %q: %w", participantID, ErrNotAnOption)
}

// Receive handles a prompt arriving from the transport. It opens a local
// negotiation only when this participant is the recipient.
//
// Postcondition: Returns true iff a local open was attempted.
func (r *Router) Receive(ctx context.Context, p Prompt) (bool, error) {
	if p.Recipient != r.self {
		return false, nil
	}
	return true, r.opener.Open(ctx, p)
}
