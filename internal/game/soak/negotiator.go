package soak

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/damage"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
)

// Deps are the collaborators a Negotiator hands to every session it opens.
// Injuries and Hooks are optional.
type Deps struct {
	Store     entity.Store
	Contester Contester
	Pool      ResourcePool
	Publisher report.Publisher
	Rules     RuleSource
	Injuries  InjuryDrawer
	Hooks     Hooks
	Logger    *zap.Logger
}

// Negotiator opens soak sessions.
type Negotiator struct {
	deps Deps
}

// NewNegotiator validates deps and returns a Negotiator.
//
// Postcondition: Returns ErrMissingConfig (wrapped) when a required collaborator is nil.
func NewNegotiator(deps Deps) (*Negotiator, error) {
	var missing []string
	if deps.Store == nil {
		missing = append(missing, "store")
	}
	if deps.Contester == nil {
		missing = append(missing, "contester")
	}
	if deps.Pool == nil {
		missing = append(missing, "pool")
	}
	if deps.Publisher == nil {
		missing = append(missing, "publisher")
	}
	if deps.Rules == nil {
		missing = append(missing, "rules")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("negotiator: %v: %w", missing, ErrMissingConfig)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Negotiator{deps: deps}, nil
}

// OpenRequest carries the parameters of one hit against one target.
type OpenRequest struct {
	EventID string
	Target  entity.Ref
	Damage  int
	AP      int
	// Handler is the participant id running the session.
	Handler string
}

// Open starts a session for req.
// When the hit has no effect the session is returned already resolved with a
// no-significant-damage report and nothing is mutated.
//
// Postcondition: On error no session exists and nothing was mutated.
// Input errors are ErrTargetNotFound, ErrMissingConfig and ErrInvalidParameters.
func (n *Negotiator) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	if req.Damage < 0 || req.AP < 0 {
		return nil, ErrInvalidParameters
	}
	rules := n.deps.Rules.Rules()
	if rules.GrittyDamage && (rules.InjuryTable == "" || n.deps.Injuries == nil) {
		return nil, fmt.Errorf("gritty damage requires an injury table: %w", ErrMissingConfig)
	}

	e, err := n.deps.Store.Load(ctx, req.Target)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("opening %q: %w", req.Target, ErrTargetNotFound)
		}
		return nil, fmt.Errorf("opening %q: %w", req.Target, err)
	}

	s := &Session{
		id:           uuid.New(),
		deps:         n.deps,
		eventID:      req.EventID,
		handler:      req.Handler,
		target:       req.Target,
		name:         e.Name,
		rolledDamage: req.Damage,
		rolledAP:     req.AP,
		damage:       req.Damage,
		ap:           req.AP,
		logger: n.deps.Logger.With(
			zap.String("event_id", req.EventID),
			zap.String("target", string(req.Target)),
		),
	}
	s.compute(e, rules)
	s.logger.Debug("negotiation opened",
		zap.String("session_id", s.id.String()),
		zap.String("status", s.status.String()),
		zap.Int("wounds", s.wounds),
	)

	if s.status == damage.StatusNone {
		s.resolve(ctx, e, rules, s.newReport(report.KindNoSignificantDamage, rules), false)
	}
	return s, nil
}
