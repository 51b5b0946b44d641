// Package console drives one participant's negotiations from a line-oriented
// terminal. All state is owned by a single event loop goroutine: typed
// commands and frames arriving from the relay are processed one at a time.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/command"
	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
	"github.com/cory-johannsen/targeted-damage/internal/game/damage"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
	"github.com/cory-johannsen/targeted-damage/internal/game/routing"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
	"github.com/cory-johannsen/targeted-damage/internal/game/soak"
)

// ErrQuit is returned by Execute when the user asks to leave.
var ErrQuit = errors.New("quit")

// Negotiator opens soak sessions.
type Negotiator interface {
	Open(ctx context.Context, req soak.OpenRequest) (*soak.Session, error)
}

// Router routes damage events and inbound prompts.
type Router interface {
	Route(ctx context.Context, ev routing.DamageEvent) []routing.Result
	Choose(ctx context.Context, c routing.Choice, participantID string) error
	Receive(ctx context.Context, p routing.Prompt) (bool, error)
}

// Config holds a Console's collaborators.
type Config struct {
	Self       session.Participant
	Out        io.Writer
	Negotiator Negotiator
	Roster     routing.RosterSource
	Rules      soak.RuleSource
	// Store and Conditions back the inspect command.
	Store      entity.Store
	Conditions *condition.Registry
	Logger     *zap.Logger
}

// Console is a participant's terminal. It implements routing.Opener and
// routing.Chooser; both are only called from the event loop.
type Console struct {
	self       session.Participant
	out        io.Writer
	registry   *command.Registry
	negotiator Negotiator
	roster     routing.RosterSource
	rules      soak.RuleSource
	store      entity.Store
	conditions *condition.Registry
	router     Router
	logger     *zap.Logger

	events chan func(context.Context)

	sessions    map[int]*soak.Session
	choices     map[int]routing.Choice
	nextSession int
	nextChoice  int
}

// New creates a Console. Attach must be called before Run.
//
// Precondition: cfg.Out, cfg.Negotiator, cfg.Roster and cfg.Rules must be non-nil.
func New(cfg Config) *Console {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	conditions := cfg.Conditions
	if conditions == nil {
		conditions = condition.DefaultRegistry()
	}
	return &Console{
		self:       cfg.Self,
		out:        cfg.Out,
		registry:   command.DefaultRegistry(),
		negotiator: cfg.Negotiator,
		roster:     cfg.Roster,
		rules:      cfg.Rules,
		store:      cfg.Store,
		conditions: conditions,
		logger:     logger,
		events:     make(chan func(context.Context), 64),
		sessions:   make(map[int]*soak.Session),
		choices:    make(map[int]routing.Choice),
	}
}

// Attach sets the router the console issues damage events through.
func (c *Console) Attach(r Router) {
	c.router = r
}

// Run multiplexes lines from in with inbound relay frames until ctx is
// cancelled, in reaches EOF, or the user quits.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.printf("joined as %s. Type 'help' for commands.\n", c.self.ID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-c.events:
			fn(ctx)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.Execute(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				c.printf("error: %v\n", err)
			}
		}
	}
}

// post queues fn for the event loop. Frames arriving faster than the loop
// drains them are dropped with a warning.
func (c *Console) post(what string, fn func(context.Context)) {
	select {
	case c.events <- fn:
	default:
		c.logger.Warn("console event queue full", zap.String("event", what))
	}
}

// PromptReceived queues an inbound prompt.
func (c *Console) PromptReceived(p routing.Prompt) {
	c.post("prompt", func(ctx context.Context) { c.receivePrompt(ctx, p) })
}

// ReportReceived queues an inbound report.
func (c *Console) ReportReceived(r report.Report) {
	c.post("report", func(context.Context) { c.printf("[report] %s\n", r.Text) })
}

// NoticeReceived queues a notice for display.
func (c *Console) NoticeReceived(msg string) {
	c.post("notice", func(context.Context) { c.printf("[notice] %s\n", msg) })
}

// RosterChanged queues a roster summary for display.
func (c *Console) RosterChanged(ps []session.Participant) {
	c.post("roster", func(context.Context) {
		active := 0
		for _, p := range ps {
			if p.Active {
				active++
			}
		}
		c.printf("[roster] %d of %d participants connected\n", active, len(ps))
	})
}

func (c *Console) receivePrompt(ctx context.Context, p routing.Prompt) {
	if c.router == nil {
		return
	}
	opened, err := c.router.Receive(ctx, p)
	if err != nil {
		c.printf("error: opening %s: %v\n", p.Target, err)
		return
	}
	if !opened {
		c.logger.Debug("prompt for another participant",
			zap.String("event_id", p.EventID),
			zap.String("recipient", p.Recipient),
		)
	}
}

// Open starts a local negotiation for p.
func (c *Console) Open(ctx context.Context, p routing.Prompt) error {
	s, err := c.negotiator.Open(ctx, soak.OpenRequest{
		EventID: p.EventID,
		Target:  p.Target,
		Damage:  p.Damage,
		AP:      p.AP,
		Handler: c.self.ID,
	})
	if err != nil {
		return err
	}
	o := s.Current()
	if o.State == soak.StateResolved {
		c.printf("%s: %s\n", s.TargetName(), o.Message)
		return nil
	}
	c.nextSession++
	c.sessions[c.nextSession] = s
	c.printSession(c.nextSession, s, o)
	return nil
}

// Present records a pending choice and lists its options.
func (c *Console) Present(_ context.Context, ch routing.Choice) error {
	c.nextChoice++
	c.choices[c.nextChoice] = ch
	c.printf("choice %d: who resolves damage to %s?\n", c.nextChoice, ch.TargetName)
	for _, opt := range ch.Options {
		c.printf("    %s (%s)\n", opt.ID, opt.Name)
	}
	c.printf("    use: choose %d <participant>\n", c.nextChoice)
	return nil
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *Console) printSession(n int, s *soak.Session, o soak.Outcome) {
	c.printf("[%d] %s: %s\n", n, s.TargetName(), o.Message)
	c.printf("    damage %d ap %d | %s | wounds %d | best soak %d\n",
		o.Damage, o.AP, o.Status, o.Wounds, o.BestSoak)
	c.printf("    actions: %s\n", strings.Join(availableActions(o), ", "))
}

// availableActions lists the commands accepted for o.
func availableActions(o soak.Outcome) []string {
	actions := []string{"edit"}
	switch o.Status {
	case damage.StatusNone:
		actions = append(actions, "dismiss")
	case damage.StatusShaken:
		if o.Wounds > 0 {
			actions = append(actions, "soak")
		}
		actions = append(actions, "shaken")
	case damage.StatusWounded:
		actions = append(actions, "soak", "take")
	}
	return append(actions, "close")
}

func (c *Console) sortedSessions() []int {
	ids := make([]int, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
