package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cory-johannsen/targeted-damage/internal/game/command"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/routing"
	"github.com/cory-johannsen/targeted-damage/internal/game/soak"
)

// Execute runs one command line.
//
// Postcondition: Returns ErrQuit for quit; other errors are user-facing.
func (c *Console) Execute(ctx context.Context, line string) error {
	parsed := command.Parse(line)
	if parsed.Command == "" {
		return nil
	}
	cmd, ok := c.registry.Resolve(parsed.Command)
	if !ok {
		return fmt.Errorf("unknown command %q", parsed.Command)
	}
	if len(parsed.Args) < cmd.MinArgs {
		return fmt.Errorf("usage: %s %s", cmd.Name, cmd.Usage)
	}
	args := parsed.Args

	switch cmd.Handler {
	case command.HandlerDamage:
		return c.damage(ctx, args)
	case command.HandlerChoose:
		return c.choose(ctx, args)
	case command.HandlerSessions:
		c.listSessions()
		return nil
	case command.HandlerEdit:
		dmg, err := intArg(args[1], "damage")
		if err != nil {
			return err
		}
		ap, err := intArg(args[2], "ap")
		if err != nil {
			return err
		}
		return c.apply(ctx, args[0], soak.EditParameters{Damage: dmg, AP: ap})
	case command.HandlerSoak:
		cost, err := c.soakCost(args[1:])
		if err != nil {
			return err
		}
		return c.apply(ctx, args[0], soak.AttemptSoak{Cost: cost})
	case command.HandlerTake:
		return c.apply(ctx, args[0], soak.TakeWounds{})
	case command.HandlerShaken:
		return c.apply(ctx, args[0], soak.ApplyShaken{})
	case command.HandlerDismiss:
		return c.apply(ctx, args[0], soak.NoDamage{})
	case command.HandlerClose:
		return c.closeSession(args[0])
	case command.HandlerInspect:
		return c.inspect(ctx, entity.Ref(args[0]))
	case command.HandlerWho:
		c.who()
		return nil
	case command.HandlerRules:
		c.showRules()
		return nil
	case command.HandlerHelp:
		c.help()
		return nil
	case command.HandlerQuit:
		return ErrQuit
	}
	return fmt.Errorf("command %q has no handler", cmd.Name)
}

func intArg(s, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return n, nil
}

func (c *Console) damage(ctx context.Context, args []string) error {
	if c.router == nil {
		return errors.New("not connected")
	}
	dmg, err := intArg(args[0], "damage")
	if err != nil {
		return err
	}
	ap, err := intArg(args[1], "ap")
	if err != nil {
		return err
	}
	if dmg < 0 || ap < 0 {
		return soak.ErrInvalidParameters
	}
	targets := make([]entity.Ref, 0, len(args)-2)
	for _, a := range args[2:] {
		targets = append(targets, entity.Ref(a))
	}

	ev := routing.NewDamageEvent(dmg, ap, targets...)
	for _, res := range c.router.Route(ctx, ev) {
		if res.Err != nil {
			c.printf("error: %s: %v\n", res.Target, res.Err)
			continue
		}
		switch res.Decision.Kind {
		case routing.KindForward:
			c.printf("%s: sent to %s\n", res.Target, res.Decision.Recipient)
		case routing.KindStalled:
			c.printf("%s: nobody can resolve this right now (%s)\n", res.Target, res.Decision.Reason)
		}
	}
	return nil
}

func (c *Console) choose(ctx context.Context, args []string) error {
	n, err := intArg(args[0], "choice")
	if err != nil {
		return err
	}
	ch, ok := c.choices[n]
	if !ok {
		return fmt.Errorf("no pending choice %d", n)
	}
	if err := c.router.Choose(ctx, ch, args[1]); err != nil {
		return err
	}
	delete(c.choices, n)
	c.printf("%s: sent to %s\n", ch.Prompt.Target, args[1])
	return nil
}

func (c *Console) session(arg string) (int, *soak.Session, error) {
	n, err := intArg(arg, "session")
	if err != nil {
		return 0, nil, err
	}
	s, ok := c.sessions[n]
	if !ok {
		return 0, nil, fmt.Errorf("no open session %d", n)
	}
	return n, s, nil
}

func (c *Console) soakCost(args []string) (soak.Cost, error) {
	if len(args) > 0 {
		return soak.ParseCost(args[0])
	}
	if c.self.Authority {
		return soak.CostGMBenny, nil
	}
	return soak.CostOwnBenny, nil
}

func (c *Console) apply(ctx context.Context, arg string, a soak.Action) error {
	n, s, err := c.session(arg)
	if err != nil {
		return err
	}
	o, err := s.Apply(ctx, a)
	if err != nil {
		if errors.Is(err, soak.ErrResolved) {
			delete(c.sessions, n)
		}
		return err
	}
	if o.Roll != nil {
		c.printf("[%d] soak roll: %s\n", n, o.Roll)
	}
	if o.State == soak.StateResolved {
		delete(c.sessions, n)
		if o.Report != nil {
			c.printf("[%d] resolved: %s\n", n, o.Report.Kind)
		} else {
			c.printf("[%d] resolved\n", n)
		}
		return nil
	}
	c.printSession(n, s, o)
	return nil
}

func (c *Console) closeSession(arg string) error {
	n, s, err := c.session(arg)
	if err != nil {
		return err
	}
	s.Close()
	delete(c.sessions, n)
	c.printf("[%d] closed without resolving\n", n)
	return nil
}

func (c *Console) listSessions() {
	ids := c.sortedSessions()
	if len(ids) == 0 {
		c.printf("no open sessions\n")
		return
	}
	for _, id := range ids {
		s := c.sessions[id]
		c.printSession(id, s, s.Current())
	}
}

func (c *Console) inspect(ctx context.Context, ref entity.Ref) error {
	if c.store == nil {
		return errors.New("no entity store")
	}
	e, err := c.store.Load(ctx, ref)
	if err != nil {
		return err
	}
	kind := "extra"
	if e.Wildcard {
		kind = "wild card"
	}
	c.printf("%s (%s, %s): wounds %d/%d\n", e.Name, e.Kind, kind, e.Wounds.Value, e.Wounds.Max)
	if e.Effects == nil || e.Effects.Len() == 0 {
		c.printf("    no effects\n")
		return nil
	}
	for _, id := range e.Effects.IDs() {
		c.printf("    %s\n", c.conditions.Name(id))
	}
	return nil
}

func (c *Console) who() {
	for _, p := range c.roster.Snapshot().Participants() {
		role := "player"
		if p.Authority {
			role = "gm"
		}
		state := "away"
		if p.Active {
			state = "here"
		}
		line := fmt.Sprintf("%-12s %-6s %-4s %s", p.ID, role, state, p.Name)
		if p.CharacterID != "" {
			line += " as " + string(p.CharacterID)
		}
		c.printf("%s\n", line)
	}
}

func (c *Console) showRules() {
	r := c.rules.Rules()
	c.printf("wound cap: %v\ngritty damage: %v (table %q)\nunarmored hero: %v\nhide defense values: %v\n",
		r.WoundCap, r.GrittyDamage, r.InjuryTable, r.UnarmoredHero, r.HideDefenseValues)
}

func (c *Console) help() {
	byCat := c.registry.CommandsByCategory()
	for _, cat := range []string{command.CategoryDamage, command.CategorySession, command.CategorySystem} {
		cmds := byCat[cat]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
		c.printf("%s:\n", cat)
		for _, cmd := range cmds {
			c.printf("  %-9s %-26s %s\n", cmd.Name, cmd.Usage, cmd.Help)
		}
	}
}
