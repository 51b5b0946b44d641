package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/routing"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

func owned(ids ...string) entity.Ownership {
	o := entity.Ownership{Users: make(map[string]entity.OwnershipLevel)}
	for _, id := range ids {
		o.Users[id] = entity.OwnershipOwner
	}
	return o
}

func gm(active bool) session.Participant {
	return session.Participant{ID: "gm", Name: "GM", Authority: true, Active: active}
}

func player(id string, active bool) session.Participant {
	return session.Participant{ID: id, Name: id, Active: active}
}

func TestDecide_NoPlayerOwner_AuthorityOpensLocally(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", true)})
	d := routing.Decide(snap, "gm", "orc", entity.Ownership{})
	assert.Equal(t, routing.KindOpenLocal, d.Kind)
}

func TestDecide_NoPlayerOwner_PlayerForwardsToAuthority(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", true)})
	d := routing.Decide(snap, "alice", "orc", entity.Ownership{})
	assert.Equal(t, routing.KindForward, d.Kind)
	assert.Equal(t, "gm", d.Recipient)
}

func TestDecide_NoPlayerOwner_NoAuthority_Stalls(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(false), player("alice", true)})
	d := routing.Decide(snap, "alice", "orc", entity.Ownership{})
	assert.Equal(t, routing.KindStalled, d.Kind)
	assert.Empty(t, d.Recipient)
}

func TestDecide_AssignedPlayer_IsSelf(t *testing.T) {
	alice := player("alice", true)
	alice.CharacterID = "valeria"
	snap := session.NewSnapshot([]session.Participant{gm(true), alice})
	d := routing.Decide(snap, "alice", "valeria", owned("alice"))
	assert.Equal(t, routing.KindOpenLocal, d.Kind)
}

func TestDecide_AssignedPlayer_ForwardFromAuthority(t *testing.T) {
	alice := player("alice", true)
	alice.CharacterID = "valeria"
	snap := session.NewSnapshot([]session.Participant{gm(true), alice})
	d := routing.Decide(snap, "gm", "valeria", owned("alice"))
	assert.Equal(t, routing.KindForward, d.Kind)
	assert.Equal(t, "alice", d.Recipient)
}

func TestDecide_AssignedAuthority_ReceivesPlayerOwnedTarget(t *testing.T) {
	g := gm(true)
	g.CharacterID = "valeria"
	snap := session.NewSnapshot([]session.Participant{g, player("alice", false), player("bob", true)})

	d := routing.Decide(snap, "bob", "valeria", owned("alice"))
	assert.Equal(t, routing.KindForward, d.Kind)
	assert.Equal(t, "gm", d.Recipient)
	assert.Equal(t, "responsible participant", d.Reason)

	d = routing.Decide(snap, "gm", "valeria", owned("alice"))
	assert.Equal(t, routing.KindOpenLocal, d.Kind)
}

func TestDecide_AssignedTakesPrecedenceOverOwners(t *testing.T) {
	bob := player("bob", true)
	bob.CharacterID = "warhound"
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", true), bob, player("carol", true)})
	d := routing.Decide(snap, "gm", "warhound", owned("alice", "bob", "carol"))
	assert.Equal(t, routing.KindForward, d.Kind, "the assigned branch is checked before the chooser")
	assert.Equal(t, "bob", d.Recipient)
}

func TestDecide_SingleOwner_Forward(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", true), player("bob", false)})
	d := routing.Decide(snap, "gm", "warhound", owned("alice", "bob"))
	assert.Equal(t, routing.KindForward, d.Kind)
	assert.Equal(t, "alice", d.Recipient)
}

func TestDecide_MultipleOwners_AuthorityChooses(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", true), player("bob", true)})
	d := routing.Decide(snap, "gm", "warhound", owned("alice", "bob"))
	require.Equal(t, routing.KindChoose, d.Kind)
	require.Len(t, d.Options, 2)
	assert.Equal(t, "alice", d.Options[0].ID)
	assert.Equal(t, "bob", d.Options[1].ID)
}

func TestDecide_MultipleOwners_PlayerForwardsToAuthority(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", true), player("bob", true), player("carol", true)})
	d := routing.Decide(snap, "carol", "warhound", owned("alice", "bob"))
	assert.Equal(t, routing.KindForward, d.Kind)
	assert.Equal(t, "gm", d.Recipient)
}

func TestDecide_OwnersOffline_AuthorityFallback(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", false)})
	d := routing.Decide(snap, "gm", "warhound", owned("alice"))
	assert.Equal(t, routing.KindOpenLocal, d.Kind)
}

func TestDecide_BroadlyOpen_AuthorityFallback(t *testing.T) {
	snap := session.NewSnapshot([]session.Participant{gm(true), player("alice", true), player("bob", true)})
	d := routing.Decide(snap, "gm", "landmaster", entity.Ownership{Default: entity.OwnershipOwner})
	assert.Equal(t, routing.KindOpenLocal, d.Kind)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "open_local", routing.KindOpenLocal.String())
	assert.Equal(t, "stalled", routing.KindStalled.String())
	assert.Equal(t, "kind(9)", routing.Kind(9).String())
}

// TestPropertyDecide_Exclusive verifies every decision names exactly one
// outcome: a forward addresses exactly one other participant, a chooser only
// appears for authorities with at least two options, and local opens carry no
// recipient.
func TestPropertyDecide_Exclusive(t *testing.T) {
	ids := []string{"gm", "gm2", "alice", "bob", "carol"}
	rapid.Check(t, func(t *rapid.T) {
		var ps []session.Participant
		for _, id := range ids {
			if !rapid.Bool().Draw(t, "present_"+id) {
				continue
			}
			p := session.Participant{
				ID:        id,
				Authority: id == "gm" || id == "gm2",
				Active:    rapid.Bool().Draw(t, "active_"+id),
			}
			if rapid.Bool().Draw(t, "assigned_"+id) {
				p.CharacterID = "target"
			}
			ps = append(ps, p)
		}
		own := entity.Ownership{
			Default: entity.OwnershipLevel(rapid.IntRange(0, 3).Draw(t, "default")),
			Users:   make(map[string]entity.OwnershipLevel),
		}
		for _, id := range ids {
			own.Users[id] = entity.OwnershipLevel(rapid.IntRange(0, 3).Draw(t, "own_"+id))
		}
		self := rapid.SampledFrom(ids).Draw(t, "self")
		snap := session.NewSnapshot(ps)

		d := routing.Decide(snap, self, "target", own)
		again := routing.Decide(snap, self, "target", own)
		if d.Kind != again.Kind || d.Recipient != again.Recipient {
			t.Fatalf("decision not deterministic")
		}
		switch d.Kind {
		case routing.KindOpenLocal, routing.KindStalled:
			if d.Recipient != "" || len(d.Options) != 0 {
				t.Fatalf("%s carries recipient or options", d.Kind)
			}
		case routing.KindForward:
			if d.Recipient == "" || d.Recipient == self {
				t.Fatalf("forward to %q from %q", d.Recipient, self)
			}
			p, ok := snap.Get(d.Recipient)
			if !ok || !p.Active {
				t.Fatalf("forward to unknown or inactive %q", d.Recipient)
			}
		case routing.KindChoose:
			if !snap.IsAuthority(self) || len(d.Options) < 2 {
				t.Fatalf("invalid chooser: self=%q options=%d", self, len(d.Options))
			}
		default:
			t.Fatalf("unknown kind %v", d.Kind)
		}
	})
}
