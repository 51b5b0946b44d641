// Package routing decides which participant resolves each target of a damage
// event and carries the event to that participant.
package routing

import (
	"fmt"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

// Kind is the outcome of a routing decision.
type Kind int

const (
	// KindOpenLocal opens the negotiation in the deciding process.
	KindOpenLocal Kind = iota
	// KindForward sends the event to exactly one other participant.
	KindForward
	// KindChoose asks the deciding authority to pick one of several owners.
	KindChoose
	// KindStalled means no participant can resolve the target right now.
	KindStalled
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOpenLocal:
		return "open_local"
	case KindForward:
		return "forward"
	case KindChoose:
		return "choose"
	case KindStalled:
		return "stalled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Decision is the single routing outcome for one target.
//
// Invariant: Recipient is set iff Kind == KindForward, and is never the
// deciding participant. Options has at least two entries iff Kind == KindChoose.
type Decision struct {
	Kind      Kind
	Recipient string
	Options   []session.Participant
	Reason    string
}

// Decide evaluates the routing table for target as seen by participant self.
// The first matching rule wins:
//
//  1. No player owns the target: the authority resolves it.
//  2. A connected participant, authority or not, has the target assigned, or
//     exactly one connected player owns it: that participant resolves it.
//  3. Several connected players own it and self is an authority: choose one.
//  4. Otherwise the authority resolves it.
//
// The authority resolves a target by opening locally when self is an authority,
// else by forwarding to the connected authority with the lowest ID, else the
// decision stalls.
func Decide(snap session.Snapshot, self string, target entity.Ref, own entity.Ownership) Decision {
	if !snap.HasPlayerOwner(own) {
		return toAuthority(snap, self, "no player owner")
	}

	owners := snap.ActiveOwners(own)
	var responsible *session.Participant
	if assigned := snap.AssignedTo(target); len(assigned) > 0 {
		responsible = &assigned[0]
	} else if len(owners) == 1 {
		responsible = &owners[0]
	}
	if responsible != nil {
		if responsible.ID == self {
			return Decision{Kind: KindOpenLocal, Reason: "responsible participant"}
		}
		return Decision{Kind: KindForward, Recipient: responsible.ID, Reason: "responsible participant"}
	}

	if len(owners) > 1 && snap.IsAuthority(self) {
		return Decision{Kind: KindChoose, Options: owners, Reason: "multiple connected owners"}
	}
	return toAuthority(snap, self, "no unique owner")
}

func toAuthority(snap session.Snapshot, self, reason string) Decision {
	if snap.IsAuthority(self) {
		return Decision{Kind: KindOpenLocal, Reason: reason}
	}
	if auth, ok := snap.ActiveAuthority(); ok {
		return Decision{Kind: KindForward, Recipient: auth.ID, Reason: reason}
	}
	return Decision{Kind: KindStalled, Reason: reason + "; no authority connected"}
}
