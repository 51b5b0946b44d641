package relay

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/routing"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

// Hub tracks connected participants and fans frames out to them.
// All methods are safe for concurrent use.
type Hub struct {
	mu      sync.Mutex
	roster  *session.Roster
	outs    map[string]*outbox
	bufSize int
	logger  *zap.Logger
}

// NewHub creates a Hub over roster. Participants already in roster are
// treated as known but disconnected.
//
// Precondition: roster and logger must be non-nil.
func NewHub(roster *session.Roster, logger *zap.Logger) *Hub {
	return &Hub{
		roster:  roster,
		outs:    make(map[string]*outbox),
		bufSize: 64,
		logger:  logger,
	}
}

// Roster returns the current roster snapshot.
func (h *Hub) Roster() session.Snapshot {
	return h.roster.Snapshot()
}

// join registers p as connected and returns its outbox.
//
// Postcondition: Returns an error if p.ID is already connected.
func (h *Hub) join(p session.Participant) (*outbox, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.roster.Join(p); err != nil {
		return nil, err
	}
	out := newOutbox(p.ID, h.bufSize)
	h.outs[p.ID] = out

	snap := h.roster.Snapshot()
	self, _ := snap.Get(p.ID)
	if frame, err := encode(TypeHello, Hello{Self: self, Roster: snap.Participants()}); err == nil {
		_ = out.push(frame)
	}
	h.broadcastLocked(TypeRoster, snap.Participants())
	h.logger.Info("participant joined",
		zap.String("participant_id", p.ID),
		zap.Bool("authority", p.Authority),
		zap.Int("connected", len(h.outs)),
	)
	return out, nil
}

// leave marks id disconnected and closes its outbox.
func (h *Hub) leave(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out, ok := h.outs[id]
	if !ok {
		return
	}
	out.close()
	delete(h.outs, id)
	if err := h.roster.SetActive(id, false); err != nil {
		h.logger.Warn("marking participant inactive", zap.String("participant_id", id), zap.Error(err))
	}
	h.broadcastLocked(TypeRoster, h.roster.Snapshot().Participants())
	h.logger.Info("participant left", zap.String("participant_id", id), zap.Int("connected", len(h.outs)))
}

// Broadcast sends v as an envelope of type typ to every connected participant.
func (h *Hub) Broadcast(typ string, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(typ, v)
}

func (h *Hub) broadcastLocked(typ string, v any) {
	frame, err := encode(typ, v)
	if err != nil {
		h.logger.Error("encoding broadcast", zap.String("type", typ), zap.Error(err))
		return
	}
	for id, out := range h.outs {
		if err := out.push(frame); err != nil {
			h.logger.Warn("dropping frame", zap.String("participant_id", id), zap.String("type", typ), zap.Error(err))
		}
	}
}

func (h *Hub) notify(id, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out, ok := h.outs[id]
	if !ok {
		return
	}
	if frame, err := encode(TypeNotice, Notice{Message: message}); err == nil {
		_ = out.push(frame)
	}
}

// dispatch handles one frame received from participant from.
// Prompts and reports are relayed to every connected participant once; the
// relay never retries.
func (h *Hub) dispatch(from string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("discarding malformed frame", zap.String("participant_id", from), zap.Error(err))
		h.notify(from, "malformed frame")
		return
	}
	switch env.Type {
	case TypePrompt:
		var p routing.Prompt
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.notify(from, fmt.Sprintf("malformed prompt: %v", err))
			return
		}
		h.logger.Debug("relaying prompt",
			zap.String("from", from),
			zap.String("event_id", p.EventID),
			zap.String("target", string(p.Target)),
			zap.String("recipient", p.Recipient),
		)
		h.Broadcast(TypePrompt, p)
	case TypeReport:
		h.Broadcast(TypeReport, env.Data)
	default:
		h.notify(from, fmt.Sprintf("unsupported frame type %q", env.Type))
	}
}
