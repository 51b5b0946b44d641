// Package relay is the session transport: a websocket hub every participant
// process connects to, and the client those processes use.
package relay

import (
	"encoding/json"
	"fmt"

	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

// Envelope types.
const (
	TypeHello  = "hello"
	TypeRoster = "roster"
	TypePrompt = "prompt"
	TypeReport = "report"
	TypeNotice = "notice"
)

// Envelope is the frame exchanged over the websocket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hello is sent to a participant right after it joins.
type Hello struct {
	Self   session.Participant   `json:"self"`
	Roster []session.Participant `json:"roster"`
}

// Notice is a human-readable message from the relay.
type Notice struct {
	Message string `json:"message"`
}

// encode marshals v into an envelope of type typ.
func encode(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s data: %w", typ, err)
	}
	frame, err := json.Marshal(Envelope{Type: typ, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encoding %s envelope: %w", typ, err)
	}
	return frame, nil
}
