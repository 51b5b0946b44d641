package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/report"
	"github.com/cory-johannsen/targeted-damage/internal/game/routing"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("relay client closed")

// JoinParams identifies the joining participant.
type JoinParams struct {
	ID          string
	Name        string
	Authority   bool
	CharacterID string
	Key         string
}

// Handlers receive inbound frames. Nil handlers are skipped.
// Handlers run on the Run goroutine.
type Handlers struct {
	OnHello  func(Hello)
	OnRoster func([]session.Participant)
	OnPrompt func(routing.Prompt)
	OnReport func(report.Report)
	OnNotice func(Notice)
}

// Client is one participant's connection to the relay. It implements
// routing.Transport, routing.RosterSource and report.Publisher.
type Client struct {
	conn   *websocket.Conn
	roster *session.Roster
	logger *zap.Logger

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// Dial connects to the relay websocket at rawURL.
//
// Precondition: p.ID must be non-empty.
// Postcondition: Returns a connected Client or an error naming the HTTP status on rejection.
func Dial(ctx context.Context, rawURL string, p JoinParams, logger *zap.Logger) (*Client, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("dialing relay: participant id is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing relay url: %w", err)
	}
	q := u.Query()
	q.Set(ParamID, p.ID)
	q.Set(ParamName, p.Name)
	if p.Authority {
		q.Set(ParamRole, "gm")
	} else {
		q.Set(ParamRole, "player")
	}
	if p.CharacterID != "" {
		q.Set(ParamCharacter, p.CharacterID)
	}
	if p.Key != "" {
		q.Set(ParamKey, p.Key)
	}
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing relay: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dialing relay: %w", err)
	}
	return &Client{
		conn:   conn,
		roster: session.NewRoster(),
		logger: logger,
	}, nil
}

// Snapshot returns the last roster received from the relay.
func (c *Client) Snapshot() session.Snapshot {
	return c.roster.Snapshot()
}

// Send transmits a prompt to every connected process.
func (c *Client) Send(_ context.Context, p routing.Prompt) error {
	return c.write(TypePrompt, p)
}

// Publish broadcasts a damage report.
func (c *Client) Publish(_ context.Context, r report.Report) error {
	return c.write(TypeReport, r)
}

func (c *Client) write(typ string, v any) error {
	frame, err := encode(typ, v)
	if err != nil {
		return err
	}
	if c.isClosed() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("writing %s frame: %w", typ, err)
	}
	return nil
}

// Run reads frames until ctx is cancelled or the connection drops.
//
// Postcondition: Returns nil when ctx is cancelled or the relay closes normally.
func (c *Client) Run(ctx context.Context, h Handlers) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("reading relay frame: %w", err)
		}
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			c.logger.Warn("discarding malformed frame", zap.Error(err))
			continue
		}
		if err := c.handle(env, h); err != nil {
			c.logger.Warn("discarding frame", zap.String("type", env.Type), zap.Error(err))
		}
	}
}

func (c *Client) handle(env Envelope, h Handlers) error {
	switch env.Type {
	case TypeHello:
		var hello Hello
		if err := json.Unmarshal(env.Data, &hello); err != nil {
			return err
		}
		c.roster.Replace(hello.Roster)
		if h.OnHello != nil {
			h.OnHello(hello)
		}
	case TypeRoster:
		var ps []session.Participant
		if err := json.Unmarshal(env.Data, &ps); err != nil {
			return err
		}
		c.roster.Replace(ps)
		if h.OnRoster != nil {
			h.OnRoster(ps)
		}
	case TypePrompt:
		var p routing.Prompt
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return err
		}
		if h.OnPrompt != nil {
			h.OnPrompt(p)
		}
	case TypeReport:
		var r report.Report
		if err := json.Unmarshal(env.Data, &r); err != nil {
			return err
		}
		if h.OnReport != nil {
			h.OnReport(r)
		}
	case TypeNotice:
		var n Notice
		if err := json.Unmarshal(env.Data, &n); err != nil {
			return err
		}
		if h.OnNotice != nil {
			h.OnNotice(n)
		}
	default:
		return fmt.Errorf("unknown frame type %q", env.Type)
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// Close closes the connection. It is idempotent.
func (c *Client) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}
