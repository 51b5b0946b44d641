package relay

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

// Join query parameters accepted on the websocket route.
const (
	ParamID        = "id"
	ParamName      = "name"
	ParamRole      = "role"
	ParamCharacter = "character"
	ParamKey       = "key"
)

// Server exposes the Hub over HTTP.
type Server struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	joinKeyHash  []byte
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewServer creates a Server. An empty joinKeyHash disables join key checks.
//
// Precondition: hub and logger must be non-nil.
func NewServer(hub *Hub, joinKeyHash string, writeTimeout time.Duration, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		joinKeyHash:  []byte(joinKeyHash),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// HashJoinKey returns the bcrypt hash stored in relay.join_key_hash.
func HashJoinKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Router returns the HTTP routes served by the relay.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/roster", s.handleRoster).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

func (s *Server) handleRoster(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.hub.Roster().Participants()); err != nil {
		s.logger.Warn("writing roster", zap.Error(err))
	}
}

func (s *Server) authorized(key string) bool {
	if len(s.joinKeyHash) == 0 {
		return true
	}
	return bcrypt.CompareHashAndPassword(s.joinKeyHash, []byte(key)) == nil
}

func participantFromQuery(r *http.Request) (session.Participant, bool) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get(ParamID))
	if id == "" {
		return session.Participant{}, false
	}
	name := q.Get(ParamName)
	if name == "" {
		name = id
	}
	return session.Participant{
		ID:          id,
		Name:        name,
		Authority:   q.Get(ParamRole) == "gm",
		Active:      true,
		CharacterID: entity.Ref(q.Get(ParamCharacter)),
	}, true
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	p, ok := participantFromQuery(r)
	if !ok {
		http.Error(w, "missing participant id", http.StatusBadRequest)
		return
	}
	if !s.authorized(r.URL.Query().Get(ParamKey)) {
		s.logger.Warn("rejected join key", zap.String("participant_id", p.ID))
		http.Error(w, "invalid join key", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("participant_id", p.ID), zap.Error(err))
		return
	}

	out, err := s.hub.join(p)
	if err != nil {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
		_ = conn.Close()
		return
	}

	go s.writeLoop(conn, out)
	defer s.hub.leave(p.ID)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", zap.String("participant_id", p.ID), zap.Error(err))
			}
			return
		}
		s.hub.dispatch(p.ID, payload)
	}
}

// writeLoop drains out until it is closed, then closes conn.
func (s *Server) writeLoop(conn *websocket.Conn, out *outbox) {
	defer conn.Close()
	for frame := range out.frames {
		_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.logger.Debug("websocket write failed", zap.String("participant_id", out.id), zap.Error(err))
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(s.writeTimeout))
}
