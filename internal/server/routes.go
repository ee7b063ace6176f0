package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardroom-server/internal/game"
	"cardroom-server/internal/session"
	"cardroom-server/internal/storage"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/decks", s.decksHandler)
	mux.HandleFunc("POST /api/rooms", s.newRoomHandler)
	mux.HandleFunc("POST /api/save/{room_id}", s.saveHandler)
	mux.HandleFunc("POST /api/load/{room_id}", s.loadHandler)
	mux.HandleFunc("GET /ws/{room_id}", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(resp); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "up",
		Rooms:       s.registry.Rooms(),
		Connections: s.connectionManager.Count(),
		Players:     s.connectionManager.PlayerCount(),
	})
}

func (s *Server) decksHandler(w http.ResponseWriter, r *http.Request) {
	names, err := s.decks.List(r.Context())
	if err != nil {
		s.logger.Error("Failed to list decks", zap.Error(err))
		http.Error(w, "Failed to list decks", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, DecksResponse{Decks: names})
}

// newRoomHandler hands out a fresh four letter code no live room uses.
func (s *Server) newRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := GenerateRoomCode(func(id string) bool {
		_, live := s.registry.Get(id)
		return live
	})
	s.writeJSON(w, http.StatusOK, NewRoomResponse{RoomID: code})
}

func (s *Server) saveHandler(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")
	if err := ValidateRoomID(roomID); err != nil {
		s.writeJSON(w, http.StatusBadRequest, OKResponse{OK: false, Msg: err.Error()})
		return
	}

	err := s.registry.Save(r.Context(), roomID)
	switch {
	case errors.Is(err, session.ErrRoomNotFound):
		s.writeJSON(w, http.StatusOK, OKResponse{OK: false, Msg: "Room not found"})
	case err != nil:
		s.logger.Error("Save failed", zap.String("room_id", roomID), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, OKResponse{OK: false, Msg: "SAVE_FAILED: Could not save room"})
	default:
		s.logger.Info("Saved room", zap.String("room_id", roomID))
		s.writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}

func (s *Server) loadHandler(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")
	if err := ValidateRoomID(roomID); err != nil {
		s.writeJSON(w, http.StatusBadRequest, OKResponse{OK: false, Msg: err.Error()})
		return
	}

	err := s.registry.Load(r.Context(), roomID)
	switch {
	case storage.IsMissing(err):
		if errors.Is(err, storage.ErrCorrupt) {
			s.logger.Warn("Refusing unreadable snapshot", zap.String("room_id", roomID), zap.Error(err))
		}
		s.writeJSON(w, http.StatusOK, OKResponse{OK: false, Msg: "No saved state"})
	case err != nil:
		s.logger.Error("Load failed", zap.String("room_id", roomID), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, OKResponse{OK: false, Msg: "LOAD_FAILED: Could not load room"})
	default:
		s.logger.Info("Loaded room", zap.String("room_id", roomID))
		s.writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}

// client is the per-socket state of the read loop.
type client struct {
	peer    *wsPeer
	roomID  string
	seat    game.Seat
	session *session.Session
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")
	if err := ValidateRoomID(roomID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn("Failed to open websocket", zap.Error(err))
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()
	connectionID := uuid.New().String()
	log := s.logger.With(zap.String("conn_id", connectionID), zap.String("room_id", roomID))
	log.Debug("New connection")

	c := &client{peer: &wsPeer{id: connectionID, conn: socket}, roomID: roomID}
	s.connectionManager.AddConnection(connectionID, c.peer)
	defer func() {
		if player, ok := s.connectionManager.GetPlayer(connectionID); ok {
			s.logger.Info("Player left",
				zap.String("conn_id", connectionID),
				zap.String("room_id", player.RoomID),
				zap.String("seat", string(player.Seat)),
			)
		}
		s.connectionManager.RemoveConnection(connectionID)
		s.rateLimiter.RemoveConnection(connectionID)
		if c.session != nil {
			c.session.Leave(connectionID)
		}
		log.Debug("Connection closed")
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Debug("Read ended", zap.Error(err))
			return
		}

		if msgType != websocket.MessageText {
			log.Debug("Ignoring non-text message")
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			s.sendError(ctx, c.peer, "RATE_LIMIT_EXCEEDED: Too many messages, slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(ctx, c.peer, "INVALID_JSON: Message is not a JSON object")
			continue
		}

		switch msg.Kind {
		case KindHello:
			s.handleHello(ctx, c, msg, log)
		case KindAction:
			s.handleAction(ctx, c, msg, log)
		case KindPing:
			s.sendMessage(ctx, c.peer, PongMessage{Kind: "pong"})
		default:
			s.sendError(ctx, c.peer, fmt.Sprintf("INVALID_MESSAGE_KIND: Unknown message kind '%s'", msg.Kind))
		}
	}
}

// handleHello joins the socket to its room. A repeated hello only renames
// the seat the connection joined as.
func (s *Server) handleHello(ctx context.Context, c *client, msg ClientMessage, log *zap.Logger) {
	if msg.RoomID != "" && msg.RoomID != c.roomID {
		s.sendError(ctx, c.peer, "ROOM_MISMATCH: hello room_id does not match the connection")
		return
	}
	seat := game.Seat(msg.PlayerID)
	if !seat.Valid() {
		s.sendError(ctx, c.peer, fmt.Sprintf("%s: unknown player %q", game.ErrInvalidPayload, msg.PlayerID))
		return
	}

	if c.session != nil {
		if seat != c.seat {
			s.sendError(ctx, c.peer, fmt.Sprintf("SEAT_MISMATCH: connection already joined as %s", c.seat))
			return
		}
		if msg.Name == "" {
			c.session.Broadcast(ctx)
			return
		}
		if err := c.session.Apply(ctx, game.SetName{Player: seat, Name: msg.Name}); err != nil {
			s.sendError(ctx, c.peer, err.Error())
		}
		return
	}

	sess, err := s.registry.Join(ctx, c.roomID, seat, msg.Name, msg.Deck, c.peer)
	if err != nil {
		log.Warn("Join failed", zap.Error(err))
		s.sendError(ctx, c.peer, err.Error())
		return
	}
	c.session = sess
	c.seat = seat
	s.connectionManager.MapPlayer(c.peer.id, PlayerConnection{RoomID: c.roomID, Seat: seat})
	log.Info("Player joined", zap.String("seat", string(seat)), zap.String("deck", msg.Deck))
}

func (s *Server) handleAction(ctx context.Context, c *client, msg ClientMessage, log *zap.Logger) {
	if c.session == nil {
		s.sendError(ctx, c.peer, "NOT_JOINED: Send hello before actions")
		return
	}

	action, err := game.DecodeAction(msg.Type, msg.Payload)
	if errors.Is(err, game.ErrUnknownAction) {
		// Unknown kinds change nothing but still resend the state.
		log.Debug("Ignoring unknown action", zap.String("type", msg.Type))
		c.session.Broadcast(ctx)
		return
	}
	if err != nil {
		s.sendError(ctx, c.peer, err.Error())
		return
	}

	if err := c.session.Apply(ctx, action); err != nil {
		log.Debug("Action rejected", zap.String("type", msg.Type), zap.Error(err))
		s.sendError(ctx, c.peer, err.Error())
	}
}

func (s *Server) sendMessage(ctx context.Context, peer *wsPeer, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Marshal error", zap.Error(err))
		return
	}
	if err := peer.Send(ctx, data); err != nil {
		s.logger.Debug("Failed to send message", zap.String("conn_id", peer.id), zap.Error(err))
	}
}

// sendError acknowledges a failure to the sender only.
func (s *Server) sendError(ctx context.Context, peer *wsPeer, msg string) {
	s.sendMessage(ctx, peer, AckMessage{Kind: "ack", OK: false, Msg: msg})
}
