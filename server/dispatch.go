package server

import (
	"errors"
	"time"

	"github.com/arjwright/gridstrike/model"
	"github.com/arjwright/gridstrike/protocol"
	"github.com/google/uuid"
)

func newPlayerID() string {
	return "player-" + uuid.New().String()
}

// dispatch is the orchestrator's single entry point for inbound envelopes.
// Every envelope updates lastActivity before being routed by type, per the
// dispatch rules: CONNECT establishes or restores a player, MOVE/FIRE
// forward to the model and translate its sentinel errors into ERROR
// payloads, PING gets a PONG, and anything else is logged and dropped.
func (s *Server) dispatch(c *Client, env protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("recovered panic handling message", "type", env.Type, "client_id", c.ClientID, "panic", r)
		}
	}()

	now := s.clock.Now()
	s.registry.UpdateActivity(c.ClientID, now)

	switch env.Type {
	case protocol.TypeConnect:
		s.handleConnect(c, env, now)
	case protocol.TypeMove:
		s.handleMove(c, env, now)
	case protocol.TypeFire:
		s.handleFire(c, env, now)
	case protocol.TypePing:
		s.sendEnvelope(c, protocol.TypePong, struct{}{}, now)
	default:
		s.logger.Warnw("unknown message type", "type", env.Type, "client_id", c.ClientID)
	}
}

func (s *Server) handleConnect(c *Client, env protocol.Envelope, now time.Time) {
	var req protocol.ConnectRequest
	if err := protocol.DecodePayload(env, &req); err != nil {
		s.logger.Warnw("decode connect payload failed", "client_id", c.ClientID, "error", err)
		return
	}

	name := req.PlayerName
	if name == "" {
		name = "anonymous"
	}

	playerID := req.PlayerID
	if playerID != "" {
		if _, _, err := s.model.RestorePlayer(playerID, c.ClientID); err == nil {
			s.registry.SetPlayerId(c.ClientID, playerID)
			s.registry.SetPlayerName(c.ClientID, name)
			s.sendConnectAck(c, playerID, name, now)
			return
		}
		// Not in the grace buffer and not currently active: fall through
		// and mint a fresh identity instead of failing the connect.
	}

	playerID = newPlayerID()
	if err := s.model.AddPlayer(c.ClientID, playerID, name); err != nil {
		s.logger.Errorw("add player failed", "player_id", playerID, "error", err)
		return
	}
	s.model.SpawnPlayer(playerID)
	s.registry.SetPlayerId(c.ClientID, playerID)
	s.registry.SetPlayerName(c.ClientID, name)
	s.sendConnectAck(c, playerID, name, now)
}

func (s *Server) sendConnectAck(c *Client, playerID, name string, now time.Time) {
	resp := protocol.ConnectResponse{
		ClientID:   c.ClientID,
		PlayerID:   playerID,
		PlayerName: name,
		GameState:  s.model.SerializeSnapshot(),
	}
	s.sendEnvelope(c, protocol.TypeConnect, resp, now)
}

func (s *Server) handleMove(c *Client, env protocol.Envelope, now time.Time) {
	playerID := s.registry.GetPlayerId(c.ClientID)
	if playerID == "" {
		s.sendError(c, protocol.CodeNotConnected, "connect before moving", now)
		return
	}

	var req protocol.MoveRequest
	if err := protocol.DecodePayload(env, &req); err != nil {
		s.logger.Warnw("decode move payload failed", "client_id", c.ClientID, "error", err)
		return
	}

	err := s.model.MovePlayer(playerID, req.Dx, req.Dy)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidMove):
		s.sendError(c, protocol.CodeInvalidMove, err.Error(), now)
	case errors.Is(err, model.ErrUnknownPlayer), errors.Is(err, model.ErrNotSpawned):
		s.sendError(c, protocol.CodeNotConnected, err.Error(), now)
	default:
		s.sendError(c, protocol.CodeMoveFailed, err.Error(), now)
	}
}

func (s *Server) handleFire(c *Client, env protocol.Envelope, now time.Time) {
	playerID := s.registry.GetPlayerId(c.ClientID)
	if playerID == "" {
		s.sendError(c, protocol.CodeNotConnected, "connect before firing", now)
		return
	}

	var req protocol.FireRequest
	if err := protocol.DecodePayload(env, &req); err != nil {
		s.logger.Warnw("decode fire payload failed", "client_id", c.ClientID, "error", err)
		return
	}

	_, err := s.model.FireBullet(playerID, req.Dx, req.Dy)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidDirection):
		s.sendError(c, protocol.CodeInvalidDirection, err.Error(), now)
	case errors.Is(err, model.ErrBulletInFlight):
		s.sendError(c, protocol.CodeBulletInFlight, err.Error(), now)
	case errors.Is(err, model.ErrUnknownPlayer), errors.Is(err, model.ErrNotSpawned):
		s.sendError(c, protocol.CodeNotConnected, err.Error(), now)
	default:
		s.sendError(c, protocol.CodeBulletInFlight, err.Error(), now)
	}
}

func (s *Server) sendError(c *Client, code, message string, now time.Time) {
	s.sendEnvelope(c, protocol.TypeError, protocol.ErrorPayload{Code: code, Message: message}, now)
}

func (s *Server) sendEnvelope(c *Client, msgType string, payload any, now time.Time) {
	env, err := protocol.Create(msgType, payload, c.ClientID, now.UnixMilli())
	if err != nil {
		s.logger.Errorw("build envelope failed", "type", msgType, "client_id", c.ClientID, "error", err)
		return
	}
	select {
	case c.send <- env:
	default:
		s.logger.Warnw("client send buffer full, dropping message", "client_id", c.ClientID, "type", msgType)
	}
}
