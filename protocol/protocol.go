// Package protocol is the encoding boundary between the wire and the rest
// of the server: it parses and builds the JSON envelope and nothing else.
// No game rules live here.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message type constants, both directions, per the wire envelope table.
const (
	TypeConnect     = "CONNECT"
	TypeMove        = "MOVE"
	TypeFire        = "FIRE"
	TypePing        = "PING"
	TypePong        = "PONG"
	TypeStateUpdate = "STATE_UPDATE"
	TypeError       = "ERROR"
)

// Error codes sent in ERROR payloads.
const (
	CodeNotConnected     = "NOT_CONNECTED"
	CodeInvalidMove      = "INVALID_MOVE"
	CodeMoveFailed       = "MOVE_FAILED"
	CodeInvalidDirection = "INVALID_DIRECTION"
	CodeBulletInFlight   = "BULLET_IN_FLIGHT"
	CodeUnknownType      = "UNKNOWN_TYPE"
)

// ProtocolError reports a malformed envelope: bad JSON or a missing
// required field. Per spec, the orchestrator logs and drops the message
// rather than closing the connection.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s", e.Reason)
}

// Envelope is the wire message shape shared by both directions.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	ClientID  string          `json:"clientId,omitempty"`
}

// wireEnvelope mirrors Envelope but with pointer fields so a missing key can
// be told apart from a zero value. A payload key that is absent or JSON null
// leaves Payload nil; any other value, including {}, is kept.
type wireEnvelope struct {
	Type      *string          `json:"type"`
	Payload   *json.RawMessage `json:"payload"`
	Timestamp *int64           `json:"timestamp"`
	ClientID  string           `json:"clientId,omitempty"`
}

// Parse decodes raw bytes into an Envelope, failing with *ProtocolError on
// malformed JSON or a missing type/payload/timestamp field.
func Parse(raw []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, &ProtocolError{Reason: fmt.Sprintf("malformed json: %v", err)}
	}
	if w.Type == nil || *w.Type == "" {
		return Envelope{}, &ProtocolError{Reason: "missing type"}
	}
	if w.Payload == nil {
		return Envelope{}, &ProtocolError{Reason: "missing payload"}
	}
	if w.Timestamp == nil {
		return Envelope{}, &ProtocolError{Reason: "missing timestamp"}
	}
	return Envelope{
		Type:      *w.Type,
		Payload:   *w.Payload,
		Timestamp: *w.Timestamp,
		ClientID:  w.ClientID,
	}, nil
}

// Create builds an outbound envelope, marshaling payload and stamping
// timestamp to nowMillis (wall-clock milliseconds, supplied by the caller
// so this package stays clock-free).
func Create(msgType string, payload any, clientID string, nowMillis int64) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: marshal payload: %w", err)
	}
	return Envelope{
		Type:      msgType,
		Payload:   data,
		Timestamp: nowMillis,
		ClientID:  clientID,
	}, nil
}

// ConnectRequest is the C→S CONNECT payload.
type ConnectRequest struct {
	PlayerName string `json:"playerName,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
}

// ConnectResponse is the S→C (unicast) CONNECT payload.
type ConnectResponse struct {
	ClientID   string `json:"clientId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	GameState  any    `json:"gameState"`
}

// MoveRequest is the C→S MOVE payload.
type MoveRequest struct {
	Dx int `json:"dx"`
	Dy int `json:"dy"`
}

// FireRequest is the C→S FIRE payload.
type FireRequest struct {
	Dx int `json:"dx"`
	Dy int `json:"dy"`
}

// ErrorPayload is the S→C ERROR payload.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodePayload unmarshals env.Payload into v.
func DecodePayload(env Envelope, v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return &ProtocolError{Reason: fmt.Sprintf("malformed payload for %s: %v", env.Type, err)}
	}
	return nil
}
