package server

import "time"

// Conn is the minimal transport surface the orchestrator depends on.
// *websocket.Conn satisfies it; tests substitute a fake so dispatch logic
// is exercised without a real network socket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}
