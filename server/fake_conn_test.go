package server

import (
	"errors"
	"sync"
	"time"
)

// fakeConn is an in-memory Conn used to drive Client/Server tests without a
// real socket. Written messages land in out; inbound messages are fed
// through in and consumed by readPump.
type fakeConn struct {
	mu     sync.Mutex
	in     chan []byte
	out    [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 64)}
}

func (f *fakeConn) push(msg []byte) { f.in <- msg }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-f.in
	if !ok {
		return 0, nil, errors.New("fakeConn: closed")
	}
	return 1, msg, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("fakeConn: write on closed conn")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.out = append(f.out, cp)
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.in)
	return nil
}

func (f *fakeConn) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.out))
	copy(out, f.out)
	return out
}
