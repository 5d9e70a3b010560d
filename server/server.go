// Package server is the connected orchestrator: it owns the hub of live
// connections, drives the simulation and broadcast tickers, and translates
// wire envelopes into model.Model calls and back. It is grounded on the
// teacher's server.Server — the register/unregister hub channels and the
// ticker-driven game loop come straight from websocket.go, generalized
// from netrek's single gameLoop into the spec's two independently
// configurable tickers.
package server

import (
	"sync"
	"time"

	"github.com/arjwright/gridstrike/config"
	"github.com/arjwright/gridstrike/model"
	"github.com/arjwright/gridstrike/protocol"
	"github.com/arjwright/gridstrike/registry"
	"go.uber.org/zap"
)

// Clock abstracts wall-clock reads for the orchestrator's own timestamps
// (distinct from model.Clock, which the Model owns independently), so
// dispatch tests can assert on exact envelope timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Server is the connected orchestrator. The zero value is not usable;
// construct with New.
type Server struct {
	model    *model.Model
	registry *registry.Registry
	config   config.Config
	clock    Clock
	logger   *zap.SugaredLogger

	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once
}

// New constructs a Server wired to m and reg, using cfg's tick intervals.
// logger is used for connection-lifecycle and queue-drop logging; pass
// zap.NewNop().Sugar() in tests that don't care about log output.
func New(m *model.Model, reg *registry.Registry, cfg config.Config, logger *zap.SugaredLogger) *Server {
	return &Server{
		model:      m,
		registry:   reg,
		config:     cfg,
		clock:      systemClock{},
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Accept registers a newly upgraded transport and starts its read/write
// pumps. It returns the assigned clientId.
func (s *Server) Accept(conn Conn) string {
	now := s.clock.Now()
	clientID := s.registry.AddConnection(nil, now)

	c := newClient(clientID, conn, s)
	s.registry.SetTransport(clientID, c)

	s.register <- c
	go c.writePump()
	go c.readPump()
	return clientID
}

// Run drives the hub loop and both tickers until Shutdown is called. It
// blocks; callers typically run it in its own goroutine.
func (s *Server) Run() {
	go s.simulationLoop()
	go s.broadcastLoop()

	for {
		select {
		case <-s.stop:
			return
		case c := <-s.register:
			s.logger.Infow("client connected", "client_id", c.ClientID)
		case c := <-s.unregister:
			s.handleDisconnect(c)
		}
	}
}

func (s *Server) handleDisconnect(c *Client) {
	playerID := s.registry.GetPlayerId(c.ClientID)
	s.registry.RemoveConnection(c.ClientID)
	close(c.send)

	if playerID == "" {
		return
	}
	if err := s.model.RemovePlayer(playerID, model.ReasonDisconnect); err != nil {
		s.logger.Warnw("remove player on disconnect failed", "player_id", playerID, "error", err)
	}
}

func (s *Server) simulationLoop() {
	ticker := time.NewTicker(s.config.SimulationTick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.model.TickBullets()
			s.model.ProcessRespawns()
			s.model.PurgeExpiredDisconnected()
			s.model.TrySpawnWaitingPlayers()
		}
	}
}

func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(s.config.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.broadcastSnapshot()
		}
	}
}

func (s *Server) broadcastSnapshot() {
	active := s.registry.AllActive()
	if len(active) == 0 {
		return
	}

	snap := s.model.SerializeSnapshot()
	env, err := protocol.Create(protocol.TypeStateUpdate, snap, "", s.clock.Now().UnixMilli())
	if err != nil {
		s.logger.Errorw("build snapshot envelope failed", "error", err)
		return
	}

	for _, conn := range active {
		client, ok := conn.Transport.(*Client)
		if !ok {
			continue
		}
		select {
		case client.send <- env:
		default:
			s.logger.Warnw("client send buffer full, dropping snapshot", "client_id", client.ClientID)
		}
	}
}

// Shutdown stops both tickers and the hub loop, then closes every active
// transport, waiting up to timeout for them to finish before giving up.
// Grounded on main.go's context.WithTimeout shutdown sequence; the teacher
// has no equivalent on *server.Server itself, so this is authored fresh
// from the orchestrator's own lifecycle rather than copied.
func (s *Server) Shutdown(timeout time.Duration) {
	s.stopOnce.Do(func() { close(s.stop) })

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, conn := range s.registry.AllActive() {
			client, ok := conn.Transport.(*Client)
			if !ok {
				continue
			}
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				c.conn.SetWriteDeadline(time.Now().Add(timeout))
				c.conn.Close()
			}(client)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warnw("shutdown timed out waiting for connections to close")
	}
}
