// Command gridstriked runs the gridstrike game server: it loads a board and
// config file, wires up the authoritative model and connection registry,
// and serves the websocket endpoint the orchestrator dispatches over.
// Grounded on the teacher's main.go: flag-driven startup, an http.Server
// with explicit timeouts, and a signal-triggered graceful shutdown.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjwright/gridstrike/board"
	"github.com/arjwright/gridstrike/bus"
	"github.com/arjwright/gridstrike/config"
	"github.com/arjwright/gridstrike/model"
	"github.com/arjwright/gridstrike/registry"
	"github.com/arjwright/gridstrike/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	boardPath := flag.String("board", "", "path to a .board.json file (defaults to the config file's boardPath, else boards/default.board.json)")
	configPath := flag.String("config", "", "path to a JSON config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gridstriked:", err)
		return 1
	}
	if *boardPath != "" {
		cfg.BoardPath = *boardPath
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gridstriked:", err)
		return 1
	}
	defer logger.Sync()

	brd, err := board.Load(cfg.BoardPath)
	if err != nil {
		logger.Errorw("load board failed", "error", err)
		return 1
	}

	eventBus := bus.New()
	m := model.New(brd, eventBus, model.SystemClock{}, model.Config{
		RespawnDelay:    cfg.RespawnDelay,
		DisconnectGrace: cfg.DisconnectGrace,
		ClearRadius:     cfg.SpawnClearRadius,
	})
	reg := registry.New()
	gameServer := server.New(m, reg, cfg, logger)
	go gameServer.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gameServer.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Infow("listening", "addr", addr, "board", cfg.BoardPath)

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		logger.Errorw("serve failed", "error", err)
		return 1
	case sig := <-sigChan:
		logger.Infow("received signal, shutting down", "signal", sig.String())
	}

	gameServer.Shutdown(5 * time.Second)
	if err := httpServer.Close(); err != nil {
		logger.Errorw("http server close failed", "error", err)
	}
	return 0
}

// newLogger builds a production zap logger at the configured level. An
// unrecognized level falls back to info.
func newLogger(level string) (*zap.SugaredLogger, error) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(level)); err != nil {
		zl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
