package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/history"
	"github.com/eyalzus12/FourInARowBattle-sub000/internal/httpapi"
	"github.com/eyalzus12/FourInARowBattle-sub000/internal/server"
	"github.com/eyalzus12/FourInARowBattle-sub000/internal/transport"
)

type config struct {
	addr             string
	handshakeTimeout time.Duration
	maxPeers         int
	messagesPerSec   float64
	burst            int
	databaseURL      string
	tlsCert          string
	tlsKey           string
}

func loadConfig() config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config{
		addr:             envOr("ADDR", ":8080"),
		handshakeTimeout: 10 * time.Second,
		maxPeers:         1024,
		messagesPerSec:   50,
		burst:            100,
		databaseURL:      os.Getenv("DATABASE_URL"),
		tlsCert:          os.Getenv("TLS_CERT"),
		tlsKey:           os.Getenv("TLS_KEY"),
	}
	if v, err := strconv.Atoi(os.Getenv("HANDSHAKE_TIMEOUT_SEC")); err == nil && v > 0 {
		cfg.handshakeTimeout = time.Duration(v) * time.Second
	}
	if v, err := strconv.Atoi(os.Getenv("MAX_PEERS")); err == nil && v > 0 {
		cfg.maxPeers = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT"), 64); err == nil && v > 0 {
		cfg.messagesPerSec = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_BURST")); err == nil && v > 0 {
		cfg.burst = v
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authCfg := server.Config{Log: log.Named("authority")}
	if cfg.databaseURL != "" {
		store, err := history.Open(cfg.databaseURL, log.Named("history"))
		if err != nil {
			log.Fatal("history store unavailable", zap.Error(err))
		}
		defer store.Close()
		authCfg.History = store
	}

	listener := transport.NewListener(transport.Config{
		HandshakeTimeout:  cfg.handshakeTimeout,
		MaxPeers:          cfg.maxPeers,
		MessagesPerSecond: rate.Limit(cfg.messagesPerSec),
		Burst:             cfg.burst,
	}, log.Named("transport"))
	authCfg.Send = listener
	auth := server.New(ctx, authCfg)
	listener.Bind(auth.Inbox())

	srv := &http.Server{
		Addr:    cfg.addr,
		Handler: httpapi.SetupRoutes(listener),
		// Bounds the raw-accept-to-upgrade window alongside the transport's
		// own handshake time box.
		ReadHeaderTimeout: cfg.handshakeTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.addr), zap.Bool("tls", cfg.tlsCert != ""))
		var err error
		if cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		// Stop taking new connections, give the authority a moment to
		// broadcast its closing notice, then drop everything.
		listener.SetRefusing(true)
		auth.Inbox() <- server.Shutdown{}
		select {
		case <-auth.Done():
		case <-time.After(3 * time.Second):
		}
		listener.CloseAll()

		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
