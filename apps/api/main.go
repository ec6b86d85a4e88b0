package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mahaj/chatroom/pkg/auth"
	"github.com/mahaj/chatroom/pkg/config"
	"github.com/mahaj/chatroom/pkg/db"
	"github.com/mahaj/chatroom/pkg/logging"
	"github.com/mahaj/chatroom/pkg/presence"
	"github.com/rs/zerolog/log"
)

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow all for dev, or specific origin
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if r.Method == http.MethodOptions {
			return
		}

		next.ServeHTTP(w, r)
	})
}

func newRouter(signer *auth.Signer, history historyReader, members memberLister) *mux.Router {
	r := mux.NewRouter()
	r.Use(CORSMiddleware)

	// Public endpoint
	r.Handle("/login", LoginHandler(signer)).Methods(http.MethodPost, http.MethodOptions)

	// Protected endpoints
	protected := r.NewRoute().Subrouter()
	protected.Use(AuthMiddleware(signer))
	protected.Handle("/history", NewHistoryHandler(history)).Methods(http.MethodGet, http.MethodOptions)
	protected.Handle("/rooms/{room}/users", NewPresenceHandler(members)).Methods(http.MethodGet, http.MethodOptions)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("logging")
	}
	defer closer.Close()

	session, err := db.NewSession(cfg.ScyllaHosts, cfg.ScyllaKeyspace)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ScyllaDB")
	}
	defer session.Close()

	registry := presence.NewRegistry(cfg.RedisAddr)
	defer registry.Close()

	srv := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: newRouter(auth.NewSigner(cfg.JWTSecret), db.NewMessageRepository(session), registry),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.APIAddr).Msg("API service starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("api")
	}
}
