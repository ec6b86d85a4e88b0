package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mahaj/chatroom/pkg/auth"
	"github.com/mahaj/chatroom/pkg/model"
	"github.com/rs/zerolog/log"
)

const (
	defaultRoom         = "general"
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type historyReader interface {
	History(roomID string, limit int) ([]model.Message, error)
}

type HistoryHandler struct {
	repo historyReader
}

func NewHistoryHandler(repo historyReader) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// ServeHTTP returns the latest messages of ?room= in relay order.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		room = defaultRoom
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	messages, err := h.repo.History(room, limit)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("failed to retrieve history")
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

type LoginRequest struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	UserAvatar string `json:"user_avatar,omitempty"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// LoginHandler issues an identity token. The username defaults to the id.
func LoginHandler(signer *auth.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		if req.Username == "" {
			req.Username = req.UserID
		}

		token, err := signer.GenerateToken(model.User{ID: req.UserID, Username: req.Username, UserAvatar: req.UserAvatar})
		if err != nil {
			log.Error().Err(err).Msg("failed to generate token")
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(LoginResponse{Token: token})
	}
}

// AuthMiddleware rejects requests without a valid token and stores the claims
// in the request context under auth.UserKey.
func AuthMiddleware(signer *auth.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := signer.ValidateToken(auth.BearerToken(tokenString))
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			log.Debug().Str("user", claims.UserID).Str("path", r.URL.Path).Msg("authenticated")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), auth.UserKey, claims)))
		})
	}
}
