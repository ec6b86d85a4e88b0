package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type memberLister interface {
	Members(ctx context.Context, room string) ([]string, error)
}

type PresenceHandler struct {
	presence memberLister
}

func NewPresenceHandler(presence memberLister) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// ServeHTTP lists the user ids currently in /rooms/{room}/users.
func (h *PresenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	users, err := h.presence.Members(r.Context(), room)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("failed to fetch presence")
		http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
