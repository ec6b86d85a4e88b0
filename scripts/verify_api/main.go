package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mahaj/chatroom/pkg/config"
	"github.com/mahaj/chatroom/pkg/logging"
	"github.com/mahaj/chatroom/pkg/model"
	"github.com/mahaj/chatroom/pkg/transport"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if _, err := logging.Setup(cfg.LogLevel, ""); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}

	apiAddr := cfg.APIAddr
	if strings.HasPrefix(apiAddr, ":") {
		apiAddr = "localhost" + apiAddr
	}
	apiAddr = "http://" + apiAddr

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Login
	token, err := transport.Login(ctx, apiAddr, model.User{ID: "test_user", Username: "Test User"})
	if err != nil {
		log.Fatal().Err(err).Msg("login")
	}
	fmt.Printf("Token: %s...\n", token[:10])

	// 2. History and presence of the default room
	for _, path := range []string{"/history?room=general&limit=20", "/rooms/general/users"} {
		body, err := get(ctx, apiAddr+path, token)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("request failed")
		}
		fmt.Printf("%s: %s\n", path, body)
	}
}

func get(ctx context.Context, url, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
