package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mahaj/chatroom/pkg/chat"
	"github.com/mahaj/chatroom/pkg/feed"
	"github.com/mahaj/chatroom/pkg/logging"
	"github.com/mahaj/chatroom/pkg/model"
	"github.com/mahaj/chatroom/pkg/shutdown"
	"github.com/mahaj/chatroom/pkg/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	userID   string
	username string
	avatar   string
	room     string
	gateway  string
	api      string
	width    int
	logLevel string
	logFile  string
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Join a chat room from the terminal",
		Long: `Join a chat room from the terminal.

Type a line and press Enter to send it. End a line with \ to continue the
message on the next line. Commands:
  /reply <n>  reply to message #n
  /cancel     drop the pending reply
  /quit       leave the room`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.username == "" {
				opts.username = opts.userID
			}
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.userID, "user-id", "user1", "user id")
	f.StringVar(&opts.username, "username", "", "display name (defaults to the user id)")
	f.StringVar(&opts.avatar, "avatar", "", "avatar URL")
	f.StringVar(&opts.room, "room", "general", "room to join")
	f.StringVar(&opts.gateway, "gateway", "localhost:8080", "gateway service address")
	f.StringVar(&opts.api, "api", "http://localhost:8081", "api service address")
	f.IntVar(&opts.width, "width", 72, "terminal width used to align the feed")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	closer, err := logging.Setup(opts.logLevel, opts.logFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	user := model.User{ID: opts.userID, Username: opts.username, UserAvatar: opts.avatar}

	log.Info().Str("user", user.ID).Msg("logging in")
	token, err := transport.Login(ctx, opts.api, user)
	if err != nil {
		return err
	}

	client, err := transport.Dial(ctx, opts.gateway, opts.room, token)
	if err != nil {
		return err
	}
	defer client.Close()
	log.Info().Str("room", opts.room).Str("gateway", opts.gateway).Msg("connected")

	store := chat.NewStore()
	reply := chat.NewReplyContext()
	room := chat.NewRoom(store, client)

	renderer := feed.NewRenderer(os.Stdout, user.Username)
	renderer.SetWidth(opts.width)
	detach := renderer.Attach(store, reply)
	defer detach()

	builder := chat.DefaultBuilder()
	session := chat.NewSession(user, builder, room, client, shutdown.New())
	defer session.Close()

	received := make(chan struct{})
	go func() {
		defer close(received)
		if err := room.Receive(ctx); err != nil {
			log.Debug().Err(err).Msg("receive stopped")
		}
	}()

	session.Start(ctx)

	p := &prompt{
		me:       user.Username,
		store:    store,
		reply:    reply,
		composer: chat.NewComposer(user, builder, room, reply),
		session:  session,
		errOut:   os.Stderr,
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-session.Done():
			return nil
		case <-received:
			fmt.Fprintln(os.Stderr, "connection to the gateway closed")
			return nil
		case line, ok := <-lines:
			if !ok {
				// End of input counts as leaving.
				session.Leave(ctx)
				return nil
			}
			p.handle(ctx, line)
		}
	}
}
