package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mahaj/chatroom/pkg/chat"
	"github.com/mahaj/chatroom/pkg/feed"
)

// prompt turns stdin lines into composer keystrokes and slash commands. A line
// ending in a backslash continues the message on the next line.
type prompt struct {
	me       string
	store    *chat.Store
	reply    *chat.ReplyContext
	composer *chat.Composer
	session  *chat.Session
	errOut   io.Writer
}

func (p *prompt) handle(ctx context.Context, line string) {
	if p.composer.Text() == "" && strings.HasPrefix(line, "/") {
		p.command(ctx, line)
		return
	}

	if cont, ok := strings.CutSuffix(line, `\`); ok {
		p.composer.SetText(p.composer.Text() + cont)
		p.composer.HandleKey(ctx, chat.KeyEvent{Key: chat.KeyEnter, Shift: true})
		return
	}
	p.composer.SetText(p.composer.Text() + line)
	p.composer.HandleKey(ctx, chat.KeyEvent{Key: chat.KeyEnter})
}

func (p *prompt) command(ctx context.Context, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/reply":
		if len(fields) != 2 {
			fmt.Fprintln(p.errOut, "usage: /reply <n>")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(p.errOut, "not a message number: %s\n", fields[1])
			return
		}
		target, err := feed.ReplyTarget(p.store, n, p.me)
		if err != nil {
			fmt.Fprintln(p.errOut, err)
			return
		}
		p.reply.Set(target)
	case "/cancel":
		p.reply.Clear()
	case "/quit":
		p.session.Leave(ctx)
	default:
		fmt.Fprintf(p.errOut, "unknown command %s (try /reply <n>, /cancel, /quit)\n", fields[0])
	}
}
