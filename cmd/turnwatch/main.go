package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/pkg/events"
	natsbus "glassfactory-chat/pkg/nats"

	"github.com/fatih/color"
)

// turnwatch tails the chat turns relayed by the proxy onto NATS.
func main() {
	durable := flag.String("durable", "", "durable consumer name; empty only shows new turns")
	session := flag.String("session", "", "only show turns of this session")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	sub, err := natsbus.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subject := natsbus.Subject(events.ChatTurn{})
	err = sub.Subscribe(ctx, subject, *durable, func(ctx context.Context, event events.Event) error {
		turn := events.ChatTurnFromPayload(event.Payload())
		if *session != "" && turn.SessionID != *session {
			return nil
		}
		printTurn(color.Output, turn)
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	color.New(color.FgHiBlack).Fprintf(color.Output, "watching %s on %s\n", subject, cfg.App.NatsURL)
	<-ctx.Done()
}

func printTurn(w io.Writer, turn events.ChatTurn) {
	stamp := color.New(color.FgHiBlack).SprintFunc()
	sessionLabel := color.New(color.FgCyan, color.Bold).SprintFunc()
	user := color.New(color.FgYellow).SprintFunc()
	bot := color.New(color.FgGreen).SprintFunc()

	flags := ""
	if turn.IsNewSession {
		flags += " new"
	}
	if turn.HadImage {
		flags += " image"
		if turn.ImageProcessed {
			flags += "+seen"
		}
	}
	if turn.IsAuthenticated {
		flags += " auth"
	}
	if turn.DroppedLines > 0 {
		flags += fmt.Sprintf(" dropped=%d", turn.DroppedLines)
	}

	fmt.Fprintf(w, "%s %s%s\n", stamp(turn.OccurredAt.Local().Format(time.DateTime)), sessionLabel(turn.SessionID), stamp(flags))
	fmt.Fprintf(w, "  %s %s\n", user(">"), turn.ChatInput)
	fmt.Fprintf(w, "  %s %s\n\n", bot("<"), turn.Response)
}
