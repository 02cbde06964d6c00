package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/arena-game/internal/eventbus"
	"github.com/annel0/arena-game/internal/game"
	nats "github.com/nats-io/nats.go"
)

const timeFormat = "15:04:05.000"

func main() {
	var (
		url        = flag.String("url", nats.DefaultURL, "NATS server URL")
		stream     = flag.String("stream", "ARENA", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		since      = flag.Duration("since", 0, "Replay events newer than this duration (0 - only new)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 - unlimited)")
	)
	flag.Parse()

	nc, err := nats.Connect(*url, nats.Name("arena-event-cli"))
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatalf("❌ JetStream unavailable: %v", err)
	}

	switch *command {
	case "tail":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err = tailEvents(ctx, js, TailOptions{
			Stream: *stream,
			Filter: eventbus.Filter{Types: parseStringList(*eventTypes)},
			Since:  *since,
			Limit:  *limit,
		})
	case "stats":
		err = showStats(js, *stream)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

// TailOptions параметры команды tail
type TailOptions struct {
	Stream string
	Filter eventbus.Filter
	Since  time.Duration
	Limit  int
}

func tailEvents(ctx context.Context, js nats.JetStreamContext, opts TailOptions) error {
	deliver := nats.DeliverNew()
	if opts.Since > 0 {
		deliver = nats.StartTime(time.Now().Add(-opts.Since))
	}

	received := make(chan *eventbus.Envelope, 64)
	sub, err := js.Subscribe(eventbus.SubjectPrefix(opts.Stream)+".*", func(msg *nats.Msg) {
		var ev eventbus.Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("⚠️  Skipping malformed message on %s: %v", msg.Subject, err)
			return
		}
		if opts.Filter.Match(&ev) {
			received <- &ev
		}
	}, deliver, nats.BindStream(opts.Stream))
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("📡 Tailing stream %s (Ctrl+C to stop)\n", opts.Stream)
	count := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-received:
			fmt.Println(formatEvent(ev))
			count++
			if opts.Limit > 0 && count >= opts.Limit {
				return nil
			}
		}
	}
}

// formatEvent печатает событие игры в одну строку
func formatEvent(ev *eventbus.Envelope) string {
	var payload game.Event
	if err := ev.Decode(&payload); err != nil {
		return fmt.Sprintf("%s %-16s %s", ev.Timestamp.Format(timeFormat), ev.EventType, ev.Payload)
	}

	var details string
	switch payload.Kind {
	case game.EventPlayerEliminated:
		details = fmt.Sprintf("player=%s points=+%d alive_before=%d", payload.Symbol, payload.Points, payload.AliveBefore)
	case game.EventRoundFinished, game.EventGameFinished:
		details = "ranking=" + strings.Join(payload.Ranking, ",")
	}
	return strings.TrimSpace(fmt.Sprintf("%s %-16s arena=%d %s", ev.Timestamp.Format(timeFormat), ev.EventType, payload.ArenaNumber, details))
}

func showStats(js nats.JetStreamContext, stream string) error {
	info, err := js.StreamInfo(stream)
	if err != nil {
		return err
	}
	fmt.Printf("📊 Stream %s\n", info.Config.Name)
	fmt.Printf("   Subjects: %s\n", strings.Join(info.Config.Subjects, ", "))
	fmt.Printf("   Messages: %d\n", info.State.Msgs)
	fmt.Printf("   Bytes:    %d\n", info.State.Bytes)
	if info.State.Msgs > 0 {
		fmt.Printf("   First:    %s\n", info.State.FirstTime.Format(time.RFC3339))
		fmt.Printf("   Last:     %s\n", info.State.LastTime.Format(time.RFC3339))
	}
	return nil
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
