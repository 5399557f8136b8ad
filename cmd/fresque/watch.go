package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fresque-dev/fresque/internal/channel"
	"github.com/fresque-dev/fresque/internal/livestatus"
	"github.com/fresque-dev/fresque/internal/store"
	"github.com/fresque-dev/fresque/pkg/schema"
)

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	graphID := fs.String("graph", "", "graph id to follow (required)")
	room := fs.String("room", "", "chat room to log alongside the job")
	channelURL := fs.String("channel-url", "", "event channel endpoint (default from config)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *graphID == "" {
		fatalf("watch requires -graph")
	}

	cfg := loadConfig()
	if *channelURL != "" {
		cfg.ChannelURL = *channelURL
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewLibSQLStore(cfg.DBPath)
	if err != nil {
		fatalf("open store: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		fatalf("migrate store: %v", err)
	}

	merger := livestatus.NewMerger(*graphID, livestatus.Callbacks{
		OnStatus:   func(status string) { fmt.Printf("status: %s\n", status) },
		OnProgress: func(percent int) { fmt.Printf("progress: %d%%\n", percent) },
	}, logger)

	hub := channel.NewHub()
	events, unsubscribe, err := hub.Subscribe(ctx, channel.Filter{
		Names: []string{schema.EventMessage, schema.EventChatBatch, schema.EventRunningCount},
	})
	if err != nil {
		fatalf("subscribe hub: %v", err)
	}
	defer unsubscribe()

	cl := channel.NewClient(cfg.ChannelURL, hub, func(connected bool) {
		if connected {
			if err := merger.Transition(livestatus.ConnectedUnsubscribed); err != nil {
				logger.Warn("state transition rejected", "error", err)
			}
			return
		}
		if err := merger.Transition(livestatus.Disconnected); err != nil {
			logger.Warn("state transition rejected", "error", err)
		}
	}, logger)

	if err := cl.Dial(ctx); err != nil {
		fatalf("dial channel: %v", err)
	}
	defer cl.Close()

	if err := cl.SubscribeGraph(ctx, *graphID); err != nil {
		fatalf("subscribe graph: %v", err)
	}
	if err := merger.Transition(livestatus.Subscribed); err != nil {
		logger.Warn("state transition rejected", "error", err)
	}
	if *room != "" {
		if err := cl.EnterChat(ctx, *room); err != nil {
			fatalf("enter chat: %v", err)
		}
	}

	counter := livestatus.NewRunningCountWatcher(func(count int) {
		fmt.Printf("running jobs: %d\n", count)
	})

	logger.Info("watching", "graph_id", *graphID, "channel_url", cfg.ChannelURL)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			handleEvent(ctx, ev, merger, counter, st, *room, logger)
		}
	}
}

func handleEvent(ctx context.Context, ev channel.Event, merger *livestatus.Merger, counter *livestatus.RunningCountWatcher, st store.Store, room string, logger *slog.Logger) {
	switch ev.Name {
	case schema.EventMessage:
		var payload schema.StatusPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			logger.Warn("bad status payload", "error", err)
			return
		}
		merger.Apply(payload)
		if err := persistSnapshot(ctx, st, merger); err != nil {
			logger.Warn("snapshot save failed", "error", err)
		}

	case schema.EventChatBatch:
		var messages []schema.ChatMessage
		if err := json.Unmarshal(ev.Data, &messages); err != nil {
			logger.Warn("bad chat batch", "error", err)
			return
		}
		for _, msg := range messages {
			if room != "" && msg.Room != room {
				continue
			}
			fmt.Printf("[%s] %s: %s\n", msg.Room, msg.Author, msg.Content)
			rec := &store.ChatRecord{Room: msg.Room, Author: msg.Author, Content: msg.Content}
			if err := st.AppendChat(ctx, rec); err != nil {
				logger.Warn("chat append failed", "error", err)
			}
		}

	case schema.EventRunningCount:
		var count int
		if err := json.Unmarshal(ev.Data, &count); err != nil {
			logger.Warn("bad running count", "error", err)
			return
		}
		counter.Update(count)
	}
}

// persistSnapshot writes the merger's current picture so status queries
// keep answering after a disconnect.
func persistSnapshot(ctx context.Context, st store.Store, merger *livestatus.Merger) error {
	snap := merger.Snapshot()

	tasks, err := json.Marshal(snap.Tasks)
	if err != nil {
		return err
	}
	ui, err := json.Marshal(snap.UIElements)
	if err != nil {
		return err
	}
	values, err := json.Marshal(snap.Values)
	if err != nil {
		return err
	}

	return st.SaveSnapshot(ctx, &store.StatusSnapshot{
		GraphID:    merger.GraphID(),
		Status:     snap.Status,
		Progress:   snap.Progress,
		Tasks:      tasks,
		UIElements: ui,
		Values:     values,
	})
}
