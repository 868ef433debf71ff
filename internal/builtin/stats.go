package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/plugin"
	"github.com/keepmind9/slackmech/internal/storage"
)

const statsKeyPrefix = "stats:"

// EventStats counts raw gateway events per type and reports the counters
// through the /stats command. It shows how process handlers and command
// handlers cooperate through storage.
type EventStats struct {
	store      storage.Storage
	eventTypes []string
}

// NewEventStats creates the stats plugin, counting the given raw event
// types.
func NewEventStats(store storage.Storage, eventTypes ...string) *EventStats {
	if len(eventTypes) == 0 {
		eventTypes = []string{"reaction_added", "channel_created", "team_join"}
	}
	return &EventStats{store: store, eventTypes: eventTypes}
}

// Name returns the plugin name used as logging scope.
func (s *EventStats) Name() string { return "EventStats" }

// Register inserts the plugin's handlers.
func (s *EventStats) Register(r *models.Registry) {
	for _, eventType := range s.eventTypes {
		r.AddProcess(&models.ProcessHandler{
			Plugin:    s.Name(),
			Name:      "count_" + eventType,
			EventType: eventType,
			Func:      s.counter(eventType),
		})
	}
	r.AddCommand(&models.CommandHandler{
		Plugin:  s.Name(),
		Handler: "stats",
		Command: "/stats",
		Func:    s.report,
	})
}

func (s *EventStats) counter(eventType string) models.ProcessFunc {
	key := statsKeyPrefix + eventType
	return func(ctx context.Context, event json.RawMessage) error {
		count, err := s.readCount(ctx, key)
		if err != nil {
			return err
		}
		return s.store.Set(ctx, key, []byte(strconv.Itoa(count+1)), 0)
	}
}

func (s *EventStats) readCount(ctx context.Context, key string) (int, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to load counter %s: %w", key, err)
	}
	if raw == nil {
		return 0, nil
	}
	count, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("corrupt counter %s: %w", key, err)
	}
	return count, nil
}

func (s *EventStats) report(ctx context.Context, cmd *plugin.Command) error {
	text := "Event counters:\n"
	for _, eventType := range s.eventTypes {
		count, err := s.readCount(ctx, statsKeyPrefix+eventType)
		if err != nil {
			return err
		}
		text += fmt.Sprintf("  • %s: %d\n", eventType, count)
	}
	return cmd.Respond(ctx, text, true)
}
