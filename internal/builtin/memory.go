package builtin

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/plugin"
	"github.com/keepmind9/slackmech/internal/storage"
)

const memoryKeyPrefix = "memory:"

// Memory lets channel members teach the bot facts and ask for them back.
// Facts are stored per channel in the configured storage backend;
// "remember X for N" keeps the fact for N seconds only.
type Memory struct {
	store storage.Storage
}

// NewMemory creates the memory plugin on a storage backend.
func NewMemory(store storage.Storage) *Memory {
	return &Memory{store: store}
}

// Name returns the plugin name used as logging scope.
func (m *Memory) Name() string { return "Memory" }

// Register inserts the plugin's handlers.
func (m *Memory) Register(r *models.Registry) {
	r.AddRespondTo(&models.MessageHandler{
		Plugin:  m.Name(),
		Handler: "remember",
		Regex:   regexp.MustCompile(`^remember (?P<key>\w+) is (?P<value>.+?)(?: for (?P<ttl>\d+))?$`),
		Func:    m.remember,
	})
	r.AddRespondTo(&models.MessageHandler{
		Plugin:  m.Name(),
		Handler: "recall",
		Regex:   regexp.MustCompile(`^what is (?P<key>\w+)\??$`),
		Func:    m.recall,
	})
	r.AddRespondTo(&models.MessageHandler{
		Plugin:  m.Name(),
		Handler: "forget",
		Regex:   regexp.MustCompile(`^forget (?P<key>\w+)$`),
		Func:    m.forget,
	})
}

func (m *Memory) storageKey(channelID, key string) string {
	return memoryKeyPrefix + channelID + ":" + key
}

func (m *Memory) remember(ctx context.Context, msg *plugin.Message) error {
	key := msg.Groups["key"]
	value := msg.Groups["value"]

	var ttl time.Duration
	if raw := msg.Groups["ttl"]; raw != "" {
		seconds, err := time.ParseDuration(raw + "s")
		if err != nil {
			_, serr := msg.Say(ctx, fmt.Sprintf("I can't remember things for %q seconds", raw))
			if serr != nil {
				return serr
			}
			return nil
		}
		ttl = seconds
	}

	if err := m.store.Set(ctx, m.storageKey(msg.ChannelID(), key), []byte(value), ttl); err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	_, err := msg.Say(ctx, fmt.Sprintf("Ok, I'll remember that %s is %s", key, value))
	return err
}

func (m *Memory) recall(ctx context.Context, msg *plugin.Message) error {
	key := msg.Groups["key"]

	value, err := m.store.Get(ctx, m.storageKey(msg.ChannelID(), key))
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", key, err)
	}
	if value == nil {
		_, err = msg.Say(ctx, fmt.Sprintf("I don't know what %s is", key))
		return err
	}
	_, err = msg.Say(ctx, fmt.Sprintf("%s is %s", key, string(value)))
	return err
}

func (m *Memory) forget(ctx context.Context, msg *plugin.Message) error {
	key := msg.Groups["key"]

	if err := m.store.Delete(ctx, m.storageKey(msg.ChannelID(), key)); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	_, err := msg.Say(ctx, fmt.Sprintf("Ok, I forgot about %s", key))
	return err
}
