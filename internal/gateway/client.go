// Package gateway wraps the Slack socket-mode transport and Web API behind
// the capability interface plugins consume.
package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/keepmind9/slackmech/internal/logger"
	"github.com/keepmind9/slackmech/pkg/constants"
)

// withAPITimeout bounds a single outbound Web API call so a stalled
// connection cannot hold a handler goroutine indefinitely.
func withAPITimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, constants.DefaultAPITimeout)
}

// Client connects the Web API and socket-mode transport. It implements
// plugin.API for outbound calls and dispatch.Acker for acknowledgements,
// and keeps a local directory of known users and channels.
type Client struct {
	api    *slack.Client
	socket *socketmode.Client

	botID   string
	botName string

	mu       sync.RWMutex
	users    map[string]slack.User
	channels map[string]slack.Channel
}

// Connect creates a client and resolves the bot's own identity through
// auth.test.
func Connect(ctx context.Context, botToken, appToken string) (*Client, error) {
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))

	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth test failed: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"bot_id":   auth.UserID,
		"bot_name": auth.User,
		"team":     auth.Team,
	}).Info("slack-identity-resolved")

	return &Client{
		api:      api,
		socket:   socketmode.New(api),
		botID:    auth.UserID,
		botName:  auth.User,
		users:    make(map[string]slack.User),
		channels: make(map[string]slack.Channel),
	}, nil
}

// BotID returns the bot's own user id.
func (c *Client) BotID() string {
	return c.botID
}

// BotName returns the bot's display name.
func (c *Client) BotName() string {
	return c.botName
}

// LoadDirectory fills the local user and channel directories from the Web
// API. Called once at startup; GetUser keeps the user directory warm
// afterwards.
func (c *Client) LoadDirectory(ctx context.Context) error {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           1000,
		Types:           []string{"public_channel", "private_channel", "mpim", "im"},
	}
	var channels []slack.Channel
	for {
		page, cursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to list conversations: %w", err)
		}
		channels = append(channels, page...)
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}

	c.mu.Lock()
	for _, u := range users {
		c.users[u.ID] = u
	}
	for _, ch := range channels {
		c.channels[ch.ID] = ch
	}
	c.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"users":    len(users),
		"channels": len(channels),
	}).Info("slack-directory-loaded")
	return nil
}

// Send posts a message to a channel and returns the message timestamp.
func (c *Client) Send(ctx context.Context, channelID string, opts ...slack.MsgOption) (string, error) {
	ctx, cancel := withAPITimeout(ctx)
	defer cancel()
	_, ts, err := c.api.PostMessageContext(ctx, channelID, opts...)
	return ts, err
}

// PostWebhook posts a message to a response URL.
func (c *Client) PostWebhook(ctx context.Context, url string, msg *slack.WebhookMessage) error {
	ctx, cancel := withAPITimeout(ctx)
	defer cancel()
	return slack.PostWebhookContext(ctx, url, msg)
}

// OpenView opens a modal view for a trigger id.
func (c *Client) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	ctx, cancel := withAPITimeout(ctx)
	defer cancel()
	return c.api.OpenViewContext(ctx, triggerID, view)
}

// UserByID returns an already-known user from the local directory.
func (c *Client) UserByID(id string) (slack.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	return u, ok
}

// ChannelByID returns an already-known channel from the local directory.
func (c *Client) ChannelByID(id string) (slack.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[id]
	return ch, ok
}

// GetUser resolves a user through the Web API and stores it in the local
// directory.
func (c *Client) GetUser(ctx context.Context, id string) (*slack.User, error) {
	ctx, cancel := withAPITimeout(ctx)
	defer cancel()
	u, err := c.api.GetUserInfoContext(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.users[u.ID] = *u
	c.mu.Unlock()
	return u, nil
}

// Ack sends a socket-mode acknowledgement, with an optional payload.
func (c *Client) Ack(req socketmode.Request, payload ...interface{}) {
	c.socket.Ack(req, payload...)
}
