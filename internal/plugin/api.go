// Package plugin defines the objects handed to plugin handlers: the
// outbound capability interface and the per-event invocation contexts.
//
// Contexts are built per dispatched event and discarded after the handler
// returns. They hold a shared reference to the outbound client, never own
// it.
package plugin

import (
	"context"

	"github.com/slack-go/slack"
)

// API is the outbound capability attached to every invocation context.
// The real implementation wraps the Slack Web API; tests use fakes.
type API interface {
	// Send posts a message to a channel and returns the message timestamp.
	Send(ctx context.Context, channelID string, opts ...slack.MsgOption) (string, error)

	// PostWebhook posts a message to a response URL.
	PostWebhook(ctx context.Context, url string, msg *slack.WebhookMessage) error

	// OpenView opens a modal view for a trigger id.
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)

	// UserByID returns an already-known user from the local directory.
	UserByID(id string) (slack.User, bool)

	// ChannelByID returns an already-known channel from the local directory.
	ChannelByID(id string) (slack.Channel, bool)

	// GetUser resolves a user through the Web API, populating the local
	// directory. May block on a network call.
	GetUser(ctx context.Context, id string) (*slack.User, error)
}

// AckSink delivers the immediate acknowledgement payload for an incremental
// command handler. The first call hands the payload to the dispatcher and
// blocks until the acknowledgement has been sent to the gateway; subsequent
// calls return immediately and their payloads are discarded.
type AckSink func(payload interface{})

// responseType returns the Slack response_type string for a webhook reply.
func responseType(ephemeral bool) string {
	if ephemeral {
		return "ephemeral"
	}
	return "in_channel"
}
