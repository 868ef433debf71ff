package plugin

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"github.com/keepmind9/slackmech/internal/events"
)

// Interactive is a block action interaction passed to an interactive
// handler. Replies through Respond go to the response URL of the
// originating message.
type Interactive struct {
	api     API
	payload *events.Interaction

	// Logger is a scoped logger bound to the handler invocation. Only set
	// when the handler was registered with WantsLogger.
	Logger *logrus.Entry
}

// NewInteractive builds an interactive context around a parsed
// block_actions payload.
func NewInteractive(api API, payload *events.Interaction) *Interactive {
	return &Interactive{api: api, payload: payload}
}

// Actions returns the actions of the interaction.
func (i *Interactive) Actions() []events.Action {
	return i.payload.Actions
}

// State returns the state of the message or view the action originated
// from, if any.
func (i *Interactive) State() json.RawMessage {
	if len(i.payload.State) > 0 {
		return i.payload.State
	}
	if i.payload.View != nil {
		return i.payload.View.State
	}
	return nil
}

// SenderID returns the user id of the interacting user.
func (i *Interactive) SenderID() string {
	return i.payload.User.ID
}

// Sender returns the interacting user from the local directory.
func (i *Interactive) Sender() slack.User {
	u, _ := i.api.UserByID(i.payload.User.ID)
	return u
}

// ChannelID returns the id of the channel the interaction happened in.
func (i *Interactive) ChannelID() string {
	return i.payload.Channel.ID
}

// IsDM reports whether the interaction happened in a direct conversation.
func (i *Interactive) IsDM() bool {
	id := i.payload.Channel.ID
	return !(strings.HasPrefix(id, "C") || strings.HasPrefix(id, "G"))
}

// TriggerID returns the trigger id associated with the interaction.
func (i *Interactive) TriggerID() string {
	return i.payload.TriggerID
}

// ResponseURL returns the response URL associated with the interaction.
func (i *Interactive) ResponseURL() string {
	return i.payload.ResponseURL
}

// Say posts a new message to the channel the interaction happened in.
func (i *Interactive) Say(ctx context.Context, text string, opts ...slack.MsgOption) (string, error) {
	all := append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)
	return i.api.Send(ctx, i.payload.Channel.ID, all...)
}

// Respond posts a reply through the interaction's response URL.
// An empty ResponseType defaults to ephemeral.
func (i *Interactive) Respond(ctx context.Context, msg *slack.WebhookMessage) error {
	if msg.ResponseType == "" {
		msg.ResponseType = responseType(true)
	}
	return i.api.PostWebhook(ctx, i.payload.ResponseURL, msg)
}

// OpenModal opens a modal view using the interaction's trigger id.
func (i *Interactive) OpenModal(ctx context.Context, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	return i.api.OpenView(ctx, i.payload.TriggerID, view)
}
