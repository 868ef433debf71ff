package plugin

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"github.com/keepmind9/slackmech/internal/events"
)

// Command is a slash command invocation passed to a command handler.
type Command struct {
	api     API
	payload *events.SlashCommand

	// Logger is a scoped logger bound to the handler invocation. Only set
	// when the handler was registered with WantsLogger.
	Logger *logrus.Entry
}

// NewCommand builds a command context around a parsed slash command payload.
func NewCommand(api API, payload *events.SlashCommand) *Command {
	return &Command{api: api, payload: payload}
}

// Command returns the invoked slash command, including the leading slash.
func (c *Command) Command() string {
	return c.payload.Command
}

// Text returns the text following the slash command.
func (c *Command) Text() string {
	return c.payload.Text
}

// SenderID returns the user id of the invoking user.
func (c *Command) SenderID() string {
	return c.payload.UserID
}

// SenderName returns the user name of the invoking user.
func (c *Command) SenderName() string {
	return c.payload.UserName
}

// Sender returns the invoking user from the local directory.
func (c *Command) Sender() slack.User {
	u, _ := c.api.UserByID(c.payload.UserID)
	return u
}

// ChannelID returns the id of the channel the command was invoked in.
func (c *Command) ChannelID() string {
	return c.payload.ChannelID
}

// TriggerID returns the trigger id associated with the invocation. It can
// be used to open modals.
func (c *Command) TriggerID() string {
	return c.payload.TriggerID
}

// ResponseURL returns the response URL associated with the invocation.
func (c *Command) ResponseURL() string {
	return c.payload.ResponseURL
}

// Say posts a message to the channel the command was invoked in.
func (c *Command) Say(ctx context.Context, text string, opts ...slack.MsgOption) (string, error) {
	all := append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)
	return c.api.Send(ctx, c.payload.ChannelID, all...)
}

// Respond posts a reply through the command's response URL. Ephemeral
// replies are only visible to the invoking user.
func (c *Command) Respond(ctx context.Context, text string, ephemeral bool) error {
	return c.api.PostWebhook(ctx, c.payload.ResponseURL, &slack.WebhookMessage{
		Text:         text,
		ResponseType: responseType(ephemeral),
	})
}

// OpenModal opens a modal view using the command's trigger id.
func (c *Command) OpenModal(ctx context.Context, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	return c.api.OpenView(ctx, c.payload.TriggerID, view)
}
