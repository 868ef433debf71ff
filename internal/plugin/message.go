package plugin

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"github.com/keepmind9/slackmech/internal/events"
)

// Message is a channel message that was addressed to, or overheard by, the
// bot. The text has already been stripped of any mention prefix.
type Message struct {
	api API
	ev  *events.Message

	// Groups holds the named capture groups of the handler's trigger
	// pattern, extracted from the message text.
	Groups map[string]string

	// Logger is a scoped logger bound to the handler invocation. Only set
	// when the handler was registered with WantsLogger.
	Logger *logrus.Entry
}

// NewMessage builds a message context around a parsed message event.
func NewMessage(api API, ev *events.Message, groups map[string]string) *Message {
	return &Message{api: api, ev: ev, Groups: groups}
}

// Text returns the message text, mention prefix removed.
func (m *Message) Text() string {
	return m.ev.Text
}

// SenderID returns the user id of the message sender.
func (m *Message) SenderID() string {
	return m.ev.User
}

// Sender returns the sending user from the local directory. The zero user
// is returned when the sender is not known yet.
func (m *Message) Sender() slack.User {
	u, _ := m.api.UserByID(m.ev.User)
	return u
}

// ChannelID returns the id of the channel the message was sent to.
func (m *Message) ChannelID() string {
	return m.ev.Channel
}

// Channel returns the channel from the local directory.
func (m *Message) Channel() (slack.Channel, bool) {
	return m.api.ChannelByID(m.ev.Channel)
}

// IsDM reports whether the message arrived in a direct conversation.
func (m *Message) IsDM() bool {
	return m.ev.IsDirect()
}

// IsEdit reports whether the message is an edit of an earlier message.
func (m *Message) IsEdit() bool {
	return m.ev.IsEdit()
}

// TS returns the message timestamp.
func (m *Message) TS() string {
	return m.ev.TS
}

// ThreadTS returns the thread timestamp the message belongs to, or its own
// timestamp when it is not part of a thread.
func (m *Message) ThreadTS() string {
	if m.ev.ThreadTS != "" {
		return m.ev.ThreadTS
	}
	return m.ev.TS
}

// Say sends a new message to the channel the original message was received
// in. Extra options are passed through to the Web API call.
func (m *Message) Say(ctx context.Context, text string, opts ...slack.MsgOption) (string, error) {
	all := append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)
	return m.api.Send(ctx, m.ev.Channel, all...)
}

// Reply sends a message in the thread of the original message, mentioning
// the sender.
func (m *Message) Reply(ctx context.Context, text string, opts ...slack.MsgOption) (string, error) {
	mention := "<@" + m.ev.User + ">"
	if !strings.HasPrefix(text, mention) {
		text = mention + ": " + text
	}
	all := append([]slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(m.ThreadTS()),
	}, opts...)
	return m.api.Send(ctx, m.ev.Channel, all...)
}

// SayEphemeral sends an ephemeral message only visible to the sender of the
// original message.
func (m *Message) SayEphemeral(ctx context.Context, text string, opts ...slack.MsgOption) (string, error) {
	all := append([]slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionPostEphemeral(m.ev.User),
	}, opts...)
	return m.api.Send(ctx, m.ev.Channel, all...)
}
