// Package events defines the typed payloads parsed from socket-mode requests.
//
// Raw gateway payloads are decoded exactly once, at the dispatch boundary.
// Downstream components (matcher, contexts, handlers) only ever see these
// types, never loose JSON.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/keepmind9/slackmech/pkg/constants"
)

// Envelope is the outer Events API payload carried by an events_api request.
type Envelope struct {
	Event json.RawMessage `json:"event"`
}

type eventHeader struct {
	Type string `json:"type"`
}

// ParseEnvelope decodes an events_api request payload and returns the inner
// event along with its type string.
func ParseEnvelope(payload json.RawMessage) (json.RawMessage, string, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, "", fmt.Errorf("failed to parse events_api envelope: %w", err)
	}
	if len(env.Event) == 0 {
		return nil, "", fmt.Errorf("events_api envelope has no event")
	}
	var hdr eventHeader
	if err := json.Unmarshal(env.Event, &hdr); err != nil {
		return nil, "", fmt.Errorf("failed to parse event type: %w", err)
	}
	return env.Event, hdr.Type, nil
}

// Message is an Events API message event.
type Message struct {
	Type        string   `json:"type"`
	SubType     string   `json:"subtype,omitempty"`
	User        string   `json:"user,omitempty"`
	BotID       string   `json:"bot_id,omitempty"`
	Text        string   `json:"text"`
	Channel     string   `json:"channel"`
	ChannelType string   `json:"channel_type"`
	TS          string   `json:"ts"`
	ThreadTS    string   `json:"thread_ts,omitempty"`
	Message     *Message `json:"message,omitempty"` // nested payload for message_changed
}

// ParseMessage decodes a message event.
func ParseMessage(raw json.RawMessage) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message event: %w", err)
	}
	return &msg, nil
}

// Promote returns the effective message for dispatch. For message_changed
// events the nested edited message becomes the event, inheriting channel,
// channel type and the subtype marker, so edits are matched exactly like
// the edited text was just sent.
func (m *Message) Promote() *Message {
	if m.SubType != constants.SubtypeMessageChanged || m.Message == nil {
		return m
	}
	inner := *m.Message
	inner.Channel = m.Channel
	inner.ChannelType = m.ChannelType
	inner.SubType = constants.SubtypeMessageChanged
	return &inner
}

// IsEdit reports whether this message is an edit of an earlier message.
func (m *Message) IsEdit() bool {
	return m.SubType == constants.SubtypeMessageChanged
}

// IsDirect reports whether the message arrived outside a multi-party
// channel or group, i.e. in a direct conversation with the bot.
func (m *Message) IsDirect() bool {
	return m.ChannelType != constants.ChannelTypeChannel && m.ChannelType != constants.ChannelTypeGroup
}

// SlashCommand is a slash_commands request payload.
type SlashCommand struct {
	Command     string `json:"command"`
	Text        string `json:"text"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	TeamID      string `json:"team_id"`
	TriggerID   string `json:"trigger_id"`
	ResponseURL string `json:"response_url"`
}

// ParseSlashCommand decodes a slash_commands request payload.
func ParseSlashCommand(payload json.RawMessage) (*SlashCommand, error) {
	var cmd SlashCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return nil, fmt.Errorf("failed to parse slash command payload: %w", err)
	}
	return &cmd, nil
}

// InteractionUser identifies the user that triggered an interaction.
type InteractionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// InteractionChannel identifies the channel an interaction happened in.
type InteractionChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Action is one entry of a block_actions payload's actions array.
type Action struct {
	ActionID string `json:"action_id"`
	BlockID  string `json:"block_id"`
	Type     string `json:"type"`
	Value    string `json:"value,omitempty"`
	ActionTS string `json:"action_ts,omitempty"`
}

// ViewPayload is the view object of a view_submission payload.
type ViewPayload struct {
	ID              string          `json:"id"`
	CallbackID      string          `json:"callback_id"`
	State           json.RawMessage `json:"state,omitempty"`
	PrivateMetadata string          `json:"private_metadata,omitempty"`
}

// ResponseURLEntry is one entry of a view_submission's response_urls array.
type ResponseURLEntry struct {
	BlockID     string `json:"block_id"`
	ActionID    string `json:"action_id"`
	ChannelID   string `json:"channel_id"`
	ResponseURL string `json:"response_url"`
}

// Interaction is an interactive request payload, covering both
// block_actions and view_submission types.
type Interaction struct {
	Type         string             `json:"type"`
	User         InteractionUser    `json:"user"`
	Channel      InteractionChannel `json:"channel"`
	Actions      []Action           `json:"actions,omitempty"`
	View         *ViewPayload       `json:"view,omitempty"`
	State        json.RawMessage    `json:"state,omitempty"`
	TriggerID    string             `json:"trigger_id"`
	ResponseURL  string             `json:"response_url,omitempty"`
	ResponseURLs []ResponseURLEntry `json:"response_urls,omitempty"`
}

// ParseInteraction decodes an interactive request payload.
func ParseInteraction(payload json.RawMessage) (*Interaction, error) {
	var ic Interaction
	if err := json.Unmarshal(payload, &ic); err != nil {
		return nil, fmt.Errorf("failed to parse interactive payload: %w", err)
	}
	return &ic, nil
}

// FirstActionID returns the action id of the first entry of the actions
// array. Only the first action is ever dispatched on.
func (ic *Interaction) FirstActionID() (string, bool) {
	if len(ic.Actions) == 0 || ic.Actions[0].ActionID == "" {
		return "", false
	}
	return ic.Actions[0].ActionID, true
}

// CallbackID returns the callback id of the submitted view.
func (ic *Interaction) CallbackID() (string, bool) {
	if ic.View == nil || ic.View.CallbackID == "" {
		return "", false
	}
	return ic.View.CallbackID, true
}

// FirstResponseURL returns the first response URL present on a
// view_submission payload, if any.
func (ic *Interaction) FirstResponseURL() (string, bool) {
	if len(ic.ResponseURLs) == 0 || ic.ResponseURLs[0].ResponseURL == "" {
		return "", false
	}
	return ic.ResponseURLs[0].ResponseURL, true
}
