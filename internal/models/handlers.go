// Package models defines the registered handler types and the Registry the
// dispatcher selects handlers from.
package models

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/keepmind9/slackmech/internal/plugin"
)

// MessageFunc handles a channel message.
type MessageFunc func(ctx context.Context, msg *plugin.Message) error

// CommandFunc handles a slash command to completion after the gateway has
// been acknowledged.
type CommandFunc func(ctx context.Context, cmd *plugin.Command) error

// IncrementalCommandFunc handles a slash command that produces its own
// acknowledgement payload. The handler publishes at most one payload
// through ack; the dispatcher sends it as the gateway acknowledgement
// before the handler is resumed. A handler that finishes without
// publishing gets a bare acknowledgement sent on its behalf.
type IncrementalCommandFunc func(ctx context.Context, cmd *plugin.Command, ack plugin.AckSink) error

// InteractiveFunc handles a block action interaction.
type InteractiveFunc func(ctx context.Context, ic *plugin.Interactive) error

// ViewFunc handles a modal view submission.
type ViewFunc func(ctx context.Context, view *plugin.View) error

// ProcessFunc handles a raw gateway event of a registered type.
type ProcessFunc func(ctx context.Context, event json.RawMessage) error

// MessageHandler is a registered handler for channel messages. Respond
// handlers only see messages addressed to the bot, listen handlers see all
// messages.
type MessageHandler struct {
	// Plugin is the name of the owning plugin, used as logging scope.
	Plugin string
	// Handler names the handler within the plugin for scoped logging.
	Handler string
	// Regex is the trigger pattern, searched (not anchored) against the
	// mention-stripped message text.
	Regex *regexp.Regexp
	// HandleEdits opts the handler into edited messages.
	HandleEdits bool
	// WantsLogger requests a scoped logger on the message context.
	WantsLogger bool

	Func MessageFunc
}

// CommandHandler is a registered handler for an exact slash command.
type CommandHandler struct {
	Plugin  string
	Handler string
	// Command is the exact slash command string, including the slash.
	Command string
	// Incremental marks handlers that publish their own acknowledgement
	// payload. Exactly one of Func and IncrementalFunc is set, matching
	// this flag.
	Incremental     bool
	WantsLogger     bool
	Func            CommandFunc
	IncrementalFunc IncrementalCommandFunc
}

// InteractiveHandler is a registered handler for an exact block action id.
type InteractiveHandler struct {
	Plugin      string
	Handler     string
	ActionID    string
	WantsLogger bool
	Func        InteractiveFunc
}

// ViewHandler is a registered handler for an exact view callback id.
type ViewHandler struct {
	Plugin      string
	Handler     string
	CallbackID  string
	WantsLogger bool
	Func        ViewFunc
}

// ProcessHandler is a registered handler for a raw gateway event type.
// Multiple process handlers may share one event type, each under its own
// name.
type ProcessHandler struct {
	Plugin string
	// Name identifies the handler within its event type.
	Name string
	// EventType is the raw gateway event type string.
	EventType string
	Func      ProcessFunc
}

// Plugin is implemented by anything that contributes handlers. Plugins
// insert their handlers through the registry reference they are given;
// there is no ambient global registration.
type Plugin interface {
	Name() string
	Register(r *Registry)
}
