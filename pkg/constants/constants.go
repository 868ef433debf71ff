package constants

import "time"

// Socket-mode request types delivered by the Slack gateway
const (
	// RequestTypeEventsAPI carries Events API envelopes (messages, generic events)
	RequestTypeEventsAPI = "events_api"
	// RequestTypeSlashCommand carries slash command invocations
	RequestTypeSlashCommand = "slash_commands"
	// RequestTypeInteractive carries block actions and view submissions
	RequestTypeInteractive = "interactive"
)

// Interactive payload types
const (
	// InteractionBlockActions is the payload type for block action clicks
	InteractionBlockActions = "block_actions"
	// InteractionViewSubmission is the payload type for modal submissions
	InteractionViewSubmission = "view_submission"
)

// Event types and subtypes
const (
	// EventTypeMessage is the Events API type for channel messages
	EventTypeMessage = "message"
	// SubtypeMessageChanged marks an edit of an earlier message
	SubtypeMessageChanged = "message_changed"
)

// Channel types as reported in message events
const (
	ChannelTypeChannel = "channel"
	ChannelTypeGroup   = "group"
	ChannelTypeIM      = "im"
	ChannelTypeMPIM    = "mpim"
)

// Timeouts and delays
const (
	// DefaultAPITimeout is the timeout for outbound Slack Web API calls
	DefaultAPITimeout = 10 * time.Second
	// DefaultShutdownTimeout is the grace period for draining in-flight dispatches
	DefaultShutdownTimeout = 5 * time.Second
)

// Storage defaults
const (
	// DefaultSQLitePath is the default sqlite database file
	DefaultSQLitePath = "slackmech-state.db"
	// StorageTableName is the sqlite table backing the key/value store
	StorageTableName = "sm_storage"
)

// Token masking
const (
	// MinSecretLengthForMasking is the minimum token length to apply masking
	MinSecretLengthForMasking = 10
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 7
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)

// Logging defaults
const (
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxBackups is the default number of rotated files to keep
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
