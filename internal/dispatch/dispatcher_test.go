package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"

	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/plugin"
	"github.com/keepmind9/slackmech/pkg/constants"
)

// callRecorder collects labeled events from handlers and the fake acker so
// ordering can be asserted.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, label)
}

func (r *callRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type ackCall struct {
	envelopeID string
	payloads   []interface{}
}

type fakeAcker struct {
	rec  *callRecorder
	mu   sync.Mutex
	acks []ackCall
}

func (f *fakeAcker) Ack(req socketmode.Request, payload ...interface{}) {
	f.mu.Lock()
	f.acks = append(f.acks, ackCall{envelopeID: req.EnvelopeID, payloads: payload})
	f.mu.Unlock()
	if f.rec != nil {
		f.rec.add("ack")
	}
}

func (f *fakeAcker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acks)
}

type fakeAPI struct {
	mu      sync.Mutex
	sent    []string
	users   map[string]slack.User
	lookups []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{users: make(map[string]slack.User)}
}

func (f *fakeAPI) Send(ctx context.Context, channelID string, opts ...slack.MsgOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID)
	return "1700000000.000100", nil
}

func (f *fakeAPI) PostWebhook(ctx context.Context, url string, msg *slack.WebhookMessage) error {
	return nil
}

func (f *fakeAPI) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	return &slack.ViewResponse{}, nil
}

func (f *fakeAPI) UserByID(id string) (slack.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	return u, ok
}

func (f *fakeAPI) ChannelByID(id string) (slack.Channel, bool) {
	return slack.Channel{}, false
}

func (f *fakeAPI) GetUser(ctx context.Context, id string) (*slack.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, id)
	u := slack.User{ID: id, Name: "resolved"}
	f.users[id] = u
	return &u, nil
}

func messageRequest(t *testing.T, event map[string]interface{}) socketmode.Request {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"event": event})
	assert.NoError(t, err)
	return socketmode.Request{
		Type:       constants.RequestTypeEventsAPI,
		EnvelopeID: "env-1",
		Payload:    raw,
	}
}

func channelEvent(user, text string) map[string]interface{} {
	return map[string]interface{}{
		"type":         "message",
		"user":         user,
		"text":         text,
		"channel":      "C1",
		"channel_type": "channel",
		"ts":           "1700000000.000100",
	}
}

func testDispatcher(registry *models.Registry, api plugin.API, acker Acker) *Dispatcher {
	return New(registry, api, acker, Config{BotID: "U123", BotName: "alice", Aliases: "bot"})
}

// TestDispatcher_AckBeforeMessageHandlers tests that the gateway sees the
// acknowledgement before any message handler runs
func TestDispatcher_AckBeforeMessageHandlers(t *testing.T) {
	rec := &callRecorder{}
	acker := &fakeAcker{rec: rec}
	registry := models.NewRegistry()
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "h", Regex: regexp.MustCompile(`beer`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			rec.add("handler")
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U42", "get me a beer")))

	assert.Equal(t, []string{"ack", "handler"}, rec.list())
}

// TestDispatcher_ListenVsRespond tests that respond handlers only join the
// candidate set when the message addresses the bot
func TestDispatcher_ListenVsRespond(t *testing.T) {
	var listenHits, respondHits int
	var mu sync.Mutex
	registry := models.NewRegistry()
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "listen", Regex: regexp.MustCompile(`thing`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			mu.Lock()
			listenHits++
			mu.Unlock()
			return nil
		},
	})
	registry.AddRespondTo(&models.MessageHandler{
		Plugin: "p", Handler: "respond", Regex: regexp.MustCompile(`thing`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			mu.Lock()
			respondHits++
			mu.Unlock()
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), &fakeAcker{})

	// not addressed: only the listen handler fires
	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U42", "some thing happened")))
	assert.Equal(t, 1, listenHits)
	assert.Equal(t, 0, respondHits)

	// addressed: both fire, on the stripped text
	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U42", "<@U123>: do thing")))
	assert.Equal(t, 2, listenHits)
	assert.Equal(t, 1, respondHits)
}

// TestDispatcher_StrippedTextAndGroups tests that handlers get the
// mention-stripped text and their named capture groups
func TestDispatcher_StrippedTextAndGroups(t *testing.T) {
	var gotText, gotKey string
	registry := models.NewRegistry()
	registry.AddRespondTo(&models.MessageHandler{
		Plugin: "p", Handler: "h", Regex: regexp.MustCompile(`^remember (?P<key>\w+)`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			gotText = msg.Text()
			gotKey = msg.Groups["key"]
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), &fakeAcker{})

	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U42", "bot: remember manual")))

	assert.Equal(t, "remember manual", gotText)
	assert.Equal(t, "manual", gotKey)
}

// TestDispatcher_SkipsOwnAndSystemMessages tests that the bot's own
// messages and senderless system messages never reach handlers
func TestDispatcher_SkipsOwnAndSystemMessages(t *testing.T) {
	var hits int
	registry := models.NewRegistry()
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "h", Regex: regexp.MustCompile(`.`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			hits++
			return nil
		},
	})
	acker := &fakeAcker{}
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U123", "self talk")))
	d.Dispatch(context.Background(), messageRequest(t, channelEvent("", "channel joined")))

	assert.Equal(t, 0, hits)
	// the envelope is still acknowledged
	assert.Equal(t, 2, acker.count())
}

// TestDispatcher_EditOptIn tests that edited messages only reach handlers
// that opted in, and arrive with the edited text
func TestDispatcher_EditOptIn(t *testing.T) {
	var plainHits int
	var editText string
	registry := models.NewRegistry()
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "plain", Regex: regexp.MustCompile(`beer`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			plainHits++
			return nil
		},
	})
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "edits", Regex: regexp.MustCompile(`beer`), HandleEdits: true,
		Func: func(ctx context.Context, msg *plugin.Message) error {
			editText = msg.Text()
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), &fakeAcker{})

	d.Dispatch(context.Background(), messageRequest(t, map[string]interface{}{
		"type":         "message",
		"subtype":      "message_changed",
		"channel":      "C1",
		"channel_type": "channel",
		"ts":           "1700000001.000000",
		"message": map[string]interface{}{
			"type": "message",
			"user": "U42",
			"text": "now about that beer",
			"ts":   "1700000000.000100",
		},
	}))

	assert.Equal(t, 0, plainHits)
	assert.Equal(t, "now about that beer", editText)
}

// TestDispatcher_HandlerPanicIsContained tests that a panicking handler
// neither crashes dispatch nor stops its siblings
func TestDispatcher_HandlerPanicIsContained(t *testing.T) {
	var siblingHits int
	var mu sync.Mutex
	registry := models.NewRegistry()
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "bad", Regex: regexp.MustCompile(`beer`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			panic("boom")
		},
	})
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "good", Regex: regexp.MustCompile(`beer`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			mu.Lock()
			siblingHits++
			mu.Unlock()
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), &fakeAcker{})

	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U42", "a beer please")))

	assert.Equal(t, 1, siblingHits)
}

// TestDispatcher_ForceUserLookup tests that unknown senders are resolved
// through the Web API before dispatch when configured
func TestDispatcher_ForceUserLookup(t *testing.T) {
	api := newFakeAPI()
	registry := models.NewRegistry()
	registry.AddListenTo(&models.MessageHandler{
		Plugin: "p", Handler: "h", Regex: regexp.MustCompile(`beer`),
		Func: func(ctx context.Context, msg *plugin.Message) error {
			return nil
		},
	})
	d := New(registry, api, &fakeAcker{}, Config{
		BotID: "U123", BotName: "alice", ForceUserLookup: true,
	})

	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U42", "a beer please")))
	assert.Equal(t, []string{"U42"}, api.lookups)

	// already known now, no second lookup
	d.Dispatch(context.Background(), messageRequest(t, channelEvent("U42", "another beer")))
	assert.Equal(t, []string{"U42"}, api.lookups)
}

func commandRequest(t *testing.T, command, text string) socketmode.Request {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"command":      command,
		"text":         text,
		"user_id":      "U42",
		"user_name":    "arthur",
		"channel_id":   "C1",
		"trigger_id":   "123.456.abc",
		"response_url": "https://hooks.slack.example/T1/abc",
	})
	assert.NoError(t, err)
	return socketmode.Request{
		Type:       constants.RequestTypeSlashCommand,
		EnvelopeID: "env-cmd",
		Payload:    raw,
	}
}

// TestDispatcher_SlashCommand tests that plain commands are acknowledged
// before the handler runs
func TestDispatcher_SlashCommand(t *testing.T) {
	rec := &callRecorder{}
	acker := &fakeAcker{rec: rec}
	registry := models.NewRegistry()
	registry.AddCommand(&models.CommandHandler{
		Plugin: "p", Handler: "h", Command: "/do",
		Func: func(ctx context.Context, cmd *plugin.Command) error {
			rec.add("handler")
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), commandRequest(t, "/do", "it"))

	assert.Equal(t, []string{"ack", "handler"}, rec.list())
	assert.Empty(t, acker.acks[0].payloads)
}

// TestDispatcher_UnknownSlashCommand tests that unregistered commands are
// never acknowledged
func TestDispatcher_UnknownSlashCommand(t *testing.T) {
	acker := &fakeAcker{}
	d := testDispatcher(models.NewRegistry(), newFakeAPI(), acker)

	d.Dispatch(context.Background(), commandRequest(t, "/nope", ""))

	assert.Equal(t, 0, acker.count())
}

// TestDispatcher_IncrementalCommand tests that the handler's first published
// payload becomes the acknowledgement and is sent before the handler resumes
func TestDispatcher_IncrementalCommand(t *testing.T) {
	rec := &callRecorder{}
	acker := &fakeAcker{rec: rec}
	registry := models.NewRegistry()
	registry.AddCommand(&models.CommandHandler{
		Plugin: "p", Handler: "h", Command: "/echo", Incremental: true,
		IncrementalFunc: func(ctx context.Context, cmd *plugin.Command, ack plugin.AckSink) error {
			ack(map[string]interface{}{"text": "first"})
			rec.add("resumed")
			// later payloads are discarded
			ack(map[string]interface{}{"text": "second"})
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), commandRequest(t, "/echo", "hello"))

	assert.Equal(t, []string{"ack", "resumed"}, rec.list())
	assert.Equal(t, 1, acker.count())
	assert.Len(t, acker.acks[0].payloads, 1)
	payload, ok := acker.acks[0].payloads[0].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "first", payload["text"])
}

// TestDispatcher_IncrementalCommandNoPayload tests that finishing without
// publishing still produces exactly one bare acknowledgement
func TestDispatcher_IncrementalCommandNoPayload(t *testing.T) {
	acker := &fakeAcker{}
	registry := models.NewRegistry()
	registry.AddCommand(&models.CommandHandler{
		Plugin: "p", Handler: "h", Command: "/quiet", Incremental: true,
		IncrementalFunc: func(ctx context.Context, cmd *plugin.Command, ack plugin.AckSink) error {
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), commandRequest(t, "/quiet", ""))

	assert.Equal(t, 1, acker.count())
	assert.Empty(t, acker.acks[0].payloads)
}

// TestDispatcher_IncrementalCommandPanic tests that a panicking incremental
// handler still gets the request acknowledged
func TestDispatcher_IncrementalCommandPanic(t *testing.T) {
	acker := &fakeAcker{}
	registry := models.NewRegistry()
	registry.AddCommand(&models.CommandHandler{
		Plugin: "p", Handler: "h", Command: "/boom", Incremental: true,
		IncrementalFunc: func(ctx context.Context, cmd *plugin.Command, ack plugin.AckSink) error {
			panic("boom")
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), commandRequest(t, "/boom", ""))

	assert.Equal(t, 1, acker.count())
}

func interactiveRequest(t *testing.T, payload map[string]interface{}) socketmode.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	return socketmode.Request{
		Type:       constants.RequestTypeInteractive,
		EnvelopeID: "env-ic",
		Payload:    raw,
	}
}

// TestDispatcher_BlockActions tests routing on the first action id, with
// the acknowledgement sent before the handler
func TestDispatcher_BlockActions(t *testing.T) {
	rec := &callRecorder{}
	acker := &fakeAcker{rec: rec}
	registry := models.NewRegistry()
	registry.AddInteractive(&models.InteractiveHandler{
		Plugin: "p", Handler: "h", ActionID: "open_form",
		Func: func(ctx context.Context, ic *plugin.Interactive) error {
			rec.add("handler")
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), interactiveRequest(t, map[string]interface{}{
		"type":       "block_actions",
		"user":       map[string]interface{}{"id": "U42"},
		"trigger_id": "123.456.abc",
		"actions": []map[string]interface{}{
			{"action_id": "open_form", "block_id": "b1", "type": "button"},
		},
	}))

	assert.Equal(t, []string{"ack", "handler"}, rec.list())
}

// TestDispatcher_BlockActionsWithoutActionID tests that malformed payloads
// are acknowledged and then dropped
func TestDispatcher_BlockActionsWithoutActionID(t *testing.T) {
	var hits int
	acker := &fakeAcker{}
	registry := models.NewRegistry()
	registry.AddInteractive(&models.InteractiveHandler{
		Plugin: "p", Handler: "h", ActionID: "open_form",
		Func: func(ctx context.Context, ic *plugin.Interactive) error {
			hits++
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), interactiveRequest(t, map[string]interface{}{
		"type": "block_actions",
		"user": map[string]interface{}{"id": "U42"},
	}))

	assert.Equal(t, 1, acker.count())
	assert.Equal(t, 0, hits)
}

// TestDispatcher_ViewSubmission tests routing on the view callback id
func TestDispatcher_ViewSubmission(t *testing.T) {
	var gotCallback string
	acker := &fakeAcker{}
	registry := models.NewRegistry()
	registry.AddView(&models.ViewHandler{
		Plugin: "p", Handler: "h", CallbackID: "submit_form",
		Func: func(ctx context.Context, view *plugin.View) error {
			gotCallback = view.CallbackID()
			return nil
		},
	})
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), interactiveRequest(t, map[string]interface{}{
		"type": "view_submission",
		"user": map[string]interface{}{"id": "U42"},
		"view": map[string]interface{}{"id": "V1", "callback_id": "submit_form"},
	}))

	assert.Equal(t, 1, acker.count())
	assert.Equal(t, "submit_form", gotCallback)
}

// TestDispatcher_ProcessFanout tests that every handler registered for an
// event type runs and that dispatch waits for the slowest one
func TestDispatcher_ProcessFanout(t *testing.T) {
	var mu sync.Mutex
	hits := make(map[string]int)
	mark := func(name string) {
		mu.Lock()
		hits[name]++
		mu.Unlock()
	}

	registry := models.NewRegistry()
	registry.AddProcess(&models.ProcessHandler{
		Plugin: "p", Name: "fast", EventType: "reaction_added",
		Func: func(ctx context.Context, event json.RawMessage) error {
			mark("fast")
			return nil
		},
	})
	registry.AddProcess(&models.ProcessHandler{
		Plugin: "p", Name: "slow", EventType: "reaction_added",
		Func: func(ctx context.Context, event json.RawMessage) error {
			time.Sleep(50 * time.Millisecond)
			mark("slow")
			return nil
		},
	})
	registry.AddProcess(&models.ProcessHandler{
		Plugin: "p", Name: "failing", EventType: "reaction_added",
		Func: func(ctx context.Context, event json.RawMessage) error {
			mark("failing")
			return fmt.Errorf("storage offline")
		},
	})
	acker := &fakeAcker{}
	d := testDispatcher(registry, newFakeAPI(), acker)

	d.Dispatch(context.Background(), messageRequest(t, map[string]interface{}{
		"type":     "reaction_added",
		"user":     "U42",
		"reaction": "thumbsup",
	}))

	assert.Equal(t, 1, acker.count())
	assert.Equal(t, map[string]int{"fast": 1, "slow": 1, "failing": 1}, hits)
}

// TestDispatcher_UnknownRequestType tests that unrecognized request types
// are ignored without acknowledgement
func TestDispatcher_UnknownRequestType(t *testing.T) {
	acker := &fakeAcker{}
	d := testDispatcher(models.NewRegistry(), newFakeAPI(), acker)

	d.Dispatch(context.Background(), socketmode.Request{Type: "hello", EnvelopeID: "env-x"})

	assert.Equal(t, 0, acker.count())
}
