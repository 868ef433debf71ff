// Package dispatch implements the event routing core: classify a
// socket-mode request, acknowledge the gateway, select matching handlers
// from the registry and run them.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack/socketmode"

	"github.com/keepmind9/slackmech/internal/events"
	"github.com/keepmind9/slackmech/internal/logger"
	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/plugin"
	"github.com/keepmind9/slackmech/pkg/constants"
)

// Acker sends socket-mode acknowledgements. Implemented by
// *socketmode.Client.
type Acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Config is the configuration surface consumed by the dispatcher.
type Config struct {
	BotID   string // bot's own user id
	BotName string // bot's display name
	Aliases string // comma-separated alias list, may be empty

	LogHandledMessages bool // log every handled message at info level
	ForceUserLookup    bool // resolve unknown senders before dispatch
}

// Dispatcher routes inbound socket-mode requests to registered handlers.
// The registry must be fully populated before the first Dispatch call.
type Dispatcher struct {
	registry *models.Registry
	matcher  *Matcher
	api      plugin.API
	acker    Acker
	cfg      Config
}

// New creates a dispatcher over a populated registry.
func New(registry *models.Registry, api plugin.API, acker Acker, cfg Config) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		matcher:  NewMatcher(cfg.BotID, cfg.BotName, cfg.Aliases),
		api:      api,
		acker:    acker,
		cfg:      cfg,
	}
}

// Dispatch routes one socket-mode request. It returns after every handler
// scheduled for the request has finished; concurrently arriving requests
// are dispatched independently by the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, req socketmode.Request) {
	log := logger.WithFields(logrus.Fields{
		"event_id":     uuid.NewString(),
		"request_type": req.Type,
	})

	switch req.Type {
	case constants.RequestTypeEventsAPI:
		d.handleEventsAPI(ctx, req, log)
	case constants.RequestTypeSlashCommand:
		d.handleSlashCommand(ctx, req, log)
	case constants.RequestTypeInteractive:
		d.handleInteractive(ctx, req, log)
	default:
		log.Debug("ignoring-unknown-request-type")
	}
}

// handleEventsAPI acknowledges the envelope unconditionally, then routes
// message events through the mention pipeline and any other registered
// event type to its process handlers.
func (d *Dispatcher) handleEventsAPI(ctx context.Context, req socketmode.Request, log *logrus.Entry) {
	d.acker.Ack(req)

	raw, eventType, err := events.ParseEnvelope(req.Payload)
	if err != nil {
		log.WithField("error", err).Warn("malformed-events-api-envelope-dropped")
		return
	}
	log = log.WithField("event_type", eventType)

	if eventType == constants.EventTypeMessage {
		d.handleMessage(ctx, raw, log)
		return
	}
	if d.registry.HasProcess(eventType) {
		d.handleProcessEvent(ctx, eventType, raw, log)
	}
}

// handleMessage runs the mention matcher and fans the message out to every
// matching handler. All matched handlers are started together; the call
// returns once they have all finished. One failing handler never stops its
// siblings.
func (d *Dispatcher) handleMessage(ctx context.Context, raw json.RawMessage, log *logrus.Entry) {
	msg, err := events.ParseMessage(raw)
	if err != nil {
		log.WithField("error", err).Warn("malformed-message-event-dropped")
		return
	}
	msg = msg.Promote()

	// Skip system messages and the bot's own messages
	if msg.User == "" || msg.User == d.cfg.BotID {
		return
	}

	text, addressed := d.matcher.Match(msg)
	msg.Text = text

	candidates := d.registry.ListenTo()
	if addressed {
		candidates = append(candidates, d.registry.RespondTo()...)
	}

	var wg sync.WaitGroup
	for _, h := range candidates {
		if msg.IsEdit() && !h.HandleEdits {
			continue
		}
		match := h.Regex.FindStringSubmatch(msg.Text)
		if match == nil {
			continue
		}

		if d.cfg.ForceUserLookup {
			if _, known := d.api.UserByID(msg.User); !known {
				if _, err := d.api.GetUser(ctx, msg.User); err != nil {
					log.WithFields(logrus.Fields{
						"user":  msg.User,
						"error": err,
					}).Warn("sender-lookup-failed")
				}
			}
		}

		mctx := plugin.NewMessage(d.api, msg, namedGroups(h.Regex, match))
		scoped := d.scopedLogger(h.Plugin, h.Handler, msg.User)
		if d.cfg.LogHandledMessages {
			scoped.WithField("text", msg.Text).Info("handling-message")
		}
		if h.WantsLogger {
			mctx.Logger = scoped
		}

		wg.Add(1)
		go func(h *models.MessageHandler, mctx *plugin.Message, scoped *logrus.Entry) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					scoped.WithField("panic", r).Error("message-handler-panic-recovered")
				}
			}()
			if err := h.Func(ctx, mctx); err != nil {
				scoped.WithField("error", err).Error("message-handler-failed")
			}
		}(h, mctx, scoped)
	}
	wg.Wait()
}

// handleSlashCommand looks up the exact command string. Unknown commands
// are never acknowledged; the gateway times the request out. Incremental
// handlers produce the acknowledgement payload themselves, everything else
// gets a bare acknowledgement before the handler runs.
func (d *Dispatcher) handleSlashCommand(ctx context.Context, req socketmode.Request, log *logrus.Entry) {
	cmd, err := events.ParseSlashCommand(req.Payload)
	if err != nil {
		log.WithField("error", err).Warn("malformed-slash-command-payload-dropped")
		return
	}

	h, ok := d.registry.Command(cmd.Command)
	if !ok {
		log.WithField("command", cmd.Command).Debug("unknown-slash-command-ignored")
		return
	}

	cctx := plugin.NewCommand(d.api, cmd)
	scoped := logger.Scoped(h.Plugin, h.Handler, cmd.UserID, cmd.UserName)
	if h.WantsLogger {
		cctx.Logger = scoped
	}

	if !h.Incremental {
		d.acker.Ack(req)
		if err := h.Func(ctx, cctx); err != nil {
			scoped.WithField("error", err).Error("command-handler-failed")
		}
		return
	}

	// The handler's first published payload becomes the acknowledgement.
	// The handler stays suspended until the acknowledgement is sent, then
	// resumes to completion. Finishing without publishing is fine and gets
	// a bare acknowledgement.
	relay := newAckRelay()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("command handler panicked: %v", r)
			}
		}()
		done <- h.IncrementalFunc(ctx, cctx, relay.sink)
	}()

	select {
	case payload := <-relay.payload:
		d.acker.Ack(req, payload)
		relay.confirm()
		if err := <-done; err != nil {
			scoped.WithField("error", err).Error("command-handler-failed")
		}
	case err := <-done:
		d.acker.Ack(req)
		if err != nil {
			scoped.WithField("error", err).Error("command-handler-failed")
		}
	}
}

// handleInteractive routes block actions and view submissions. Both are
// acknowledged before anything else happens; malformed payloads are logged
// and dropped after the acknowledgement.
func (d *Dispatcher) handleInteractive(ctx context.Context, req socketmode.Request, log *logrus.Entry) {
	ic, err := events.ParseInteraction(req.Payload)
	if err != nil {
		log.WithField("error", err).Warn("malformed-interactive-payload-dropped")
		return
	}
	log = log.WithField("interaction_type", ic.Type)

	switch ic.Type {
	case constants.InteractionBlockActions:
		d.acker.Ack(req)

		// Only the first entry of the actions array is dispatched on
		actionID, ok := ic.FirstActionID()
		if !ok {
			log.Warn("block-actions-payload-has-no-action-id")
			return
		}
		h, ok := d.registry.Interactive(actionID)
		if !ok {
			log.WithField("action_id", actionID).Debug("no-handler-for-action-id")
			return
		}

		ictx := plugin.NewInteractive(d.api, ic)
		scoped := d.scopedLogger(h.Plugin, h.Handler, ic.User.ID)
		if h.WantsLogger {
			ictx.Logger = scoped
		}
		if err := h.Func(ctx, ictx); err != nil {
			scoped.WithField("error", err).Error("interactive-handler-failed")
		}

	case constants.InteractionViewSubmission:
		d.acker.Ack(req)

		callbackID, ok := ic.CallbackID()
		if !ok {
			log.Warn("view-submission-payload-has-no-callback-id")
			return
		}
		h, ok := d.registry.View(callbackID)
		if !ok {
			log.WithField("callback_id", callbackID).Debug("no-handler-for-callback-id")
			return
		}

		vctx := plugin.NewView(d.api, ic)
		scoped := d.scopedLogger(h.Plugin, h.Handler, ic.User.ID)
		if h.WantsLogger {
			vctx.Logger = scoped
		}
		if err := h.Func(ctx, vctx); err != nil {
			scoped.WithField("error", err).Error("view-handler-failed")
		}

	default:
		log.Debug("ignoring-unhandled-interaction-type")
	}
}

// handleProcessEvent fans a raw event out to every handler registered for
// its type and waits for all of them.
func (d *Dispatcher) handleProcessEvent(ctx context.Context, eventType string, raw json.RawMessage, log *logrus.Entry) {
	handlers := d.registry.Process(eventType)

	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h *models.ProcessHandler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(logrus.Fields{
						"plugin":  h.Plugin,
						"handler": h.Name,
						"panic":   r,
					}).Error("process-handler-panic-recovered")
				}
			}()
			if err := h.Func(ctx, raw); err != nil {
				log.WithFields(logrus.Fields{
					"plugin":  h.Plugin,
					"handler": h.Name,
					"error":   err,
				}).Error("process-handler-failed")
			}
		}(h)
	}
	wg.Wait()
}

// scopedLogger builds the handler-scoped logger, resolving the user name
// from the local directory when known.
func (d *Dispatcher) scopedLogger(pluginName, handlerName, userID string) *logrus.Entry {
	userName := ""
	if u, ok := d.api.UserByID(userID); ok {
		userName = u.Name
	}
	return logger.Scoped(pluginName, handlerName, userID, userName)
}
