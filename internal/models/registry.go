package models

// Registry holds all registered handlers, one mapping per handler kind.
// Registration happens during startup and must complete before dispatch
// begins; during steady-state dispatch the registry is read-only, so no
// locking is needed.
//
// Trigger strings are unique within each mapping: registering a second
// handler under the same trigger replaces the first. Process handlers are
// the exception, they are keyed per event type by handler name.
type Registry struct {
	respondTo   map[string]*MessageHandler
	listenTo    map[string]*MessageHandler
	command     map[string]*CommandHandler
	interactive map[string]*InteractiveHandler
	view        map[string]*ViewHandler
	process     map[string]map[string]*ProcessHandler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		respondTo:   make(map[string]*MessageHandler),
		listenTo:    make(map[string]*MessageHandler),
		command:     make(map[string]*CommandHandler),
		interactive: make(map[string]*InteractiveHandler),
		view:        make(map[string]*ViewHandler),
		process:     make(map[string]map[string]*ProcessHandler),
	}
}

// AddRespondTo registers a handler that only sees messages addressed to
// the bot, keyed by its trigger pattern.
func (r *Registry) AddRespondTo(h *MessageHandler) {
	r.respondTo[h.Regex.String()] = h
}

// AddListenTo registers a handler that sees all messages, keyed by its
// trigger pattern.
func (r *Registry) AddListenTo(h *MessageHandler) {
	r.listenTo[h.Regex.String()] = h
}

// AddCommand registers a slash command handler, keyed by the exact command
// string.
func (r *Registry) AddCommand(h *CommandHandler) {
	r.command[h.Command] = h
}

// AddInteractive registers a block action handler, keyed by the exact
// action id.
func (r *Registry) AddInteractive(h *InteractiveHandler) {
	r.interactive[h.ActionID] = h
}

// AddView registers a view submission handler, keyed by the exact callback
// id.
func (r *Registry) AddView(h *ViewHandler) {
	r.view[h.CallbackID] = h
}

// AddProcess registers a raw event handler under its event type and name.
func (r *Registry) AddProcess(h *ProcessHandler) {
	byName, ok := r.process[h.EventType]
	if !ok {
		byName = make(map[string]*ProcessHandler)
		r.process[h.EventType] = byName
	}
	byName[h.Name] = h
}

// RespondTo returns all respond handlers in unspecified order.
func (r *Registry) RespondTo() []*MessageHandler {
	handlers := make([]*MessageHandler, 0, len(r.respondTo))
	for _, h := range r.respondTo {
		handlers = append(handlers, h)
	}
	return handlers
}

// ListenTo returns all listen handlers in unspecified order.
func (r *Registry) ListenTo() []*MessageHandler {
	handlers := make([]*MessageHandler, 0, len(r.listenTo))
	for _, h := range r.listenTo {
		handlers = append(handlers, h)
	}
	return handlers
}

// Command looks up the handler for an exact slash command string.
func (r *Registry) Command(command string) (*CommandHandler, bool) {
	h, ok := r.command[command]
	return h, ok
}

// Interactive looks up the handler for an exact action id.
func (r *Registry) Interactive(actionID string) (*InteractiveHandler, bool) {
	h, ok := r.interactive[actionID]
	return h, ok
}

// View looks up the handler for an exact view callback id.
func (r *Registry) View(callbackID string) (*ViewHandler, bool) {
	h, ok := r.view[callbackID]
	return h, ok
}

// Process returns all handlers registered for a raw event type, in
// unspecified order.
func (r *Registry) Process(eventType string) []*ProcessHandler {
	byName, ok := r.process[eventType]
	if !ok {
		return nil
	}
	handlers := make([]*ProcessHandler, 0, len(byName))
	for _, h := range byName {
		handlers = append(handlers, h)
	}
	return handlers
}

// HasProcess reports whether any handler is registered for a raw event
// type.
func (r *Registry) HasProcess(eventType string) bool {
	return len(r.process[eventType]) > 0
}

// Use lets a plugin insert its handlers.
func (r *Registry) Use(plugins ...Plugin) {
	for _, p := range plugins {
		p.Register(r)
	}
}
