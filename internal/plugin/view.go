package plugin

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"github.com/keepmind9/slackmech/internal/events"
)

// View is a modal view submission passed to a view handler. A response URL
// is only present when the modal contained an input block asking for one;
// without it Respond is a silent no-op.
type View struct {
	api         API
	payload     *events.Interaction
	responseURL string

	// Logger is a scoped logger bound to the handler invocation. Only set
	// when the handler was registered with WantsLogger.
	Logger *logrus.Entry
}

// NewView builds a view context around a parsed view_submission payload.
func NewView(api API, payload *events.Interaction) *View {
	url, _ := payload.FirstResponseURL()
	return &View{api: api, payload: payload, responseURL: url}
}

// CallbackID returns the callback id of the submitted view.
func (v *View) CallbackID() string {
	if v.payload.View == nil {
		return ""
	}
	return v.payload.View.CallbackID
}

// View returns the submitted view payload.
func (v *View) View() *events.ViewPayload {
	return v.payload.View
}

// State returns the state of the submitted view.
func (v *View) State() json.RawMessage {
	if v.payload.View == nil {
		return nil
	}
	return v.payload.View.State
}

// PrivateMetadata returns the private metadata attached to the view.
func (v *View) PrivateMetadata() string {
	if v.payload.View == nil {
		return ""
	}
	return v.payload.View.PrivateMetadata
}

// SenderID returns the user id of the submitting user.
func (v *View) SenderID() string {
	return v.payload.User.ID
}

// Sender returns the submitting user from the local directory.
func (v *View) Sender() slack.User {
	u, _ := v.api.UserByID(v.payload.User.ID)
	return u
}

// TriggerID returns the trigger id associated with the submission. It can
// be used to push a follow-up view.
func (v *View) TriggerID() string {
	return v.payload.TriggerID
}

// HasResponseURL reports whether the submission carried a response URL.
func (v *View) HasResponseURL() bool {
	return v.responseURL != ""
}

// Respond posts a reply through the submission's response URL. Without a
// response URL this is a no-op.
func (v *View) Respond(ctx context.Context, msg *slack.WebhookMessage) error {
	if v.responseURL == "" {
		return nil
	}
	if msg.ResponseType == "" {
		msg.ResponseType = responseType(true)
	}
	return v.api.PostWebhook(ctx, v.responseURL, msg)
}

// OpenModal opens a follow-up modal view using the submission's trigger id.
func (v *View) OpenModal(ctx context.Context, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	return v.api.OpenView(ctx, v.payload.TriggerID, view)
}
