package builtin

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/plugin"
)

const (
	feedbackOpenAction     = "feedback_open"
	feedbackSubmitCallback = "feedback_submit"
	feedbackInputBlock     = "feedback_text"
	feedbackInputAction    = "feedback_input"
)

// Feedback collects free-form feedback through a modal: a button click
// opens the modal, the submission is confirmed through the response URL.
// It exercises the interactive and view handler kinds end to end.
type Feedback struct{}

// Name returns the plugin name used as logging scope.
func (f *Feedback) Name() string { return "Feedback" }

// Register inserts the plugin's handlers.
func (f *Feedback) Register(r *models.Registry) {
	r.AddInteractive(&models.InteractiveHandler{
		Plugin:      f.Name(),
		Handler:     "open_modal",
		ActionID:    feedbackOpenAction,
		WantsLogger: true,
		Func:        f.openModal,
	})
	r.AddView(&models.ViewHandler{
		Plugin:      f.Name(),
		Handler:     "submitted",
		CallbackID:  feedbackSubmitCallback,
		WantsLogger: true,
		Func:        f.submitted,
	})
}

func (f *Feedback) openModal(ctx context.Context, ic *plugin.Interactive) error {
	view := slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: feedbackSubmitCallback,
		Title:      slack.NewTextBlockObject(slack.PlainTextType, "Feedback", false, false),
		Submit:     slack.NewTextBlockObject(slack.PlainTextType, "Send", false, false),
		Close:      slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewInputBlock(
					feedbackInputBlock,
					slack.NewTextBlockObject(slack.PlainTextType, "Your feedback", false, false),
					nil,
					slack.NewPlainTextInputBlockElement(nil, feedbackInputAction),
				),
			},
		},
	}
	_, err := ic.OpenModal(ctx, view)
	return err
}

func (f *Feedback) submitted(ctx context.Context, v *plugin.View) error {
	if v.Logger != nil {
		v.Logger.Info("feedback-received")
	}
	// Without a response URL on the submission this is a silent no-op
	return v.Respond(ctx, &slack.WebhookMessage{Text: "Thanks for the feedback!"})
}
