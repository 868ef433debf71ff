package builtin

import (
	"context"

	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/plugin"
)

// Echo repeats the text of an /echo invocation back to the invoking user.
// It is an incremental handler: the echoed text travels inside the
// gateway acknowledgement, no follow-up API call is needed.
type Echo struct{}

// Name returns the plugin name used as logging scope.
func (e *Echo) Name() string { return "Echo" }

// Register inserts the plugin's handlers.
func (e *Echo) Register(r *models.Registry) {
	r.AddCommand(&models.CommandHandler{
		Plugin:          e.Name(),
		Handler:         "echo",
		Command:         "/echo",
		Incremental:     true,
		IncrementalFunc: e.echo,
	})
}

func (e *Echo) echo(ctx context.Context, cmd *plugin.Command, ack plugin.AckSink) error {
	text := cmd.Text()
	if text == "" {
		text = "nothing to echo"
	}
	ack(map[string]interface{}{
		"response_type": "ephemeral",
		"text":          text,
	})
	return nil
}
