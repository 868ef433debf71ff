// Package builtin bundles the plugins that ship with slackmech. They are
// ordinary plugins, registered through the same registry interface
// external plugins use.
package builtin

import (
	"context"
	"regexp"

	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/plugin"
)

// PingPong answers health checks addressed to the bot.
type PingPong struct{}

// Name returns the plugin name used as logging scope.
func (p *PingPong) Name() string { return "PingPong" }

// Register inserts the plugin's handlers.
func (p *PingPong) Register(r *models.Registry) {
	r.AddRespondTo(&models.MessageHandler{
		Plugin:      p.Name(),
		Handler:     "pong",
		Regex:       regexp.MustCompile(`(?i)^ping$`),
		WantsLogger: true,
		Func:        p.pong,
	})
}

func (p *PingPong) pong(ctx context.Context, msg *plugin.Message) error {
	_, err := msg.Say(ctx, "pong")
	return err
}
