package playback

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

// Command is an instruction for the browser-hosted widget, delivered with the
// next response to that browser.
type Command string

const CommandPause Command = "pause"

var ErrPlayerDestroyed = errors.New("player destroyed")

// RemotePlayer stands in for a widget that lives in the viewer's browser. The
// page reports positions to it and collects queued commands from it.
type RemotePlayer struct {
	mu        sync.Mutex
	config    PlayerConfig
	position  float64
	commands  []Command
	destroyed bool
}

func NewRemotePlayer(cfg PlayerConfig) *RemotePlayer {
	return &RemotePlayer{config: cfg, position: math.NaN()}
}

func (p *RemotePlayer) Config() PlayerConfig {
	return p.config
}

// ReportPosition records the position the page last observed. Reports after
// the player is destroyed are dropped.
func (p *RemotePlayer) ReportPosition(position float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.position = position
}

func (p *RemotePlayer) CurrentTime() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return math.NaN(), ErrPlayerDestroyed
	}
	return p.position, nil
}

func (p *RemotePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return ErrPlayerDestroyed
	}
	p.commands = append(p.commands, CommandPause)
	return nil
}

// Destroy marks the player unusable. Commands queued before that are still
// handed out by TakeCommands.
func (p *RemotePlayer) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}

// TakeCommands returns and clears the queued commands.
func (p *RemotePlayer) TakeCommands() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmds := p.commands
	p.commands = nil
	return cmds
}
