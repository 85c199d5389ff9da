package playback

import (
	"context"
	"sync"
	"time"

	"github.com/dacweb/dac/pkg/metrics"
	"github.com/dacweb/dac/pkg/models"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateBuffering State = "buffering"
	StateEnded     State = "ended"
	StateErrored   State = "errored"
)

// WidgetState is a state change reported by the video widget.
type WidgetState string

const (
	WidgetUnstarted WidgetState = "unstarted"
	WidgetEnded     WidgetState = "ended"
	WidgetPlaying   WidgetState = "playing"
	WidgetPaused    WidgetState = "paused"
	WidgetBuffering WidgetState = "buffering"
	WidgetCued      WidgetState = "cued"
)

// WidgetStateFromCode converts the widget's numeric player states.
func WidgetStateFromCode(code int) (WidgetState, bool) {
	switch code {
	case -1:
		return WidgetUnstarted, true
	case 0:
		return WidgetEnded, true
	case 1:
		return WidgetPlaying, true
	case 2:
		return WidgetPaused, true
	case 3:
		return WidgetBuffering, true
	case 5:
		return WidgetCued, true
	}
	return "", false
}

type Options struct {
	SampleInterval time.Duration
	AdvanceDelay   time.Duration
}

// Snapshot is the externally visible state of a controller.
type Snapshot struct {
	State        State         `json:"state"`
	ModuleID     string        `json:"module_id,omitempty"`
	ChapterID    string        `json:"chapter_id,omitempty"`
	ChapterTitle string        `json:"chapter_title,omitempty"`
	ChapterIndex int           `json:"chapter_index"`
	Player       *PlayerConfig `json:"player,omitempty"`
	ErrorKind    ErrorKind     `json:"error_kind,omitempty"`
	Message      string        `json:"message,omitempty"`
	Progress     int           `json:"progress"`
	Sampling     bool          `json:"sampling"`
	HasPrevious  bool          `json:"has_previous"`
	HasNext      bool          `json:"has_next"`
}

// Controller drives one video widget through a module's chapters. It runs at
// most one sampler and one pending auto-advance at a time.
type Controller struct {
	mu      sync.Mutex
	ctx     context.Context
	tracker *progress.Tracker
	factory PlayerFactory
	opts    Options

	state        State
	module       *models.Module
	index        int
	player       Player
	playerConfig *PlayerConfig
	errorKind    ErrorKind
	message      string

	sampler *sampler
	advance *time.Timer
	// generation changes on every open/close so a timer that fires late can
	// tell it no longer applies.
	generation uint64
}

func NewController(ctx context.Context, tracker *progress.Tracker, factory PlayerFactory, opts Options) *Controller {
	return &Controller{
		ctx:     ctx,
		tracker: tracker,
		factory: factory,
		opts:    opts,
		state:   StateIdle,
		index:   -1,
	}
}

// Open starts playback of a chapter of the module. A chapter whose video id
// has the wrong format leaves the controller errored without ever creating a
// player.
func (c *Controller) Open(module *models.Module, chapterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := module.ChapterIndex(chapterID)
	if index < 0 {
		return errors.WithStack(ErrChapterNotFound)
	}

	c.teardownLocked(false)
	return c.openLocked(module, index)
}

func (c *Controller) openLocked(module *models.Module, index int) error {
	chapter := module.Chapters[index]

	c.module = module
	c.index = index
	c.state = StateLoading
	c.errorKind = ""
	c.message = ""
	c.playerConfig = nil

	if !ValidVideoID(chapter.VideoID) {
		c.state = StateErrored
		c.errorKind = ErrorKindInvalidFormat
		c.message = "Invalid video ID format. Please check the video configuration."
		return errors.WithStack(ErrInvalidVideoID)
	}

	cfg := NewPlayerConfig(chapter.ID, chapter.VideoID, c.tracker.Get(chapter.ID).LastPosition)
	player, err := c.factory(cfg)
	if err != nil {
		c.state = StateErrored
		c.errorKind = ErrorKindPlayerCreate
		c.message = "Failed to create video player. Error: " + err.Error()
		return errors.Wrap(err, "failed to create player")
	}

	c.player = player
	c.playerConfig = &cfg
	return nil
}

// WidgetEvent is a signal from the widget showing a particular chapter.
type WidgetEvent struct {
	ChapterID string
	Type      string // ready, state or error
	State     WidgetState
	Code      int
}

// HandleEvent applies a widget signal if it belongs to the chapter currently
// open. Signals from a widget that has since been replaced are dropped and
// HandleEvent reports false.
func (c *Controller) HandleEvent(ev WidgetEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.module == nil || c.module.Chapters[c.index].ID != ev.ChapterID {
		return false
	}
	switch ev.Type {
	case "ready":
		c.onReadyLocked()
	case "state":
		c.onStateChangeLocked(ev.State)
	case "error":
		c.onErrorLocked(ev.Code)
	}
	return true
}

// OnReady handles the widget's ready signal.
func (c *Controller) OnReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReadyLocked()
}

func (c *Controller) onReadyLocked() {
	if c.player == nil || c.state != StateLoading {
		return
	}
	c.state = StatePlaying
	c.startSamplerLocked()
}

// OnStateChange handles a widget state change.
func (c *Controller) OnStateChange(ws WidgetState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChangeLocked(ws)
}

func (c *Controller) onStateChangeLocked(ws WidgetState) {
	if c.player == nil {
		return
	}

	switch ws {
	case WidgetPlaying:
		c.errorKind = ""
		c.message = ""
		c.state = StatePlaying
		c.startSamplerLocked()
	case WidgetBuffering:
		c.state = StateBuffering
		c.startSamplerLocked()
	case WidgetEnded:
		c.stopSamplerLocked()
		c.state = StateEnded
		c.scheduleAdvanceLocked()
	case WidgetPaused, WidgetCued, WidgetUnstarted:
		c.stopSamplerLocked()
		if c.state == StateLoading && ws != WidgetPaused {
			return
		}
		c.state = StatePaused
	}
}

// OnError handles the widget's error signal. Progress already recorded stays
// in the tracker.
func (c *Controller) OnError(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onErrorLocked(code)
}

func (c *Controller) onErrorLocked(code int) {
	if c.player == nil {
		return
	}
	c.stopSamplerLocked()
	c.cancelAdvanceLocked()
	c.state = StateErrored
	c.errorKind, c.message = ClassifyWidgetError(code)
	metrics.IncPlaybackError(string(c.errorKind))

	logger.FromContext(c.ctx).Warn("video widget error", logger.Data{
		"code":       code,
		"chapter_id": c.module.Chapters[c.index].ID,
	})
}

func (c *Controller) Next() error {
	return c.step(1)
}

func (c *Controller) Previous() error {
	return c.step(-1)
}

func (c *Controller) step(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasChapterLocked(c.index + delta) {
		return errors.WithStack(ErrNoChapter)
	}
	module, index := c.module, c.index+delta
	c.teardownLocked(false)
	return c.openLocked(module, index)
}

func (c *Controller) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.module != nil && c.hasChapterLocked(c.index+1)
}

func (c *Controller) HasPrevious() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.module != nil && c.hasChapterLocked(c.index-1)
}

func (c *Controller) hasChapterLocked(index int) bool {
	return c.module != nil && index >= 0 && index < len(c.module.Chapters)
}

// Close stops sampling, asks the widget to pause, and discards it. The next
// Open creates a fresh player.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked(true)
	c.module = nil
	c.index = -1
	c.state = StateIdle
	c.errorKind = ""
	c.message = ""
	c.playerConfig = nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:        c.state,
		ChapterIndex: c.index,
		ErrorKind:    c.errorKind,
		Message:      c.message,
		Sampling:     c.sampler != nil,
		HasPrevious:  c.hasChapterLocked(c.index - 1),
		HasNext:      c.hasChapterLocked(c.index + 1),
	}
	if c.playerConfig != nil {
		cfg := *c.playerConfig
		s.Player = &cfg
	}
	if c.module != nil {
		chapter := c.module.Chapters[c.index]
		s.ModuleID = c.module.ID
		s.ChapterID = chapter.ID
		s.ChapterTitle = chapter.Title
		s.Progress = c.tracker.Percent(chapter.ID, chapter.Duration)
	}
	return s
}

func (c *Controller) startSamplerLocked() {
	if c.sampler != nil {
		return
	}
	c.sampler = startSampler(c.ctx, c.opts.SampleInterval, c.player, c.tracker, c.module.Chapters[c.index])
}

func (c *Controller) stopSamplerLocked() {
	if c.sampler == nil {
		return
	}
	c.sampler.halt()
	c.sampler = nil
}

func (c *Controller) scheduleAdvanceLocked() {
	c.cancelAdvanceLocked()
	if !c.hasChapterLocked(c.index + 1) {
		return
	}

	gen := c.generation
	c.advance = time.AfterFunc(c.opts.AdvanceDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.generation || c.state != StateEnded {
			return
		}
		c.advance = nil
		module, index := c.module, c.index+1
		c.teardownLocked(false)
		if err := c.openLocked(module, index); err != nil {
			logger.FromContext(c.ctx).Err(err).Warn("auto-advance failed")
		}
	})
}

func (c *Controller) cancelAdvanceLocked() {
	c.generation++
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
}

// teardownLocked releases the current player. pause asks the widget to pause
// first; failures there are ignored.
func (c *Controller) teardownLocked(pause bool) {
	c.stopSamplerLocked()
	c.cancelAdvanceLocked()
	if c.player == nil {
		return
	}
	if pause {
		if err := c.player.Pause(); err != nil {
			logger.FromContext(c.ctx).Debug("ignoring pause error on close", logger.Data{"error": err.Error()})
		}
	}
	c.player.Destroy()
	c.player = nil
}
