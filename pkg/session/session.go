package session

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/clipboard"
	"github.com/matzehuels/cfgdot/pkg/config"
	"github.com/matzehuels/cfgdot/pkg/dot"
	"github.com/matzehuels/cfgdot/pkg/errors"
	"github.com/matzehuels/cfgdot/pkg/observability"
	"github.com/matzehuels/cfgdot/pkg/raster"
)

// State is a session state.
type State int

const (
	Idle State = iota
	Dirty
	Rendering
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	case Rendering:
		return "rendering"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Snapshot is the result of one refresh.
type Snapshot struct {
	Mode cfg.Kind
	Font string
	Size int

	// Text is the DOT text Image was rendered from.
	Text string
	// Image is the rendered PNG, empty when rendering failed.
	Image []byte
	// Err explains an empty Image.
	Err error

	Blocks     int
	RenderedAt time.Time
}

// Listener is called after every state change, outside the session lock.
type Listener func(snap Snapshot, ready bool, state State)

// Option configures a Session.
type Option func(*Session)

// WithScheduler replaces the wall-clock debounce timer source.
func WithScheduler(s Scheduler) Option {
	return func(sess *Session) { sess.sched = s }
}

// WithLogger sets the logger used for degraded renders.
func WithLogger(l *log.Logger) Option {
	return func(sess *Session) { sess.logger = l }
}

// WithDebounce overrides the debounce window from the config.
func WithDebounce(d time.Duration) Option {
	return func(sess *Session) { sess.debounce = d }
}

// WithMode sets the initial view kind (default asm).
func WithMode(k cfg.Kind) Option {
	return func(sess *Session) { sess.mode = k }
}

// Session is one interactive export. It is safe for concurrent use, but all
// user-visible ordering is "last debounce wins".
type Session struct {
	rast     raster.Rasterizer
	sched    Scheduler
	debounce time.Duration
	logger   *log.Logger

	mu        sync.Mutex
	fn        cfg.Function
	mode      cfg.Kind
	font      string
	size      int
	state     State
	gen       uint64 // bumped on every input change
	timer     Timer
	timerSeq  uint64 // identifies the live timer; stale callbacks are ignored
	rendering bool
	rerun     bool
	snap      Snapshot
	hasSnap   bool
	listeners []Listener
}

// New creates an idle session. Font defaults come from c. Call Start (or any
// setter) to schedule the first refresh.
func New(c config.Config, fn cfg.Function, r raster.Rasterizer, opts ...Option) *Session {
	s := &Session{
		rast:     r,
		sched:    realScheduler{},
		debounce: c.Debounce.Duration,
		logger:   log.Default(),
		fn:       fn,
		mode:     cfg.KindAsm,
		font:     c.DefaultFont,
		size:     config.ClampFontSize(c.DefaultFontSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers l for state changes and completed refreshes.
func (s *Session) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Start schedules the initial refresh.
func (s *Session) Start() {
	s.mu.Lock()
	s.markDirty()
	s.mu.Unlock()
	s.notify()
}

// SetMode selects the view kind.
func (s *Session) SetMode(k cfg.Kind) {
	s.update(func() bool {
		if s.mode == k {
			return false
		}
		s.mode = k
		return true
	})
}

// SetFont sets the node font name.
func (s *Session) SetFont(name string) {
	s.update(func() bool {
		if s.font == name {
			return false
		}
		s.font = name
		return true
	})
}

// SetFontSize sets the node font size, clamped to the accepted range.
func (s *Session) SetFontSize(size int) {
	size = config.ClampFontSize(size)
	s.update(func() bool {
		if s.size == size {
			return false
		}
		s.size = size
		return true
	})
}

// SetFunction swaps the function, e.g. after its export file was rewritten.
// It always marks the session dirty.
func (s *Session) SetFunction(fn cfg.Function) {
	s.update(func() bool {
		s.fn = fn
		return true
	})
}

// Mode returns the selected view kind.
func (s *Session) Mode() cfg.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Font returns the selected font name.
func (s *Session) Font() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.font
}

// FontSize returns the selected font size.
func (s *Session) FontSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the latest completed refresh, if any.
func (s *Session) Snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.hasSnap
}

func (s *Session) update(apply func() bool) {
	s.mu.Lock()
	if !apply() {
		s.mu.Unlock()
		return
	}
	s.markDirty()
	s.mu.Unlock()
	s.notify()
}

// markDirty moves to Dirty and restarts the debounce timer. Caller holds mu.
func (s *Session) markDirty() {
	s.gen++
	s.setState(Dirty)

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerSeq++
	seq := s.timerSeq
	s.timer = s.sched.AfterFunc(s.debounce, func() { s.fire(seq) })
}

// fire runs when a debounce timer elapses.
func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	if seq != s.timerSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.rendering {
		s.rerun = true
		s.mu.Unlock()
		return
	}
	s.rendering = true
	s.mu.Unlock()

	s.renderLoop(context.Background())
}

// Refresh cancels any pending debounce and refreshes immediately. If a
// render is already in flight the refresh is queued behind it and Refresh
// returns the current snapshot without waiting.
func (s *Session) Refresh(ctx context.Context) (Snapshot, bool) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++
	if s.rendering {
		s.rerun = true
		snap, ok := s.snap, s.hasSnap
		s.mu.Unlock()
		return snap, ok
	}
	s.rendering = true
	s.mu.Unlock()

	s.renderLoop(ctx)
	return s.Snapshot()
}

type request struct {
	fn   cfg.Function
	mode cfg.Kind
	font string
	size int
	gen  uint64
}

// renderLoop renders until no rerun is pending. Caller has set rendering.
func (s *Session) renderLoop(ctx context.Context) {
	for {
		s.mu.Lock()
		req := request{fn: s.fn, mode: s.mode, font: s.font, size: s.size, gen: s.gen}
		s.setState(Rendering)
		s.mu.Unlock()
		s.notify()

		snap := s.render(ctx, req)

		s.mu.Lock()
		s.snap, s.hasSnap = snap, true
		if s.rerun {
			s.rerun = false
			s.mu.Unlock()
			s.notify()
			continue
		}
		s.rendering = false
		if s.gen == req.gen && s.timer == nil {
			s.setState(Ready)
		} else {
			s.setState(Dirty)
		}
		s.mu.Unlock()
		s.notify()
		return
	}
}

// render formats and rasterizes one request. Failures degrade to an empty
// image; they are logged and recorded in the snapshot.
func (s *Session) render(ctx context.Context, req request) Snapshot {
	start := time.Now()
	snap := Snapshot{Mode: req.mode, Font: req.font, Size: req.size}

	if req.fn == nil {
		snap.Err = errors.New(errors.ErrCodeInvalidInput, "no function loaded")
		snap.RenderedAt = time.Now()
		return snap
	}

	view, err := req.fn.View(req.mode)
	if err != nil {
		s.logger.Warn("view unavailable, showing blank preview", "view", req.mode, "err", err)
		snap.Err = err
		snap.RenderedAt = time.Now()
		return snap
	}
	snap.Blocks = len(view.Blocks)
	snap.Text = dot.Format(view, req.font, req.size)

	img, err := s.rast.Rasterize(ctx, snap.Text)
	if err != nil {
		s.logger.Warn("render failed, showing blank preview", "err", err)
		snap.Err = err
	} else {
		snap.Image = img
	}

	snap.RenderedAt = time.Now()
	observability.Session().OnRefresh(ctx, string(req.mode), snap.Blocks, time.Since(start))
	return snap
}

// setState records a transition. Caller holds mu.
func (s *Session) setState(to State) {
	if s.state == to {
		return
	}
	observability.Session().OnStateChange(context.Background(), s.state.String(), to.String())
	s.state = to
}

func (s *Session) notify() {
	s.mu.Lock()
	snap, ok, state := s.snap, s.hasSnap, s.state
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap, ok, state)
	}
}

// CopyText copies the current DOT text.
func (s *Session) CopyText(c clipboard.Clipboard) error {
	snap, err := s.ready()
	if err != nil {
		return err
	}
	if snap.Text == "" {
		// Only a failed view fetch leaves no text; an empty view still formats.
		if snap.Err != nil {
			return snap.Err
		}
		return errors.New(errors.ErrCodeRenderFailed, "no DOT text rendered")
	}
	return c.WriteText(snap.Text)
}

// CopyImage copies the current rendered image.
func (s *Session) CopyImage(c clipboard.Clipboard) error {
	img, err := s.image()
	if err != nil {
		return err
	}
	return c.WriteImage(img)
}

// SaveImage writes the current rendered image to path.
func (s *Session) SaveImage(path string) error {
	img, err := s.image()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save image to %s", path)
	}
	return nil
}

func (s *Session) ready() (Snapshot, error) {
	snap, ok := s.Snapshot()
	if !ok {
		return Snapshot{}, errors.New(errors.ErrCodeNotReady, "graph has not been rendered yet")
	}
	return snap, nil
}

func (s *Session) image() ([]byte, error) {
	snap, err := s.ready()
	if err != nil {
		return nil, err
	}
	if len(snap.Image) == 0 {
		if snap.Err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, snap.Err, "no image rendered")
		}
		return nil, errors.New(errors.ErrCodeRenderFailed, "no image rendered")
	}
	return snap.Image, nil
}
