package migration

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DebugEntry is one line appended to the controller's debug log on every
// state transition, kept in the controller's 20-entry ring buffer and
// rendered by the TUI's debug view.
type DebugEntry struct {
	At      time.Time
	Message string
}

// Controller owns the migration's setup state and runtime status. It is a
// single-writer structure by convention (the TUI goroutine is the only
// writer); background pollers communicate transitions back through
// ApplyPolledStatus, which enforces the stale-response guards.
type Controller struct {
	mu sync.RWMutex

	setup       SetupState
	setupErr    string
	steps       []StepStatus
	status      Status
	mode        Mode
	interlayID  string
	readPercent int

	debugLog []DebugEntry
}

// debugLogCapacity bounds the debug ring buffer: oldest entries are
// dropped on overflow.
const debugLogCapacity = 20

// New returns a controller in NotStarted/NotSetup with no migration yet
// observed.
func New(mode Mode) *Controller {
	return &Controller{setup: NotStarted, status: StatusNotSetup, mode: mode}
}

func (c *Controller) logLocked(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.debugLog = append(c.debugLog, DebugEntry{At: time.Now(), Message: msg})
	if len(c.debugLog) > debugLogCapacity {
		c.debugLog = c.debugLog[len(c.debugLog)-debugLogCapacity:]
	}
}

// AdvanceSetup moves the setup state machine to its next linear step. A
// caller passes conflict=true when the step's HTTP response was a 409, in
// which case the transition still advances (the resource already exists)
// rather than failing.
func (c *Controller) AdvanceSetup(conflict bool) SetupState {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.setup
	next := prev.Next()
	c.setup = next
	if conflict {
		c.logLocked("setup: %s resolved via conflict, advancing to %s", prev, next)
	} else {
		c.logLocked("setup: advancing to %s", next)
	}
	return next
}

// FailSetup transitions setup to Failed with msg and terminates the setup
// sequence; any step's non-conflict failure does this.
func (c *Controller) FailSetup(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setup = Failed
	c.setupErr = msg
	c.logLocked("setup: failed: %s", msg)
}

// BeginStep records a named setup API-call step as in_progress.
func (c *Controller) BeginStep(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, StepStatus{Name: name, State: "in_progress"})
	c.logLocked("setup: %s in_progress", name)
}

// FinishStep resolves the most recent step with the given name to state
// (success, skipped, or failed) with an optional message.
func (c *Controller) FinishStep(name, state, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.steps) - 1; i >= 0; i-- {
		if c.steps[i].Name == name {
			c.steps[i].State = state
			c.steps[i].Message = msg
			break
		}
	}
	c.logLocked("setup: %s %s", name, state)
}

// Steps returns a copy of the recorded setup steps, oldest first.
func (c *Controller) Steps() []StepStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]StepStatus, len(c.steps))
	copy(out, c.steps)
	return out
}

// Mode returns the migration strategy this controller drives.
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// ToggleMode flips between BigBang and Canary strategy. Only meaningful
// before setup starts; it is a no-op once setup has progressed past
// NotStarted.
func (c *Controller) ToggleMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setup != NotStarted {
		return
	}
	if c.mode == ModeCanary {
		c.mode = ModeBigBang
	} else {
		c.mode = ModeCanary
	}
	c.logLocked("mode: toggled to %s", c.mode)
}

// SetupState returns the current setup step and, if Failed, its message.
func (c *Controller) SetupState() (SetupState, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.setup, c.setupErr
}

// SetReady marks setup complete, recording the migration's interlay id.
func (c *Controller) SetReady(interlayID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setup = Ready
	c.interlayID = interlayID
	c.status = StatusPending
	c.logLocked("setup: ready, interlay=%s", interlayID)
}

// SetStatus is an authoritative write — from an explicit user refresh, not
// a background poll — and always takes effect regardless of terminality.
func (c *Controller) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logLocked("status: %s -> %s (refresh)", c.status, s)
	c.status = s
}

// ApplyPolledStatus is the only path by which a background poller may move
// the runtime status. It discards the update if applying it would:
//
//   - overwrite a terminal/RollingBack status with a non-terminal one, or
//   - downgrade Running to any pre-running state (Pending, Testing, Ready).
func (c *Controller) ApplyPolledStatus(s Status) (applied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.IsTerminal() && !s.IsTerminal() {
		c.logLocked("status: discarded stale poll %s (currently terminal %s)", s, c.status)
		return false
	}
	if c.status == StatusRunning && isPreRunning(s) {
		c.logLocked("status: discarded stale poll %s (currently Running)", s)
		return false
	}

	c.logLocked("status: %s -> %s (poll)", c.status, s)
	c.status = s
	return true
}

func isPreRunning(s Status) bool {
	return s == StatusPending || s == StatusTesting || s == StatusReady
}

// AdjustReadPercent shifts the canary read percentage by delta, clamped to
// [0, 100], and returns the new value. The caller sends the result to the
// traffic endpoint; on request failure it should restore the prior value
// via SetReadPercent.
func (c *Controller) AdjustReadPercent(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.readPercent + delta
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	c.logLocked("traffic: read %d%% -> %d%%", c.readPercent, p)
	c.readPercent = p
	return p
}

// SetReadPercent overwrites the tracked canary read percentage.
func (c *Controller) SetReadPercent(p int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readPercent = p
}

// ReadPercent returns the tracked canary read percentage.
func (c *Controller) ReadPercent() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readPercent
}

// Status returns the current runtime status.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// DebugLog returns a copy of the current debug ring buffer, oldest first.
func (c *Controller) DebugLog() []DebugEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DebugEntry, len(c.debugLog))
	copy(out, c.debugLog)
	return out
}

// --- Runtime command guards ---

func (c *Controller) CanMigrate() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.setup == Ready && isOneOf(c.status, StatusPending, StatusTesting, StatusReady)
}

func (c *Controller) CanUpdateTraffic() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.setup == Ready && c.mode == ModeCanary && c.status == StatusRunning
}

func (c *Controller) CanComplete() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.setup == Ready && c.status == StatusRunning
}

func (c *Controller) CanCancel() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.setup == Ready && isOneOf(c.status, StatusRunning, StatusPaused)
}

func (c *Controller) CanRollback() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.setup == Ready && c.interlayID != "" &&
		isOneOf(c.status, StatusCompleted, StatusFailed, StatusCancelled, StatusPartialFailure)
}

func isOneOf(s Status, candidates ...Status) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

// Poll runs fetch every second until ctx is cancelled or the status
// reaches a terminal state, applying every result through
// ApplyPolledStatus.
func (c *Controller) Poll(ctx context.Context, fetch func(ctx context.Context) (Status, error)) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s, err := fetch(ctx)
			if err != nil {
				c.mu.Lock()
				c.logLocked("poll: fetch error: %v", err)
				c.mu.Unlock()
				continue
			}
			c.ApplyPolledStatus(s)
			if c.Status().IsTerminal() {
				return nil
			}
		}
	}
}
