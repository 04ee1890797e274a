// Package tui is the migration controller's terminal view: a thin layer
// binding keypresses to migration.Controller commands and rendering its
// state.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/eden-redis/loadengine/internal/coverage"
	"github.com/eden-redis/loadengine/internal/migration"
)

// Commands is the set of actions the keymap can trigger; each is wired by
// cmd/migrationctl to the actual migrationapi calls.
type Commands struct {
	Setup         func()
	Migrate       func()
	Complete      func()
	Cancel        func()
	Rollback      func()
	Refresh       func()
	AdjustTraffic func(delta int)
	ForceCoverage func()
	Quit          func()
}

// App wraps the tview application and its widgets, bound to a
// migration.Controller for state and a Commands set for keypress
// dispatch.
type App struct {
	app        *tview.Application
	root       *tview.Flex
	status     *tview.TextView
	debugView  *tview.TextView
	opsChart   *tview.TextView
	coverage   *tview.TextView
	showDebug  bool
	showOps    bool
	ctrl       *migration.Controller
	cmds       Commands
}

// New builds the widget tree. Mode toggling is only valid before setup
// starts; Controller.ToggleMode enforces that, so the Tab binding calls it
// unconditionally.
func New(ctrl *migration.Controller, cmds Commands) *App {
	a := &App{
		app:       tview.NewApplication(),
		status:    tview.NewTextView().SetDynamicColors(true),
		debugView: tview.NewTextView().SetDynamicColors(true),
		opsChart:  tview.NewTextView().SetDynamicColors(true),
		coverage:  tview.NewTextView().SetDynamicColors(true),
		ctrl:      ctrl,
		cmds:      cmds,
	}
	a.status.SetBorder(true).SetTitle("migration")
	a.debugView.SetBorder(true).SetTitle("debug")
	a.opsChart.SetBorder(true).SetTitle("ops")
	a.coverage.SetBorder(true).SetTitle("coverage")

	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.status, 0, 2, false).
		AddItem(a.coverage, 0, 2, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.onKey)
	return a
}

func (a *App) onKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'q':
		a.cmds.Quit()
		return nil
	case 's':
		a.cmds.Setup()
		return nil
	case 'm':
		a.cmds.Migrate()
		return nil
	case 'c':
		a.cmds.Complete()
		return nil
	case 'x':
		a.cmds.Cancel()
		return nil
	case 'b':
		a.cmds.Rollback()
		return nil
	case 'r':
		a.cmds.Refresh()
		return nil
	case '+', '=':
		a.cmds.AdjustTraffic(5)
		return nil
	case '-':
		a.cmds.AdjustTraffic(-5)
		return nil
	case 'f':
		a.cmds.ForceCoverage()
		return nil
	case 'v':
		a.showOps = !a.showOps
		a.relayout()
		return nil
	case 'd':
		a.showDebug = !a.showDebug
		a.relayout()
		return nil
	}
	switch event.Key() {
	case tcell.KeyEscape:
		a.cmds.Quit()
		return nil
	case tcell.KeyTab:
		a.ctrl.ToggleMode()
		return nil
	}
	return event
}

func (a *App) relayout() {
	a.root.Clear()
	a.root.AddItem(a.status, 0, 2, false)
	if a.showOps {
		a.root.AddItem(a.opsChart, 0, 2, false)
	}
	a.root.AddItem(a.coverage, 0, 2, false)
	if a.showDebug {
		a.root.AddItem(a.debugView, 0, 3, false)
	}
}

// Refresh repaints the status, debug and coverage widgets from current
// controller/coverage state; the ops panel is never written to.
// Safe to call from any goroutine; it schedules the redraw on tview's own
// event loop via QueueUpdateDraw.
func (a *App) Refresh(reports []coverage.Report) {
	a.app.QueueUpdateDraw(func() {
		setupState, setupErr := a.ctrl.SetupState()
		a.status.Clear()
		fmt.Fprintf(a.status, "\nmode=%s setup=%s status=%s", a.ctrl.Mode(), setupState, a.ctrl.Status())
		if setupErr != "" {
			fmt.Fprintf(a.status, " error=%s", setupErr)
		}
		for _, s := range a.ctrl.Steps() {
			fmt.Fprintf(a.status, "\n  %-24s %s", s.Name, s.State)
			if s.Message != "" {
				fmt.Fprintf(a.status, " (%s)", s.Message)
			}
		}

		a.coverage.Clear()
		for _, r := range reports {
			fmt.Fprintf(a.coverage, "[%s]%s: %d keys, %d unique, %.1f%% coverage[-]\n",
				r.Color(), r.Label, r.KeyCount, r.Unique, r.Coverage)
		}

		a.debugView.Clear()
		var b strings.Builder
		for _, e := range a.ctrl.DebugLog() {
			fmt.Fprintf(&b, "%s  %s\n", e.At.Format("15:04:05"), e.Message)
		}
		a.debugView.SetText(b.String())
	})
}

// Run starts the tview event loop until Quit is invoked or ctx is
// cancelled; it always restores the terminal (disables raw mode, leaves
// the alternate screen) unconditionally on exit.
func (a *App) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()
	defer a.app.Stop()
	return a.app.Run()
}

// Stop requests the event loop to terminate; wired to Commands.Quit.
func (a *App) Stop() { a.app.Stop() }
