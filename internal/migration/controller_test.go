package migration

import "testing"

func TestSetupStateNextAdvancesLinearly(t *testing.T) {
	s := NotStarted
	for _, want := range []SetupState{
		CreatingOrganization, LoggingIn, CreatingSourceEndpoint, CreatingDestEndpoint,
		CreatingInterlay, CreatingMigration, AddingInterlay, Ready,
	} {
		s = s.Next()
		if s != want {
			t.Fatalf("Next() = %s, want %s", s, want)
		}
	}
	if s.Next() != Ready {
		t.Fatalf("Next() past Ready should stay at Ready, got %s", s.Next())
	}
}

func TestFailedNextStaysFailed(t *testing.T) {
	if Failed.Next() != Failed {
		t.Fatalf("Failed.Next() = %s, want Failed", Failed.Next())
	}
}

func TestNewControllerInitialState(t *testing.T) {
	c := New(ModeCanary)
	state, errMsg := c.SetupState()
	if state != NotStarted || errMsg != "" {
		t.Fatalf("initial SetupState() = (%s, %q), want (not_started, \"\")", state, errMsg)
	}
	if c.Status() != StatusNotSetup {
		t.Fatalf("initial Status() = %s, want %s", c.Status(), StatusNotSetup)
	}
}

func TestToggleModeBeforeSetupFlipsMode(t *testing.T) {
	c := New(ModeCanary)
	c.ToggleMode()
	if c.Mode() != ModeBigBang {
		t.Fatalf("Mode() = %s, want big_bang", c.Mode())
	}
	c.ToggleMode()
	if c.Mode() != ModeCanary {
		t.Fatalf("Mode() = %s, want canary", c.Mode())
	}
}

func TestToggleModeAfterSetupStartsIsNoOp(t *testing.T) {
	c := New(ModeCanary)
	c.AdvanceSetup(false)
	c.ToggleMode()
	if c.Mode() != ModeCanary {
		t.Fatalf("Mode() = %s, want canary (toggle after setup start should be a no-op)", c.Mode())
	}
}

func TestAdvanceSetupAndFailSetup(t *testing.T) {
	c := New(ModeCanary)
	c.AdvanceSetup(false)
	state, _ := c.SetupState()
	if state != CreatingOrganization {
		t.Fatalf("SetupState() = %s, want %s", state, CreatingOrganization)
	}

	c.FailSetup("endpoint unreachable")
	state, msg := c.SetupState()
	if state != Failed || msg != "endpoint unreachable" {
		t.Fatalf("SetupState() after FailSetup = (%s, %q)", state, msg)
	}
}

func TestSetReadyMovesToPending(t *testing.T) {
	c := New(ModeCanary)
	c.SetReady("interlay-1")
	state, _ := c.SetupState()
	if state != Ready {
		t.Fatalf("SetupState() = %s, want %s", state, Ready)
	}
	if c.Status() != StatusPending {
		t.Fatalf("Status() = %s, want %s", c.Status(), StatusPending)
	}
}

func TestApplyPolledStatusDiscardsStaleAfterTerminal(t *testing.T) {
	c := New(ModeCanary)
	c.SetStatus(StatusCompleted)
	if applied := c.ApplyPolledStatus(StatusRunning); applied {
		t.Fatalf("ApplyPolledStatus(Running) applied over terminal Completed")
	}
	if c.Status() != StatusCompleted {
		t.Fatalf("Status() = %s, want %s (unchanged)", c.Status(), StatusCompleted)
	}
}

func TestApplyPolledStatusDiscardsPreRunningDowngrade(t *testing.T) {
	c := New(ModeCanary)
	c.SetStatus(StatusRunning)
	for _, stale := range []Status{StatusPending, StatusTesting, StatusReady} {
		if applied := c.ApplyPolledStatus(stale); applied {
			t.Fatalf("ApplyPolledStatus(%s) applied over Running", stale)
		}
	}
	if c.Status() != StatusRunning {
		t.Fatalf("Status() = %s, want %s (unchanged)", c.Status(), StatusRunning)
	}
}

func TestApplyPolledStatusAppliesForwardProgress(t *testing.T) {
	c := New(ModeCanary)
	c.SetStatus(StatusPending)
	if applied := c.ApplyPolledStatus(StatusRunning); !applied {
		t.Fatalf("ApplyPolledStatus(Running) was discarded over Pending")
	}
	if c.Status() != StatusRunning {
		t.Fatalf("Status() = %s, want %s", c.Status(), StatusRunning)
	}
}

func TestApplyPolledStatusTerminalToTerminalApplies(t *testing.T) {
	c := New(ModeCanary)
	c.SetStatus(StatusFailed)
	if applied := c.ApplyPolledStatus(StatusRolledBack); !applied {
		t.Fatalf("ApplyPolledStatus(RolledBack) was discarded over terminal Failed")
	}
	if c.Status() != StatusRolledBack {
		t.Fatalf("Status() = %s, want %s", c.Status(), StatusRolledBack)
	}
}

func TestDebugLogRingBufferCapsAtTwenty(t *testing.T) {
	c := New(ModeCanary)
	for i := 0; i < debugLogCapacity+10; i++ {
		c.SetStatus(StatusPending)
	}
	log := c.DebugLog()
	if len(log) != debugLogCapacity {
		t.Fatalf("len(DebugLog()) = %d, want %d", len(log), debugLogCapacity)
	}
}

func TestBeginAndFinishStepTracksOutcomes(t *testing.T) {
	c := New(ModeCanary)
	c.BeginStep("create_organization")
	c.FinishStep("create_organization", "skipped", "already exists")
	c.BeginStep("login")
	c.FinishStep("login", "success", "")

	steps := c.Steps()
	if len(steps) != 2 {
		t.Fatalf("len(Steps()) = %d, want 2", len(steps))
	}
	if steps[0].Name != "create_organization" || steps[0].State != "skipped" || steps[0].Message != "already exists" {
		t.Fatalf("steps[0] = %+v", steps[0])
	}
	if steps[1].Name != "login" || steps[1].State != "success" {
		t.Fatalf("steps[1] = %+v", steps[1])
	}
}

func TestAdjustReadPercentClampsAndSteps(t *testing.T) {
	c := New(ModeCanary)
	if got := c.AdjustReadPercent(-5); got != 0 {
		t.Fatalf("AdjustReadPercent(-5) from 0 = %d, want 0 (clamped)", got)
	}
	if got := c.AdjustReadPercent(5); got != 5 {
		t.Fatalf("AdjustReadPercent(5) = %d, want 5", got)
	}
	c.SetReadPercent(98)
	if got := c.AdjustReadPercent(5); got != 100 {
		t.Fatalf("AdjustReadPercent(5) from 98 = %d, want 100 (clamped)", got)
	}
	if c.ReadPercent() != 100 {
		t.Fatalf("ReadPercent() = %d, want 100", c.ReadPercent())
	}
}

func TestCanMigrateRequiresReadySetupAndPreRunningStatus(t *testing.T) {
	c := New(ModeCanary)
	if c.CanMigrate() {
		t.Fatalf("CanMigrate() true before setup is Ready")
	}
	c.SetReady("interlay-1")
	if !c.CanMigrate() {
		t.Fatalf("CanMigrate() false with setup Ready and status Pending")
	}
	c.SetStatus(StatusRunning)
	if c.CanMigrate() {
		t.Fatalf("CanMigrate() true while status is Running")
	}
}

func TestCanUpdateTrafficRequiresCanaryModeAndRunning(t *testing.T) {
	bigBang := New(ModeBigBang)
	bigBang.SetReady("interlay-1")
	bigBang.SetStatus(StatusRunning)
	if bigBang.CanUpdateTraffic() {
		t.Fatalf("CanUpdateTraffic() true under ModeBigBang")
	}

	canary := New(ModeCanary)
	canary.SetReady("interlay-1")
	if canary.CanUpdateTraffic() {
		t.Fatalf("CanUpdateTraffic() true before status is Running")
	}
	canary.SetStatus(StatusRunning)
	if !canary.CanUpdateTraffic() {
		t.Fatalf("CanUpdateTraffic() false with Canary mode and Running status")
	}
}

func TestCanRollbackRequiresInterlayAndTerminalStatus(t *testing.T) {
	c := New(ModeCanary)
	c.SetReady("")
	c.SetStatus(StatusFailed)
	if c.CanRollback() {
		t.Fatalf("CanRollback() true with empty interlay id")
	}

	c2 := New(ModeCanary)
	c2.SetReady("interlay-1")
	c2.SetStatus(StatusCompleted)
	if !c2.CanRollback() {
		t.Fatalf("CanRollback() false with interlay set and status Completed")
	}
}

func TestCanCancelAndCanComplete(t *testing.T) {
	c := New(ModeCanary)
	c.SetReady("interlay-1")
	c.SetStatus(StatusRunning)
	if !c.CanCancel() {
		t.Fatalf("CanCancel() false while Running")
	}
	if !c.CanComplete() {
		t.Fatalf("CanComplete() false while Running")
	}
	c.SetStatus(StatusPaused)
	if !c.CanCancel() {
		t.Fatalf("CanCancel() false while Paused")
	}
	if c.CanComplete() {
		t.Fatalf("CanComplete() true while Paused")
	}
}
