//go:build jrnltest

package jrnl

// testFlags is a bitmask of crash-injection points (spec §6.4), only
// present in builds tagged jrnltest. Production builds link testhooks_stub.go
// instead, which compiles the injection points out entirely.
type testFlags uint32

const (
	// FlagStopSkipCommit fires at stop(true) entry, before the master is
	// updated to COMMIT.
	FlagStopSkipCommit testFlags = 1 << iota

	// FlagStopSetCommitAndExit fires after the master is updated to COMMIT,
	// before replay starts.
	FlagStopSetCommitAndExit

	// FlagReplayEraseAndExit fires in replay, after the first target
	// erase_range, before the corresponding write.
	FlagReplayEraseAndExit

	// FlagReplayWriteAndExit fires in replay, after the first target write.
	FlagReplayWriteAndExit

	// FlagReplayExitBeforeClose fires after all log entries have been
	// applied, before the master is reset to READY.
	FlagReplayExitBeforeClose

	// FlagSuspendTransaction makes Start/Stop no-ops, leaving only the
	// direct-I/O path reachable. Test setup only.
	FlagSuspendTransaction
)

// crashInjector is called in place of terminating the process, so a test can
// observe "a crash happened here" and assert on it. If unset, injectCrash
// panics instead.
var crashInjector func()

// SetCrashInjector installs f as the crash-injection hook for the remainder
// of the test binary. Passing nil restores the default panic behavior.
func SetCrashInjector(f func()) {
	crashInjector = f
}

// SetTestConfig arms flags on j. It is defined only in builds with the
// jrnltest tag; testhooks_stub.go has no counterpart.
func (j *Journal) SetTestConfig(flags testFlags) {
	j.testConfig = flags
}

func (j *Journal) testFlagSet(f testFlags) bool {
	return j.testConfig&f != 0
}

// injectCrash simulates a power-loss at point if its flag is armed and a
// transaction is actually in flight (spec §6.4: "when next_free_sector > 0").
func (j *Journal) injectCrash(point testFlags) {
	if !j.testFlagSet(point) {
		return
	}
	if j.master.NextFreeSector == 0 {
		return
	}

	if crashInjector != nil {
		crashInjector()
		return
	}

	panicKind(DiskIOError, "simulated crash injected at test point %d", point)
}
