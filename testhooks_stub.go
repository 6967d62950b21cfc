//go:build !jrnltest

package jrnl

// testFlags is a bitmask of crash-injection points. In production builds
// (no jrnltest tag) it carries no flag values and every check below is a
// compile-time no-op, matching the original's #ifdef-gated test mode.
type testFlags uint32

// These mirror testhooks.go's flag values so call sites in instance.go and
// replay.go compile identically in both builds; testFlagSet always reports
// false here regardless of which bit is passed.
const (
	FlagStopSkipCommit testFlags = 1 << iota
	FlagStopSetCommitAndExit
	FlagReplayEraseAndExit
	FlagReplayWriteAndExit
	FlagReplayExitBeforeClose
	FlagSuspendTransaction
)

func (j *Journal) testFlagSet(testFlags) bool {
	return false
}

func (j *Journal) injectCrash(testFlags) {
}
