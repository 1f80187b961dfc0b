package app

import (
	"os"
	"sync"
)

const testModeEnv = "RETAILPAD_TEST_MODE"

var (
	testModeMu  sync.RWMutex
	testMode    bool
	testModeSet bool
)

// InTestMode reports whether binaries should skip runtime side effects such as
// dialing Postgres or Redis. The flag is read from RETAILPAD_TEST_MODE once.
func InTestMode() bool {
	testModeMu.RLock()
	if testModeSet {
		defer testModeMu.RUnlock()
		return testMode
	}
	testModeMu.RUnlock()
	RefreshTestMode()
	testModeMu.RLock()
	defer testModeMu.RUnlock()
	return testMode
}

// RefreshTestMode re-reads the flag after environment changes.
func RefreshTestMode() {
	testModeMu.Lock()
	testMode = os.Getenv(testModeEnv) == "1"
	testModeSet = true
	testModeMu.Unlock()
}
