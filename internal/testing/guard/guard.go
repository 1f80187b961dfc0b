// Package guard marks the process as running under test when imported.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("RETAILPAD_TEST_MODE") == "" {
			_ = os.Setenv("RETAILPAD_TEST_MODE", "1")
		}
	})
}
