package main

import (
	"testing"

	_ "github.com/retailpad/retailpad/testing"

	"github.com/retailpad/retailpad/internal/app"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode")
	}
	main()
}
