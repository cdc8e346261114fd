package exception

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/monitoring"
)

// SafeGo runs fn in a goroutine; a panic is logged and counted instead of crashing the
// process.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", fmt.Sprintf("panic in %s: %v\n%s", name, r, debug.Stack()))
			}
		}()
		fn()
	}()
}

// SafeGoWithPanic is SafeGo for goroutines the process cannot live without.
func SafeGoWithPanic(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", fmt.Sprintf("fatal panic in %s: %v\n%s", name, r, debug.Stack()))
				os.Exit(1)
			}
		}()
		fn()
	}()
}

// Recover is deferred at the top of main.
func Recover(name string) {
	if r := recover(); r != nil {
		monitoring.IncreasePanicCount()
		logx.Error("PANIC", fmt.Sprintf("panic in %s: %v\n%s", name, r, debug.Stack()))
		os.Exit(1)
	}
}
