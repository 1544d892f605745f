package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
)

// Mocked out for unit testing.
var exit = os.Exit

// HandleFatalError logs the operator-facing message for `err` and exits.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", errors.GetPrintableMessage(err))
	exit(1)
}

// HandlePanic logs the stack trace of a panic before letting it continue.
// It should be deferred at the start of every goroutine.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Unexpected panic: %v", r)
		panic(r)
	}
}
