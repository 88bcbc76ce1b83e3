// Package log is a thin layer over logrus that lets each part of the
// emulator log through its own module, whose debug output can be switched
// on and off at runtime.
package log

import (
	"io"
	"slices"
	"sync"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint32

// Same ordering as logrus levels.
const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var disabled bool

func init() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// SetOutput sets the destination of all log output.
func SetOutput(w io.Writer) { logrus.SetOutput(w) }

// Disable turns all logging off, warnings and errors included.
func Disable() {
	disabled = true
	logrus.SetOutput(io.Discard)
}

// A Context adds fields to every log line emitted while it is registered,
// for example the current playback position.
type Context interface {
	AddLogContext(z *EntryZ)
}

var (
	ctxmu    sync.RWMutex
	contexts []Context
)

// AddContext registers c. Registering it twice has no effect.
func AddContext(c Context) {
	ctxmu.Lock()
	defer ctxmu.Unlock()
	if !slices.Contains(contexts, c) {
		contexts = append(contexts, c)
	}
}

func RemoveContext(c Context) {
	ctxmu.Lock()
	defer ctxmu.Unlock()
	if i := slices.Index(contexts, c); i >= 0 {
		contexts = slices.Delete(contexts, i, i+1)
	}
}

// addContexts adds the fields of all registered contexts to z.
func addContexts(z *EntryZ) {
	ctxmu.RLock()
	defer ctxmu.RUnlock()
	for _, c := range contexts {
		c.AddLogContext(z)
	}
}
