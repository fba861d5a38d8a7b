package rtlog

import (
	"sync"

	"go.uber.org/multierr"
)

// DefaultPath is where the default logger writes.
const DefaultPath = "assets/dynamic.log"

var std = New(DefaultPath)

// Loggers opened since the last Fini; closed at shutdown.
var (
	openMu sync.Mutex
	opened []*Logger
)

func register(l *Logger) {
	openMu.Lock()
	defer openMu.Unlock()
	for _, o := range opened {
		if o == l {
			return
		}
	}
	opened = append(opened, l)
}

// Default returns the logger behind the package-level functions.
func Default() *Logger {
	return std
}

// SetOutputPath points the default logger at path. Call it before the
// instrumented program starts.
func SetOutputPath(path string) error {
	return std.SetPath(path)
}

// InitLogFile opens the default log file.
//
// The instrument command inserts this call at the top of instrumented
// functions. Repeated calls are no-ops.
func InitLogFile() {
	std.Init()
}

// LogInstruction records one execution of an instrumented site on the
// default logger.
//
// Parameters:
//   - opcode: mnemonic of the instruction about to run
//   - counter: the site's counter cell
//   - id: the site's node id in the static graph
func LogInstruction(opcode string, counter *int64, id uint32) {
	std.Log(opcode, counter, id)
}

// Fini closes every logger opened since the previous Fini. Hosts call it
// once the instrumented program has exited.
func Fini() error {
	openMu.Lock()
	loggers := opened
	opened = nil
	openMu.Unlock()

	var err error
	for _, l := range loggers {
		err = multierr.Append(err, l.Close())
	}
	return err
}
