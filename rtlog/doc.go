// Package rtlog is the runtime half of irgraph: the logger that
// instrumented programs call.
//
// The instrument command inserts two kinds of calls into a module:
//
//	call void @initLogFile()
//	call void @logInstruction(ptr @.str.add, ptr @counter_add4194306, i32 4194306)
//
// InitLogFile opens the dynamic log (assets/dynamic.log by default,
// truncated on first open, appended to when reopened). LogInstruction
// increments the site's counter and appends one line:
//
//	4194306 'add' counter: 1
//
// The id is the node id the same site carries in the static graph, which
// is how the heat command joins the two files.
//
// # Usage
//
// Programs run through `irgraph run` get the runtime bound automatically.
// Host code driving the interpreter can bind it by hand:
//
//	rtlog.SetOutputPath("out/dynamic.log")
//	defer rtlog.Fini()
//
//	var counter int64
//	rtlog.LogInstruction("add", &counter, 4194306)
//
// # Failure Behaviour
//
// If the log file cannot be created the logger writes to standard error
// instead. LogInstruction opens the log lazily, so a program whose
// initializer was never called still produces output.
//
// # Concurrency
//
// Counter increments are atomic and whole lines are written under a mutex,
// so concurrent callers never interleave partial lines.
package rtlog
