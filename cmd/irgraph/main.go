// Package main implements the irgraph CLI tool.
//
// irgraph builds a static dependency graph of an IR module and instruments
// it so that running the module records how often each graphed instruction
// executed. It works by:
//
//  1. Parsing a textual IR module
//  2. Inserting runtime logger calls before each instruction
//  3. Writing the operand-to-instruction graph in DOT format
//  4. Running the instrumented module with the runtime bound
//  5. Colouring the graph by execution count
//
// Usage:
//
//	irgraph instrument demo.ir -o demo.inst.ir   # Graph and instrument
//	irgraph run demo.inst.ir --times 2           # Execute, writing the log
//	irgraph heat                                 # Colour the graph
//
// This is the CLI entry point.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
