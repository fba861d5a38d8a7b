// Package ir implements the intermediate representation that irgraph reads,
// instruments and writes back.
//
// The representation is a small, LLVM-flavoured SSA form:
//
//	Module
//	  ├── Globals   (@name = internal global i64 0)
//	  └── Functions (define i32 @main(i32 %n) { ... })
//	        └── Blocks (entry:)
//	              └── Instructions (%x = add i32 %n, 2)
//
// Every entity that can appear as an operand implements Value. Values are
// classified by a closed Kind tag:
//
//	KindInstruction  instructions
//	KindBasicBlock   basic blocks (branch and phi targets)
//	KindConstant     integer constants, globals and functions
//	KindNamed        named non-constant values (named parameters)
//	KindUnnamed      everything else (unnamed parameters)
//
// Globals and functions are address constants, exactly as in LLVM, which is
// why they share KindConstant with integer literals.
//
// Identity: every value except integer constants receives a Handle from its
// module when it is attached (global added, function created, block appended,
// instruction inserted). Handles start at HandleBase and grow in attachment
// order, so a given input text always produces the same handles.
//
// Mutation: instructions may be inserted into a block at any index; nothing
// in this package removes or reorders instructions. Callers that insert
// while walking a block must walk it with an index cursor (see Block.InsertAt).
//
// Thread Safety: NOT thread-safe. A Module and everything reachable from it
// must be confined to one goroutine.
package ir
