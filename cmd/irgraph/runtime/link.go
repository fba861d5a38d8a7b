// Package runtime links instrumented modules to the rtlog runtime.
//
// The instrument command only declares the runtime entry points:
//
//	declare void @initLogFile()
//	declare void @logInstruction(ptr, ptr, i32)
//
// Before an instrumented module can run, those declarations must be bound
// to a real logger. This package checks the declarations against the
// signatures the runtime implements and binds them on an interpreter
// Machine.
package runtime

import (
	"github.com/pkg/errors"

	"github.com/kolkov/irgraph/internal/interp"
	"github.com/kolkov/irgraph/internal/ir"
	"github.com/kolkov/irgraph/rtlog"
)

// Symbols names the runtime entry points in a module.
type Symbols struct {
	Logger string
	Init   string
}

// GetRuntimePackagePath returns the import path of the runtime library.
//
// Returns: "github.com/kolkov/irgraph/rtlog"
func GetRuntimePackagePath() string {
	return "github.com/kolkov/irgraph/rtlog"
}

// ValidateRuntimeDeclarations checks that whatever m declares under the
// runtime symbols has the signatures the runtime implements:
//
//	void <init>()
//	void <logger>(ptr, ptr, i32)
//
// Missing symbols are fine: a module with no instrumentation never calls
// the runtime.
//
// Returns:
//   - nil if every present symbol matches
//   - error naming the first mismatching symbol
func ValidateRuntimeDeclarations(m *ir.Module, sym Symbols) error {
	if err := checkSignature(m.Function(sym.Init), ir.Void); err != nil {
		return err
	}
	return checkSignature(m.Function(sym.Logger), ir.Void, ir.Ptr, ir.Ptr, ir.I32)
}

func checkSignature(fn *ir.Function, ret ir.Type, params ...ir.Type) error {
	if fn == nil {
		return nil
	}
	got := fn.ParamTypes()
	ok := fn.Ret == ret && len(got) == len(params)
	for i := 0; ok && i < len(got); i++ {
		ok = got[i] == params[i]
	}
	if !ok {
		return errors.Errorf("runtime symbol @%s has signature %s, want %s",
			fn.Name(), signature(fn.Ret, got), signature(ret, params))
	}
	return nil
}

func signature(ret ir.Type, params []ir.Type) string {
	s := ret.String() + " ("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ")"
}

// Link binds the runtime symbols of mach's module to logger. Symbols the
// module defines itself are left alone, so a module carrying its own
// runtime keeps it.
func Link(mach *interp.Machine, logger *rtlog.Logger, sym Symbols) error {
	mod := mach.Module()
	if err := ValidateRuntimeDeclarations(mod, sym); err != nil {
		return err
	}

	if fn := mod.Function(sym.Init); fn == nil || fn.IsDeclaration() {
		mach.Bind(sym.Init, func(*interp.Machine, []interp.Word) (interp.Word, error) {
			logger.Init()
			return interp.Word{}, nil
		})
	}
	if fn := mod.Function(sym.Logger); fn == nil || fn.IsDeclaration() {
		mach.Bind(sym.Logger, func(m *interp.Machine, args []interp.Word) (interp.Word, error) {
			opcode, err := m.String(args[0])
			if err != nil {
				return interp.Word{}, errors.Wrap(err, "opcode argument")
			}
			if args[1].Ptr == nil {
				return interp.Word{}, errors.New("counter argument is not a global cell")
			}
			logger.Log(opcode, &args[1].Ptr.I, uint32(args[2].I))
			return interp.Word{}, nil
		})
	}
	return nil
}
