package interp

import (
	"github.com/pkg/errors"

	"github.com/kolkov/irgraph/internal/ir"
)

// eval executes a non-control-flow instruction.
func (m *Machine) eval(fr *frame, inst *ir.Instruction) (Word, error) {
	ops := make([]Word, len(inst.Operands))
	for i, op := range inst.Operands {
		w, err := fr.value(m, op)
		if err != nil {
			return Word{}, err
		}
		ops[i] = w
	}

	switch op := inst.Op; {
	case op.IsBinary():
		return binary(op, inst.Type(), ops[0].I, ops[1].I)
	case op.IsCast():
		return cast(op, inst.Operands[0].Type(), inst.Type(), ops[0].I), nil
	}

	switch inst.Op {
	case ir.OpICmp:
		return compare(inst.Pred, inst.Operands[0].Type(), ops[0], ops[1]), nil
	case ir.OpSelect:
		if ops[0].Bool() {
			return ops[1], nil
		}
		return ops[2], nil
	case ir.OpAlloca:
		return Word{Ptr: &Word{}}, nil
	case ir.OpLoad:
		if ops[0].Ptr == nil {
			return Word{}, ErrNilDereference
		}
		w := *ops[0].Ptr
		if t := inst.Type(); t.IsInteger() {
			w = Int(t.Truncate(w.I))
		}
		return w, nil
	case ir.OpStore:
		if ops[1].Ptr == nil {
			return Word{}, ErrNilDereference
		}
		*ops[1].Ptr = ops[0]
		return Word{}, nil
	case ir.OpLandingPad:
		return Word{}, ErrLandingPad
	case ir.OpUnreachable:
		return Word{}, ErrUnreachable
	case ir.OpPhi:
		return Word{}, errors.New("phi after the start of its block")
	}
	return Word{}, errors.Errorf("opcode %s is not executable", inst.Op)
}

func binary(op ir.Opcode, t ir.Type, a, b int64) (Word, error) {
	bits := uint64(t.Bits())
	var r int64
	switch op {
	case ir.OpAdd:
		r = a + b
	case ir.OpSub:
		r = a - b
	case ir.OpMul:
		r = a * b
	case ir.OpSDiv, ir.OpSRem:
		if b == 0 {
			return Word{}, ErrDivideByZero
		}
		if b == -1 {
			// Avoid the MinInt64 / -1 trap; the wrapped result is the same.
			if op == ir.OpSDiv {
				r = -a
			}
			break
		}
		if op == ir.OpSDiv {
			r = a / b
		} else {
			r = a % b
		}
	case ir.OpUDiv, ir.OpURem:
		ua, ub := unsigned(t, a), unsigned(t, b)
		if ub == 0 {
			return Word{}, ErrDivideByZero
		}
		if op == ir.OpUDiv {
			r = int64(ua / ub)
		} else {
			r = int64(ua % ub)
		}
	case ir.OpAnd:
		r = a & b
	case ir.OpOr:
		r = a | b
	case ir.OpXor:
		r = a ^ b
	case ir.OpShl, ir.OpLShr, ir.OpAShr:
		s := unsigned(t, b)
		if s >= bits {
			return Word{}, errors.Errorf("shift amount %d out of range for %s", s, t)
		}
		switch op {
		case ir.OpShl:
			r = a << s
		case ir.OpLShr:
			r = int64(unsigned(t, a) >> s)
		default:
			r = signed(t, a) >> s
		}
	default:
		return Word{}, errors.Errorf("%s is not a binary opcode", op)
	}
	return Int(t.Truncate(r)), nil
}

// signed returns the two's complement value of a canonical integer. Only
// i1 differs from its canonical form: true is 1 canonically and -1 signed.
func signed(t ir.Type, v int64) int64 {
	if t.Kind == ir.TypeI1 {
		return -(v & 1)
	}
	return v
}

func cast(op ir.Opcode, from, to ir.Type, v int64) Word {
	switch op {
	case ir.OpZExt:
		return Int(to.Truncate(int64(unsigned(from, v))))
	case ir.OpSExt:
		return Int(to.Truncate(signed(from, v)))
	}
	return Int(to.Truncate(v))
}

func compare(pred ir.Predicate, t ir.Type, a, b Word) Word {
	if a.IsPointer() || b.IsPointer() {
		eq := a == b
		if pred == ir.PredNE {
			eq = !eq
		}
		return boolWord(eq)
	}
	sa, sb := signed(t, a.I), signed(t, b.I)
	ua, ub := unsigned(t, a.I), unsigned(t, b.I)
	var r bool
	switch pred {
	case ir.PredEQ:
		r = a.I == b.I
	case ir.PredNE:
		r = a.I != b.I
	case ir.PredSLT:
		r = sa < sb
	case ir.PredSLE:
		r = sa <= sb
	case ir.PredSGT:
		r = sa > sb
	case ir.PredSGE:
		r = sa >= sb
	case ir.PredULT:
		r = ua < ub
	case ir.PredULE:
		r = ua <= ub
	case ir.PredUGT:
		r = ua > ub
	case ir.PredUGE:
		r = ua >= ub
	}
	return boolWord(r)
}

func boolWord(b bool) Word {
	if b {
		return Int(1)
	}
	return Int(0)
}
