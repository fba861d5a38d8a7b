package interp

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/irgraph/internal/ir"
)

func load(t *testing.T, src string, opts ...Option) *Machine {
	t.Helper()
	mod, err := ir.Parse("test.ll", []byte(src))
	require.NoError(t, err)
	return New(mod, opts...)
}

// TestMachine_Binary tests integer arithmetic with i32 wrapping.
func TestMachine_Binary(t *testing.T) {
	tests := []struct {
		op   string
		a, b int64
		want int64
	}{
		{"add", 2147483647, 1, -2147483648},
		{"sub", 3, 5, -2},
		{"mul", 6, 7, 42},
		{"sdiv", -7, 2, -3},
		{"sdiv", -2147483648, -1, -2147483648},
		{"srem", -7, 2, -1},
		{"srem", 5, -1, 0},
		{"udiv", -1, 2, 2147483647},
		{"urem", -1, 10, 5},
		{"and", 12, 10, 8},
		{"or", 12, 10, 14},
		{"xor", 12, 10, 6},
		{"shl", 1, 31, -2147483648},
		{"lshr", -1, 28, 15},
		{"ashr", -16, 2, -4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d_%d", tt.op, tt.a, tt.b), func(t *testing.T) {
			m := load(t, fmt.Sprintf(`define i32 @f(i32 %%a, i32 %%b) {
entry:
  %%r = %s i32 %%a, %%b
  ret i32 %%r
}
`, tt.op))
			got, err := m.Run("f", tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.I)
		})
	}
}

// TestMachine_BinaryErrors tests traps in integer arithmetic.
func TestMachine_BinaryErrors(t *testing.T) {
	for _, op := range []string{"sdiv", "udiv", "srem", "urem"} {
		m := load(t, `define i32 @f(i32 %a, i32 %b) {
entry:
  %r = `+op+` i32 %a, %b
  ret i32 %r
}
`)
		_, err := m.Run("f", 1, 0)
		assert.True(t, errors.Is(err, ErrDivideByZero), op)
	}

	m := load(t, `define i32 @f(i32 %a, i32 %b) {
entry:
  %r = shl i32 %a, %b
  ret i32 %r
}
`)
	_, err := m.Run("f", 1, 32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shift amount 32 out of range for i32")
}

// TestMachine_Casts tests width conversions.
func TestMachine_Casts(t *testing.T) {
	m := load(t, `define i32 @zext(i32 %a) {
entry:
  %t = trunc i32 %a to i8
  %z = zext i8 %t to i32
  ret i32 %z
}

define i32 @sext(i32 %a) {
entry:
  %t = trunc i32 %a to i8
  %s = sext i8 %t to i32
  ret i32 %s
}

define i32 @bool(i1 %c) {
entry:
  %s = sext i1 %c to i32
  ret i32 %s
}
`)
	tests := []struct {
		fn   string
		in   int64
		want int64
	}{
		{"zext", -1, 255},
		{"zext", 300, 44},
		{"sext", 255, -1},
		{"sext", 127, 127},
		{"bool", 1, -1},
		{"bool", 0, 0},
	}
	for _, tt := range tests {
		got, err := m.Run(tt.fn, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.I, "%s(%d)", tt.fn, tt.in)
	}
}

// TestMachine_Compare tests signed and unsigned predicates through select.
func TestMachine_Compare(t *testing.T) {
	tests := []struct {
		pred string
		a, b int64
		want int64
	}{
		{"eq", 3, 3, 1},
		{"ne", 3, 3, 0},
		{"slt", -1, 1, 1},
		{"ult", -1, 1, 0},
		{"sle", 2, 2, 1},
		{"sgt", -1, 1, 0},
		{"ugt", -1, 1, 1},
		{"sge", 1, 2, 0},
		{"uge", 0, 0, 1},
		{"ule", 5, 4, 0},
	}
	for _, tt := range tests {
		m := load(t, `define i32 @f(i32 %a, i32 %b) {
entry:
  %c = icmp `+tt.pred+` i32 %a, %b
  %r = select i1 %c, i32 1, i32 0
  ret i32 %r
}
`)
		got, err := m.Run("f", tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.I, "%s %d %d", tt.pred, tt.a, tt.b)
	}
}

// TestMachine_Pointers tests pointer comparison by identity.
func TestMachine_Pointers(t *testing.T) {
	m := load(t, `@g = global i32 0
@h = global i32 0

define i1 @same() {
entry:
  %c = icmp eq ptr @g, @g
  ret i1 %c
}

define i1 @differ() {
entry:
  %c = icmp ne ptr @g, @h
  ret i1 %c
}
`)
	got, err := m.Run("same")
	require.NoError(t, err)
	assert.True(t, got.Bool())

	got, err = m.Run("differ")
	require.NoError(t, err)
	assert.True(t, got.Bool())
}

const sumLoop = `define i32 @sum(i32 %n) {
entry:
  br label %loop
loop:
  %i = phi i32 [ 0, %entry ], [ %next, %loop ]
  %acc = phi i32 [ 0, %entry ], [ %acc.next, %loop ]
  %acc.next = add i32 %acc, %i
  %next = add i32 %i, 1
  %done = icmp sge i32 %next, %n
  br i1 %done, label %exit, label %loop
exit:
  ret i32 %acc.next
}
`

// TestMachine_Loop tests phi-driven loops and step counting.
func TestMachine_Loop(t *testing.T) {
	m := load(t, sumLoop)
	got, err := m.Run("sum", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(45), got.I)
	// br, 10 iterations of six instructions, ret.
	assert.Equal(t, 62, m.Steps())
}

// TestMachine_PhiSwap tests that phis at the top of a block read their
// inputs before any of them is assigned.
func TestMachine_PhiSwap(t *testing.T) {
	m := load(t, `define i32 @swap() {
entry:
  br label %loop
loop:
  %a = phi i32 [ 1, %entry ], [ %b, %loop ]
  %b = phi i32 [ 2, %entry ], [ %a, %loop ]
  %k = phi i32 [ 0, %entry ], [ %k1, %loop ]
  %k1 = add i32 %k, 1
  %stop = icmp eq i32 %k1, 3
  br i1 %stop, label %out, label %loop
out:
  ret i32 %a
}
`)
	got, err := m.Run("swap")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.I)
}

// TestMachine_StepLimit tests that runaway execution stops.
func TestMachine_StepLimit(t *testing.T) {
	m := load(t, sumLoop, WithStepLimit(10))
	_, err := m.Run("sum", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepLimit))

	var exec *ExecError
	require.True(t, errors.As(err, &exec))
	assert.Equal(t, "sum", exec.Function)
	assert.Equal(t, "%loop", exec.Block)

	// Limits apply per Run.
	m = load(t, sumLoop, WithStepLimit(62))
	_, err = m.Run("sum", 10)
	require.NoError(t, err)
	_, err = m.Run("sum", 10)
	require.NoError(t, err)
}

const factorial = `define i64 @fact(i64 %n) {
entry:
  %small = icmp sle i64 %n, 1
  br i1 %small, label %base, label %rec
base:
  ret i64 1
rec:
  %m = sub i64 %n, 1
  %f = call i64 @fact(i64 %m)
  %r = mul i64 %n, %f
  ret i64 %r
}
`

// TestMachine_Recursion tests direct recursion and the depth limit.
func TestMachine_Recursion(t *testing.T) {
	m := load(t, factorial)
	got, err := m.Run("fact", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3628800), got.I)

	m = load(t, factorial, WithMaxDepth(5))
	_, err = m.Run("fact", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDepthLimit))
}

// TestMachine_Globals tests that global cells persist across runs.
func TestMachine_Globals(t *testing.T) {
	m := load(t, `@count = internal global i64 5

define i64 @bump() {
entry:
  %v = load i64, ptr @count
  %n = add i64 %v, 1
  store i64 %n, ptr @count
  ret i64 %n
}
`)
	v, ok := m.Global("count")
	require.True(t, ok)
	assert.Equal(t, int64(5), v)

	for want := int64(6); want <= 8; want++ {
		got, err := m.Run("bump")
		require.NoError(t, err)
		assert.Equal(t, want, got.I)
	}
	v, _ = m.Global("count")
	assert.Equal(t, int64(8), v)

	_, ok = m.Global("missing")
	assert.False(t, ok)
}

// TestMachine_Alloca tests stack cells and indirect calls through them.
func TestMachine_Alloca(t *testing.T) {
	m := load(t, `define i32 @seven() {
entry:
  ret i32 7
}

define i32 @local(i32 %x) {
entry:
  %p = alloca i32, align 4
  store i32 %x, ptr %p, align 4
  %v = load i32, ptr %p, align 4
  ret i32 %v
}

define i32 @indirect() {
entry:
  %p = alloca ptr
  store ptr @seven, ptr %p
  %fp = load ptr, ptr %p
  %r = call i32 %fp()
  ret i32 %r
}
`)
	got, err := m.Run("local", -9)
	require.NoError(t, err)
	assert.Equal(t, int64(-9), got.I)

	got, err = m.Run("indirect")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.I)
}

// TestMachine_HostBindings tests declared functions bound to Go code.
func TestMachine_HostBindings(t *testing.T) {
	m := load(t, `@.str = private constant [3 x i8] c"hi\00"

declare i32 @twice(i32)
declare void @puts(ptr)

define i32 @main() {
entry:
  call void @puts(ptr @.str)
  %r = call i32 @twice(i32 21)
  ret i32 %r
}
`)

	_, err := m.Run("main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBinding))
	assert.Contains(t, err.Error(), "@puts")

	var printed []string
	m.Bind("puts", func(m *Machine, args []Word) (Word, error) {
		s, err := m.String(args[0])
		printed = append(printed, s)
		return Word{}, err
	})
	m.Bind("twice", func(_ *Machine, args []Word) (Word, error) {
		return Int(args[0].I * 2), nil
	})

	got, err := m.Run("main")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.I)
	assert.Equal(t, []string{"hi"}, printed)

	m.Bind("twice", func(*Machine, []Word) (Word, error) {
		return Word{}, errors.New("boom")
	})
	_, err = m.Run("main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host @twice: boom")
}

// TestMachine_Traps tests instructions that abort execution.
func TestMachine_Traps(t *testing.T) {
	m := load(t, `define void @boom() {
entry:
  unreachable
}

define i32 @lp() {
entry:
  %x = landingpad i32 cleanup
  ret i32 0
}

define i32 @outer() {
entry:
  call void @boom()
  ret i32 0
}
`)
	_, err := m.Run("boom")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	assert.Equal(t, "@boom: %entry: unreachable: unreachable executed", err.Error())

	_, err = m.Run("lp")
	assert.True(t, errors.Is(err, ErrLandingPad))

	// Errors keep the innermost location.
	_, err = m.Run("outer")
	var exec *ExecError
	require.True(t, errors.As(err, &exec))
	assert.Equal(t, "boom", exec.Function)
	assert.Equal(t, ErrUnreachable, errors.Cause(err))
}

// TestMachine_RunErrors tests bad entry points.
func TestMachine_RunErrors(t *testing.T) {
	m := load(t, sumLoop)

	_, err := m.Run("main")
	require.Error(t, err)
	assert.Equal(t, "entry function @main not found", err.Error())

	_, err = m.Run("sum")
	require.Error(t, err)
	assert.Equal(t, "@sum takes 1 arguments, got 0", err.Error())
}

// TestWord tests word helpers.
func TestWord(t *testing.T) {
	assert.False(t, Int(3).IsPointer())
	assert.True(t, Word{Ptr: &Word{}}.IsPointer())
	assert.True(t, Int(1).Bool())
	assert.Equal(t, uint64(255), unsigned(ir.I8, -1))
	assert.Equal(t, uint64(1), unsigned(ir.I1, 1))

	m := New(ir.NewModule(""))
	_, err := m.String(Int(1))
	assert.Error(t, err)
}
