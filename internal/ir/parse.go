package ir

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// ParseFile reads and parses the textual IR file at path.
func ParseFile(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(path, src)
}

// Parse parses textual IR. name is only used in error positions.
//
// Parsing is two-phase: the first phase creates every global, function,
// block and instruction in textual order (which fixes their handles), the
// second resolves operand references. Forward references to blocks, values
// and functions are therefore allowed anywhere in the module.
//
// Errors are *ParseError values carrying the position of the offending token.
func Parse(name string, src []byte) (*Module, error) {
	toks, err := newLexer(name, src).tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{file: name, toks: toks, mod: NewModule("")}
	if err := p.module(); err != nil {
		return nil, err
	}
	for _, pf := range p.funcs {
		if err := p.resolveFunction(pf); err != nil {
			return nil, err
		}
	}
	return p.mod, nil
}

// operandRef is an operand as written, resolved after the whole module has
// been read. val is set for operands the parser synthesises itself.
type operandRef struct {
	typ Type
	tok token
	val Value
}

type pendingInst struct {
	inst     *Instruction
	ops      []operandRef
	incoming []token
}

type pendingFunc struct {
	fn     *Function
	locals map[string]Value
	insts  []*pendingInst
}

type parser struct {
	file  string
	toks  []token
	pos   int
	mod   *Module
	funcs []*pendingFunc
}

func (p *parser) peek() token { return p.peekAt(0) }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) isPunct(s string) bool {
	tok := p.peek()
	return tok.kind == tokPunct && tok.text == s
}

func (p *parser) isIdent(s string) bool {
	tok := p.peek()
	return tok.kind == tokIdent && tok.text == s
}

func (p *parser) errorf(tok token, format string, args ...interface{}) *ParseError {
	return newParseError(p.file, tok, format, args...)
}

func (p *parser) expectPunct(s string) error {
	tok := p.next()
	if tok.kind != tokPunct || tok.text != s {
		return p.errorf(tok, "expected %q, found %s", s, tok)
	}
	return nil
}

func (p *parser) expectIdent(s string) error {
	tok := p.next()
	if tok.kind != tokIdent || tok.text != s {
		return p.errorf(tok, "expected %q, found %s", s, tok)
	}
	return nil
}

func (p *parser) expectKind(kind tokenKind, what string) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.errorf(tok, "expected %s, found %s", what, tok)
	}
	return tok, nil
}

func (p *parser) module() error {
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokEOF:
			return nil
		case tok.kind == tokIdent && tok.text == "source_filename":
			s, err := p.directive()
			if err != nil {
				return err
			}
			p.mod.Name = s
		case tok.kind == tokIdent && tok.text == "irgraph_version":
			s, err := p.directive()
			if err != nil {
				return err
			}
			if err := checkVersion(s); err != nil {
				return p.errorf(tok, "%v", err).
					withSuggestion("regenerate the file with irgraph " + FormatVersion + " or drop the directive")
			}
			p.mod.Version = s
		case tok.kind == tokGlobal:
			if err := p.global(); err != nil {
				return err
			}
		case tok.kind == tokIdent && (tok.text == "declare" || tok.text == "define"):
			if err := p.function(); err != nil {
				return err
			}
		default:
			return p.errorf(tok, "unexpected %s at top level", tok)
		}
	}
}

// checkVersion accepts any valid semantic version with the same major
// version as FormatVersion that is not newer than it.
func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return errors.Errorf("invalid irgraph_version %q", v)
	}
	if semver.Major(v) != semver.Major(FormatVersion) {
		return errors.Errorf("unsupported irgraph_version %s (want %s.x)", v, semver.Major(FormatVersion))
	}
	if semver.Compare(v, FormatVersion) > 0 {
		return errors.Errorf("irgraph_version %s is newer than supported %s", v, FormatVersion)
	}
	return nil
}

func (p *parser) directive() (string, error) {
	p.next()
	if err := p.expectPunct("="); err != nil {
		return "", err
	}
	tok, err := p.expectKind(tokString, "string literal")
	return tok.text, err
}

func (p *parser) global() error {
	nameTok := p.next()
	if p.mod.nameTaken(nameTok.text) {
		return p.errorf(nameTok, "redefinition of @%s", nameTok.text)
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}

	g := &Global{Linkage: LinkageExternal}
	for p.peek().kind == tokIdent {
		word := p.peek().text
		switch word {
		case "internal":
			g.Linkage = LinkageInternal
		case "private":
			g.Linkage = LinkagePrivate
		case "external":
			g.Linkage = LinkageExternal
		case "unnamed_addr", "dso_local":
		case "global", "constant":
			g.Constant = word == "constant"
		default:
			return p.errorf(p.peek(), "unexpected %s in global definition", p.peek())
		}
		p.next()
		if word == "global" || word == "constant" {
			break
		}
	}

	elem, err := p.typ()
	if err != nil {
		return err
	}
	g.Elem = elem

	tok := p.peek()
	switch {
	case elem.Kind == TypeArray:
		if tok.kind != tokCString {
			return p.errorf(tok, "expected c\"...\" initializer for %s, found %s", elem, tok)
		}
		p.next()
		if len(tok.text) != elem.Len {
			return p.errorf(tok, "initializer has %d bytes, type %s wants %d", len(tok.text), elem, elem.Len)
		}
		g.Bytes = []byte(tok.text)
	case tok.kind == tokInt:
		p.next()
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return p.errorf(tok, "bad integer %s", tok.text)
		}
		g.Init = elem.Truncate(v)
	case tok.kind == tokIdent && (tok.text == "true" || tok.text == "false"):
		p.next()
		if tok.text == "true" {
			g.Init = 1
		}
	default:
		g.Extern = true
	}
	p.mod.addGlobal(nameTok.text, g)
	return nil
}

func (p *parser) typ() (Type, error) {
	tok := p.next()
	var t Type
	switch {
	case tok.kind == tokPunct && tok.text == "[":
		n, err := p.expectKind(tokInt, "array length")
		if err != nil {
			return t, err
		}
		length, convErr := strconv.Atoi(n.text)
		if convErr != nil || length < 0 {
			return t, p.errorf(n, "bad array length %s", n.text)
		}
		if err := p.expectIdent("x"); err != nil {
			return t, err
		}
		if err := p.expectIdent("i8"); err != nil {
			return t, err
		}
		if err := p.expectPunct("]"); err != nil {
			return t, err
		}
		t = ByteArray(length)
	case tok.kind == tokIdent:
		switch tok.text {
		case "void":
			t = Void
		case "i1":
			t = I1
		case "i8":
			t = I8
		case "i32":
			t = I32
		case "i64":
			t = I64
		case "ptr":
			t = Ptr
		case "label":
			t = Label
		default:
			return t, p.errorf(tok, "unknown type %s", tok.text)
		}
	default:
		return t, p.errorf(tok, "expected a type, found %s", tok)
	}
	// Typed pointers (i8*, i64**) from older IR all collapse to ptr.
	for p.isPunct("*") {
		p.next()
		t = Ptr
	}
	return t, nil
}

func isNumbered(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isDigit(name[i]) {
			return false
		}
	}
	return true
}

// localName maps a written local name to the stored one: numbered values
// are unnamed and get their number back from slot assignment.
func localName(written string) string {
	if isNumbered(written) {
		return ""
	}
	return written
}

func (p *parser) function() error {
	kw := p.next()
	ret, err := p.typ()
	if err != nil {
		return err
	}
	nameTok, err := p.expectKind(tokGlobal, "function name")
	if err != nil {
		return err
	}
	if p.mod.nameTaken(nameTok.text) {
		return p.errorf(nameTok, "redefinition of @%s", nameTok.text)
	}
	if err := p.expectPunct("("); err != nil {
		return err
	}

	locals := make(map[string]Value)
	var params []*Param
	for !p.isPunct(")") {
		if len(params) > 0 {
			if err := p.expectPunct(","); err != nil {
				return err
			}
		}
		t, err := p.typ()
		if err != nil {
			return err
		}
		param := NewParam("", t)
		if tok := p.peek(); tok.kind == tokLocal {
			p.next()
			if _, dup := locals[tok.text]; dup {
				return p.errorf(tok, "redefinition of %%%s", tok.text)
			}
			param.setName(localName(tok.text))
			locals[tok.text] = param
		}
		params = append(params, param)
	}
	p.next()

	fn := p.mod.NewFunction(nameTok.text, ret, params...)
	// Unnamed parameters written without a name are still reachable by slot.
	slot := 0
	for _, param := range params {
		if param.name == "" {
			if _, ok := locals[strconv.Itoa(slot)]; !ok {
				locals[strconv.Itoa(slot)] = param
			}
			slot++
		}
	}

	if kw.text == "declare" {
		return nil
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	return p.body(&pendingFunc{fn: fn, locals: locals}, slot)
}

func (p *parser) body(pf *pendingFunc, firstSlot int) error {
	var cur *Block
	for {
		tok := p.peek()
		if tok.kind == tokEOF {
			return p.errorf(tok, "unterminated body of @%s", pf.fn.name).
				withSuggestion("close the function with '}'")
		}
		if tok.kind == tokPunct && tok.text == "}" {
			p.next()
			break
		}

		// Block label.
		if (tok.kind == tokIdent || tok.kind == tokInt) && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == ":" {
			p.next()
			p.next()
			if _, dup := pf.locals[tok.text]; dup {
				return p.errorf(tok, "redefinition of %%%s", tok.text)
			}
			cur = pf.fn.NewBlock(localName(tok.text))
			pf.locals[tok.text] = cur
			continue
		}
		if cur == nil {
			cur = pf.fn.NewBlock("")
			pf.locals[strconv.Itoa(firstSlot)] = cur
		}

		var result token
		named := false
		if tok.kind == tokLocal && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == "=" {
			result = p.next()
			p.next()
			named = true
		}
		pi, err := p.instruction()
		if err != nil {
			return err
		}
		if named {
			if pi.inst.typ == Void {
				return p.errorf(result, "cannot assign the void result of %s to %%%s", pi.inst.Op, result.text)
			}
			if _, dup := pf.locals[result.text]; dup {
				return p.errorf(result, "redefinition of %%%s", result.text)
			}
			pi.inst.SetName(localName(result.text))
			pf.locals[result.text] = pi.inst
		}
		cur.Append(pi.inst)
		pf.insts = append(pf.insts, pi)
	}
	if len(pf.fn.Blocks) == 0 {
		// "define ... { }" is a definition without blocks; keep it a body.
		pf.fn.NewBlock("")
	}
	p.funcs = append(p.funcs, pf)
	return nil
}

func (p *parser) operand(t Type) (operandRef, error) {
	tok := p.next()
	switch {
	case tok.kind == tokLocal, tok.kind == tokGlobal, tok.kind == tokInt:
	case tok.kind == tokIdent && (tok.text == "true" || tok.text == "false"):
	default:
		return operandRef{}, p.errorf(tok, "expected an operand, found %s", tok)
	}
	return operandRef{typ: t, tok: tok}, nil
}

func (p *parser) typedOperand() (operandRef, error) {
	t, err := p.typ()
	if err != nil {
		return operandRef{}, err
	}
	return p.operand(t)
}

func (p *parser) labelOperand() (operandRef, error) {
	if err := p.expectIdent("label"); err != nil {
		return operandRef{}, err
	}
	tok, err := p.expectKind(tokLocal, "block label")
	return operandRef{typ: Label, tok: tok}, err
}

func (p *parser) skipAlign() error {
	for p.isPunct(",") && p.peekAt(1).kind == tokIdent && p.peekAt(1).text == "align" {
		p.next()
		p.next()
		if _, err := p.expectKind(tokInt, "alignment"); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) skipFlags(flags ...string) {
	for {
		tok := p.peek()
		if tok.kind != tokIdent {
			return
		}
		found := false
		for _, f := range flags {
			if tok.text == f {
				found = true
			}
		}
		if !found {
			return
		}
		p.next()
	}
}

func (p *parser) instruction() (*pendingInst, error) {
	p.skipFlags("tail", "musttail", "notail")
	opTok, err := p.expectKind(tokIdent, "instruction")
	if err != nil {
		return nil, err
	}
	op, ok := LookupOpcode(opTok.text)
	if !ok {
		return nil, p.errorf(opTok, "unknown instruction %q", opTok.text)
	}

	pi := &pendingInst{}
	var inst *Instruction
	switch {
	case op.IsBinary():
		p.skipFlags("nuw", "nsw", "exact")
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		lhs, err := p.operand(t)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		rhs, err := p.operand(t)
		if err != nil {
			return nil, err
		}
		inst = NewInstruction(op, t)
		pi.ops = []operandRef{lhs, rhs}

	case op == OpICmp:
		predTok, err := p.expectKind(tokIdent, "icmp predicate")
		if err != nil {
			return nil, err
		}
		pred, ok := LookupPredicate(predTok.text)
		if !ok {
			return nil, p.errorf(predTok, "unknown icmp predicate %q", predTok.text)
		}
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		lhs, err := p.operand(t)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		rhs, err := p.operand(t)
		if err != nil {
			return nil, err
		}
		inst = NewInstruction(op, I1)
		inst.Pred = pred
		pi.ops = []operandRef{lhs, rhs}

	case op == OpSelect:
		ops := make([]operandRef, 3)
		for n := range ops {
			if n > 0 {
				if err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			if ops[n], err = p.typedOperand(); err != nil {
				return nil, err
			}
		}
		inst = NewInstruction(op, ops[1].typ)
		pi.ops = ops

	case op.IsCast():
		v, err := p.typedOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expectIdent("to"); err != nil {
			return nil, err
		}
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		inst = NewInstruction(op, t)
		pi.ops = []operandRef{v}

	case op == OpAlloca:
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		if err := p.skipAlign(); err != nil {
			return nil, err
		}
		inst = NewAlloca(t)
		pi.ops = []operandRef{{val: inst.Operands[0]}}

	case op == OpLoad:
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		ptr, err := p.typedOperand()
		if err != nil {
			return nil, err
		}
		if err := p.skipAlign(); err != nil {
			return nil, err
		}
		inst = NewInstruction(op, t)
		pi.ops = []operandRef{ptr}

	case op == OpStore:
		v, err := p.typedOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		ptr, err := p.typedOperand()
		if err != nil {
			return nil, err
		}
		if err := p.skipAlign(); err != nil {
			return nil, err
		}
		inst = NewInstruction(op, Void)
		pi.ops = []operandRef{v, ptr}

	case op == OpBr:
		inst = NewInstruction(op, Void)
		if p.isIdent("label") {
			dest, err := p.labelOperand()
			if err != nil {
				return nil, err
			}
			pi.ops = []operandRef{dest}
			break
		}
		cond, err := p.typedOperand()
		if err != nil {
			return nil, err
		}
		pi.ops = []operandRef{cond}
		for n := 0; n < 2; n++ {
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
			dest, err := p.labelOperand()
			if err != nil {
				return nil, err
			}
			pi.ops = append(pi.ops, dest)
		}

	case op == OpRet:
		inst = NewInstruction(op, Void)
		if p.isIdent("void") {
			p.next()
			break
		}
		v, err := p.typedOperand()
		if err != nil {
			return nil, err
		}
		pi.ops = []operandRef{v}

	case op == OpCall:
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		calleeTok := p.next()
		if calleeTok.kind != tokGlobal && calleeTok.kind != tokLocal {
			return nil, p.errorf(calleeTok, "expected a callee, found %s", calleeTok)
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		for !p.isPunct(")") {
			if len(pi.ops) > 0 {
				if err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			arg, err := p.typedOperand()
			if err != nil {
				return nil, err
			}
			pi.ops = append(pi.ops, arg)
		}
		p.next()
		pi.ops = append(pi.ops, operandRef{typ: Ptr, tok: calleeTok})
		inst = NewInstruction(op, t)

	case op == OpPhi:
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		for {
			if err := p.expectPunct("["); err != nil {
				return nil, err
			}
			v, err := p.operand(t)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
			from, err := p.expectKind(tokLocal, "predecessor block")
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			pi.ops = append(pi.ops, v)
			pi.incoming = append(pi.incoming, from)
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
		inst = NewInstruction(op, t)

	case op == OpLandingPad:
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		cleanup := p.isIdent("cleanup")
		if cleanup {
			p.next()
		}
		inst = NewLandingPad(t, cleanup)

	case op == OpUnreachable:
		inst = NewInstruction(op, Void)
	}

	inst.Operands = make([]Value, len(pi.ops))
	if len(pi.incoming) > 0 {
		inst.Incoming = make([]*Block, len(pi.incoming))
	}
	pi.inst = inst
	return pi, nil
}

func (p *parser) resolveFunction(pf *pendingFunc) error {
	for _, pi := range pf.insts {
		for n, ref := range pi.ops {
			v, err := p.resolve(pf, ref)
			if err != nil {
				return err
			}
			pi.inst.Operands[n] = v
		}
		for n, tok := range pi.incoming {
			b, ok := pf.locals[tok.text].(*Block)
			if !ok {
				return p.errorf(tok, "%%%s is not a block in @%s", tok.text, pf.fn.name)
			}
			pi.inst.Incoming[n] = b
		}
	}
	return nil
}

func (p *parser) resolve(pf *pendingFunc, ref operandRef) (Value, error) {
	if ref.val != nil {
		return ref.val, nil
	}
	tok := ref.tok
	switch tok.kind {
	case tokLocal:
		v, ok := pf.locals[tok.text]
		if !ok {
			return nil, p.errorf(tok, "undefined value %%%s in @%s", tok.text, pf.fn.name).
				withSuggestion("define %" + tok.text + " somewhere in the function body")
		}
		if _, isBlock := v.(*Block); isBlock != (ref.typ == Label) {
			return nil, p.errorf(tok, "%%%s used as %s", tok.text, ref.typ)
		}
		return v, nil
	case tokGlobal:
		if g := p.mod.NamedGlobal(tok.text); g != nil {
			return g, nil
		}
		if f := p.mod.Function(tok.text); f != nil {
			return f, nil
		}
		return nil, p.errorf(tok, "undefined global @%s", tok.text).
			withSuggestion("declare it, e.g. `declare void @" + tok.text + "()`")
	case tokInt:
		if !ref.typ.IsInteger() {
			return nil, p.errorf(tok, "integer constant %s used as %s", tok.text, ref.typ)
		}
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "bad integer %s", tok.text)
		}
		return ConstInt(ref.typ, v), nil
	default:
		if tok.text == "true" {
			return ConstInt(I1, 1), nil
		}
		return ConstInt(I1, 0), nil
	}
}
