package asserts

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
	"strconv"

	"github.com/inoxlang/asserts/internal/sourcecode"
	"github.com/inoxlang/asserts/internal/utils"
)

var errNotFromAssert = errors.New("not called from an assert statement")

// record is one evaluation record: a sub-expression's value and its
// position relative to the expression text (1-based line, 0-based column,
// -1 column meaning "align to the line's indentation").
type record struct {
	value any
	line  int
	col   int
}

// assertEval re-evaluates the assertion expression against the caller's
// bindings and records the value of every non-trivial sub-expression.
// Insertion order of records is significant: it is the rendering order.
type assertEval struct {
	scope   *scope
	stmt    *sourcecode.Statement
	records []record

	// noRecord suppresses recording while a node is evaluated as a single
	// opaque unit (index/slice/deref expressions).
	noRecord int
}

// evalAssertion finds the Assert call inside the located statement and
// re-evaluates its first argument. Panics raised by re-evaluated code are
// recovered and returned as errors.
func evalAssertion(st *sourcecode.Statement, sc *scope) (result bool, records []record, err error) {
	e := &assertEval{scope: sc, stmt: st}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("assertion replay: %w", utils.ConvertPanicValueToError(r))
		}
	}()

	call := findAssertCall(st.Stmts)
	if call == nil {
		return false, nil, errNotFromAssert
	}

	v, err := e.eval(call.Args[0])
	if err != nil {
		return false, nil, err
	}

	result = truthy(v)
	e.record(result, call)
	return result, e.records, nil
}

// findAssertCall returns the first call to Assert (possibly behind a
// selector) carrying at least one argument.
func findAssertCall(stmts []ast.Stmt) *ast.CallExpr {
	var found *ast.CallExpr
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			if found != nil {
				return false
			}
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) == 0 {
				return true
			}
			switch fun := call.Fun.(type) {
			case *ast.Ident:
				if fun.Name == "Assert" {
					found = call
				}
			case *ast.SelectorExpr:
				if fun.Sel.Name == "Assert" {
					found = call
				}
			}
			return found == nil
		})
		if found != nil {
			break
		}
	}
	return found
}

func (e *assertEval) pos(n ast.Node) (int, int) {
	return e.stmt.Position(n)
}

func (e *assertEval) record(v any, n ast.Node) {
	if e.noRecord > 0 {
		return
	}
	line, col := e.pos(n)
	e.records = append(e.records, record{value: v, line: line, col: col})
}

func (e *assertEval) recordAt(v any, line, col int) {
	if e.noRecord > 0 {
		return
	}
	e.records = append(e.records, record{value: v, line: line, col: col})
}

// recordOperand records an operand value unless the operand is trivial
// (a literal or name constant) or a compound kind that records itself.
func (e *assertEval) recordOperand(v any, n ast.Expr) {
	if !isSimple(n) {
		e.record(v, unparen(n))
	}
}

// isSimple reports whether a node is skipped when recording operands:
// bare literals and name constants would only repeat the source text, and
// the listed compound kinds append their own records.
func isSimple(n ast.Expr) bool {
	switch x := unparen(n).(type) {
	case *ast.BasicLit:
		return true
	case *ast.Ident:
		return x.Name == "true" || x.Name == "false" || x.Name == "nil"
	case *ast.BinaryExpr, *ast.UnaryExpr, *ast.CallExpr, *ast.SelectorExpr, *ast.CompositeLit:
		return true
	}
	return false
}

func unparen(n ast.Expr) ast.Expr {
	for {
		p, ok := n.(*ast.ParenExpr)
		if !ok {
			return n
		}
		n = p.X
	}
}

func (e *assertEval) eval(node ast.Expr) (any, error) {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return e.eval(n.X)
	case *ast.BasicLit:
		return litValue(n)
	case *ast.Ident:
		return e.evalIdent(n)
	case *ast.BinaryExpr:
		switch {
		case n.Op == token.LAND || n.Op == token.LOR:
			return e.evalBool(n)
		case isComparison(n.Op):
			return e.evalCompare(n)
		default:
			return e.evalBinary(n)
		}
	case *ast.UnaryExpr:
		return e.evalUnary(n)
	case *ast.SelectorExpr:
		return e.evalSelector(n)
	case *ast.CallExpr:
		return e.evalCall(n)
	case *ast.CompositeLit:
		return e.evalComposite(n)
	case *ast.IndexExpr, *ast.SliceExpr, *ast.StarExpr:
		return e.evalOpaque(node)
	default:
		return nil, fmt.Errorf("unsupported expression kind %T", node)
	}
}

func (e *assertEval) evalIdent(n *ast.Ident) (any, error) {
	switch n.Name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "nil":
		return nil, nil
	}
	v, ok := e.scope.lookup(n.Name)
	if !ok {
		return nil, fmt.Errorf("name %q is not defined", n.Name)
	}
	return v, nil
}

// evalBool evaluates a boolean operator. Both operands are evaluated
// eagerly, never short-circuited, so that every operand's value can be
// recorded.
func (e *assertEval) evalBool(n *ast.BinaryExpr) (any, error) {
	left, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	e.recordOperand(left, n.X)

	right, err := e.eval(n.Y)
	if err != nil {
		return nil, err
	}
	e.recordOperand(right, n.Y)

	result, err := booleanOp(n.Op, left, right)
	if err != nil {
		return nil, err
	}

	rLine, rCol := e.pos(unparen(n.Y))
	oLine, oCol := findOperator(e.stmt.Lines, n.Op, rLine, rCol)
	e.recordAt(wrappedResult{result}, oLine, oCol)
	return result, nil
}

// evalCompare evaluates a comparison. A comparison whose left operand is
// itself a comparison is flattened into a chain (`a < b <= c`) evaluated
// pairwise and ANDed, each pair independently; this mirrors the recorded
// diagnostics semantics rather than Go's literal nesting, which would
// compare a boolean against the last operand.
func (e *assertEval) evalCompare(n *ast.BinaryExpr) (any, error) {
	exprs, ops := flattenComparison(n)

	left, err := e.eval(exprs[0])
	if err != nil {
		return nil, err
	}
	e.recordOperand(left, exprs[0])

	final := true
	for i, op := range ops {
		right, err := e.eval(exprs[i+1])
		if err != nil {
			return nil, err
		}

		pair, err := compareOp(op, left, right)
		if err != nil {
			return nil, err
		}

		e.recordOperand(right, exprs[i+1])

		rLine, rCol := e.pos(unparen(exprs[i+1]))
		oLine, oCol := findOperator(e.stmt.Lines, op, rLine, rCol)
		e.recordAt(wrappedResult{maybeDiff(op, pair, left, right)}, oLine, oCol)

		final = final && pair
		left = right
	}
	return final, nil
}

func flattenComparison(n *ast.BinaryExpr) (exprs []ast.Expr, ops []token.Token) {
	// Parenthesized left operands are deliberate groupings, not chains.
	if l, ok := n.X.(*ast.BinaryExpr); ok && isComparison(l.Op) {
		exprs, ops = flattenComparison(l)
	} else {
		exprs = []ast.Expr{n.X}
	}
	return append(exprs, n.Y), append(ops, n.Op)
}

func (e *assertEval) evalBinary(n *ast.BinaryExpr) (any, error) {
	left, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	e.recordOperand(left, n.X)

	right, err := e.eval(n.Y)
	if err != nil {
		return nil, err
	}
	e.recordOperand(right, n.Y)

	result, err := binaryOp(n.Op, left, right)
	if err != nil {
		return nil, err
	}

	rLine, rCol := e.pos(unparen(n.Y))
	oLine, oCol := findOperator(e.stmt.Lines, n.Op, rLine, rCol)
	e.recordAt(wrappedResult{result}, oLine, oCol)
	return result, nil
}

func (e *assertEval) evalUnary(n *ast.UnaryExpr) (any, error) {
	if n.Op == token.AND {
		return nil, fmt.Errorf("cannot take the address of an expression during replay")
	}

	operand, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	e.recordOperand(operand, n.X)

	result, err := unaryOp(n.Op, operand)
	if err != nil {
		return nil, err
	}

	// The node position is the prefix operator's own position.
	e.record(wrappedResult{result}, n)
	return result, nil
}

// evalSelector records the base value, then the resolved field or method
// value as a wrapped result.
func (e *assertEval) evalSelector(n *ast.SelectorExpr) (any, error) {
	base, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	e.record(base, n)

	result, err := getAttr(base, n.Sel.Name)
	if err != nil {
		return nil, err
	}
	e.record(wrappedResult{result}, n)
	return result, nil
}

func getAttr(base any, name string) (any, error) {
	if base == nil {
		return nil, fmt.Errorf("nil has no field or method %q", name)
	}

	rv := reflect.ValueOf(base)
	if m := rv.MethodByName(name); m.IsValid() {
		return m.Interface(), nil
	}

	dv := rv
	for dv.Kind() == reflect.Pointer {
		if dv.IsNil() {
			return nil, fmt.Errorf("nil pointer has no field %q", name)
		}
		dv = dv.Elem()
	}
	if dv.Kind() == reflect.Struct {
		if f := dv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	return nil, fmt.Errorf("type %T has no field or method %q", base, name)
}

// evalCall resolves the callee by name through the scope chain. A callee
// that is a value capture cell bypasses normal evaluation and pops the next
// captured value instead. Otherwise arguments are evaluated in order (with
// support for a trailing `xs...` spread), non-trivial argument values are
// recorded, and the call result is recorded as a wrapped result.
func (e *assertEval) evalCall(n *ast.CallExpr) (any, error) {
	if cell := e.cellCallee(n.Fun); cell != nil {
		result := cell.pop()
		e.record(wrappedResult{result}, n)
		return result, nil
	}

	var fn any
	switch f := unparen(n.Fun).(type) {
	case *ast.Ident:
		v, ok := e.scope.lookup(f.Name)
		if !ok {
			return nil, fmt.Errorf("function %q is not defined", f.Name)
		}
		fn = v
	default:
		v, err := e.eval(n.Fun)
		if err != nil {
			return nil, err
		}
		fn = v
	}

	rf := unwrapFunc(fn)
	if !rf.IsValid() {
		return nil, fmt.Errorf("%s is not callable", safeRepr(fn))
	}

	args := make([]any, 0, len(n.Args))
	for _, arg := range n.Args {
		v, err := e.eval(arg)
		if err != nil {
			return nil, err
		}
		e.recordOperand(v, arg)
		args = append(args, v)
	}

	result, err := callFunc(rf, args, n.Ellipsis.IsValid())
	if err != nil {
		return nil, err
	}
	e.record(wrappedResult{result}, n)
	return result, nil
}

func (e *assertEval) cellCallee(fun ast.Expr) *Values {
	var name string
	switch f := unparen(fun).(type) {
	case *ast.Ident:
		name = f.Name
	case *ast.SelectorExpr:
		id, ok := unparen(f.X).(*ast.Ident)
		if !ok {
			return nil
		}
		name = id.Name
	default:
		return nil
	}

	v, ok := e.scope.lookup(name)
	if !ok {
		return nil
	}
	cell, _ := v.(*Values)
	return cell
}

func unwrapFunc(fn any) reflect.Value {
	rv := reflect.ValueOf(fn)
	if rv.IsValid() && rv.Kind() == reflect.Func {
		return rv
	}
	return reflect.Value{}
}

func callFunc(rf reflect.Value, args []any, spread bool) (any, error) {
	t := rf.Type()

	vals := args
	if spread {
		if len(vals) == 0 {
			return nil, fmt.Errorf("nothing to spread")
		}
		last := unwrapValue(reflect.ValueOf(vals[len(vals)-1]))
		if !last.IsValid() || !isSequenceKind(last.Kind()) {
			return nil, fmt.Errorf("cannot spread a %T argument", args[len(args)-1])
		}
		vals = vals[:len(vals)-1]
		for i := 0; i < last.Len(); i++ {
			vals = append(vals, last.Index(i).Interface())
		}
	}

	if t.IsVariadic() {
		if len(vals) < t.NumIn()-1 {
			return nil, fmt.Errorf("not enough arguments (%d for at least %d)", len(vals), t.NumIn()-1)
		}
	} else if len(vals) != t.NumIn() {
		return nil, fmt.Errorf("wrong number of arguments (%d for %d)", len(vals), t.NumIn())
	}

	in := make([]reflect.Value, 0, len(vals))
	for i, a := range vals {
		var pt reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			pt = t.In(t.NumIn() - 1).Elem()
		} else {
			pt = t.In(i)
		}
		in = append(in, coerceTo(a, pt))
	}

	out := rf.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		results := make([]any, len(out))
		for i, o := range out {
			results[i] = o.Interface()
		}
		return results, nil
	}
}

// coerceTo adapts a dynamically evaluated value to a parameter or element
// type, converting across numeric kinds (literals evaluate as int64).
// Incompatible values are returned as-is and fail inside reflect, which the
// replay's panic recovery converts to an evaluation error.
func coerceTo(a any, pt reflect.Type) reflect.Value {
	if a == nil {
		return reflect.Zero(pt)
	}
	av := reflect.ValueOf(a)
	if av.Type().AssignableTo(pt) {
		return av
	}
	if isNumericKind(av.Kind()) && isNumericKind(pt.Kind()) {
		return av.Convert(pt)
	}
	if av.Kind() == reflect.Int32 && pt.Kind() == reflect.String {
		// rune literal to string parameter
		return av.Convert(pt)
	}
	return av
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// evalComposite evaluates a slice, array or map literal: elements, keys and
// values are evaluated in source order with non-trivial ones recorded, and
// the composed container is recorded as a wrapped result. Element types
// resolve when they name basic types; anything else composes dynamically.
func (e *assertEval) evalComposite(n *ast.CompositeLit) (any, error) {
	switch t := n.Type.(type) {
	case *ast.ArrayType:
		return e.evalSequenceLit(n, t)
	case *ast.MapType:
		return e.evalMapLit(n, t)
	default:
		return nil, fmt.Errorf("cannot evaluate a composite literal of kind %T", n.Type)
	}
}

func (e *assertEval) evalSequenceLit(n *ast.CompositeLit, t *ast.ArrayType) (any, error) {
	elemType, resolved := basicTypeFor(t.Elt)

	var typed reflect.Value
	if resolved {
		typed = reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(n.Elts))
	}
	dynamic := make([]any, 0, len(n.Elts))

	for _, elt := range n.Elts {
		if _, ok := elt.(*ast.KeyValueExpr); ok {
			return nil, fmt.Errorf("indexed elements in a sequence literal are not supported")
		}
		v, err := e.eval(elt)
		if err != nil {
			return nil, err
		}
		e.recordOperand(v, elt)
		if resolved {
			typed = reflect.Append(typed, coerceTo(v, elemType))
		} else {
			dynamic = append(dynamic, v)
		}
	}

	var result any
	if resolved {
		result = typed.Interface()
	} else {
		result = dynamic
	}
	e.record(wrappedResult{result}, n)
	return result, nil
}

func (e *assertEval) evalMapLit(n *ast.CompositeLit, t *ast.MapType) (any, error) {
	keyType, kResolved := basicTypeFor(t.Key)
	valType, vResolved := basicTypeFor(t.Value)
	resolved := kResolved && vResolved

	var typed reflect.Value
	if resolved {
		typed = reflect.MakeMapWithSize(reflect.MapOf(keyType, valType), len(n.Elts))
	}
	dynamic := make(map[any]any, len(n.Elts))

	for _, elt := range n.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			return nil, fmt.Errorf("map literal element is not a key-value pair")
		}
		k, err := e.eval(kv.Key)
		if err != nil {
			return nil, err
		}
		e.recordOperand(k, kv.Key)

		v, err := e.eval(kv.Value)
		if err != nil {
			return nil, err
		}
		e.recordOperand(v, kv.Value)

		if resolved {
			typed.SetMapIndex(coerceTo(k, keyType), coerceTo(v, valType))
		} else {
			dynamic[k] = v
		}
	}

	var result any
	if resolved {
		result = typed.Interface()
	} else {
		result = dynamic
	}
	e.record(wrappedResult{result}, n)
	return result, nil
}

// evalOpaque evaluates index, slice and deref expressions as single opaque
// units: their sub-expressions produce no evaluation records.
func (e *assertEval) evalOpaque(node ast.Expr) (any, error) {
	e.noRecord++
	defer func() { e.noRecord-- }()

	switch n := node.(type) {
	case *ast.IndexExpr:
		base, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		idx, err := e.eval(n.Index)
		if err != nil {
			return nil, err
		}
		return indexValue(base, idx)
	case *ast.SliceExpr:
		return e.evalSlice(n)
	case *ast.StarExpr:
		v, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return nil, fmt.Errorf("cannot dereference a %T value", v)
		}
		return rv.Elem().Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported expression kind %T", node)
	}
}

func (e *assertEval) evalSlice(n *ast.SliceExpr) (any, error) {
	base, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	rv := unwrapValue(reflect.ValueOf(base))
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.String) {
		return nil, fmt.Errorf("cannot slice a %T value", base)
	}

	low, high := 0, rv.Len()
	if n.Low != nil {
		v, err := e.eval(n.Low)
		if err != nil {
			return nil, err
		}
		if low, err = intIndex(v); err != nil {
			return nil, err
		}
	}
	if n.High != nil {
		v, err := e.eval(n.High)
		if err != nil {
			return nil, err
		}
		if high, err = intIndex(v); err != nil {
			return nil, err
		}
	}
	if low < 0 || high > rv.Len() || low > high {
		return nil, fmt.Errorf("slice bounds [%d:%d] out of range for length %d", low, high, rv.Len())
	}
	return rv.Slice(low, high).Interface(), nil
}

func indexValue(base, idx any) (any, error) {
	rv := unwrapValue(reflect.ValueOf(base))
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot index a nil value")
	}

	switch rv.Kind() {
	case reflect.Map:
		for _, key := range rv.MapKeys() {
			if deepEqual(key.Interface(), idx) {
				return rv.MapIndex(key).Interface(), nil
			}
		}
		return nil, fmt.Errorf("key %s not found", safeRepr(idx))
	case reflect.Slice, reflect.Array, reflect.String:
		i, err := intIndex(idx)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range for length %d", i, rv.Len())
		}
		if rv.Kind() == reflect.String {
			return rv.String()[i], nil
		}
		return rv.Index(i).Interface(), nil
	default:
		return nil, fmt.Errorf("cannot index a %T value", base)
	}
}

func intIndex(v any) (int, error) {
	if i, ok := intValue(unwrapValue(reflect.ValueOf(v))); ok {
		return int(i), nil
	}
	return 0, fmt.Errorf("%s is not a valid index", safeRepr(v))
}

func litValue(n *ast.BasicLit) (any, error) {
	switch n.Kind {
	case token.INT:
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i, nil
		}
		u, err := strconv.ParseUint(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %s", n.Value)
		}
		return u, nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %s", n.Value)
		}
		return f, nil
	case token.STRING:
		s, err := strconv.Unquote(n.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid string literal %s", n.Value)
		}
		return s, nil
	case token.CHAR:
		r, _, _, err := strconv.UnquoteChar(n.Value[1:len(n.Value)-1], '\'')
		if err != nil {
			return nil, fmt.Errorf("invalid rune literal %s", n.Value)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported literal kind %s", n.Kind)
	}
}

// basicTypeFor resolves type expressions naming basic types, slices or maps
// of them, and the empty interface.
func basicTypeFor(expr ast.Expr) (reflect.Type, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		rt, ok := basicTypes[t.Name]
		return rt, ok
	case *ast.ArrayType:
		if t.Len != nil {
			return nil, false
		}
		et, ok := basicTypeFor(t.Elt)
		if !ok {
			return nil, false
		}
		return reflect.SliceOf(et), true
	case *ast.MapType:
		kt, ok := basicTypeFor(t.Key)
		if !ok {
			return nil, false
		}
		vt, ok := basicTypeFor(t.Value)
		if !ok {
			return nil, false
		}
		return reflect.MapOf(kt, vt), true
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return anyType, true
		}
		return nil, false
	default:
		return nil, false
	}
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

var basicTypes = map[string]reflect.Type{
	"bool":    reflect.TypeOf(false),
	"string":  reflect.TypeOf(""),
	"int":     reflect.TypeOf(int(0)),
	"int8":    reflect.TypeOf(int8(0)),
	"int16":   reflect.TypeOf(int16(0)),
	"int32":   reflect.TypeOf(int32(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"uint":    reflect.TypeOf(uint(0)),
	"uint8":   reflect.TypeOf(uint8(0)),
	"uint16":  reflect.TypeOf(uint16(0)),
	"uint32":  reflect.TypeOf(uint32(0)),
	"uint64":  reflect.TypeOf(uint64(0)),
	"byte":    reflect.TypeOf(byte(0)),
	"rune":    reflect.TypeOf(rune(0)),
	"float32": reflect.TypeOf(float32(0)),
	"float64": reflect.TypeOf(float64(0)),
	"any":     anyType,
}
