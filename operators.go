package asserts

import (
	"fmt"
	"go/token"
	"reflect"
	"strings"
)

// opSymbols maps operator kinds to the textual symbol scanned for when
// locating an operator inside the expression text.
var opSymbols = map[token.Token]string{
	// boolean ops
	token.LAND: "&&",
	token.LOR:  "||",
	// binary ops
	token.ADD:     "+",
	token.SUB:     "-",
	token.MUL:     "*",
	token.QUO:     "/",
	token.REM:     "%",
	token.AND:     "&",
	token.OR:      "|",
	token.XOR:     "^",
	token.SHL:     "<<",
	token.SHR:     ">>",
	token.AND_NOT: "&^",
	// compare ops
	token.EQL: "==",
	token.NEQ: "!=",
	token.LSS: "<",
	token.LEQ: "<=",
	token.GTR: ">",
	token.GEQ: ">=",
	// unary ops
	token.NOT: "!",
}

func isComparison(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	}
	return false
}

// findOperator locates the operator symbol right before the given position
// of its right-hand operand. The expression text is sliced up to the operand
// (trailing opening brackets stripped from the last line) and scanned in
// reverse for the last occurrence of the symbol. Returns (1, -1) when the
// symbol is not found, which renders at the line's natural indentation.
func findOperator(lines []string, op token.Token, line, col int) (int, int) {
	sym, ok := opSymbols[op]
	if !ok || line < 1 {
		return 1, -1
	}
	if line > len(lines) {
		line = len(lines)
	}

	expression := append([]string(nil), lines[:line]...)
	last := expression[line-1]
	if col+1 < len(last) {
		last = last[:col+1]
	}
	expression[line-1] = strings.TrimRight(last, "([{")

	for i := len(expression); i >= 1; i-- {
		if idx := strings.LastIndex(expression[i-1], sym); idx >= 0 {
			return i, idx
		}
	}
	return 1, -1
}

// compareOp evaluates a single pairwise comparison.
func compareOp(op token.Token, left, right any) (bool, error) {
	switch op {
	case token.EQL:
		return deepEqual(left, right), nil
	case token.NEQ:
		return !deepEqual(left, right), nil
	case token.LSS:
		return orderedLess(left, right)
	case token.GTR:
		return orderedLess(right, left)
	case token.LEQ:
		gt, err := orderedLess(right, left)
		return !gt, err
	case token.GEQ:
		lt, err := orderedLess(left, right)
		return !lt, err
	default:
		return false, fmt.Errorf("unknown comparison operator %q", op)
	}
}

// booleanOp mirrors the value-returning semantics of boolean operators:
// the result is one of the operands, chosen by the left operand's truth.
// Both operands are always evaluated by the caller.
func booleanOp(op token.Token, left, right any) (any, error) {
	switch op {
	case token.LAND:
		if truthy(left) {
			return right, nil
		}
		return left, nil
	case token.LOR:
		if truthy(left) {
			return left, nil
		}
		return right, nil
	default:
		return nil, fmt.Errorf("unknown boolean operator %q", op)
	}
}

// binaryOp evaluates an arithmetic/bitwise operator with numeric promotion:
// integer kinds stay integral, mixed integer/float promotes to float64, and
// + concatenates strings.
func binaryOp(op token.Token, left, right any) (any, error) {
	lv := unwrapValue(reflect.ValueOf(left))
	rv := unwrapValue(reflect.ValueOf(right))

	if op == token.ADD && lv.IsValid() && rv.IsValid() &&
		lv.Kind() == reflect.String && rv.Kind() == reflect.String {
		return lv.String() + rv.String(), nil
	}

	li, lInt := intValue(lv)
	ri, rInt := intValue(rv)
	if lInt && rInt {
		return intBinaryOp(op, li, ri)
	}

	lf, lNum := floatValue(lv)
	rf, rNum := floatValue(rv)
	if lNum && rNum {
		return floatBinaryOp(op, lf, rf)
	}

	return nil, fmt.Errorf("operator %q not supported between %T and %T", op, left, right)
}

func intBinaryOp(op token.Token, a, b int64) (any, error) {
	switch op {
	case token.ADD:
		return a + b, nil
	case token.SUB:
		return a - b, nil
	case token.MUL:
		return a * b, nil
	case token.QUO:
		if b == 0 {
			return nil, fmt.Errorf("integer division by zero")
		}
		return a / b, nil
	case token.REM:
		if b == 0 {
			return nil, fmt.Errorf("integer division by zero")
		}
		return a % b, nil
	case token.AND:
		return a & b, nil
	case token.OR:
		return a | b, nil
	case token.XOR:
		return a ^ b, nil
	case token.AND_NOT:
		return a &^ b, nil
	case token.SHL:
		if b < 0 {
			return nil, fmt.Errorf("negative shift amount")
		}
		return a << uint(b), nil
	case token.SHR:
		if b < 0 {
			return nil, fmt.Errorf("negative shift amount")
		}
		return a >> uint(b), nil
	default:
		return nil, fmt.Errorf("unknown binary operator %q", op)
	}
}

func floatBinaryOp(op token.Token, a, b float64) (any, error) {
	switch op {
	case token.ADD:
		return a + b, nil
	case token.SUB:
		return a - b, nil
	case token.MUL:
		return a * b, nil
	case token.QUO:
		return a / b, nil
	default:
		return nil, fmt.Errorf("operator %q not supported on floats", op)
	}
}

// unaryOp evaluates a prefix operator.
func unaryOp(op token.Token, operand any) (any, error) {
	switch op {
	case token.NOT:
		return !truthy(operand), nil
	case token.SUB, token.ADD, token.XOR:
		v := unwrapValue(reflect.ValueOf(operand))
		if i, ok := intValue(v); ok {
			switch op {
			case token.SUB:
				return -i, nil
			case token.ADD:
				return i, nil
			default:
				return ^i, nil
			}
		}
		if f, ok := floatValue(v); ok && op != token.XOR {
			if op == token.SUB {
				return -f, nil
			}
			return f, nil
		}
		return nil, fmt.Errorf("operator %q not supported on %T", op, operand)
	default:
		return nil, fmt.Errorf("unknown unary operator %q", op)
	}
}

func intValue(v reflect.Value) (int64, bool) {
	if !v.IsValid() {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(v.Uint()), true
	default:
		return 0, false
	}
}
