package value

import "fmt"

// Op is a query comparison operator.
type Op int

const (
	OpLt Op = iota
	OpGt
	OpLe
	OpGe
	OpEq
	OpNeq
)

var opSymbols = [...]string{
	OpLt:  "#<",
	OpGt:  "#>",
	OpLe:  "#<=",
	OpGe:  "#>=",
	OpEq:  "#=",
	OpNeq: "#!=",
}

// String returns the operator symbol (e.g. "#<=").
func (op Op) String() string {
	if op >= 0 && int(op) < len(opSymbols) {
		return opSymbols[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// ParseOp maps an operator symbol to its Op. Both the query form ("#<")
// and the bare form ("<") are accepted, plus "==" for equality.
func ParseOp(symbol string) (Op, error) {
	switch symbol {
	case "#<", "<":
		return OpLt, nil
	case "#>", ">":
		return OpGt, nil
	case "#<=", "<=":
		return OpLe, nil
	case "#>=", ">=":
		return OpGe, nil
	case "#=", "=", "==":
		return OpEq, nil
	case "#!=", "!=":
		return OpNeq, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator %q", symbol)
	}
}

// QueryCompare evaluates a query comparison.
//
// Equality operators compare full values. Any NaN operand makes both #= and
// #!= false. Ordering operators are satisfied only when both operands share
// a type category; otherwise the comparison is unorderable and yields false.
func QueryCompare(op Op, a, b Value) bool {
	switch op {
	case OpEq, OpNeq:
		if TypeOf(a) == TypeNaN || TypeOf(b) == TypeNaN {
			return false
		}
		eq := Equal(a, b)
		if op == OpEq {
			return eq
		}
		return !eq
	}

	if !Orderable(a, b) {
		return false
	}
	c := compareSameType(a, b)
	switch op {
	case OpLt:
		return c < 0
	case OpGt:
		return c > 0
	case OpLe:
		return c <= 0
	case OpGe:
		return c >= 0
	default:
		return false
	}
}

// Orderable reports whether a and b can be ordered by a query operator.
func Orderable(a, b Value) bool {
	return TypeOf(a) == TypeOf(b)
}
