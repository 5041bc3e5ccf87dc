package iterengine

import (
	"fmt"
	"strings"
)

// callFunction evaluates a small built-in function table against
// already-evaluated arguments. Function is an open vocabulary (spec
// §3); the iteration engine advertises SupportsFunction(true) for any
// name, so construction never rejects a function name, and a name this
// table does not recognize evaluates to nil.
func callFunction(name string, args []any) any {
	switch strings.ToLower(name) {
	case "upper":
		return strings.ToUpper(toStr(args[0]))
	case "lower":
		return strings.ToLower(toStr(args[0]))
	case "concat":
		var b strings.Builder
		for _, a := range args {
			b.WriteString(toStr(a))
		}
		return b.String()
	case "add":
		return toFloat(args[0]) + toFloat(args[1])
	case "sub":
		return toFloat(args[0]) - toFloat(args[1])
	case "mul":
		return toFloat(args[0]) * toFloat(args[1])
	default:
		return nil
	}
}

func toStr(v any) string {
	s, ok := v.(string)
	if ok {
		return s
	}
	return ""
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// less imposes a total order over comparable cell values for Sort,
// falling back to string comparison of the formatted value for types
// it does not otherwise recognize, so Sort never panics on a host's
// custom scalar type.
func less(a, b any) bool {
	switch av := a.(type) {
	case int, int32, int64, float32, float64:
		return toFloat(av) < toFloat(b)
	case string:
		bv, ok := b.(string)
		if !ok {
			return false
		}
		return av < bv
	case bool:
		bv, ok := b.(bool)
		return ok && !av && bv
	default:
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
}
