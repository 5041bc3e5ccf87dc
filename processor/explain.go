package processor

import (
	"fmt"
	"io"

	"github.com/kolibri-data/relation/relation"
	"github.com/olekukonko/tablewriter"
)

// Explain renders r's shape to w as a table of depth, kind, engine,
// uniqueness, and row bounds — one row per node, in pre-order. It never
// executes anything; it only inspects the metadata every relation
// carries by construction (spec §3).
func Explain(w io.Writer, r relation.Relation) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader([]string{"depth", "kind", "engine", "unique", "min", "max"})

	var walk func(n relation.Relation, depth int)
	walk = func(n relation.Relation, depth int) {
		tw.Append([]string{
			fmt.Sprintf("%d", depth),
			describeKind(n),
			n.Engine().Name(),
			fmt.Sprintf("%v", n.Unique()),
			fmt.Sprintf("%d", n.MinRows()),
			maxRowsLabel(n.MaxRows()),
		})
		for _, child := range children(n) {
			walk(child, depth+1)
		}
	}
	walk(r, 0)
	tw.Render()
}

func describeKind(n relation.Relation) string {
	switch v := n.(type) {
	case *relation.Leaf:
		return "Leaf " + v.Name()
	case *relation.Unary:
		return v.Op().String()
	case *relation.Binary:
		return v.Op().String()
	case *relation.Marker:
		return v.Kind().String()
	default:
		return fmt.Sprintf("%T", n)
	}
}

func children(n relation.Relation) []relation.Relation {
	switch v := n.(type) {
	case *relation.Unary:
		return []relation.Relation{v.Target()}
	case *relation.Binary:
		return []relation.Relation{v.LHS(), v.RHS()}
	case *relation.Marker:
		return []relation.Relation{v.Target()}
	default:
		return nil
	}
}

func maxRowsLabel(v int64) string {
	if v == relation.Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", v)
}
