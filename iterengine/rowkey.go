package iterengine

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// canonicalKey renders row as a byte string that is equal for two rows
// carrying the same tags and values, independent of the concrete Go
// type behind each cell (int vs int64 vs float64, for instance). This
// is what lets the mapping-backed payload use a Go map, whose keys
// must be comparable, to dedup rows whose cell values might not be.
//
// Grounded on the teacher's protobuf usage pattern (structured,
// self-describing values); repurposed here as row-key canonicalization
// instead of wire messages, since generating .pb.go requires protoc.
func canonicalKey(r Row) (string, error) {
	fields := make(map[string]*structpb.Value, r.Len())
	for i, tag := range r.tags {
		v, err := structpb.NewValue(normalizeCell(r.values[i]))
		if err != nil {
			return "", err
		}
		fields[tag.QualifiedName()] = v
	}
	s := &structpb.Struct{Fields: fields}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalizeCell widens integer types to float64 so 1 (int) and int64(1)
// canonicalize identically; structpb.NewValue already rejects anything
// it can't represent (an error the caller surfaces).
func normalizeCell(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
