package value

import (
	"strconv"
	"strings"
)

// Lookup resolves a dotted path such as "bird.iam" inside v. Numeric
// segments index into arrays.
func Lookup(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}

	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
