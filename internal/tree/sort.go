package tree

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortForDisplay returns a copy of nodes ordered folders first, then by name
// using locale-aware collation where digit runs compare numerically
// ("item 2" before "item 10"). The input slice is not modified; storage order
// stays insertion order.
func SortForDisplay(nodes []*Node) []*Node {
	return SortForDisplayIn(language.Und, nodes)
}

// SortForDisplayIn is SortForDisplay using the collation rules of tag.
func SortForDisplayIn(tag language.Tag, nodes []*Node) []*Node {
	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(tag, collate.Numeric)
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b *Node) int {
		if a.Kind != b.Kind {
			if a.Kind == KindFolder {
				return -1
			}
			return 1
		}
		return col.CompareString(a.Name, b.Name)
	})
	return out
}
