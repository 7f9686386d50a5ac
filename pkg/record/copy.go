package record

import (
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/mohae/deepcopy"
)

// IDChange is one row of a remap table.
type IDChange struct {
	Type  domain.RecordType `json:"type"`
	Depth int               `json:"depth"`
	Old   int64             `json:"old"`
	New   int64             `json:"new"`
}

// Clone returns a deep value copy of root. Ids are kept.
// Trees deeper than maxDepth fail with domain.ErrTreeTooDeep.
func Clone(root *domain.Record, maxDepth int) (*domain.Record, error) {
	return copyTree(root, maxDepth, nil)
}

// Remap returns a deep copy of root in which every descendant record, at every
// depth, carries a fresh id drawn from gen. The root keeps its id; the caller
// places it. Relative order and nesting are preserved.
// New ids never repeat an id of the source subtree, whatever gen yields.
// The returned table lists every reassignment in traversal order.
func Remap(root *domain.Record, gen ids.Generator, maxDepth int) (*domain.Record, []IDChange, error) {
	if root == nil {
		return nil, nil, fmt.Errorf("cannot copy nil record")
	}
	taken := SubtreeIDs(root)
	var table []IDChange
	dup, err := copyTree(root, maxDepth, func(t domain.RecordType, depth int, old int64, dst *domain.Collection) int64 {
		fresh := ids.Fresh(gen, dst.Has, taken.Has)
		taken.Add(fresh)
		table = append(table, IDChange{Type: t, Depth: depth, Old: old, New: fresh})
		return fresh
	})
	if err != nil {
		return nil, nil, err
	}
	return dup, table, nil
}

// SubtreeIDs returns the ids of root and of every record below it, of any type.
func SubtreeIDs(root *domain.Record) ids.Set {
	out := ids.NewSet()
	if root == nil {
		return out
	}
	stack := []*domain.Record{root}
	for len(stack) > 0 {
		rec := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Add(rec.ID)
		for _, c := range rec.Records {
			if c == nil {
				continue
			}
			for _, child := range c.Map {
				if child != nil {
					stack = append(stack, child)
				}
			}
		}
	}
	return out
}

type renameFunc func(t domain.RecordType, depth int, old int64, dst *domain.Collection) int64

// copyTree walks root with an explicit stack so deep trees cannot exhaust the call stack.
func copyTree(root *domain.Record, maxDepth int, rename renameFunc) (*domain.Record, error) {
	if root == nil {
		return nil, fmt.Errorf("cannot copy nil record")
	}
	if maxDepth <= 0 {
		maxDepth = domain.DefaultMaxDepth
	}

	type frame struct {
		src, dst *domain.Record
		depth    int
	}

	out := copyNode(root)
	stack := []frame{{src: root, dst: out}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, t := range sortedTypes(fr.src.Records) {
			sc := fr.src.Records[t]
			if sc == nil {
				continue
			}
			dc := fr.dst.EnsureCollection(t)
			if len(sc.Order) > 0 && fr.depth+1 > maxDepth {
				return nil, fmt.Errorf("%w: exceeded %d levels below %s %d", domain.ErrTreeTooDeep, maxDepth, root.Type, root.ID)
			}
			for _, id := range sc.Order {
				child, ok := sc.Map[id]
				if !ok || child == nil {
					return nil, fmt.Errorf("corrupt collection %s under %s %d: %w", t, fr.src.Type, fr.src.ID, notFound(t, id))
				}
				nc := copyNode(child)
				if rename != nil {
					nc.ID = rename(t, fr.depth+1, id, dc)
				}
				dc.Map[nc.ID] = nc
				dc.Order = append(dc.Order, nc.ID)
				stack = append(stack, frame{src: child, dst: nc, depth: fr.depth + 1})
			}
		}
	}
	return out, nil
}

// copyNode copies id, type and props; child collections are filled by the caller.
func copyNode(src *domain.Record) *domain.Record {
	dst := &domain.Record{ID: src.ID, Type: src.Type}
	if src.Props != nil {
		dst.Props = deepcopy.Copy(src.Props).(map[string]any)
	}
	return dst
}

func sortedTypes(m map[domain.RecordType]*domain.Collection) []domain.RecordType {
	out := make([]domain.RecordType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
