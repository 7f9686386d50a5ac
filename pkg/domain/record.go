package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Record is one node of the document tree.
// The id is unique only among siblings of the same type under the same parent.
type Record struct {
	ID      int64                      `json:"id" yaml:"id" mapstructure:"id"`
	Type    RecordType                 `json:"type" yaml:"type" mapstructure:"type"`
	Props   map[string]any             `json:"props" yaml:"props" mapstructure:"props"`
	Records map[RecordType]*Collection `json:"records,omitempty" yaml:"records,omitempty" mapstructure:"records"`
}

// Collection holds the children of a single record type.
// Order must always contain exactly the keys of Map.
type Collection struct {
	Map   map[int64]*Record `json:"map" yaml:"map" mapstructure:"map"`
	Order []int64           `json:"order" yaml:"order" mapstructure:"order"`
}

// NewRecord creates an empty record. Child collections are created lazily.
func NewRecord(id int64, t RecordType) *Record {
	return &Record{
		ID:    id,
		Type:  t,
		Props: make(map[string]any),
	}
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{
		Map:   make(map[int64]*Record),
		Order: []int64{},
	}
}

// Collection returns the child collection for t, or nil if none exists yet.
func (r *Record) Collection(t RecordType) *Collection {
	if r.Records == nil {
		return nil
	}
	return r.Records[t]
}

// EnsureCollection returns the child collection for t, creating it if needed.
func (r *Record) EnsureCollection(t RecordType) *Collection {
	if r.Records == nil {
		r.Records = make(map[RecordType]*Collection)
	}
	c, ok := r.Records[t]
	if !ok || c == nil {
		c = NewCollection()
		r.Records[t] = c
	}
	if c.Map == nil {
		c.Map = make(map[int64]*Record)
	}
	return c
}

// Len returns the number of records in the collection.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Order)
}

// Has reports whether id is present in the collection.
func (c *Collection) Has(id int64) bool {
	if c == nil {
		return false
	}
	_, ok := c.Map[id]
	return ok
}

// Records returns the collection's records in order.
func (c *Collection) Records() []*Record {
	if c == nil {
		return []*Record{}
	}
	out := make([]*Record, 0, len(c.Order))
	for _, id := range c.Order {
		out = append(out, c.Map[id])
	}
	return out
}

// IndexOf returns the position of id in Order, or -1.
func (c *Collection) IndexOf(id int64) int {
	if c == nil {
		return -1
	}
	for i, v := range c.Order {
		if v == id {
			return i
		}
	}
	return -1
}

// Validate checks the order/map invariant of the collection.
func (c *Collection) Validate() error {
	if c == nil {
		return nil
	}
	if len(c.Order) != len(c.Map) {
		return fmt.Errorf("order has %d ids, map has %d records", len(c.Order), len(c.Map))
	}
	seen := make(map[int64]struct{}, len(c.Order))
	for _, id := range c.Order {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate id %d in order", id)
		}
		seen[id] = struct{}{}
		rec, ok := c.Map[id]
		if !ok {
			return fmt.Errorf("id %d in order but not in map", id)
		}
		if rec == nil {
			return fmt.Errorf("id %d maps to nil record", id)
		}
		if rec.ID != id {
			return fmt.Errorf("record keyed %d carries id %d", id, rec.ID)
		}
	}
	return nil
}

// Validate checks the collection invariant over the whole subtree.
func (r *Record) Validate() error {
	type frame struct {
		rec  *Record
		path string
	}
	stack := []frame{{rec: r, path: fmt.Sprintf("%s:%d", r.Type, r.ID)}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for t, c := range f.rec.Records {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%s/%s: %w", f.path, t, err)
			}
			if c == nil {
				continue
			}
			for _, id := range c.Order {
				child := c.Map[id]
				if child.Type != t {
					return fmt.Errorf("%s/%s: record %d has type %q", f.path, t, id, child.Type)
				}
				stack = append(stack, frame{rec: child, path: fmt.Sprintf("%s/%s:%d", f.path, t, id)})
			}
		}
	}
	return nil
}

// Get returns a property value.
func (r *Record) Get(key string) any {
	if r.Props == nil {
		return nil
	}
	return r.Props[key]
}

// Set assigns a property value.
func (r *Record) Set(key string, value any) {
	if r.Props == nil {
		r.Props = make(map[string]any)
	}
	r.Props[key] = value
}

// String returns a string property, or "" if missing or not a string.
func (r *Record) String(key string) string {
	s, _ := r.Get(key).(string)
	return s
}

// Int returns an integer property.
// Decoded documents carry numbers as float64 or json.Number, so those are accepted
// when they hold a whole value.
func (r *Record) Int(key string) (int64, bool) {
	return AsInt(r.Get(key))
}

// AsInt converts a decoded numeric value to int64.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return AsInt(float64(n))
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
