package domain

// Op names a factory mutation.
type Op string

const (
	OpAdd           Op = "add"
	OpDuplicate     Op = "duplicate"
	OpDuplicateDeep Op = "duplicate_deep"
	OpDelete        Op = "delete"
	OpDeleteDeep    Op = "delete_deep"
	OpChangeID      Op = "change_id"
)

// MutationEvent describes one primary or cascaded mutation of a collection.
type MutationEvent struct {
	Op       Op         `json:"op"`
	Type     RecordType `json:"type"`
	ID       int64      `json:"id"`
	PrevID   int64      `json:"prev_id,omitempty"`
	Parent   RecordType `json:"parent"`
	ParentID int64      `json:"parent_id"`
}

// LifecycleHooks defines callbacks for factory observability.
type LifecycleHooks struct {
	OnMutation func(*MutationEvent)
}

// Emit invokes OnMutation if set.
func (h LifecycleHooks) Emit(e *MutationEvent) {
	if h.OnMutation != nil {
		h.OnMutation(e)
	}
}
