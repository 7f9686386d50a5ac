package domain

// RecordType tags which schema a record follows.
type RecordType string

const (
	TypeProject    RecordType = "project"
	TypeScene      RecordType = "scene"
	TypeElement    RecordType = "element"
	TypeRule       RecordType = "rule"
	TypeWhenEvent  RecordType = "when_event"
	TypeThenAction RecordType = "then_action"
	TypeVariable   RecordType = "variable"
)

// RecordTypes lists every known record type.
var RecordTypes = []RecordType{
	TypeProject,
	TypeScene,
	TypeElement,
	TypeRule,
	TypeWhenEvent,
	TypeThenAction,
	TypeVariable,
}

// IsRecordType reports whether t is a known record type.
func IsRecordType(t string) bool {
	for _, rt := range RecordTypes {
		if string(rt) == t {
			return true
		}
	}
	return false
}

// Property keys shared across record types.
const (
	PropName        = "name"
	PropElementType = "element_type"
	PropCoID        = "co_id"
	PropCoType      = "co_type"
	PropEvent       = "event"
	PropAction      = "action"
	PropVarType     = "var_type"
	PropVarDefault  = "var_default"
	PropPredefined  = "predefined"
	PropVersion     = "version"
)

// DefaultMaxDepth bounds every recursive walk over a record tree.
const DefaultMaxDepth = 64
