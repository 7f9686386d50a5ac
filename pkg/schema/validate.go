package schema

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// Schema is a map of property names to their expected types.
type Schema map[string]Type

// MarshalJSON serializes the schema as a map of property names to type names.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}
	return json.Marshal(raw)
}

var elementType = Custom("element_type", func(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	if !element.IsType(s) {
		return fmt.Errorf("unknown element type %q", s)
	}
	return nil
})

var coType = OneOf("co_type", string(domain.TypeElement), string(domain.TypeVariable))

var schemas = map[domain.RecordType]Schema{
	domain.TypeProject: {domain.PropName: String(), domain.PropVersion: Int()},
	domain.TypeScene:   {domain.PropName: String()},
	domain.TypeElement: {
		domain.PropName:        String(),
		domain.PropElementType: elementType,
	},
	domain.TypeRule: {domain.PropName: String()},
	domain.TypeWhenEvent: {
		domain.PropCoID:   Optional(Int()),
		domain.PropCoType: Optional(coType),
		domain.PropEvent:  String(),
	},
	domain.TypeThenAction: {
		domain.PropCoID:   Optional(Int()),
		domain.PropCoType: Optional(coType),
		domain.PropAction: String(),
	},
	domain.TypeVariable: {
		domain.PropName:    String(),
		domain.PropVarType: OneOf("var_type", "string", "number", "boolean"),
	},
}

// For returns the property schema of a record type, or nil when it has none.
func For(t domain.RecordType) Schema {
	return schemas[t]
}

// Validate checks that data holds every schema field with the right type.
// Fields are checked in name order so reports are stable.
func Validate(schema Schema, data map[string]any) error {
	errs := validate("", schema, data)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validate(path string, schema Schema, data map[string]any) []error {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var errs []error
	for _, key := range keys {
		value, exists := data[key]
		if !exists {
			if _, optional := schema[key].(*OptionalType); optional {
				continue
			}
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: "required"})
			continue
		}
		if err := schema[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: err.Error(), Value: value})
		}
	}
	return errs
}

// ValidateTree checks every record under root against its type's schema.
// Variables must also carry a default matching their declared type.
func ValidateTree(root *domain.Record, maxDepth int) error {
	type frame struct {
		rec   *domain.Record
		path  string
		depth int
	}
	var errs []error
	stack := []frame{{rec: root, path: label(root)}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxDepth {
			return fmt.Errorf("%s: %w", f.path, domain.ErrTreeTooDeep)
		}

		errs = append(errs, validate(f.path, For(f.rec.Type), f.rec.Props)...)
		if f.rec.Type == domain.TypeVariable {
			if err := checkDefault(f.path, f.rec); err != nil {
				errs = append(errs, err)
			}
		}

		types := make([]domain.RecordType, 0, len(f.rec.Records))
		for t := range f.rec.Records {
			types = append(types, t)
		}
		slices.Sort(types)
		for i := len(types) - 1; i >= 0; i-- {
			children := f.rec.Records[types[i]].Records()
			for j := len(children) - 1; j >= 0; j-- {
				c := children[j]
				stack = append(stack, frame{rec: c, path: f.path + " > " + label(c), depth: f.depth + 1})
			}
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func checkDefault(path string, v *domain.Record) error {
	typ, err := ParseType(v.String(domain.PropVarType))
	if err != nil {
		// var_type itself is reported by the schema.
		return nil
	}
	def, ok := v.Props[domain.PropVarDefault]
	if !ok {
		return &ValidationError{Path: path, Key: domain.PropVarDefault, Reason: "required"}
	}
	if err := typ.Validate(def); err != nil {
		return &ValidationError{Path: path, Key: domain.PropVarDefault, Reason: err.Error(), Value: def}
	}
	return nil
}

func label(r *domain.Record) string {
	return fmt.Sprintf("%s %d", r.Type, r.ID)
}
