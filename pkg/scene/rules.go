package scene

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ids"
)

// Reference is a when_event or then_action pointing at an object by co_id.
type Reference struct {
	RuleID int64             `json:"rule_id"`
	Type   domain.RecordType `json:"type"`
	ID     int64             `json:"id"`
	CoID   int64             `json:"co_id"`
}

// AddElement creates an element of type t with catalog defaults at the top level of the scene.
func (f *Factory) AddElement(t element.Type, position ...int) (*domain.Record, error) {
	rec := element.New(f.Generator(), t)
	rec.ID = f.FreshID(domain.TypeElement)
	return f.AddRecord(rec, position...)
}

// AddRule creates an empty rule.
func (f *Factory) AddRule(name string) (*domain.Record, error) {
	return f.CreateRecord(domain.TypeRule, map[string]any{domain.PropName: name})
}

// AddWhenEvent attaches a trigger on object coID to rule ruleID.
func (f *Factory) AddWhenEvent(ruleID, coID int64, event string) (*domain.Record, error) {
	return f.addRuleChild(ruleID, domain.TypeWhenEvent, map[string]any{
		domain.PropCoID:   coID,
		domain.PropCoType: string(domain.TypeElement),
		domain.PropEvent:  event,
	})
}

// AddThenAction attaches an action on object coID to rule ruleID.
func (f *Factory) AddThenAction(ruleID, coID int64, action string) (*domain.Record, error) {
	return f.addRuleChild(ruleID, domain.TypeThenAction, map[string]any{
		domain.PropCoID:   coID,
		domain.PropCoType: string(domain.TypeElement),
		domain.PropAction: action,
	})
}

func (f *Factory) addRuleChild(ruleID int64, t domain.RecordType, props map[string]any) (*domain.Record, error) {
	rule, err := f.Record(domain.TypeRule, ruleID)
	if err != nil {
		return nil, err
	}
	rf := f.Child(rule)
	rec := domain.NewRecord(rf.FreshID(t, f.WeTaIDs()), t)
	for k, v := range props {
		rec.Props[k] = v
	}
	if _, err := rf.AddRecord(rec); err != nil {
		return nil, fmt.Errorf("adding %s to rule %d: %w", t, ruleID, err)
	}
	return rec, nil
}

// WeTaIDs returns every when_event and then_action id used in the scene.
func (f *Factory) WeTaIDs() ids.Set {
	out := ids.NewSet()
	for _, r := range f.Records(domain.TypeRule) {
		for _, t := range []domain.RecordType{domain.TypeWhenEvent, domain.TypeThenAction} {
			for _, id := range r.Collection(t).Order {
				out.Add(id)
			}
		}
	}
	return out
}

// DanglingReferences lists when_event / then_action records whose co_id resolves
// neither to an element of the scene (at any depth) nor to an id in known
// (typically the project's variable ids). Records without a co_id are skipped.
func (f *Factory) DanglingReferences(known ids.Set) []Reference {
	elements := f.ElementIDs()
	var out []Reference
	for _, rule := range f.Records(domain.TypeRule) {
		for _, t := range []domain.RecordType{domain.TypeWhenEvent, domain.TypeThenAction} {
			for _, rec := range rule.Collection(t).Records() {
				co, ok := rec.Int(domain.PropCoID)
				if !ok || elements.Has(co) || known.Has(co) {
					continue
				}
				out = append(out, Reference{RuleID: rule.ID, Type: t, ID: rec.ID, CoID: co})
			}
		}
	}
	return out
}
