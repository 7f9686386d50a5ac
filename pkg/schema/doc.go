// Package schema checks record properties against per-type field schemas.
//
// The record engine only enforces the collection invariant; schema adds the
// property-level contract on top of it:
//
//	if err := schema.ValidateTree(doc, domain.DefaultMaxDepth); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        fmt.Println(e)
//	    }
//	}
//
// Field types are small validators (String, Int, Number, Bool, OneOf, Custom),
// and a Schema maps property names to them. Schemas marshal to JSON as a map of
// property names to type names.
package schema
