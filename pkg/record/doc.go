/*
Package record implements the generic record tree engine.

A Factory wraps one *domain.Record (without copying it) and is the only
sanctioned way to mutate that record's child collections. Every public
operation leaves each collection with Order and Map holding exactly the same
id set.

Record types can register a Behavior to layer cascades on top of the generic
operations (see package scene). Behaviors run after inserts and before deletes;
they never change what the generic operation returns.
*/
package record
