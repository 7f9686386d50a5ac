/*
Package scene specialises the generic record engine for scene records.

A scene Factory behaves like a record.Factory with three cascades layered on top:

  - deleting an element prunes every when_event / then_action whose co_id points at it,
    and deletes rules left with neither;
  - adding or duplicating a rule reassigns when_event / then_action ids that collide
    with those of any other rule in the scene;
  - duplicating a group element regenerates the ids of every nested element.

when_event / then_action ids are unique across the whole scene, while element ids
are only kept unique within their immediate parent by the generic engine (group
duplication is the exception and draws ids disjoint from every element in the scene).
*/
package scene
