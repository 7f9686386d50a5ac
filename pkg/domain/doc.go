/*
Package domain contains the core data model of the Arbor record tree.

A project document is a strict tree of typed records. Every record owns a
property bag and a set of typed child collections, each collection keeping a
map from id to child plus an explicit ordering of ids. Cross-record references
(such as the co_id of a when_event) are plain integers and never ownership
edges.

This package is kept pure: no I/O, no persistence, no id generation policy.

# Key Entities

  - Record: a typed node (project, scene, element, rule, when_event, then_action, variable).
  - Collection: the children of one record type under one parent (Map + Order).
  - MutationEvent / LifecycleHooks: observability callbacks fired by factories.
*/
package domain
