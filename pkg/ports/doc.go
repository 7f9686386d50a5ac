/*
Package ports defines the driven ports (interfaces) of the record tree engine.

These interfaces decouple document editing from storage and coordination, so
the same session manager works against memory, files or Redis.

# Key Interfaces

  - DocumentStore: persists and loads whole project documents by id.
  - Watchable: notifies about documents changed outside the process.
  - DistributedLocker: provides distributed locking so only one writer edits a document at a time.
*/
package ports
