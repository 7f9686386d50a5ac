/*
Package session implements document access and persistence orchestration.

It keeps a single writer per project document: edits run under a per-document
lock (reference counted, optionally backed by a distributed locker across
replicas) as load, mutate, validate, save transactions.
*/
package session
