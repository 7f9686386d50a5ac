/*
Package observability provides tools for monitoring the record tree engine.

It includes lifecycle hooks for auditing and counting mutations, and Prometheus
collectors for mutations and HTTP editing requests.
*/
package observability
