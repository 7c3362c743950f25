// Package artifact persists the text produced by a crew run.
//
// Store is the narrow contract the crew writes through. FileStore writes to
// the local filesystem atomically, so a reader never observes a half-written
// file; InMemoryStore keeps artifacts in process for tests and examples.
package artifact
