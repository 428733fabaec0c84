// Package models defines the core domain models for shopcast.
//
// # Models
//
//   - User: a registered account, identified by a unique username
//   - Message: one entry in the shared chat log
//   - Product: one entry in the shared catalog
//
// # Design Principles
//
// 1. **Plain data**: models carry no behavior; stores and services own logic
// 2. **String IDs**: relationships use ID strings (UUIDs assigned by stores),
// never pointers, to avoid circular references
// 3. **Snapshot semantics**: the realtime layer always ships full collections
// of Message/Product, never diffs, so both types must stay cheaply
// JSON-serializable
package models
