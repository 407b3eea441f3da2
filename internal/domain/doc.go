// Package domain defines the core edit-session types and interfaces.
//
// Concept-oriented files (params.go, crop.go, snapshot.go, session.go, etc.) hold
// value types shared by the editor components and the ports they consume.
// No implementation code beyond small value helpers - just contracts.
// Interfaces live here so adapters and the editor never import each other.
package domain
