// Package kernel contains shared value objects used across the domain model.
//
// The package currently provides UUID, an immutable identifier value object
// wrapping github.com/google/uuid. Aggregates use kernel.UUID as their
// internal identity; the opaque client-facing external reference of an order
// is a plain UUID string minted from the same source.
//
// Value objects in this package follow the construction rules used across
// the domain: the zero value is invalid, constructors validate their input,
// and Validate() detects instances that bypassed a constructor.
package kernel
