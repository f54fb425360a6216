// Package services provides domain services that work across aggregates.
//
// The package includes:
//   - CourierRanker: orders dispatch candidates by proximity to a pickup point
package services
