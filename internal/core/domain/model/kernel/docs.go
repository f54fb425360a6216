// Package kernel provides the shared value objects of the dispatch domain.
//
// The package includes:
//   - UUID: identifier of orders, couriers, customers and restaurants
//   - GeoPoint: a latitude/longitude pair with great-circle distance
//   - Money: a non-negative amount in minor currency units
//   - Actor and Role: the resolved identity behind every state-changing call
//
// All values are immutable. Zero values are invalid and fail Validate; use the constructors.
package kernel
