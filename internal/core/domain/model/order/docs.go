// Package order implements the Order aggregate and its lifecycle state machine.
//
// The package includes:
//   - Order: the aggregate root carrying items, destination, pricing, courier assignment,
//     the delivery confirmation code and the append-only status timeline
//   - Status: the lifecycle states and the legal successor of each
//   - ConfirmationCode: the single-use 4-digit code handed to the customer at placement
//
// Key business rules:
//   - placed -> confirmed -> preparing -> ready -> picked-up -> on-the-way -> delivered
//   - cancelled is reachable from every non-terminal state; delivered and cancelled are terminal
//   - forward moves are made by the assigned courier; delivered only through a consumed code
//   - the last timeline entry always carries the current status
//
// Methods are pure: they never notify anyone or touch courier statistics.
package order
