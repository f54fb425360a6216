// Package courier provides the durable courier profile.
//
// A profile holds what survives a reconnect: approval and activation flags, the capacity
// limit, the number of orders in hand, lifetime deliveries and the last persisted position.
// Live connection state (online, available, fresh coordinates) lives in the presence registry.
//
// Key business rules:
//   - only approved and active couriers can receive offers
//   - a courier never holds more than MaxOrders orders at once
//   - counters never go below zero
package courier
