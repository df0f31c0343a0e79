// Package kernel holds the value objects shared by every aggregate of the fulfillment core:
// identifiers, warehouse locations, money amounts and the domain event contract.
//
// All value objects are immutable and carry a constructor guard, so a zero value never
// passes Validate.
package kernel
