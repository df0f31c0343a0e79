// Package errs holds the generic validation and lookup errors of the fulfillment service.
//
// Every error type pairs a sentinel with a struct carrying the offending parameter:
//   - ValueIsRequiredError (ErrValueIsRequired): a required value is missing
//   - ValueIsInvalidError (ErrValueIsInvalid): a value failed validation
//   - ValueIsOutOfRangeError (ErrValueIsOutOfRange): a number is outside its bounds
//   - ObjectNotFoundError (ErrObjectNotFound): no order, lot or unit has the given key
//
// Callers match with errors.Is against the sentinel. Domain packages define their own
// errors (insufficient stock, invalid transition, barcode mismatch) in the same shape.
package errs
