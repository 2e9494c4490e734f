package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorInvalidOperation marks a domain-state failure: the operation is not
// permitted in the entity's current lifecycle state (paying an already paid
// invoice, duplicating into a kind that cannot be derived). Kept distinct
// from input validation errors so callers can branch on it with errors.Is.
var ErrorInvalidOperation = errors.New("invalid operation")
