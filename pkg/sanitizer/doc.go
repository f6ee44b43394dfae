// Package sanitizer normalizes user-supplied reservation input before validation.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input is never rejected here; it is cleaned as far
// as possible and left for the validator to judge.
//
// Normalization includes:
//   - Free text (reasons, remarks): strip control characters, collapse whitespace, cap length
//   - Identifiers (booking and requester ids): trim and drop inner whitespace
//   - Receipt (OR) numbers: trim surrounding whitespace only, so malformed values still fail validation
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
