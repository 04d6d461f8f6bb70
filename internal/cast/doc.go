// Package cast coerces host-provided values (option arguments, match
// positions) into the integer and string types the regexp layers use.
//
// Integer inputs go through [safemath] so overflow and truncation are
// reported instead of silently wrapping. Everything else goes through
// [cast].
package cast
