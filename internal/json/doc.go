// Package json is the JSON codec used for match result dumps and test
// fixtures. It runs on sonic where the JIT is available and on
// encoding/json elsewhere.
package json
