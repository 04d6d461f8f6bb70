// Package flags models Ruby regexp options and pattern encodings.
//
// [Options] is the closed IGNORECASE/EXTENDED/MULTILINE bitset using Ruby's
// bit values. [Encoding] selects between binary (ASCII-8BIT) and UTF-8
// interpretation of pattern and haystack bytes.
package flags
