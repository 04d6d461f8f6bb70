// Package syntax parses Ruby regular expressions and re-emits them for the
// matching engines.
//
// [Parse] reads a pattern with Ruby's rules for inline flags, group
// numbering, escapes and character classes, and builds a [Tree]. The tree
// can then be classified ([Tree.Classify]) and rendered in the grammar of
// either backend ([Tree.Emit]): the RE2 dialect for the automaton engine, or
// the .NET dialect for the backtracking engine.
//
// Translation is total for the features both grammars share. Constructs
// only the backtracker understands (backreferences, lookaround, atomic
// groups, possessive quantifiers, conditionals, \Z, \G and class
// intersections involving properties) mark the tree as SecondaryRequired.
// Constructs neither grammar can express, such as subexpression calls or
// the absence operator, make the tree Invalid with an
// [errs.UnsupportedConstructError].
//
// [errs.UnsupportedConstructError]: go.dw1.io/rbregexp/internal/errs.UnsupportedConstructError
package syntax
