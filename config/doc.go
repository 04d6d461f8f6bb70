// Package config holds a pattern's source form and its normalized form.
//
// A [Source] is what the host wrote. [Normalize] turns it into a [Config]:
// it validates the pattern bytes against the declared encoding, folds
// leading inline flag groups such as (?i) into the options, and drops the
// redundant \/ escape. Two sources that mean the same thing normalize to
// equal configs, and normalizing a config's own source is the identity.
package config
