// Package fingerprint derives the identity string used to decide whether a
// recorded install is still valid.
package fingerprint

// Keyer is implemented by every source and build-step descriptor.
type Keyer interface {
	Key() string
}

// Of returns the fingerprint of a package built from src with step.
// Two packages with equal fingerprints are considered build-equivalent.
func Of(src, step Keyer) string {
	return src.Key() + "," + step.Key()
}
