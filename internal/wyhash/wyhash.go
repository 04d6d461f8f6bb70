// Package wyhash fingerprints regexp sources with the wyhash mix.
//
// Fingerprints back Regexp#hash and the intern cache key. They are stable
// within a process and across processes (fixed secrets, no random seed).
package wyhash

import (
	"encoding/binary"
	"math/bits"
)

// wyhash secrets from the reference implementation.
const (
	k0 = uint64(0xa0761d6478bd642f)
	k1 = uint64(0xe7037ed1a0b428db)
	k2 = uint64(0x8ebc6af09c88c6e3)
	k3 = uint64(0x589965cc75374cc3)
	k4 = uint64(0x1d8e4e27c47d124f)
)

// Digest accumulates length-prefixed fields so that ("ab", "c") and
// ("a", "bc") never collide by concatenation.
type Digest struct {
	seed uint64
	buf  []byte
}

// New returns a Digest seeded with seed.
func New(seed uint64) *Digest { return &Digest{seed: seed} }

// Bytes appends a length-prefixed byte field.
func (d *Digest) Bytes(p []byte) *Digest {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, uint64(len(p)))
	d.buf = append(d.buf, p...)
	return d
}

// String appends a length-prefixed string field.
func (d *Digest) String(s string) *Digest {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, uint64(len(s)))
	d.buf = append(d.buf, s...)
	return d
}

// Uint appends a fixed-width integer field.
func (d *Digest) Uint(v uint64) *Digest {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, v)
	return d
}

// Sum64 returns the fingerprint of every field written so far.
func (d *Digest) Sum64() uint64 { return Sum64(d.buf, d.seed) }

// Key returns the accumulated fields as a string, suitable as an exact map
// key when fingerprint collisions must not alias entries.
func (d *Digest) Key() string { return string(d.buf) }

// Sum64 is the 64-bit wyhash of b, derived from the Go runtime fallback
// implementation.
func Sum64(b []byte, seed uint64) uint64 {
	var a, c uint64
	s := len(b)
	seed ^= k0

	switch {
	case s == 0:
		return seed
	case s < 4:
		a = uint64(b[0])
		a |= uint64(b[s>>1]) << 8
		a |= uint64(b[s-1]) << 16
	case s == 4:
		a = uint64(binary.LittleEndian.Uint32(b))
		c = a
	case s < 8:
		a = uint64(binary.LittleEndian.Uint32(b))
		c = uint64(binary.LittleEndian.Uint32(b[s-4:]))
	case s == 8:
		a = binary.LittleEndian.Uint64(b)
		c = a
	case s <= 16:
		a = binary.LittleEndian.Uint64(b)
		c = binary.LittleEndian.Uint64(b[s-8:])
	default:
		l := s
		i := 0
		if l > 48 {
			seed1 := seed
			seed2 := seed
			for ; l > 48; l -= 48 {
				seed = mix(binary.LittleEndian.Uint64(b[i:])^k1, binary.LittleEndian.Uint64(b[i+8:])^seed)
				seed1 = mix(binary.LittleEndian.Uint64(b[i+16:])^k2, binary.LittleEndian.Uint64(b[i+24:])^seed1)
				seed2 = mix(binary.LittleEndian.Uint64(b[i+32:])^k3, binary.LittleEndian.Uint64(b[i+40:])^seed2)
				i += 48
			}
			seed ^= seed1 ^ seed2
		}
		for ; l > 16; l -= 16 {
			seed = mix(binary.LittleEndian.Uint64(b[i:])^k1, binary.LittleEndian.Uint64(b[i+8:])^seed)
			i += 16
		}
		a = binary.LittleEndian.Uint64(b[i+l-16:])
		c = binary.LittleEndian.Uint64(b[i+l-8:])
	}

	return mix(k4^uint64(s), mix(a^k1, c^seed))
}

func mix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}
