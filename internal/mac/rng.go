package mac

import "math/rand/v2"

// SystemRNG is the production RNG: math/rand/v2's package-level,
// auto-seeded ChaCha8 source. CSMA-CA slot selection (spec §4.3) has
// no cryptographic requirement, just uniform spread, so the stdlib
// generator is used directly rather than pulling in a third-party PRNG
// the pack never reaches for.
type SystemRNG struct{}

func (SystemRNG) Uint16() uint16 {
	return uint16(rand.Uint32())
}

func (SystemRNG) Bytes2() [2]byte {
	v := rand.Uint32()
	return [2]byte{byte(v), byte(v >> 8)}
}
