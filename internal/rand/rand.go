// Package rand centralizes the one random decision the skip-list
// implementations need: the fair coin flip behind the geometric random-level
// distribution. Seeding policy is explicitly out of scope for this store
// (see spec §1) — the package relies on math/rand's auto-seeded,
// concurrency-safe global source rather than rolling its own.
package rand

import "math/rand"

// CoinFlip reports heads (true) with probability 1/2, mirroring the
// original's `rand() % 2` used to decide whether a new node's tower grows
// another level.
func CoinFlip() bool {
	return rand.Intn(2) == 1
}
