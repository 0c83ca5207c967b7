package combat

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// RNG is the resolver's deterministic, splittable pseudo-random source: a
// simple hash(base_seed, round, participant_id, stream, index) scheme. No
// instance carries mutable state, so independent draws — regardless of
// evaluation order — are reproducible given identical inputs, as required by
// the round-resolution determinism law.
type RNG struct {
	baseSeed uint32
	round    int
}

func NewRNG(baseSeed uint32, round int) RNG {
	return RNG{baseSeed: baseSeed, round: round}
}

// Float64 returns a deterministic value in [0, 1) for the given participant,
// named stream (e.g. "damage_split", "attrition", "flee"), and draw index
// (for streams that need more than one value per participant per round).
func (r RNG) Float64(participantID shared.ID, stream string, index int) float64 {
	h := fnv.New64a()

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], r.baseSeed)
	h.Write(u32[:])

	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], uint64(r.round))
	h.Write(u64[:])

	id := participantID.UUID()
	h.Write(id[:])
	h.Write([]byte(stream))

	binary.BigEndian.PutUint64(u64[:], uint64(index))
	h.Write(u64[:])

	return float64(h.Sum64()) / float64(math.MaxUint64)
}

// Bool draws a deterministic boolean that is true with probability p.
func (r RNG) Bool(participantID shared.ID, stream string, index int, p float64) bool {
	return r.Float64(participantID, stream, index) < p
}
