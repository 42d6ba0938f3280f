package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// IsValidProof reports whether the digest of the concatenated string forms of
// the last proof and the proof starts with difficulty zeros. A difficulty of
// zero accepts every proof.
func IsValidProof(difficulty uint, lastProof uint64, proof uint64) bool {
	guess := strconv.FormatUint(lastProof, 10) + strconv.FormatUint(proof, 10)
	hash := sha256.Sum256([]byte(guess))

	return isHashSolved(difficulty, hex.EncodeToString(hash[:]))
}

// FindProof searches from zero for the first proof that solves the last proof.
// The search can be cancelled through the context.
func FindProof(ctx context.Context, difficulty uint, lastProof uint64) (uint64, error) {
	for proof := uint64(0); ; proof++ {
		if proof%10_000 == 0 && ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if IsValidProof(difficulty, lastProof, proof) {
			return proof, nil
		}
	}
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if int(difficulty) > len(hash) {
		return false
	}

	return hash[:difficulty] == strings.Repeat("0", int(difficulty))
}
