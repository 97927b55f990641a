package solana

import (
	"errors"
	"math"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
)

const MaxSeeds = 16
const MaxSeedLen = 32
const PublicKeyLength = 32
const PdaMarker = "ProgramDerivedAddress"

var (
	ErrMaxSeedsExceeded      = errors.New("Max seeds (16) exceeded")
	ErrMaxSeedLengthExceeded = errors.New("Length of the seed is too long for address generation")
	ErrInvalidSeeds          = errors.New("Invalid seeds - generated address must be off-curve")
	ErrNoValidAddress        = errors.New("Unable to find a viable program address bump seed")
)

func checkSeeds(seeds [][]byte, maxSeeds int) error {
	if len(seeds) > maxSeeds {
		return ErrMaxSeedsExceeded
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return ErrMaxSeedLengthExceeded
		}
	}
	return nil
}

func deriveAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, error) {
	hasher := sha256.New()
	for _, seed := range seeds {
		hasher.Write(seed)
	}
	hasher.Write(programId[:])
	hasher.Write([]byte(PdaMarker))

	var addr solana.PublicKey
	copy(addr[:], hasher.Sum(nil))

	if IsOnCurve(addr[:]) {
		return solana.PublicKey{}, ErrInvalidSeeds
	}
	return addr, nil
}

// CreateProgramAddress derives the program address for the given seeds.
// Addresses that land on the ed25519 curve are rejected.
func CreateProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, error) {
	if err := checkSeeds(seeds, MaxSeeds); err != nil {
		return solana.PublicKey{}, err
	}
	return deriveAddress(seeds, programId)
}

// FindProgramAddress searches bump seeds from 255 downwards and returns the
// first off-curve address along with its bump. One seed slot is reserved
// for the bump.
func FindProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, uint8, error) {
	if err := checkSeeds(seeds, MaxSeeds-1); err != nil {
		return solana.PublicKey{}, 0, err
	}

	seedsWithBump := make([][]byte, len(seeds)+1)
	copy(seedsWithBump, seeds)
	bump := []byte{0}
	seedsWithBump[len(seeds)] = bump

	for b := math.MaxUint8; b >= 0; b-- {
		bump[0] = uint8(b)
		addr, err := deriveAddress(seedsWithBump, programId)
		if err == nil {
			return addr, uint8(b), nil
		}
	}

	return solana.PublicKey{}, 0, ErrNoValidAddress
}

// IsOnCurve checks if 'b' is on the ed25519 curve
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	onCurve := err == nil
	return onCurve
}
