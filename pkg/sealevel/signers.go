package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	sol "go.firedancer.io/cpi/pkg/solana"
)

func translatePdaErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sol.ErrMaxSeedsExceeded):
		return ErrMaxSeedsExceeded
	case errors.Is(err, sol.ErrMaxSeedLengthExceeded):
		return ErrMaxSeedLengthExceeded
	case errors.Is(err, sol.ErrInvalidSeeds):
		return ErrInvalidSeeds
	case errors.Is(err, sol.ErrNoValidAddress):
		return ErrNoValidAddress
	}
	return err
}

// deriveSigners derives the addresses a program may sign for. Seeds are
// always derived under the caller's own program id.
func deriveSigners(programId solana.PublicKey, signers []SignerSeeds) ([]solana.PublicKey, error) {
	pdas := make([]solana.PublicKey, 0, len(signers))
	for _, seeds := range signers {
		pda, err := sol.CreateProgramAddress(seeds, programId)
		if err != nil {
			return nil, errors.Wrapf(translatePdaErr(err), "signer seeds under %s", programId)
		}
		pdas = append(pdas, pda)
	}
	return pdas, nil
}
