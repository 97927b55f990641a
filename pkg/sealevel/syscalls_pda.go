package sealevel

import (
	"github.com/gagliardetto/solana-go"
	sol "go.firedancer.io/cpi/pkg/solana"
)

func (execCtx *ExecutionCtx) CreateProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, error) {
	addr, err := sol.CreateProgramAddress(seeds, programId)
	return addr, translatePdaErr(err)
}

func (execCtx *ExecutionCtx) FindProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := sol.FindProgramAddress(seeds, programId)
	return addr, bump, translatePdaErr(err)
}
