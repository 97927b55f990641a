package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	sol "go.firedancer.io/cpi/pkg/solana"
)

// ProgramRegistry is a Loader backed by a map of program ids.
type ProgramRegistry map[solana.PublicKey]Program

func NewProgramRegistry() ProgramRegistry {
	return make(ProgramRegistry)
}

func (r ProgramRegistry) Register(programId solana.PublicKey, program Program) {
	r[programId] = program
}

func (r ProgramRegistry) Load(programId solana.PublicKey) (Program, error) {
	program, ok := r[programId]
	if !ok {
		return nil, errors.Wrapf(ErrProgramNotSupported, "unknown program %s", programId)
	}
	return program, nil
}

func IsPrecompile(programId solana.PublicKey) bool {
	return programId == sol.Ed25519PrecompileId || programId == sol.Secp256kPrecompileId
}

// checkAuthorizedProgram rejects programs that can never be the target of
// a cross-program invocation.
func checkAuthorizedProgram(programId solana.PublicKey) error {
	if IsPrecompile(programId) || programId == sol.NativeLoaderAddr {
		return errors.Wrapf(ErrProgramNotSupported, "program %s cannot be invoked", programId)
	}
	return nil
}
