package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

// Port is the runtime surface a program sees while it executes.
type Port interface {
	// ProgramId is the id of the currently executing program.
	ProgramId() solana.PublicKey
	// StackHeight is the number of frames on the stack, 1 at top level.
	StackHeight() uint64
	Invoke(ix Instruction, accountInfos []*AccountInfo, signers []SignerSeeds) (uint64, error)
	CreateProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, error)
	FindProgramAddress(seeds [][]byte, programId solana.PublicKey) (solana.PublicKey, uint8, error)
	SetReturnData(data []byte) error
	GetReturnData() (solana.PublicKey, []byte)
	Log(msg string)
}

// Program is an executable program as provided by the loader. A non-zero
// status is an application error code and is passed to the caller as is.
type Program interface {
	Execute(port Port, accounts []*AccountInfo, data []byte) (uint64, error)
}

type ProgramFunc func(port Port, accounts []*AccountInfo, data []byte) (uint64, error)

func (f ProgramFunc) Execute(port Port, accounts []*AccountInfo, data []byte) (uint64, error) {
	return f(port, accounts, data)
}

type Loader interface {
	Load(programId solana.PublicKey) (Program, error)
}
