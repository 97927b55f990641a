package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

type Instruction struct {
	Accounts  []AccountMeta
	Data      []byte
	ProgramId solana.PublicKey
}

// AccountMetaSize is the serialized size of an AccountMeta.
const AccountMetaSize = 34

type AccountMeta struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// SignerSeeds holds the seeds of one derived signer.
type SignerSeeds [][]byte

// InstructionAccount is an instruction account after duplicates have been
// merged, indexed into the transaction's account table.
type InstructionAccount struct {
	IndexInTransaction int
	IndexInCallee      int
	IsSigner           bool
	IsWritable         bool
}

// AccountInfo is a program's view of an account. The pointer fields alias
// the transaction's account storage; the runtime identifies an account by
// these addresses, not by their contents.
type AccountInfo struct {
	Key        *solana.PublicKey
	Owner      *solana.PublicKey
	Lamports   *uint64
	Data       *[]byte
	IsSigner   bool
	IsWritable bool
	Executable bool
	RentEpoch  uint64
}

// Forge returns a copy of the info whose fields no longer alias account
// storage.
func (info *AccountInfo) Forge() *AccountInfo {
	key, owner, lamports := *info.Key, *info.Owner, *info.Lamports
	data := append([]byte(nil), (*info.Data)...)
	return &AccountInfo{
		Key:        &key,
		Owner:      &owner,
		Lamports:   &lamports,
		Data:       &data,
		IsSigner:   info.IsSigner,
		IsWritable: info.IsWritable,
		Executable: info.Executable,
		RentEpoch:  info.RentEpoch,
	}
}
