package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

// InstructionCtx is the invocation frame of one executing program: the
// accounts it can see and the authority it was granted over them.
type InstructionCtx struct {
	depth            int
	programId        solana.PublicKey
	programIndex     int
	accounts         []InstructionAccount
	visible          map[int]struct{}
	grantedSigners   map[solana.PublicKey]struct{}
	grantedWritables map[solana.PublicKey]struct{}
}

func newInstructionCtx(table *AccountTable, depth int, programId solana.PublicKey, programIndex int, instrAccts []InstructionAccount) *InstructionCtx {
	instrCtx := &InstructionCtx{
		depth:            depth,
		programId:        programId,
		programIndex:     programIndex,
		accounts:         instrAccts,
		visible:          make(map[int]struct{}, len(instrAccts)+1),
		grantedSigners:   make(map[solana.PublicKey]struct{}),
		grantedWritables: make(map[solana.PublicKey]struct{}),
	}
	instrCtx.visible[programIndex] = struct{}{}
	for _, acct := range instrAccts {
		instrCtx.visible[acct.IndexInTransaction] = struct{}{}
		key := table.KeyAt(acct.IndexInTransaction)
		if acct.IsSigner {
			instrCtx.grantedSigners[key] = struct{}{}
		}
		if acct.IsWritable {
			instrCtx.grantedWritables[key] = struct{}{}
		}
	}
	return instrCtx
}

func (instrCtx *InstructionCtx) ProgramId() solana.PublicKey {
	return instrCtx.programId
}

// Depth is the nesting level of the frame; the top-level instruction runs
// at depth 0.
func (instrCtx *InstructionCtx) Depth() int {
	return instrCtx.depth
}

func (instrCtx *InstructionCtx) Accounts() []InstructionAccount {
	return instrCtx.accounts
}

func (instrCtx *InstructionCtx) IsVisible(idx int) bool {
	_, ok := instrCtx.visible[idx]
	return ok
}

func (instrCtx *InstructionCtx) IsSigner(pubkey solana.PublicKey) bool {
	_, ok := instrCtx.grantedSigners[pubkey]
	return ok
}

func (instrCtx *InstructionCtx) IsWritable(pubkey solana.PublicKey) bool {
	_, ok := instrCtx.grantedWritables[pubkey]
	return ok
}

// mergeInstructionAccounts collapses duplicate metas into one entry per
// account, OR-ing their flags. Privileges must be validated per meta before
// merging.
func mergeInstructionAccounts(metas []AccountMeta, indices []int) []InstructionAccount {
	instrAccts := make([]InstructionAccount, 0, len(metas))
	position := make(map[int]int, len(metas))

	for i, meta := range metas {
		idx := indices[i]
		if pos, ok := position[idx]; ok {
			instrAccts[pos].IsSigner = instrAccts[pos].IsSigner || meta.IsSigner
			instrAccts[pos].IsWritable = instrAccts[pos].IsWritable || meta.IsWritable
			continue
		}
		position[idx] = len(instrAccts)
		instrAccts = append(instrAccts, InstructionAccount{
			IndexInTransaction: idx,
			IndexInCallee:      i,
			IsSigner:           meta.IsSigner,
			IsWritable:         meta.IsWritable,
		})
	}

	return instrAccts
}

// views builds the account infos handed to the frame's program, one per
// requested meta. Duplicate metas share a single AccountInfo.
func (instrCtx *InstructionCtx) views(table *AccountTable, indices []int) []*AccountInfo {
	byIdx := make(map[int]*AccountInfo, len(instrCtx.accounts))
	for _, acct := range instrCtx.accounts {
		byIdx[acct.IndexInTransaction] = table.View(acct.IndexInTransaction, acct.IsSigner, acct.IsWritable)
	}

	infos := make([]*AccountInfo, len(indices))
	for i, idx := range indices {
		infos[i] = byIdx[idx]
	}
	return infos
}
