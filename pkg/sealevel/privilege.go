package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// checkPrivilege validates a single requested meta against the caller's
// grants. Every occurrence of a pubkey is checked on its own, so a
// duplicate entry cannot borrow authority from another.
func checkPrivilege(caller *InstructionCtx, meta AccountMeta, pdaSigners []solana.PublicKey) error {
	if meta.IsWritable && !caller.IsWritable(meta.Pubkey) {
		return errors.Wrapf(ErrPrivilegeEscalation, "%s's writable privilege escalated", meta.Pubkey)
	}
	if meta.IsSigner && !caller.IsSigner(meta.Pubkey) && !lo.Contains(pdaSigners, meta.Pubkey) {
		return errors.Wrapf(ErrPrivilegeEscalation, "%s's signer privilege escalated", meta.Pubkey)
	}
	return nil
}

func checkPrivileges(caller *InstructionCtx, metas []AccountMeta, pdaSigners []solana.PublicKey) error {
	for _, meta := range metas {
		if err := checkPrivilege(caller, meta, pdaSigners); err != nil {
			return err
		}
	}
	return nil
}
