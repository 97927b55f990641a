package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// findAccountInfo returns the first caller-supplied info whose key matches.
func findAccountInfo(infos []*AccountInfo, pubkey solana.PublicKey) *AccountInfo {
	for _, info := range infos {
		if info != nil && info.Key != nil && *info.Key == pubkey {
			return info
		}
	}
	return nil
}

// resolveAccounts binds each meta to the caller-visible account table
// index and checks that the caller's AccountInfo for it aliases the
// tracked storage rather than a copy.
func resolveAccounts(table *AccountTable, caller *InstructionCtx, metas []AccountMeta, infos []*AccountInfo) ([]int, error) {
	indices := make([]int, len(metas))

	for i, meta := range metas {
		idx, ok := table.IndexOf(meta.Pubkey)
		if !ok || !caller.IsVisible(idx) {
			return nil, errors.Wrapf(ErrUnresolvedAccount, "instruction references unknown account %s", meta.Pubkey)
		}

		info := findAccountInfo(infos, meta.Pubkey)
		if info == nil {
			return nil, errors.Wrapf(ErrUnresolvedAccount, "no account info passed for %s", meta.Pubkey)
		}
		if !table.Owns(info, idx) {
			return nil, errors.Wrapf(ErrAccountAliasingViolation, "account info for %s does not alias account storage", meta.Pubkey)
		}

		indices[i] = idx
	}

	return indices, nil
}
