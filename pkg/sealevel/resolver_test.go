package sealevel

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/cpi/pkg/accounts"
)

func TestResolveAccounts(t *testing.T) {
	a, b, hidden := testKey(1), testKey(2), testKey(3)
	table, err := NewAccountTable(
		[]solana.PublicKey{invokerId, a, b, hidden},
		[]*accounts.Account{{Executable: true}, {}, {}, {}},
	)
	require.NoError(t, err)
	caller := newInstructionCtx(table, 0, invokerId, 0, mergeInstructionAccounts(
		[]AccountMeta{meta(a, false, true), meta(b, false, false)}, []int{1, 2}))
	infos := caller.views(table, []int{1, 2})

	t.Run("resolves_duplicates", func(t *testing.T) {
		indices, err := resolveAccounts(table, caller, []AccountMeta{meta(b, false, false), meta(a, false, false), meta(b, false, false)}, infos)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 1, 2}, indices)
	})
	t.Run("not_visible", func(t *testing.T) {
		_, err := resolveAccounts(table, caller, []AccountMeta{meta(hidden, false, false)}, append(infos, table.View(3, false, false)))
		assert.ErrorIs(t, err, ErrUnresolvedAccount)
	})
	t.Run("unknown", func(t *testing.T) {
		_, err := resolveAccounts(table, caller, []AccountMeta{meta(testKey(9), false, false)}, infos)
		assert.ErrorIs(t, err, ErrUnresolvedAccount)
	})
	t.Run("missing_info", func(t *testing.T) {
		_, err := resolveAccounts(table, caller, []AccountMeta{meta(a, false, false)}, infos[1:])
		assert.ErrorIs(t, err, ErrUnresolvedAccount)
	})
	t.Run("nil_infos", func(t *testing.T) {
		_, err := resolveAccounts(table, caller, []AccountMeta{meta(a, false, false)}, []*AccountInfo{nil, {}})
		assert.ErrorIs(t, err, ErrUnresolvedAccount)
	})
	t.Run("forged", func(t *testing.T) {
		_, err := resolveAccounts(table, caller, []AccountMeta{meta(a, false, false)}, []*AccountInfo{infos[0].Forge()})
		assert.ErrorIs(t, err, ErrAccountAliasingViolation)
	})
	t.Run("first_match_wins", func(t *testing.T) {
		_, err := resolveAccounts(table, caller, []AccountMeta{meta(a, false, false)}, []*AccountInfo{infos[0].Forge(), infos[0]})
		assert.ErrorIs(t, err, ErrAccountAliasingViolation)
	})
}
