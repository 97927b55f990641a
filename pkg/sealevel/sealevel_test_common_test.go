package sealevel

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/cpi/pkg/accounts"
	"go.firedancer.io/cpi/pkg/features"
	sol "go.firedancer.io/cpi/pkg/solana"
)

var (
	invokerId = solana.PublicKeyFromBytes(bytes.Repeat([]byte{0x11}, 32))
	invokedId = solana.PublicKeyFromBytes(bytes.Repeat([]byte{0x22}, 32))
	thirdId   = solana.PublicKeyFromBytes(bytes.Repeat([]byte{0x33}, 32))
)

func testKey(b byte) solana.PublicKey {
	var key solana.PublicKey
	key[0] = 0xaa
	key[31] = b
	return key
}

func meta(key solana.PublicKey, isSigner, isWritable bool) AccountMeta {
	return AccountMeta{Pubkey: key, IsSigner: isSigner, IsWritable: isWritable}
}

func findInfo(infos []*AccountInfo, key solana.PublicKey) *AccountInfo {
	return findAccountInfo(infos, key)
}

type testEnv struct {
	t        *testing.T
	store    *accounts.MemAccounts
	programs ProgramRegistry
	limits   Limits
	features *features.Features
}

func newTestEnv(t *testing.T) *testEnv {
	return &testEnv{
		t:        t,
		store:    accounts.NewMemAccounts(),
		programs: NewProgramRegistry(),
		limits:   DefaultLimits(),
		features: features.NewFeaturesAllEnabled(),
	}
}

func (env *testEnv) addProgram(id solana.PublicKey, fn ProgramFunc) {
	env.programs.Register(id, fn)
	k := [32]byte(id)
	require.NoError(env.t, env.store.SetAccount(&k, &accounts.Account{
		Lamports:   1,
		Owner:      sol.BpfLoader2Addr,
		Executable: true,
	}))
}

func (env *testEnv) addAccount(key solana.PublicKey, lamports uint64, data []byte) {
	k := [32]byte(key)
	require.NoError(env.t, env.store.SetAccount(&k, &accounts.Account{
		Lamports: lamports,
		Data:     data,
		Owner:    invokerId,
	}))
}

func (env *testEnv) account(key solana.PublicKey) *accounts.Account {
	k := [32]byte(key)
	acct, err := env.store.GetAccount(&k)
	require.NoError(env.t, err)
	require.NotNil(env.t, acct)
	return acct
}

func (env *testEnv) execute(programId solana.PublicKey, data []byte, metas ...AccountMeta) *Result {
	rt, err := NewRuntime(env.store, env.programs, env.limits, env.features)
	require.NoError(env.t, err)
	result, err := rt.Execute(Instruction{ProgramId: programId, Accounts: metas, Data: data})
	require.NoError(env.t, err)
	return result
}

// newTestExecutionCtx builds a context with the top-level frame already
// pushed, for tests that drive Invoke directly.
func newTestExecutionCtx(t *testing.T, programs ProgramRegistry, keys []solana.PublicKey, accts []*accounts.Account, metas []AccountMeta) (*ExecutionCtx, []*AccountInfo) {
	table, err := NewAccountTable(keys, accts)
	require.NoError(t, err)

	txCtx := NewTransactionCtx(table, DefaultLimits(), features.NewFeaturesAllEnabled())
	execCtx := NewExecutionCtx(txCtx, programs, new(LogRecorder))

	indices := make([]int, len(metas))
	for i, m := range metas {
		idx, ok := table.IndexOf(m.Pubkey)
		require.True(t, ok)
		indices[i] = idx
	}
	programIdx, ok := table.IndexOf(invokerId)
	require.True(t, ok)

	instrCtx := newInstructionCtx(table, 0, invokerId, programIdx, mergeInstructionAccounts(metas, indices))
	_, err = txCtx.Push(instrCtx)
	require.NoError(t, err)

	return execCtx, instrCtx.views(table, indices)
}
