package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.firedancer.io/cpi/pkg/accounts"
	"go.firedancer.io/cpi/pkg/features"
	"k8s.io/klog/v2"
)

// Runtime executes single-instruction transactions against an account
// store.
type Runtime struct {
	Accounts accounts.Accounts
	Loader   Loader
	Limits   Limits
	Features *features.Features
}

func NewRuntime(store accounts.Accounts, loader Loader, limits Limits, f *features.Features) (*Runtime, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if f == nil {
		f = features.NewFeaturesAllEnabled()
	}
	return &Runtime{
		Accounts: store,
		Loader:   loader,
		Limits:   limits,
		Features: f,
	}, nil
}

type Result struct {
	Status          uint64
	Err             error
	ReturnProgramId solana.PublicKey
	ReturnData      []byte
	Trace           []TraceEntry
	Logs            []string
	Committed       bool
}

func (r *Result) Success() bool {
	return r.Err == nil && r.Status == StatusSuccess
}

// Execute runs ix as a transaction. Account changes are written back to
// the store only if the transaction succeeds. The returned error reports
// store failures; execution failures are reported in the Result.
func (rt *Runtime) Execute(ix Instruction) (*Result, error) {
	keys := lo.Uniq(append([]solana.PublicKey{ix.ProgramId}, lo.Map(ix.Accounts, func(meta AccountMeta, _ int) solana.PublicKey {
		return meta.Pubkey
	})...))

	accts := make([]*accounts.Account, len(keys))
	for i, key := range keys {
		k := [32]byte(key)
		acct, err := rt.Accounts.GetAccount(&k)
		if err != nil {
			return nil, errors.Wrapf(err, "loading account %s", key)
		}
		accts[i] = acct
	}

	table, err := NewAccountTable(keys, accts)
	if err != nil {
		return nil, err
	}

	txCtx := NewTransactionCtx(table, rt.Limits, rt.Features)
	recorder := new(LogRecorder)
	execCtx := NewExecutionCtx(txCtx, rt.Loader, recorder)

	status, execErr := execCtx.ProcessInstruction(ix)
	result := &Result{
		Status: status,
		Err:    execErr,
		Trace:  txCtx.Trace(),
		Logs:   recorder.Logs,
	}
	result.ReturnProgramId, result.ReturnData = txCtx.ReturnData.Get()
	transactionsTotal.WithLabelValues(outcomeOf(status, execErr)).Inc()

	if !result.Success() {
		klog.Infof("transaction for program %s failed: status=%#x err=%v", ix.ProgramId, status, execErr)
		return result, nil
	}

	for idx := 0; idx < table.Len(); idx++ {
		k := [32]byte(table.KeyAt(idx))
		if err := rt.Accounts.SetAccount(&k, table.Account(idx)); err != nil {
			return result, errors.Wrapf(err, "committing account %s", table.KeyAt(idx))
		}
	}
	result.Committed = true
	klog.V(1).Infof("transaction for program %s committed %d accounts", ix.ProgramId, table.Len())
	return result, nil
}
