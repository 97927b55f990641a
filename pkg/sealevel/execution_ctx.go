package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/features"
	"k8s.io/klog/v2"
)

// ExecutionCtx dispatches instructions of one transaction and serves as
// the Port of every program it runs.
type ExecutionCtx struct {
	Logger             Logger
	TransactionContext *TransactionCtx
	Loader             Loader
}

func NewExecutionCtx(txCtx *TransactionCtx, loader Loader, log Logger) *ExecutionCtx {
	if log == nil {
		log = discardLogger{}
	}
	return &ExecutionCtx{
		Logger:             log,
		TransactionContext: txCtx,
		Loader:             loader,
	}
}

// ProcessInstruction runs a top-level instruction at depth 0. The metas
// of the instruction carry the authority already established for the
// transaction.
func (execCtx *ExecutionCtx) ProcessInstruction(ix Instruction) (uint64, error) {
	txCtx := execCtx.TransactionContext
	table := txCtx.Table

	indices := make([]int, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		idx, ok := table.IndexOf(meta.Pubkey)
		if !ok {
			return 0, errors.Wrapf(ErrUnresolvedAccount, "instruction references unknown account %s", meta.Pubkey)
		}
		indices[i] = idx
	}

	programIdx, program, err := execCtx.loadProgram(nil, ix.ProgramId)
	if err != nil {
		return 0, err
	}

	instrCtx := newInstructionCtx(table, 0, ix.ProgramId, programIdx, mergeInstructionAccounts(ix.Accounts, indices))
	status, err := execCtx.run(instrCtx, program, indices, ix.Data)
	if fatal := txCtx.Fatal(); fatal != nil {
		return status, fatal
	}
	return status, err
}

// Invoke performs a cross-program invocation on behalf of the currently
// executing program.
func (execCtx *ExecutionCtx) Invoke(ix Instruction, accountInfos []*AccountInfo, signers []SignerSeeds) (uint64, error) {
	txCtx := execCtx.TransactionContext
	if fatal := txCtx.Fatal(); fatal != nil {
		return 0, fatal
	}

	status, err := execCtx.invoke(ix, accountInfos, signers)
	if IsFatal(err) {
		klog.Errorf("aborting transaction: %s", err)
		txCtx.recordFatal(err)
	}
	// a fatal error raised further down unwinds every frame, even if a
	// program in between ignored it
	if fatal := txCtx.Fatal(); fatal != nil {
		status, err = 0, fatal
	}
	observeInvocation(txCtx.Depth()+1, status, err)
	return status, err
}

func (execCtx *ExecutionCtx) invoke(ix Instruction, accountInfos []*AccountInfo, signers []SignerSeeds) (uint64, error) {
	txCtx := execCtx.TransactionContext
	table := txCtx.Table

	caller, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return 0, err
	}
	klog.V(2).Infof("invoke %s from %s at depth %d", ix.ProgramId, caller.ProgramId(), caller.Depth())

	if err = checkAuthorizedProgram(ix.ProgramId); err != nil {
		return 0, err
	}
	if err = txCtx.Limits.checkInstruction(&ix, len(accountInfos), txCtx.Features); err != nil {
		return 0, err
	}
	if err = txCtx.Limits.checkSigners(signers); err != nil {
		return 0, err
	}

	indices, err := resolveAccounts(table, caller, ix.Accounts, accountInfos)
	if err != nil {
		return 0, err
	}

	pdaSigners, err := deriveSigners(caller.ProgramId(), signers)
	if err != nil {
		return 0, err
	}
	if err = checkPrivileges(caller, ix.Accounts, pdaSigners); err != nil {
		return 0, err
	}

	programIdx, program, err := execCtx.loadProgram(caller, ix.ProgramId)
	if err != nil {
		return 0, err
	}

	txCtx.ReturnData.Clear()

	err = txCtx.enter()
	defer txCtx.leave()
	if err != nil {
		return 0, err
	}

	// legacy runtimes let the caller set these fields on accounts it may
	// write; they take effect once the callee frame is pushed
	var updates []informationalUpdate
	if !txCtx.Features.IsActive(features.DisableCpiSettingExecutableAndRentEpoch) {
		for _, idx := range indices {
			key := table.KeyAt(idx)
			if !caller.IsWritable(key) {
				continue
			}
			info := findAccountInfo(accountInfos, key)
			updates = append(updates, informationalUpdate{idx: idx, executable: info.Executable, rentEpoch: info.RentEpoch})
		}
	}

	callee := newInstructionCtx(table, caller.Depth()+1, ix.ProgramId, programIdx, mergeInstructionAccounts(ix.Accounts, indices))
	return execCtx.run(callee, program, indices, ix.Data, updates...)
}

// loadProgram checks that programId names an executable program visible to
// the caller and loads it. A nil caller means the top-level instruction.
func (execCtx *ExecutionCtx) loadProgram(caller *InstructionCtx, programId solana.PublicKey) (int, Program, error) {
	table := execCtx.TransactionContext.Table

	programIdx, ok := table.IndexOf(programId)
	if !ok || (caller != nil && !caller.IsVisible(programIdx)) {
		return 0, nil, errors.Wrapf(ErrUnresolvedAccount, "unknown program %s", programId)
	}
	if !table.IsExecutable(programIdx) {
		klog.V(2).Infof("account %s is not executable", programId)
		return 0, nil, errors.Wrapf(ErrProgramNotExecutable, "program %s", programId)
	}

	program, err := execCtx.Loader.Load(programId)
	if err != nil {
		return 0, nil, err
	}
	return programIdx, program, nil
}

type informationalUpdate struct {
	idx        int
	executable bool
	rentEpoch  uint64
}

// run pushes the frame, executes its program and pops it again. Read-only
// accounts modified by the program are rolled back.
func (execCtx *ExecutionCtx) run(instrCtx *InstructionCtx, program Program, indices []int, data []byte, updates ...informationalUpdate) (uint64, error) {
	txCtx := execCtx.TransactionContext
	table := txCtx.Table

	pos, err := txCtx.Push(instrCtx)
	if err != nil {
		return 0, err
	}
	for _, u := range updates {
		table.setInformational(u.idx, u.executable, u.rentEpoch)
	}

	var snapshots []accountSnapshot
	for _, acct := range instrCtx.accounts {
		if !acct.IsWritable {
			snapshots = append(snapshots, table.snapshot(acct.IndexInTransaction))
		}
	}

	status, err := program.Execute(execCtx, instrCtx.views(table, indices), data)

	for _, snap := range snapshots {
		if table.restore(snap) && err == nil {
			status, err = 0, errors.Wrapf(ErrReadonlyDataModified, "account %s", table.KeyAt(snap.idx))
		}
	}

	txCtx.finishTrace(pos, status, err)
	if popErr := txCtx.Pop(); popErr != nil && err == nil {
		return 0, popErr
	}
	return status, err
}

func (execCtx *ExecutionCtx) currentProgramId() solana.PublicKey {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return solana.PublicKey{}
	}
	return instrCtx.ProgramId()
}
