package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/features"
)

func (execCtx *ExecutionCtx) ProgramId() solana.PublicKey {
	return execCtx.currentProgramId()
}

func (execCtx *ExecutionCtx) StackHeight() uint64 {
	return uint64(execCtx.TransactionContext.InstructionCtxStackHeight())
}

// SetReturnData stores data as the current program's return value.
func (execCtx *ExecutionCtx) SetReturnData(data []byte) error {
	txCtx := execCtx.TransactionContext
	if !txCtx.Features.IsActive(features.ReturnDataSyscallEnabled) {
		return errors.Wrap(ErrReturnDataDisabled, "sol_set_return_data")
	}
	return txCtx.ReturnData.Set(execCtx.currentProgramId(), data, txCtx.Limits.MaxReturnData)
}

// GetReturnData reads the return data slot. It is empty when the last
// invoked program did not set anything.
func (execCtx *ExecutionCtx) GetReturnData() (solana.PublicKey, []byte) {
	txCtx := execCtx.TransactionContext
	if !txCtx.Features.IsActive(features.ReturnDataSyscallEnabled) {
		return solana.PublicKey{}, nil
	}
	return txCtx.ReturnData.Get()
}

func (execCtx *ExecutionCtx) Log(msg string) {
	execCtx.Logger.Log("Program log: " + msg)
}
