package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// ReturnData is the transaction's single return data slot.
type ReturnData struct {
	programId solana.PublicKey
	data      []byte
}

func (r *ReturnData) Clear() {
	r.programId = solana.PublicKey{}
	r.data = nil
}

// Set replaces the slot contents. Oversized data is rejected, never
// truncated.
func (r *ReturnData) Set(programId solana.PublicKey, data []byte, maxLen int) error {
	if len(data) > maxLen {
		return errors.Wrapf(ErrReturnDataTooLarge, "%d > %d", len(data), maxLen)
	}
	r.programId = programId
	r.data = append([]byte(nil), data...)
	return nil
}

func (r *ReturnData) Get() (solana.PublicKey, []byte) {
	return r.programId, append([]byte(nil), r.data...)
}

func (r *ReturnData) IsEmpty() bool {
	return len(r.data) == 0 && r.programId.IsZero()
}
