package accounts

import (
	"github.com/cespare/xxhash/v2"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemAccounts is an in-memory account store, safe for concurrent use.
// Missing accounts read as nil.
type MemAccounts struct {
	m cmap.ConcurrentMap[[32]byte, *Account]
}

func shardPubkey(pubkey [32]byte) uint32 {
	return uint32(xxhash.Sum64(pubkey[:]))
}

func NewMemAccounts() *MemAccounts {
	return &MemAccounts{
		m: cmap.NewWithCustomShardingFunction[[32]byte, *Account](shardPubkey),
	}
}

func (m *MemAccounts) GetAccount(pubkey *[32]byte) (*Account, error) {
	acct, ok := m.m.Get(*pubkey)
	if !ok {
		return nil, nil
	}
	return acct.Clone(), nil
}

func (m *MemAccounts) SetAccount(pubkey *[32]byte, acc *Account) error {
	m.m.Set(*pubkey, acc.Clone())
	return nil
}

// Len returns the number of stored accounts.
func (m *MemAccounts) Len() int {
	return m.m.Count()
}
