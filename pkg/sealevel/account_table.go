package sealevel

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/accounts"
)

type accountRecord struct {
	key        solana.PublicKey
	owner      solana.PublicKey
	lamports   uint64
	data       []byte
	executable bool
	rentEpoch  uint64
}

// AccountTable is the transaction-wide arena of accounts. Records are
// allocated once, so the addresses of their fields stay stable for the
// lifetime of the transaction and can serve as account identities.
type AccountTable struct {
	records    []accountRecord
	byKey      map[solana.PublicKey]int
	byIdentity map[*solana.PublicKey]int
}

func NewAccountTable(keys []solana.PublicKey, accts []*accounts.Account) (*AccountTable, error) {
	if len(keys) != len(accts) {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d keys for %d accounts", len(keys), len(accts))
	}

	table := &AccountTable{
		records:    make([]accountRecord, len(keys)),
		byKey:      make(map[solana.PublicKey]int, len(keys)),
		byIdentity: make(map[*solana.PublicKey]int, len(keys)),
	}

	for idx, key := range keys {
		if _, dup := table.byKey[key]; dup {
			return nil, errors.Wrapf(ErrInvalidArgument, "duplicate account %s", key)
		}
		acct := accts[idx]
		if acct == nil {
			acct = &accounts.Account{}
		}
		rec := &table.records[idx]
		rec.key = key
		rec.owner = acct.Owner
		rec.lamports = acct.Lamports
		rec.data = append([]byte(nil), acct.Data...)
		rec.executable = acct.Executable
		rec.rentEpoch = acct.RentEpoch

		table.byKey[key] = idx
		table.byIdentity[&rec.key] = idx
	}

	return table, nil
}

func (t *AccountTable) Len() int {
	return len(t.records)
}

func (t *AccountTable) IndexOf(pubkey solana.PublicKey) (int, bool) {
	idx, ok := t.byKey[pubkey]
	return idx, ok
}

// IndexOfIdentity finds the record whose key field lives at the given
// address.
func (t *AccountTable) IndexOfIdentity(key *solana.PublicKey) (int, bool) {
	idx, ok := t.byIdentity[key]
	return idx, ok
}

func (t *AccountTable) KeyAt(idx int) solana.PublicKey {
	return t.records[idx].key
}

func (t *AccountTable) IsExecutable(idx int) bool {
	return t.records[idx].executable
}

// Account returns a copy of the account stored at idx.
func (t *AccountTable) Account(idx int) *accounts.Account {
	rec := &t.records[idx]
	return &accounts.Account{
		Lamports:   rec.lamports,
		Data:       append([]byte(nil), rec.data...),
		Owner:      rec.owner,
		Executable: rec.executable,
		RentEpoch:  rec.rentEpoch,
	}
}

// View builds an AccountInfo whose fields alias the record at idx.
func (t *AccountTable) View(idx int, isSigner, isWritable bool) *AccountInfo {
	rec := &t.records[idx]
	return &AccountInfo{
		Key:        &rec.key,
		Owner:      &rec.owner,
		Lamports:   &rec.lamports,
		Data:       &rec.data,
		IsSigner:   isSigner,
		IsWritable: isWritable,
		Executable: rec.executable,
		RentEpoch:  rec.rentEpoch,
	}
}

// Owns reports whether every field of info aliases the record at idx.
func (t *AccountTable) Owns(info *AccountInfo, idx int) bool {
	rec := &t.records[idx]
	return info.Key == &rec.key &&
		info.Owner == &rec.owner &&
		info.Lamports == &rec.lamports &&
		info.Data == &rec.data
}

func (t *AccountTable) setInformational(idx int, executable bool, rentEpoch uint64) {
	rec := &t.records[idx]
	rec.executable = executable
	rec.rentEpoch = rentEpoch
}

type accountSnapshot struct {
	idx      int
	owner    solana.PublicKey
	lamports uint64
	data     []byte
}

func (t *AccountTable) snapshot(idx int) accountSnapshot {
	rec := &t.records[idx]
	return accountSnapshot{
		idx:      idx,
		owner:    rec.owner,
		lamports: rec.lamports,
		data:     append([]byte(nil), rec.data...),
	}
}

// restore rolls the record back to snap and reports whether anything had
// changed.
func (t *AccountTable) restore(snap accountSnapshot) bool {
	rec := &t.records[snap.idx]
	changed := rec.owner != snap.owner ||
		rec.lamports != snap.lamports ||
		!bytes.Equal(rec.data, snap.data)
	if changed {
		rec.owner = snap.owner
		rec.lamports = snap.lamports
		rec.data = snap.data
	}
	return changed
}
