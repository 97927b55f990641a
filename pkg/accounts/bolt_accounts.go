package accounts

import (
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	bolt "go.etcd.io/bbolt"
)

var accountsBucket = []byte("accounts")

// BoltAccounts persists accounts in a bbolt file, one key per pubkey.
type BoltAccounts struct {
	db *bolt.DB
}

func OpenBoltAccounts(path string) (*BoltAccounts, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltAccounts{db: db}, nil
}

func (b *BoltAccounts) Close() error {
	return b.db.Close()
}

func (b *BoltAccounts) GetAccount(pubkey *[32]byte) (*Account, error) {
	var acct *Account
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(accountsBucket).Get(pubkey[:])
		if v == nil {
			return nil
		}
		// v is only valid for the lifetime of the transaction.
		var err error
		acct, err = Unmarshal(append([]byte(nil), v...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error whilst retrieving account %s: %w", base58.Encode(pubkey[:]), err)
	}
	return acct, nil
}

func (b *BoltAccounts) SetAccount(pubkey *[32]byte, acct *Account) error {
	acctBytes, err := acct.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize account %s: %w", base58.Encode(pubkey[:]), err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).Put(pubkey[:], acctBytes)
	})
	if err != nil {
		return fmt.Errorf("error setting account for %s: %w", base58.Encode(pubkey[:]), err)
	}
	return nil
}
