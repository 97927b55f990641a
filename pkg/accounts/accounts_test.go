package accounts

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() *Account {
	return &Account{
		Lamports:   1_000_000,
		Data:       []byte{1, 2, 3, 4, 5},
		Owner:      [32]byte{9, 9, 9},
		Executable: true,
		RentEpoch:  42,
	}
}

func TestAccount_Codec(t *testing.T) {
	acct := testAccount()
	b, err := acct.Marshal()
	require.NoError(t, err)
	assert.Len(t, b, 8+8+5+32+1+8)

	decoded, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, acct, decoded)
}

func TestAccount_UnmarshalTruncated(t *testing.T) {
	b, err := testAccount().Marshal()
	require.NoError(t, err)

	_, err = Unmarshal(b[:12])
	assert.Error(t, err)
}

func TestAccount_Clone(t *testing.T) {
	acct := testAccount()
	c := acct.Clone()
	c.Data[0] = 0xff
	c.Lamports = 1
	assert.Equal(t, byte(1), acct.Data[0])
	assert.Equal(t, uint64(1_000_000), acct.Lamports)
}

func TestHash(t *testing.T) {
	acct := testAccount()
	key := [32]byte{1}

	h1 := Hash(key, acct)
	assert.Equal(t, h1, Hash(key, acct.Clone()))
	assert.NotEqual(t, h1, Hash([32]byte{2}, acct))

	acct.Lamports++
	assert.NotEqual(t, h1, Hash(key, acct))
}

func TestMemAccounts(t *testing.T) {
	store := NewMemAccounts()
	key := [32]byte{7}

	acct, err := store.GetAccount(&key)
	require.NoError(t, err)
	assert.Nil(t, acct)

	require.NoError(t, store.SetAccount(&key, testAccount()))
	acct, err = store.GetAccount(&key)
	require.NoError(t, err)
	assert.Equal(t, testAccount(), acct)

	// returned accounts are copies
	acct.Data[0] = 0
	again, err := store.GetAccount(&key)
	require.NoError(t, err)
	assert.Equal(t, byte(1), again.Data[0])
	assert.Equal(t, 1, store.Len())
}

func TestMemAccounts_Concurrent(t *testing.T) {
	store := NewMemAccounts()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := [32]byte{byte(i)}
			assert.NoError(t, store.SetAccount(&key, &Account{Lamports: uint64(i)}))
		}(i)
	}
	wg.Wait()

	require.Equal(t, 64, store.Len())
	key := [32]byte{42}
	acct, err := store.GetAccount(&key)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), acct.Lamports)
}

func TestBoltAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.db")
	store, err := OpenBoltAccounts(path)
	require.NoError(t, err)

	key := [32]byte{3}
	acct, err := store.GetAccount(&key)
	require.NoError(t, err)
	assert.Nil(t, acct)

	require.NoError(t, store.SetAccount(&key, testAccount()))
	require.NoError(t, store.Close())

	store, err = OpenBoltAccounts(path)
	require.NoError(t, err)
	defer store.Close()

	acct, err = store.GetAccount(&key)
	require.NoError(t, err)
	assert.Equal(t, testAccount(), acct)
}
