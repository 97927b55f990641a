package solana

import "github.com/gagliardetto/solana-go"

var (
	SystemProgramAddr    = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	NativeLoaderAddr     = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")
	BpfLoader2Addr       = solana.MustPublicKeyFromBase58("BPFLoader2111111111111111111111111111111111")
	Ed25519PrecompileId  = solana.MustPublicKeyFromBase58("Ed25519SigVerify111111111111111111111111111")
	Secp256kPrecompileId = solana.MustPublicKeyFromBase58("KeccakSecp256k11111111111111111111111111111")
)

// MustAddress parses a base58 address and panics on malformed input.
func MustAddress(s string) solana.PublicKey {
	return solana.MustPublicKeyFromBase58(s)
}
