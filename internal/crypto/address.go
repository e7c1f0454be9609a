package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyLen is the length of a secp256k1 private key in bytes.
const PrivateKeyLen = 32

var (
	ErrInvalidKeyMaterial = errors.New("invalid private key material")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrBadChecksum        = errors.New("address checksum mismatch")
)

// DeriveAddress derives the Ethereum address controlled by the given private key.
// Keys that are zero or not below the curve order fail with ErrInvalidKeyMaterial.
func DeriveAddress(priv []byte) (common.Address, error) {
	key, err := ethcrypto.ToECDSA(priv)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey), nil
}

// DecodeHex decodes a hex string with or without a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	h := trimHexPrefix(strings.TrimSpace(s))
	if len(h)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even length")
	}
	return hex.DecodeString(h)
}

// ParseAddress parses a 20-byte hex address. All-lowercase and all-uppercase
// inputs are accepted as is; mixed-case inputs must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	h := trimHexPrefix(strings.TrimSpace(s))
	if len(h) != 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: got %d hex chars, want 40", ErrInvalidAddress, len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	addr := common.BytesToAddress(b)

	if h != strings.ToLower(h) && h != strings.ToUpper(h) {
		if ChecksumAddress(addr)[2:] != h {
			return common.Address{}, ErrBadChecksum
		}
	}
	return addr, nil
}

// ChecksumAddress renders addr as an EIP-55 checksummed string.
func ChecksumAddress(addr common.Address) string {
	return addr.Hex()
}

// ---- helpers ----

func trimHexPrefix(h string) string {
	if len(h) >= 2 && (h[0:2] == "0x" || h[0:2] == "0X") {
		return h[2:]
	}
	return h
}
