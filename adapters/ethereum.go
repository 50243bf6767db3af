package adapters

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/keys"
)

// EthereumAddressSize is the length of an Ethereum account address.
const EthereumAddressSize = 20

// EthereumAddress derives the account address of a secp256k1 key: the last
// 20 bytes of keccak256(x || y).
func EthereumAddress(p *keys.PublicKey) ([]byte, error) {
	if err := requireCurve(p.Type(), curve.Secp256k1); err != nil {
		return nil, err
	}

	// Skip the 0x04 prefix byte
	uncompressed := p.Bytes()
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(uncompressed[1:])
	hash := hasher.Sum(nil)

	address := make([]byte, EthereumAddressSize)
	copy(address, hash[32-EthereumAddressSize:])
	return address, nil
}

// ChecksumAddress renders an address in EIP-55 mixed-case hex.
func ChecksumAddress(address []byte) (string, error) {
	if len(address) != EthereumAddressSize {
		return "", cvcerr.ErrInvalidLength.WithDetails("address needs %d bytes, got %d", EthereumAddressSize, len(address))
	}
	lower := hex.EncodeToString(address)

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(lower))
	hash := hasher.Sum(nil)

	var b strings.Builder
	b.WriteString("0x")
	for i, c := range lower {
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if c >= 'a' && nibble&0x0f >= 8 {
			c -= 'a' - 'A'
		}
		b.WriteRune(c)
	}
	return b.String(), nil
}
