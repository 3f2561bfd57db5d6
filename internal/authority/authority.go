package authority

import (
	"encoding/hex"
	"errors"
	"github.com/Zilliqa/gozilliqa-sdk/bech32"
	"golang.org/x/crypto/blake2b"
	"go.uber.org/zap"
)

var (
	ErrNoValidNonce = errors.New("no valid nonce for seeds")
)

// Authority is an address derived from a namespace and seeds. Nothing holds a key
// for it: the only way to act as it is to present the seeds that reproduce it.
type Authority struct {
	Address   string
	Namespace string
	Seeds     []string
	Nonce     uint8
}

func digest(namespace string, nonce uint8, seeds ...string) [32]byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, namespace...)
	for _, seed := range seeds {
		buf = append(buf, 0)
		buf = append(buf, seed...)
	}
	buf = append(buf, 0, nonce)

	return blake2b.Sum256(buf)
}

func valid(d [32]byte) bool {
	return d[0]&0x80 == 0
}

// Derive computes the address for the given nonce without checking the nonce is canonical.
func Derive(namespace string, nonce uint8, seeds ...string) string {
	d := digest(namespace, nonce, seeds...)

	address, err := bech32.ToBech32Address("0x" + hex.EncodeToString(d[12:]))
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("namespace", namespace)).Error("Authority: Failed to encode address")
		return ""
	}

	return address
}

// Find returns the authority for the highest nonce whose digest is valid.
func Find(namespace string, seeds ...string) (*Authority, error) {
	for n := 255; n >= 0; n-- {
		if !valid(digest(namespace, uint8(n), seeds...)) {
			continue
		}
		address := Derive(namespace, uint8(n), seeds...)
		if address == "" {
			break
		}

		return &Authority{
			Address:   address,
			Namespace: namespace,
			Seeds:     append([]string(nil), seeds...),
			Nonce:     uint8(n),
		}, nil
	}

	return nil, ErrNoValidNonce
}

func Verify(address string, namespace string, nonce uint8, seeds ...string) bool {
	if address == "" || !valid(digest(namespace, nonce, seeds...)) {
		return false
	}

	return Derive(namespace, nonce, seeds...) == address
}

func (a Authority) Verify() bool {
	return Verify(a.Address, a.Namespace, a.Nonce, a.Seeds...)
}
