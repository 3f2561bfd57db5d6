package ledger

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUndeclaredKey = errors.New("record not declared by operation")
	ErrReadOnlyKey   = errors.New("record declared read-only")
	ErrConflict      = errors.New("transaction conflict")
)

type Key string

const RegistryKey Key = "registry"

func ListingKey(k entity.ListingKey) Key {
	return newKey("listing", k.Asset, k.Seller)
}

func DelegationKey(asset, owner string) Key {
	return newKey("delegation", asset, owner)
}

func AssetKey(owner, asset string) Key {
	return newKey("asset", owner, asset)
}

func CurrencyKey(owner string) Key {
	return newKey("currency", owner)
}

// newKey escapes every part so that ("a/b", "c") and ("a", "b/c") stay distinct.
func newKey(kind string, parts ...string) Key {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, kind)
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}

	return Key(strings.Join(escaped, "/"))
}

// Access declares a record an operation touches and whether it writes it.
type Access struct {
	Key   Key
	Write bool
}

func Read(k Key) Access {
	return Access{Key: k}
}

func Write(k Key) Access {
	return Access{Key: k, Write: true}
}

// Tx is the view of state inside one operation. Balances of unknown accounts are zero.
type Tx interface {
	Registry() (*entity.Marketplace, error)
	PutRegistry(m entity.Marketplace) error

	Listing(key entity.ListingKey) (*entity.Listing, error)
	PutListing(l entity.Listing) error

	Delegation(asset, owner string) (*entity.Delegation, error)
	PutDelegation(d entity.Delegation) error
	DeleteDelegation(asset, owner string) error

	AssetBalance(owner, asset string) (uint64, error)
	SetAssetBalance(owner, asset string, amount uint64) error

	CurrencyBalance(owner string) (uint64, error)
	SetCurrencyBalance(owner string, amount uint64) error
}

// Host runs each operation atomically. Operations whose declared records overlap
// (with at least one writer) are serialized; a failing operation leaves no effect.
type Host interface {
	Execute(ctx context.Context, access []Access, fn func(tx Tx) error) error
}

type declared map[Key]bool

// declare merges duplicate keys, a write on any duplicate wins.
func declare(access []Access) declared {
	d := make(declared, len(access))
	for _, a := range access {
		d[a.Key] = d[a.Key] || a.Write
	}

	return d
}

func (d declared) sorted() []Access {
	out := make([]Access, 0, len(d))
	for k, w := range d {
		out = append(out, Access{Key: k, Write: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

func (d declared) canRead(k Key) error {
	if _, ok := d[k]; !ok {
		return fmt.Errorf("%w: %s", ErrUndeclaredKey, k)
	}
	return nil
}

func (d declared) canWrite(k Key) error {
	w, ok := d[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndeclaredKey, k)
	}
	if !w {
		return fmt.Errorf("%w: %s", ErrReadOnlyKey, k)
	}
	return nil
}
