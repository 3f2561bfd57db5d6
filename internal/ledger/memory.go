package ledger

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"go.uber.org/zap"
	"sync"
)

type tombstone struct{}

type keyLock struct {
	sync.RWMutex
	refs int
}

// Memory is an in-process Host. Each declared key has its own RW lock; locks are
// taken in key order so overlapping operations cannot deadlock. A key lock lives
// only while some operation holds or waits on it.
type Memory struct {
	mu      sync.Mutex
	locks   map[Key]*keyLock
	records sync.Map
}

func NewMemory() *Memory {
	return &Memory{locks: make(map[Key]*keyLock)}
}

func (m *Memory) acquire(k Key) *keyLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[k]
	if !ok {
		l = &keyLock{}
		m.locks[k] = l
	}
	l.refs++
	return l
}

func (m *Memory) release(k Key, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.locks, k)
	}
}

func (m *Memory) Execute(ctx context.Context, access []Access, fn func(tx Tx) error) error {
	d := declare(access)

	for _, a := range d.sorted() {
		k, l := a.Key, m.acquire(a.Key)
		if a.Write {
			l.Lock()
			defer func() {
				l.Unlock()
				m.release(k, l)
			}()
		} else {
			l.RLock()
			defer func() {
				l.RUnlock()
				m.release(k, l)
			}()
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{host: m, declared: d, writes: make(map[Key]interface{})}
	if err := fn(tx); err != nil {
		zap.L().With(zap.Error(err), zap.Int("records", len(d))).Debug("Ledger: Operation rolled back")
		return err
	}

	for k, v := range tx.writes {
		if _, deleted := v.(tombstone); deleted {
			m.records.Delete(k)
			continue
		}
		m.records.Store(k, v)
	}

	return nil
}

type memoryTx struct {
	host     *Memory
	declared declared
	writes   map[Key]interface{}
}

func (t *memoryTx) get(k Key) (interface{}, error) {
	if err := t.declared.canRead(k); err != nil {
		return nil, err
	}
	if v, ok := t.writes[k]; ok {
		if _, deleted := v.(tombstone); deleted {
			return nil, ErrNotFound
		}
		return v, nil
	}
	if v, ok := t.host.records.Load(k); ok {
		return v, nil
	}

	return nil, ErrNotFound
}

func (t *memoryTx) put(k Key, v interface{}) error {
	if err := t.declared.canWrite(k); err != nil {
		return err
	}
	t.writes[k] = v

	return nil
}

func (t *memoryTx) Registry() (*entity.Marketplace, error) {
	v, err := t.get(RegistryKey)
	if err != nil {
		return nil, err
	}
	m := v.(entity.Marketplace)
	return &m, nil
}

func (t *memoryTx) PutRegistry(m entity.Marketplace) error {
	return t.put(RegistryKey, m)
}

func (t *memoryTx) Listing(key entity.ListingKey) (*entity.Listing, error) {
	v, err := t.get(ListingKey(key))
	if err != nil {
		return nil, err
	}
	l := v.(entity.Listing)
	return &l, nil
}

func (t *memoryTx) PutListing(l entity.Listing) error {
	return t.put(ListingKey(l.Key()), l)
}

func (t *memoryTx) Delegation(asset, owner string) (*entity.Delegation, error) {
	v, err := t.get(DelegationKey(asset, owner))
	if err != nil {
		return nil, err
	}
	d := v.(entity.Delegation)
	return &d, nil
}

func (t *memoryTx) PutDelegation(d entity.Delegation) error {
	return t.put(DelegationKey(d.Asset, d.Owner), d)
}

func (t *memoryTx) DeleteDelegation(asset, owner string) error {
	return t.put(DelegationKey(asset, owner), tombstone{})
}

func (t *memoryTx) balance(k Key) (uint64, error) {
	v, err := t.get(k)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

func (t *memoryTx) AssetBalance(owner, asset string) (uint64, error) {
	return t.balance(AssetKey(owner, asset))
}

func (t *memoryTx) SetAssetBalance(owner, asset string, amount uint64) error {
	return t.put(AssetKey(owner, asset), amount)
}

func (t *memoryTx) CurrencyBalance(owner string) (uint64, error) {
	return t.balance(CurrencyKey(owner))
}

func (t *memoryTx) SetCurrencyBalance(owner string, amount uint64) error {
	return t.put(CurrencyKey(owner), amount)
}
