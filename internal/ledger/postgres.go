package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"strconv"
	"time"
)

// Postgres is a Host backed by one SERIALIZABLE transaction per operation. Declared
// records are still enforced so both hosts reject the same operations.
type Postgres struct {
	db *gorm.DB
}

type registryModel struct {
	ID        string `gorm:"primaryKey"`
	Address   string
	Admin     string
	FeeBps    int
	Nonce     int
	CreatedAt time.Time
}

func (registryModel) TableName() string { return "marketplaces" }

type listingModel struct {
	Asset     string `gorm:"primaryKey"`
	Seller    string `gorm:"primaryKey"`
	Address   string
	Price     string `gorm:"type:numeric(20,0)"`
	Active    bool
	Nonce     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (listingModel) TableName() string { return "listings" }

type delegationModel struct {
	Asset    string `gorm:"primaryKey"`
	Owner    string `gorm:"primaryKey"`
	Delegate string
	Amount   string `gorm:"type:numeric(20,0)"`
}

func (delegationModel) TableName() string { return "delegations" }

type assetBalanceModel struct {
	Owner  string `gorm:"primaryKey"`
	Asset  string `gorm:"primaryKey"`
	Amount string `gorm:"type:numeric(20,0)"`
}

func (assetBalanceModel) TableName() string { return "asset_balances" }

type currencyBalanceModel struct {
	Owner  string `gorm:"primaryKey"`
	Amount string `gorm:"type:numeric(20,0)"`
}

func (currencyBalanceModel) TableName() string { return "currency_balances" }

func Connect(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return NewPostgres(db), nil
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Migrate() error {
	return p.db.AutoMigrate(
		&registryModel{},
		&listingModel{},
		&delegationModel{},
		&assetBalanceModel{},
		&currencyBalanceModel{},
	)
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) Execute(ctx context.Context, access []Access, fn func(tx Tx) error) error {
	d := declare(access)

	err := p.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&postgresTx{db: db, declared: d})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if isSerializationFailure(err) || isUniqueViolation(err) {
		zap.L().With(zap.Error(err)).Warn("Ledger: Postgres transaction conflict")
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}

	return err
}

type postgresTx struct {
	db       *gorm.DB
	declared declared
}

func (t *postgresTx) first(k Key, row interface{}, query string, args ...interface{}) error {
	if err := t.declared.canRead(k); err != nil {
		return err
	}

	q := t.db
	if t.declared[k] {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	err := q.Where(query, args...).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (t *postgresTx) save(k Key, row interface{}) error {
	if err := t.declared.canWrite(k); err != nil {
		return err
	}
	return t.db.Save(row).Error
}

func (t *postgresTx) Registry() (*entity.Marketplace, error) {
	var row registryModel
	if err := t.first(RegistryKey, &row, "id = ?", string(RegistryKey)); err != nil {
		return nil, err
	}

	return &entity.Marketplace{
		Address:   row.Address,
		Admin:     row.Admin,
		FeeBps:    uint16(row.FeeBps),
		Nonce:     uint8(row.Nonce),
		CreatedAt: row.CreatedAt,
	}, nil
}

func (t *postgresTx) PutRegistry(m entity.Marketplace) error {
	return t.save(RegistryKey, &registryModel{
		ID:        string(RegistryKey),
		Address:   m.Address,
		Admin:     m.Admin,
		FeeBps:    int(m.FeeBps),
		Nonce:     int(m.Nonce),
		CreatedAt: m.CreatedAt,
	})
}

func (t *postgresTx) Listing(key entity.ListingKey) (*entity.Listing, error) {
	var row listingModel
	if err := t.first(ListingKey(key), &row, "asset = ? AND seller = ?", key.Asset, key.Seller); err != nil {
		return nil, err
	}
	price, err := parseAmount(row.Price)
	if err != nil {
		return nil, err
	}

	return &entity.Listing{
		Address:   row.Address,
		Seller:    row.Seller,
		Asset:     row.Asset,
		Price:     price,
		Active:    row.Active,
		Nonce:     uint8(row.Nonce),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (t *postgresTx) PutListing(l entity.Listing) error {
	return t.save(ListingKey(l.Key()), &listingModel{
		Asset:     l.Asset,
		Seller:    l.Seller,
		Address:   l.Address,
		Price:     formatAmount(l.Price),
		Active:    l.Active,
		Nonce:     int(l.Nonce),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	})
}

func (t *postgresTx) Delegation(asset, owner string) (*entity.Delegation, error) {
	var row delegationModel
	if err := t.first(DelegationKey(asset, owner), &row, "asset = ? AND owner = ?", asset, owner); err != nil {
		return nil, err
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return nil, err
	}

	return &entity.Delegation{Asset: row.Asset, Owner: row.Owner, Delegate: row.Delegate, Amount: amount}, nil
}

func (t *postgresTx) PutDelegation(d entity.Delegation) error {
	return t.save(DelegationKey(d.Asset, d.Owner), &delegationModel{
		Asset:    d.Asset,
		Owner:    d.Owner,
		Delegate: d.Delegate,
		Amount:   formatAmount(d.Amount),
	})
}

func (t *postgresTx) DeleteDelegation(asset, owner string) error {
	if err := t.declared.canWrite(DelegationKey(asset, owner)); err != nil {
		return err
	}
	return t.db.Where("asset = ? AND owner = ?", asset, owner).Delete(&delegationModel{}).Error
}

func (t *postgresTx) AssetBalance(owner, asset string) (uint64, error) {
	var row assetBalanceModel
	err := t.first(AssetKey(owner, asset), &row, "owner = ? AND asset = ?", owner, asset)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseAmount(row.Amount)
}

func (t *postgresTx) SetAssetBalance(owner, asset string, amount uint64) error {
	return t.save(AssetKey(owner, asset), &assetBalanceModel{Owner: owner, Asset: asset, Amount: formatAmount(amount)})
}

func (t *postgresTx) CurrencyBalance(owner string) (uint64, error) {
	var row currencyBalanceModel
	err := t.first(CurrencyKey(owner), &row, "owner = ?", owner)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseAmount(row.Amount)
}

func (t *postgresTx) SetCurrencyBalance(owner string, amount uint64) error {
	return t.save(CurrencyKey(owner), &currencyBalanceModel{Owner: owner, Amount: formatAmount(amount)})
}

// numeric(20,0) holds the full uint64 range, bigint does not.
func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(v string) (uint64, error) {
	return strconv.ParseUint(v, 10, 64)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
