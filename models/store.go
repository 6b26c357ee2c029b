package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrStoreWrite wraps local persistence failures. Nothing may or may not have
// been committed; the caller retries the whole use case.
var ErrStoreWrite = errors.New("store write failed")

// Store is the local system of record. Upserts are keyed by natural key and
// idempotent; the caller is expected to hold the per-key lock across a
// find+merge+save cycle.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// FindFarmer returns (nil, nil) when no row exists for the address.
func (s *Store) FindFarmer(ctx context.Context, address string) (*Farmer, error) {
	var farmer Farmer
	err := s.db.WithContext(ctx).Where("address = ?", NormalizeAddress(address)).First(&farmer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (s *Store) FindScheme(ctx context.Context, schemeID int64) (*Scheme, error) {
	var scheme Scheme
	err := s.db.WithContext(ctx).Where("scheme_id = ?", schemeID).First(&scheme).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &scheme, nil
}

// UpsertFarmer merges incoming into the stored row (if any) under the
// field-authority policy and persists the result. Applying the same record
// twice yields the same stored state.
func (s *Store) UpsertFarmer(ctx context.Context, incoming *Farmer, source MergeSource) (*Farmer, error) {
	existing, err := s.FindFarmer(ctx, incoming.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	merged := MergeFarmer(existing, incoming, source, time.Now().UTC())
	if existing != nil {
		merged.ID = existing.ID
	}
	if err := s.db.WithContext(ctx).Save(merged).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return merged, nil
}

func (s *Store) UpsertScheme(ctx context.Context, incoming *Scheme, source MergeSource) (*Scheme, error) {
	existing, err := s.FindScheme(ctx, incoming.SchemeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	merged := MergeScheme(existing, incoming, source, time.Now().UTC())
	if existing != nil {
		merged.ID = existing.ID
	}
	if err := s.db.WithContext(ctx).Save(merged).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return merged, nil
}

// AppendPayment inserts one disbursement row. A duplicate natural key means
// the payment was already recorded and is a no-op.
func (s *Store) AppendPayment(ctx context.Context, payment *Payment) error {
	payment.FarmerAddress = NormalizeAddress(payment.FarmerAddress)
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

func (s *Store) ListFarmers(ctx context.Context) ([]Farmer, error) {
	var farmers []Farmer
	if err := s.db.WithContext(ctx).Order("registered_at DESC").Find(&farmers).Error; err != nil {
		return nil, err
	}
	return farmers, nil
}

func (s *Store) ListSchemes(ctx context.Context) ([]Scheme, error) {
	var schemes []Scheme
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&schemes).Error; err != nil {
		return nil, err
	}
	return schemes, nil
}

func (s *Store) ListPayments(ctx context.Context) ([]Payment, error) {
	var payments []Payment
	if err := s.db.WithContext(ctx).Order("paid_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Counts are the store-side aggregate numbers surfaced next to the ledger's.
type Counts struct {
	Farmers  int64 `json:"farmers"`
	Schemes  int64 `json:"schemes"`
	Payments int64 `json:"payments"`
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	if err := s.db.WithContext(ctx).Model(&Farmer{}).Count(&c.Farmers).Error; err != nil {
		return c, err
	}
	if err := s.db.WithContext(ctx).Model(&Scheme{}).Count(&c.Schemes).Error; err != nil {
		return c, err
	}
	if err := s.db.WithContext(ctx).Model(&Payment{}).Count(&c.Payments).Error; err != nil {
		return c, err
	}
	return c, nil
}

func (s *Store) CreateSyncRun(ctx context.Context, run *SyncRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

func (s *Store) FinishSyncRun(ctx context.Context, run *SyncRun) error {
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}
