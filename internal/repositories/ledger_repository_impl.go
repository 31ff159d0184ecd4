package repositories

import (
	"context"
	"fmt"
	"time"

	"obata/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository wraps a database handle in the LedgerRepository
// capability.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateAccount(acct *models.Account) error {
	if err := r.db.Create(acct).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetAccount(userID string) (*models.Account, error) {
	var acct models.Account
	if err := r.db.Where("user_id = ?", userID).First(&acct).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acct, nil
}

func (r *ledgerRepository) GetAccountForUpdate(userID string) (*models.Account, error) {
	var acct models.Account
	tx := r.db
	// SQLite serializes writers on its own and rejects FOR UPDATE.
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := tx.Where("user_id = ?", userID).First(&acct).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &acct, nil
}

func (r *ledgerRepository) ResolveAccount(handle string) (*models.Account, error) {
	var accts []models.Account
	err := r.db.Where("username = ? OR email = ?", handle, handle).Limit(2).Find(&accts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}
	if len(accts) != 1 {
		return nil, ErrAccountNotFound
	}
	return &accts[0], nil
}

func (r *ledgerRepository) SaveAccount(acct *models.Account) error {
	if err := r.db.Save(acct).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateEntry(entry *models.Transaction) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create transaction entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetEntry(id uint) (*models.Transaction, error) {
	var entry models.Transaction
	if err := r.db.First(&entry, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get transaction entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) GetEntriesByReference(reference string) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := r.db.Where("reference = ?", reference).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get entries by reference: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) AdvanceEntryStatus(id uint, status string, metadata models.JSON) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
	if metadata != nil {
		updates["metadata"] = metadata
	}
	// The WHERE clause is the immutability guard: only PENDING entries move,
	// and only the status and metadata columns ever change.
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to advance entry status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var entry models.Transaction
		if err := r.db.First(&entry, id).Error; err != nil {
			return ErrEntryNotFound
		}
		return ErrEntryFinalized
	}
	return nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListAllEntries(ctx context.Context, userID string) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListPendingReview(ctx context.Context, f PendingFilter) ([]models.Transaction, error) {
	q := r.db.WithContext(ctx).Where("status = ?", models.StatusPending)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Method != "" {
		q = q.Where("method = ?", f.Method)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var entries []models.Transaction
	if err := q.Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListStalePending(ctx context.Context, before time.Time) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.StatusPending, before).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}
