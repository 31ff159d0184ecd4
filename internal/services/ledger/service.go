// Package ledger implements the balance mutator: the single place where
// account balances change. Every operation is one atomic store transaction
// covering the balance updates and the log entries that document them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/repositories"
)

// AccountCache serves balance reads and is invalidated after every commit.
// Optional; all methods are best-effort and a cache failure only forces the
// read back to the store.
type AccountCache interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	SetAccount(ctx context.Context, acct *models.Account) error
	InvalidateAccount(ctx context.Context, userID string) error
}

// Service is the ledger core's mutation and query surface.
type Service interface {
	// Apply atomically applies every delta in m and writes every entry, or
	// nothing at all. Store conflicts are retried a bounded number of times.
	Apply(ctx context.Context, m Mutation) error

	CreateAccount(ctx context.Context, userID, username, email string) (*models.Account, error)
	// EnsureAccount returns the user's account, creating it with zero
	// balances on first contact. Identity lives outside the ledger; this is
	// how an authenticated user's account comes into existence.
	EnsureAccount(ctx context.Context, userID, username, email string) (*models.Account, error)
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	ResolveRecipient(ctx context.Context, handle string) (*models.Account, error)

	// AdvanceEntry moves a PENDING log entry to a terminal status, optionally
	// merging extra metadata. It never touches amounts or terminal entries.
	AdvanceEntry(ctx context.Context, entryID uint, status string, metadata models.JSON) error
	Entry(ctx context.Context, entryID uint) (*models.Transaction, error)
	EntriesByReference(ctx context.Context, reference string) ([]models.Transaction, error)
	History(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)

	// CheckParity replays a user's log entries and compares the result with
	// the stored balances.
	CheckParity(ctx context.Context, userID string) (*ParityReport, error)
}

type service struct {
	repo    repositories.LedgerRepository
	cache   AccountCache
	metrics MetricsCollector
	config  Config
}

// NewService creates the balance mutator. repo is required; cache and metrics
// may be nil.
func NewService(repo repositories.LedgerRepository, cache AccountCache, metrics MetricsCollector, cfg Config) Service {
	if repo == nil {
		panic("repo is required")
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &service{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		config:  cfg,
	}
}

func (s *service) Apply(ctx context.Context, m Mutation) error {
	if err := validateMutation(m); err != nil {
		s.metrics.RecordError("apply", "invalid_mutation")
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		lastErr = s.applyOnce(m)
		if lastErr == nil {
			s.afterCommit(ctx, m, attempt)
			return nil
		}
		if !retryable(lastErr) {
			break
		}
	}
	if lastErr == nil {
		return nil
	}

	switch {
	case retryable(lastErr):
		s.metrics.RecordError("apply", "conflict")
		return fmt.Errorf("%w: %v", domain.ErrLedgerConflict, lastErr)
	case isDomainFailure(lastErr):
		s.metrics.RecordError("apply", "precondition")
		return lastErr
	default:
		s.metrics.RecordError("apply", "store")
		return fmt.Errorf("%w: %v", domain.ErrLedgerWriteFailed, lastErr)
	}
}

// applyOnce runs one attempt. Accounts are locked in sorted order so two
// mutations touching the same pair cannot deadlock; balances are re-read
// under the lock, never taken from an earlier read.
func (s *service) applyOnce(m Mutation) error {
	return s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		// Idempotency guards run inside the transaction: a concurrent
		// mutation for the same reference either committed first, in which
		// case we see its entry here, or trips the unique index below.
		for _, g := range m.Guards {
			existing, err := tx.GetEntriesByReference(g.Reference)
			if err != nil {
				return err
			}
			for _, e := range existing {
				if g.Type == "" || e.Type == g.Type {
					return fmt.Errorf("%w: %s", ErrDuplicateReference, g.Reference)
				}
			}
		}

		for _, ad := range sortedAccounts(m.Accounts) {
			acct, err := tx.GetAccountForUpdate(ad.UserID)
			if err != nil {
				if errors.Is(err, repositories.ErrAccountNotFound) {
					return domain.ErrAccountNotFound
				}
				return err
			}
			if acct.Status != models.AccountStatusActive {
				return domain.ErrAccountFrozen
			}

			for _, d := range ad.Deltas {
				next := acct.Balance(d.Field).Add(d.Amount)
				if next.IsNegative() {
					return &InsufficientFundsError{
						UserID:    ad.UserID,
						Field:     d.Field,
						Requested: d.Amount.Neg(),
						Available: acct.Balance(d.Field),
					}
				}
				acct.SetBalance(d.Field, next)
			}

			if err := tx.SaveAccount(acct); err != nil {
				return err
			}
		}

		for _, entry := range m.Entries {
			if err := tx.CreateEntry(entry); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: %s", ErrDuplicateReference, entry.Reference)
				}
				return err
			}
		}

		for _, sc := range m.StatusChanges {
			if err := tx.AdvanceEntryStatus(sc.EntryID, sc.Status, sc.Metadata); err != nil {
				if errors.Is(err, repositories.ErrEntryFinalized) {
					return domain.ErrEntryFinalized
				}
				return err
			}
		}
		return nil
	})
}

func (s *service) afterCommit(ctx context.Context, m Mutation, attempts int) {
	s.metrics.RecordMutation("apply", attempts)
	for _, entry := range m.Entries {
		s.metrics.RecordAmount(entry.Type, entry.Amount)
	}
	if s.cache == nil {
		return
	}
	for _, ad := range m.Accounts {
		if err := s.cache.InvalidateAccount(ctx, ad.UserID); err != nil {
			// Stale cache self-heals on TTL; never fail a committed mutation.
			s.metrics.RecordError("cache_invalidate", "unavailable")
		}
	}
}

func (s *service) CreateAccount(ctx context.Context, userID, username, email string) (*models.Account, error) {
	acct := &models.Account{
		UserID:   userID,
		Username: username,
		Email:    email,
		Status:   models.AccountStatusActive,
	}
	if err := s.repo.CreateAccount(acct); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acct, nil
}

func (s *service) EnsureAccount(ctx context.Context, userID, username, email string) (*models.Account, error) {
	acct, err := s.GetAccount(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}
	created, createErr := s.CreateAccount(ctx, userID, username, email)
	if createErr != nil {
		// A concurrent request may have provisioned it first.
		if acct, err = s.GetAccount(ctx, userID); err == nil {
			return acct, nil
		}
		return nil, createErr
	}
	return created, nil
}

func (s *service) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	if s.cache != nil {
		if acct, err := s.cache.GetAccount(ctx, userID); err == nil {
			return acct, nil
		}
	}
	acct, err := s.repo.GetAccount(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAccount(ctx, acct); err != nil {
			s.metrics.RecordError("cache_set", "unavailable")
		}
	}
	return acct, nil
}

func (s *service) ResolveRecipient(ctx context.Context, handle string) (*models.Account, error) {
	acct, err := s.repo.ResolveAccount(handle)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, err
	}
	return acct, nil
}

func (s *service) AdvanceEntry(ctx context.Context, entryID uint, status string, metadata models.JSON) error {
	switch status {
	case models.StatusSuccess, models.StatusFailed, models.StatusRefunded:
	default:
		return fmt.Errorf("%w: cannot advance to %q", ErrInvalidMutation, status)
	}
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		merged := metadata
		if metadata != nil {
			// Merge under the transaction so metadata written at insert time
			// survives a concurrent advance.
			entry, err := tx.GetEntry(entryID)
			if err != nil {
				return err
			}
			m := models.NewJSON(entry.Metadata)
			if m == nil {
				m = models.JSON{}
			}
			for k, v := range metadata {
				m[k] = v
			}
			merged = m
		}
		return tx.AdvanceEntryStatus(entryID, status, merged)
	})
	switch {
	case errors.Is(err, repositories.ErrEntryFinalized):
		return domain.ErrEntryFinalized
	case errors.Is(err, repositories.ErrEntryNotFound):
		return domain.ErrEntryNotFound
	}
	return err
}

func (s *service) Entry(ctx context.Context, entryID uint) (*models.Transaction, error) {
	entry, err := s.repo.GetEntry(entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) EntriesByReference(ctx context.Context, reference string) ([]models.Transaction, error) {
	return s.repo.GetEntriesByReference(reference)
}

func (s *service) History(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListEntries(ctx, userID, limit, offset)
}

func validateMutation(m Mutation) error {
	if len(m.Accounts) == 0 && len(m.Entries) == 0 && len(m.StatusChanges) == 0 {
		return fmt.Errorf("%w: empty mutation", ErrInvalidMutation)
	}
	for _, sc := range m.StatusChanges {
		switch sc.Status {
		case models.StatusSuccess, models.StatusFailed, models.StatusRefunded:
		default:
			return fmt.Errorf("%w: cannot advance entry to %q", ErrInvalidMutation, sc.Status)
		}
	}
	seen := make(map[string]bool, len(m.Accounts))
	for _, ad := range m.Accounts {
		if ad.UserID == "" {
			return fmt.Errorf("%w: missing user id", ErrInvalidMutation)
		}
		if seen[ad.UserID] {
			return fmt.Errorf("%w: duplicate account %s", ErrInvalidMutation, ad.UserID)
		}
		seen[ad.UserID] = true
		if len(ad.Deltas) == 0 {
			return fmt.Errorf("%w: account %s has no deltas", ErrInvalidMutation, ad.UserID)
		}
		for _, d := range ad.Deltas {
			if d.Amount.IsZero() {
				return fmt.Errorf("%w: zero delta on %s", ErrInvalidMutation, d.Field)
			}
			switch d.Field {
			case models.FieldWallet, models.FieldSavings, models.FieldCommission:
			default:
				return fmt.Errorf("%w: unknown balance field %q", ErrInvalidMutation, d.Field)
			}
		}
	}
	for _, g := range m.Guards {
		if g.Reference == "" {
			return fmt.Errorf("%w: guard missing reference", ErrInvalidMutation)
		}
	}
	for _, entry := range m.Entries {
		if !entry.Amount.IsPositive() {
			return fmt.Errorf("%w: entry amount must be positive", ErrInvalidAmount)
		}
		if entry.UserID == "" || entry.Type == "" || entry.Reference == "" {
			return fmt.Errorf("%w: entry missing user, type or reference", ErrInvalidMutation)
		}
		if entry.Status == "" {
			entry.Status = models.StatusSuccess
		}
	}
	return nil
}

func sortedAccounts(accounts []AccountDeltas) []AccountDeltas {
	out := make([]AccountDeltas, len(accounts))
	copy(out, accounts)
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func isDomainFailure(err error) bool {
	var insufficient *InsufficientFundsError
	var domainErr *domain.DomainError
	return errors.As(err, &insufficient) ||
		errors.As(err, &domainErr) ||
		errors.Is(err, ErrInvalidMutation) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrDuplicateReference)
}
