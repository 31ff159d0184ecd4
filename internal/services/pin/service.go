// Package pin is the authorization gate in front of every balance-mutating
// action. The ledger core only ever sees the boolean outcome; the PIN itself
// is stored as a bcrypt hash, never in clear.
package pin

import (
	"context"
	"errors"
	"regexp"

	"obata/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPin = errors.New("transaction pin must be exactly 4 digits")
	ErrWrongPin   = errors.New("incorrect transaction pin")
	ErrPinNotSet  = errors.New("transaction pin has not been set")
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

type Service interface {
	Set(ctx context.Context, userID, pin string) error
	Verify(ctx context.Context, userID, pin string) error
}

type service struct {
	repo repositories.LedgerRepository
}

func NewService(repo repositories.LedgerRepository) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{repo: repo}
}

func (s *service) Set(ctx context.Context, userID, pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrInvalidPin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		acct, err := tx.GetAccountForUpdate(userID)
		if err != nil {
			return err
		}
		acct.PinHash = string(hash)
		return tx.SaveAccount(acct)
	})
}

func (s *service) Verify(ctx context.Context, userID, pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrInvalidPin
	}
	acct, err := s.repo.GetAccount(userID)
	if err != nil {
		return err
	}
	if acct.PinHash == "" {
		return ErrPinNotSet
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PinHash), []byte(pin)) != nil {
		return ErrWrongPin
	}
	return nil
}
