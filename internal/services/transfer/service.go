// Package transfer orchestrates peer-to-peer and bank-destination transfers
// out of a user's wallet. Peer transfers are the one flow that touches two
// accounts in a single atomic commit.
package transfer

import (
	"context"
	"errors"
	"fmt"

	domain "obata/internal/errors"
	"obata/internal/models"
	"obata/internal/providers/bank"
	"obata/internal/services/ledger"
	"obata/internal/utils"

	"github.com/shopspring/decimal"
)

var ErrSelfTransfer = errors.New("cannot transfer to self")

// BankResolver is the display-only account-name lookup used before a bank
// transfer is submitted.
type BankResolver interface {
	Resolve(ctx context.Context, accountNumber, bankCode string) (*bank.Resolution, error)
}

// PeerResult reports a committed peer transfer.
type PeerResult struct {
	Reference string
	Sender    models.Transaction
	Recipient models.Transaction
}

// BankRequest describes a transfer to an external bank account.
type BankRequest struct {
	AccountNumber string
	BankCode      string
	AccountName   string
	Amount        decimal.Decimal
	Narration     string
}

type Service interface {
	// Peer moves amount from the sender's wallet to the recipient's wallet
	// in one atomic commit. The recipient is resolved by username or email.
	Peer(ctx context.Context, senderID, recipientHandle string, amount decimal.Decimal, note string) (*PeerResult, error)
	// Bank debits the sender's wallet (amount plus the fee table's fee) and
	// parks a WITHDRAWAL entry PENDING until the payout is reconciled.
	Bank(ctx context.Context, senderID string, req BankRequest) (*models.Transaction, error)
	// ResolveBankAccount returns the destination account's display name.
	ResolveBankAccount(ctx context.Context, accountNumber, bankCode string) (*bank.Resolution, error)
}

type service struct {
	ledger   ledger.Service
	resolver BankResolver
	fees     FeePolicy
}

func NewService(ledgerSvc ledger.Service, resolver BankResolver, fees FeePolicy) Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if fees.BankTransferFee.IsZero() && fees.ZeroFeeBanks == nil {
		fees = DefaultFeePolicy()
	}
	return &service{
		ledger:   ledgerSvc,
		resolver: resolver,
		fees:     fees,
	}
}

func (s *service) Peer(ctx context.Context, senderID, recipientHandle string, amount decimal.Decimal, note string) (*PeerResult, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	recipient, err := s.ledger.ResolveRecipient(ctx, recipientHandle)
	if err != nil {
		return nil, err
	}
	if recipient.UserID == senderID {
		return nil, ErrSelfTransfer
	}

	sender, err := s.ledger.GetAccount(ctx, senderID)
	if err != nil {
		return nil, err
	}

	reference := utils.NewReference("TRF")
	if note == "" {
		note = fmt.Sprintf("Transfer to %s", recipient.Username)
	}

	debitEntry := &models.Transaction{
		UserID:      senderID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Status:      models.StatusSuccess,
		Reference:   reference,
		Description: note,
		Method:      models.MethodWallet,
		Metadata: models.JSON{
			ledger.MetaDirection:    ledger.DirectionDebit,
			ledger.MetaCounterparty: recipient.Username,
		},
	}
	creditEntry := &models.Transaction{
		UserID:      recipient.UserID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Status:      models.StatusSuccess,
		Reference:   reference,
		Description: fmt.Sprintf("Transfer from %s", sender.Username),
		Method:      models.MethodWallet,
		Metadata: models.JSON{
			ledger.MetaDirection:    ledger.DirectionCredit,
			ledger.MetaCounterparty: sender.Username,
		},
	}

	err = s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{
			{UserID: senderID, Deltas: []ledger.Delta{ledger.Debit(models.FieldWallet, amount)}},
			{UserID: recipient.UserID, Deltas: []ledger.Delta{ledger.Credit(models.FieldWallet, amount)}},
		},
		Entries: []*models.Transaction{debitEntry, creditEntry},
	})
	if err != nil {
		return nil, err
	}

	return &PeerResult{
		Reference: reference,
		Sender:    *debitEntry,
		Recipient: *creditEntry,
	}, nil
}

func (s *service) Bank(ctx context.Context, senderID string, req BankRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if req.AccountNumber == "" || req.BankCode == "" {
		return nil, fmt.Errorf("%w: destination account required", domain.ErrRecipientNotFound)
	}

	fee := s.fees.BankFee(req.BankCode)
	reference := utils.NewReference("WDL")
	narration := req.Narration
	if narration == "" {
		narration = fmt.Sprintf("Transfer to %s (%s)", req.AccountName, req.AccountNumber)
	}

	// The payout clears asynchronously; the entry stays PENDING until the
	// reconciliation step resolves it.
	entry := &models.Transaction{
		UserID:      senderID,
		Type:        models.TransactionTypeWithdrawal,
		Amount:      req.Amount,
		Fee:         fee,
		Status:      models.StatusPending,
		Reference:   reference,
		Description: narration,
		Method:      models.MethodBank,
		Metadata: models.JSON{
			ledger.MetaSource: string(models.FieldWallet),
			"account_number":  req.AccountNumber,
			"bank_code":       req.BankCode,
			"account_name":    req.AccountName,
		},
	}

	err := s.ledger.Apply(ctx, ledger.Mutation{
		Accounts: []ledger.AccountDeltas{
			{UserID: senderID, Deltas: []ledger.Delta{ledger.Debit(models.FieldWallet, req.Amount.Add(fee))}},
		},
		Entries: []*models.Transaction{entry},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ResolveBankAccount(ctx context.Context, accountNumber, bankCode string) (*bank.Resolution, error) {
	if s.resolver == nil {
		return nil, errors.New("bank resolver not configured")
	}
	return s.resolver.Resolve(ctx, accountNumber, bankCode)
}
