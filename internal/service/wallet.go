package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/ledger"
	"github.com/sabong/platform/internal/repository"
)

// WalletService exposes wallet reads and the deposit/withdraw commands. Bet
// fund movements never go through here; they run inside the bet and fight
// transactions via the ledger engine directly.
type WalletService struct {
	db      repository.TxStarter
	wallets repository.WalletRepository
	entries repository.TransactionRepository
	engine  *ledger.Engine
	logger  *slog.Logger
}

// NewWalletService creates a WalletService.
func NewWalletService(
	db repository.TxStarter,
	wallets repository.WalletRepository,
	entries repository.TransactionRepository,
	engine *ledger.Engine,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{db: db, wallets: wallets, entries: entries, engine: engine, logger: logger}
}

// DepositInput holds a deposit request. ReferenceKey deduplicates retries of
// the same external payment.
type DepositInput struct {
	Amount       int64  `json:"amount"`
	ReferenceKey string `json:"reference_key"`
	Description  string `json:"description"`
}

// Deposit credits a user's available balance, creating the wallet on first
// use.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, input DepositInput) (*domain.CommandResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.ensureWallet(ctx, tx, userID); err != nil {
		return nil, err
	}

	result, err := s.engine.ExecuteDeposit(ctx, tx, domain.DepositParams{
		UserID:       userID,
		Amount:       input.Amount,
		ReferenceKey: input.ReferenceKey,
		Description:  input.Description,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("deposit posted",
		"user_id", userID, "amount", input.Amount, "idempotent", result.Idempotent)
	return result, nil
}

// WithdrawInput holds a withdrawal request.
type WithdrawInput struct {
	Amount       int64  `json:"amount"`
	ReferenceKey string `json:"reference_key"`
	Description  string `json:"description"`
}

// Withdraw debits a user's available balance. Frozen funds stay untouched, so
// money staked on open bets cannot leave the platform.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, input WithdrawInput) (*domain.CommandResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteWithdraw(ctx, tx, domain.WithdrawParams{
		UserID:       userID,
		Amount:       input.Amount,
		ReferenceKey: input.ReferenceKey,
		Description:  input.Description,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("withdrawal posted",
		"user_id", userID, "amount", input.Amount, "idempotent", result.Idempotent)
	return result, nil
}

// GetWallet returns a user's wallet.
func (s *WalletService) GetWallet(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.wallets.FindByUser(ctx, db, userID)
	if err != nil {
		return nil, domain.ErrInternal("find wallet", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", userID.String())
	}
	return wallet, nil
}

// ListTransactions returns a user's ledger history, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, db repository.DBTX, userID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error) {
	wallet, err := s.GetWallet(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByWallet(ctx, db, wallet.ID, cursor, limit)
	if err != nil {
		return nil, domain.ErrInternal("list transactions", err)
	}
	return entries, nil
}

// ensureWallet creates a zero-balance wallet for first-time depositors.
func (s *WalletService) ensureWallet(ctx context.Context, db repository.DBTX, userID uuid.UUID) error {
	wallet, err := s.wallets.FindByUser(ctx, db, userID)
	if err != nil {
		return domain.ErrInternal("find wallet", err)
	}
	if wallet != nil {
		return nil
	}
	now := time.Now()
	err = s.wallets.Create(ctx, db, &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.ErrInternal("create wallet", err)
	}
	return nil
}
