package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sabong/platform/internal/domain"
	"github.com/sabong/platform/internal/repository"
)

// Store is an in-memory stand-in for the database. Its repositories implement
// the repository interfaces and ignore the DBTX/tx arguments, so services and
// the wallet engine can run end-to-end in unit tests.
//
// Writes apply immediately; there is no rollback. Tests that exercise failure
// paths should assert on returned errors, not on state written before the
// failure.
type Store struct {
	mu sync.Mutex

	derbies      map[uuid.UUID]domain.Derby
	fights       map[uuid.UUID]domain.Fight
	bets         map[uuid.UUID]domain.Bet
	wallets      map[uuid.UUID]domain.Wallet
	transactions []domain.Transaction
	outbox       []domain.OutboxDraft
	outboxSeq    int64

	Derbies      repository.DerbyRepository
	Fights       repository.FightRepository
	Bets         repository.BetRepository
	Wallets      repository.WalletRepository
	Transactions repository.TransactionRepository
	Outbox       repository.OutboxRepository
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	s := &Store{
		derbies: make(map[uuid.UUID]domain.Derby),
		fights:  make(map[uuid.UUID]domain.Fight),
		bets:    make(map[uuid.UUID]domain.Bet),
		wallets: make(map[uuid.UUID]domain.Wallet),
	}
	s.Derbies = &fakeDerbyRepo{s: s}
	s.Fights = &fakeFightRepo{s: s}
	s.Bets = &fakeBetRepo{s: s}
	s.Wallets = &fakeWalletRepo{s: s}
	s.Transactions = &fakeTransactionRepo{s: s}
	s.Outbox = &fakeOutboxRepo{s: s}
	return s
}

// Begin satisfies repository.TxStarter.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{}, nil
}

// --- seed and inspection helpers ---

// SeedDerby inserts a derby and returns it.
func (s *Store) SeedDerby(status domain.DerbyStatus, operatorID uuid.UUID) *domain.Derby {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := domain.Derby{
		ID:          uuid.New(),
		Name:        "test derby",
		Status:      status,
		OperatorID:  operatorID,
		ScheduledAt: time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.derbies[d.ID] = d
	return &d
}

// SeedFight inserts a fight in the given status and returns it.
func (s *Store) SeedFight(derbyID uuid.UUID, number int, status domain.FightStatus) *domain.Fight {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := domain.Fight{
		ID:          uuid.New(),
		DerbyID:     derbyID,
		Number:      number,
		RedCorner:   "Red Thunder",
		BlueCorner:  "Blue Lightning",
		WeightGrams: 2100,
		Status:      status,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.fights[f.ID] = f
	if d, ok := s.derbies[derbyID]; ok {
		d.TotalFights++
		s.derbies[derbyID] = d
	}
	return &f
}

// SeedWallet inserts a wallet with the given balances and returns it.
func (s *Store) SeedWallet(userID uuid.UUID, available, frozen int64) *domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Available: available,
		Frozen:    frozen,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.wallets[w.ID] = w
	return &w
}

// Wallet returns a copy of the wallet owned by userID, or nil.
func (s *Store) Wallet(userID uuid.UUID) *domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.UserID == userID {
			cp := w
			return &cp
		}
	}
	return nil
}

// Bet returns a copy of a bet by ID, or nil.
func (s *Store) Bet(id uuid.UUID) *domain.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bets[id]; ok {
		cp := b
		return &cp
	}
	return nil
}

// Fight returns a copy of a fight by ID, or nil.
func (s *Store) Fight(id uuid.UUID) *domain.Fight {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fights[id]; ok {
		cp := f
		return &cp
	}
	return nil
}

// Derby returns a copy of a derby by ID, or nil.
func (s *Store) Derby(id uuid.UUID) *domain.Derby {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.derbies[id]; ok {
		cp := d
		return &cp
	}
	return nil
}

// Entries returns all ledger entries in insert order.
func (s *Store) Entries() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// EntriesForBet returns ledger entries referencing a bet in insert order.
func (s *Store) EntriesForBet(betID uuid.UUID) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.BetID != nil && *tx.BetID == betID {
			out = append(out, tx)
		}
	}
	return out
}

// OutboxEvents returns all emitted outbox drafts in insert order.
func (s *Store) OutboxEvents() []domain.OutboxDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OutboxDraft, len(s.outbox))
	copy(out, s.outbox)
	return out
}

// OutboxEventsOfType returns outbox drafts of a given event type.
func (s *Store) OutboxEventsOfType(t domain.EventType) []domain.OutboxDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OutboxDraft
	for _, e := range s.outbox {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// --- fake pgx.Tx ---

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { t.rolledBack = true; return nil }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                               { return nil }

// --- fake repositories ---

type fakeDerbyRepo struct{ s *Store }

func (r *fakeDerbyRepo) FindByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.Derby, error) {
	return r.s.Derby(id), nil
}

func (r *fakeDerbyRepo) Create(ctx context.Context, db repository.DBTX, derby *domain.Derby) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.derbies[derby.ID] = *derby
	return nil
}

func (r *fakeDerbyRepo) UpdateStatus(ctx context.Context, db repository.DBTX, id uuid.UUID, status domain.DerbyStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.derbies[id]; ok {
		d.Status = status
		d.UpdatedAt = time.Now()
		r.s.derbies[id] = d
	}
	return nil
}

func (r *fakeDerbyRepo) IncrementTotalFights(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.derbies[id]; ok {
		d.TotalFights++
		r.s.derbies[id] = d
	}
	return nil
}

func (r *fakeDerbyRepo) IncrementCompletedFights(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.derbies[id]; ok {
		d.CompletedFights++
		r.s.derbies[id] = d
	}
	return nil
}

type fakeFightRepo struct{ s *Store }

func (r *fakeFightRepo) FindByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.Fight, error) {
	return r.s.Fight(id), nil
}

func (r *fakeFightRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Fight, error) {
	return r.s.Fight(id), nil
}

func (r *fakeFightRepo) FindByDerbyAndNumber(ctx context.Context, db repository.DBTX, derbyID uuid.UUID, number int) (*domain.Fight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.fights {
		if f.DerbyID == derbyID && f.Number == number {
			cp := f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFightRepo) Create(ctx context.Context, db repository.DBTX, fight *domain.Fight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.fights[fight.ID] = *fight
	return nil
}

func (r *fakeFightRepo) UpdateState(ctx context.Context, tx pgx.Tx, fight *domain.Fight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if cur, ok := r.s.fights[fight.ID]; ok {
		cur.Status = fight.Status
		cur.Result = fight.Result
		cur.BettingOpenedAt = fight.BettingOpenedAt
		cur.BettingClosedAt = fight.BettingClosedAt
		cur.StartedAt = fight.StartedAt
		cur.EndedAt = fight.EndedAt
		cur.UpdatedAt = time.Now()
		r.s.fights[fight.ID] = cur
	}
	return nil
}

func (r *fakeFightRepo) AddAggregates(ctx context.Context, tx pgx.Tx, id uuid.UUID, betsDelta int, amountDelta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f, ok := r.s.fights[id]; ok {
		f.TotalBets += int64(betsDelta)
		f.TotalAmount += amountDelta
		r.s.fights[id] = f
	}
	return nil
}

func (r *fakeFightRepo) ListByDerby(ctx context.Context, db repository.DBTX, derbyID uuid.UUID) ([]domain.Fight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Fight
	for _, f := range r.s.fights {
		if f.DerbyID == derbyID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type fakeBetRepo struct{ s *Store }

func (r *fakeBetRepo) FindByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.Bet, error) {
	return r.s.Bet(id), nil
}

func (r *fakeBetRepo) Create(ctx context.Context, db repository.DBTX, bet *domain.Bet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bets[bet.ID] = *bet
	return nil
}

func (r *fakeBetRepo) Update(ctx context.Context, tx pgx.Tx, bet *domain.Bet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if cur, ok := r.s.bets[bet.ID]; ok {
		cur.Amount = bet.Amount
		cur.PotentialWin = bet.PotentialWin
		cur.Status = bet.Status
		cur.Outcome = bet.Outcome
		cur.ProposalStatus = bet.ProposalStatus
		cur.ProposedAmount = bet.ProposedAmount
		cur.UpdatedAt = time.Now()
		r.s.bets[bet.ID] = cur
	}
	return nil
}

func (r *fakeBetRepo) ListByFightAndStatuses(ctx context.Context, db repository.DBTX, fightID uuid.UUID, statuses []domain.BetStatus) ([]domain.Bet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[domain.BetStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	var out []domain.Bet
	for _, b := range r.s.bets {
		if b.FightID == fightID && want[b.Status] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeBetRepo) FindOldestPendingMatch(ctx context.Context, tx pgx.Tx, fightID uuid.UUID, side domain.BetSide, amount int64, excludeUser uuid.UUID) (*domain.Bet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *domain.Bet
	for _, b := range r.s.bets {
		b := b
		if b.FightID != fightID || b.Side != side || b.Amount != amount {
			continue
		}
		if b.Status != domain.BetStatusPending || b.UserID == excludeUser {
			continue
		}
		if b.ProposalStatus != nil && *b.ProposalStatus == domain.ProposalStatusOffered {
			continue
		}
		if best == nil || b.CreatedAt.Before(best.CreatedAt) {
			best = &b
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeBetRepo) FindProposalChild(ctx context.Context, db repository.DBTX, parentID uuid.UUID) (*domain.Bet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bets {
		if b.ParentBetID != nil && *b.ParentBetID == parentID &&
			b.Status == domain.BetStatusProposed &&
			b.ProposalStatus != nil && *b.ProposalStatus == domain.ProposalStatusOffered {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeBetRepo) ListByUser(ctx context.Context, db repository.DBTX, userID uuid.UUID, limit int) ([]domain.Bet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Bet
	for _, b := range r.s.bets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeWalletRepo struct{ s *Store }

func (r *fakeWalletRepo) FindByUser(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*domain.Wallet, error) {
	return r.s.Wallet(userID), nil
}

func (r *fakeWalletRepo) LockForUpdateByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	return r.s.Wallet(userID), nil
}

func (r *fakeWalletRepo) Create(ctx context.Context, db repository.DBTX, wallet *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

// UpdateBalances mirrors the CHECK constraints on the wallets table: a delta
// that would drive either column negative fails the whole command.
func (r *fakeWalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta domain.BalanceUpdate) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[walletID]
	if !ok {
		return nil, nil
	}
	newAvailable := w.Available + delta.Available
	newFrozen := w.Frozen + delta.Frozen
	if newAvailable < 0 {
		return nil, &pgconn.PgError{Code: "23514", ConstraintName: "wallets_available_balance_check"}
	}
	if newFrozen < 0 {
		return nil, &pgconn.PgError{Code: "23514", ConstraintName: "wallets_frozen_amount_check"}
	}
	w.Available = newAvailable
	w.Frozen = newFrozen
	w.UpdatedAt = time.Now()
	r.s.wallets[walletID] = w
	cp := w
	return &cp, nil
}

type fakeTransactionRepo struct{ s *Store }

func (r *fakeTransactionRepo) FindByReference(ctx context.Context, db repository.DBTX, walletID uuid.UUID, referenceKey string) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.transactions {
		tx := r.s.transactions[i]
		if tx.WalletID == walletID && tx.ReferenceKey != nil && *tx.ReferenceKey == referenceKey {
			cp := tx
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) Insert(ctx context.Context, db repository.DBTX, params domain.PostLedgerEntryParams, wallet *domain.Wallet) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry := domain.Transaction{
		ID:             uuid.New(),
		WalletID:       params.WalletID,
		Type:           params.Type,
		Amount:         params.Amount,
		AvailableAfter: wallet.Available,
		FrozenAfter:    wallet.Frozen,
		ReferenceKey:   params.ReferenceKey,
		BetID:          params.BetID,
		FightID:        params.FightID,
		Description:    params.Description,
		Metadata:       params.Metadata,
		CreatedAt:      time.Now(),
	}
	r.s.transactions = append(r.s.transactions, entry)
	cp := entry
	return &cp, nil
}

func (r *fakeTransactionRepo) FindByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.transactions {
		if r.s.transactions[i].ID == id {
			cp := r.s.transactions[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) ListByWallet(ctx context.Context, db repository.DBTX, walletID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Transaction
	for i := len(r.s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.transactions[i].WalletID == walletID {
			out = append(out, r.s.transactions[i])
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) ListByBet(ctx context.Context, db repository.DBTX, betID uuid.UUID) ([]domain.Transaction, error) {
	return r.s.EntriesForBet(betID), nil
}

type fakeOutboxRepo struct{ s *Store }

func (r *fakeOutboxRepo) Insert(ctx context.Context, db repository.DBTX, draft domain.OutboxDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.outboxSeq++
	draft.SeqID = r.s.outboxSeq
	r.s.outbox = append(r.s.outbox, draft)
	return nil
}

func (r *fakeOutboxRepo) FetchUnpublished(ctx context.Context, db repository.DBTX, limit int) ([]domain.OutboxDraft, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.OutboxDraft
	for _, e := range r.s.outbox {
		if len(out) >= limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkPublished(ctx context.Context, db repository.DBTX, ids []int64) error {
	return nil
}
