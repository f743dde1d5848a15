// Package postgres is the durable ports.Store backend: a pgx/v5 pool behind
// the same CRUD surface the in-memory store exposes. The schema is
// bootstrapped idempotently at construction since this repo carries no
// separate migration tool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"ledger-api/internal/config"
	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store is a pgx-backed ports.Store. Every method resolves the active
// executor via exec/query/queryRow below: a pgx.Tx stashed in ctx by
// WithinTransaction when one is in progress, the pool otherwise.
type Store struct {
	pool       *pgxpool.Pool
	currencies *currency.Registry
}

type txKey struct{}

// New connects a pool using cfg and returns a Store bound to currencies for
// resolving currency codes back into currency.Currency values.
func New(ctx context.Context, cfg config.PostgresConfig, currencies *currency.Registry) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{pool: pool, currencies: currencies}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS profiles (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	owner text NOT NULL,
	default_currency text NOT NULL,
	accounting_mode text NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
	id uuid PRIMARY KEY,
	profile_id uuid NOT NULL REFERENCES profiles(id),
	code text NOT NULL,
	name text NOT NULL,
	start_date timestamptz NOT NULL,
	end_date timestamptz,
	initial_balances_account_id uuid,
	profit_loss_account_id uuid,
	currency_xe_income_account_id uuid,
	currency_xe_expense_account_id uuid
);

CREATE TABLE IF NOT EXISTS groups (
	id uuid PRIMARY KEY,
	book_id uuid NOT NULL REFERENCES books(id),
	code text NOT NULL,
	name text NOT NULL,
	parent_id uuid
);

CREATE TABLE IF NOT EXISTS accounts (
	id uuid PRIMARY KEY,
	profile_id uuid NOT NULL REFERENCES profiles(id),
	book_id uuid NOT NULL REFERENCES books(id),
	group_id uuid NOT NULL REFERENCES groups(id),
	code text NOT NULL,
	name text NOT NULL,
	account_type text NOT NULL,
	currency text NOT NULL,
	profile_default_currency text NOT NULL,
	imbalance numeric(24,6) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pockets (
	id uuid PRIMARY KEY,
	account_id uuid NOT NULL REFERENCES accounts(id),
	account_amount numeric(24,6) NOT NULL,
	profile_amount numeric(24,6) NOT NULL,
	account_balance numeric(24,6) NOT NULL,
	profile_balance numeric(24,6) NOT NULL,
	pocket_date timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id uuid PRIMARY KEY,
	book_id uuid NOT NULL REFERENCES books(id),
	description text NOT NULL,
	transaction_date timestamptz NOT NULL,
	creation_date timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS splits (
	id uuid PRIMARY KEY,
	transaction_id uuid NOT NULL REFERENCES transactions(id),
	account_id uuid NOT NULL REFERENCES accounts(id),
	account_amount numeric(24,6) NOT NULL,
	profile_amount numeric(24,6) NOT NULL,
	local_cost numeric(24,6) NOT NULL,
	split_type text NOT NULL,
	is_linked boolean NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pockets_account ON pockets(account_id);
CREATE INDEX IF NOT EXISTS idx_splits_account ON splits(account_id);
CREATE INDEX IF NOT EXISTS idx_groups_book_code ON groups(book_id, code);
CREATE INDEX IF NOT EXISTS idx_accounts_book_code ON accounts(book_id, code);
`

func (s *Store) exec(ctx context.Context, sql string, args ...interface{}) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		_, err := tx.Exec(ctx, sql, args...)
		return err
	}
	_, err := s.pool.Exec(ctx, sql, args...)
	return err
}

func (s *Store) queryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *Store) query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

// WithinTransaction runs fn inside one Postgres transaction, committing on
// success and rolling back every write fn performed on error.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) resolveCurrency(code string) currency.Currency {
	if c, ok := s.currencies.Get(code); ok {
		return c
	}
	return currency.Currency{Code: code}
}

// --- Profile ---

func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	return s.exec(ctx, `
		INSERT INTO profiles (id, name, owner, default_currency, accounting_mode)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, owner = EXCLUDED.owner,
			default_currency = EXCLUDED.default_currency, accounting_mode = EXCLUDED.accounting_mode
	`, p.ID, p.Name, p.Owner, p.DefaultCurrency.Code, p.AccountingMode)
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	row := s.queryRow(ctx, `SELECT id, name, owner, default_currency, accounting_mode FROM profiles WHERE id = $1`, id)
	p := &models.Profile{}
	var currencyCode, mode string
	if err := row.Scan(&p.ID, &p.Name, &p.Owner, &currencyCode, &mode); err != nil {
		return nil, kernelerr.Newf(kernelerr.NotLinked, "profile %s not found: %v", id, err)
	}
	p.DefaultCurrency = s.resolveCurrency(currencyCode)
	p.AccountingMode = models.AccountingMode(mode)
	return p, nil
}

// --- Book ---

func (s *Store) SaveBook(ctx context.Context, b *models.Book) error {
	return s.exec(ctx, `
		INSERT INTO books (id, profile_id, code, name, start_date, end_date,
			initial_balances_account_id, profit_loss_account_id,
			currency_xe_income_account_id, currency_xe_expense_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code, name = EXCLUDED.name,
			start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
			initial_balances_account_id = EXCLUDED.initial_balances_account_id,
			profit_loss_account_id = EXCLUDED.profit_loss_account_id,
			currency_xe_income_account_id = EXCLUDED.currency_xe_income_account_id,
			currency_xe_expense_account_id = EXCLUDED.currency_xe_expense_account_id
	`, b.ID, b.ProfileID, b.Code, b.Name, b.Start, b.End,
		b.InitialBalancesAccountID, b.ProfitLossAccountID,
		b.CurrencyXEIncomeAccountID, b.CurrencyXEExpenseAccountID)
}

func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	row := s.queryRow(ctx, `
		SELECT id, profile_id, code, name, start_date, end_date,
			initial_balances_account_id, profit_loss_account_id,
			currency_xe_income_account_id, currency_xe_expense_account_id
		FROM books WHERE id = $1
	`, id)
	b := &models.Book{}
	if err := row.Scan(&b.ID, &b.ProfileID, &b.Code, &b.Name, &b.Start, &b.End,
		&b.InitialBalancesAccountID, &b.ProfitLossAccountID,
		&b.CurrencyXEIncomeAccountID, &b.CurrencyXEExpenseAccountID); err != nil {
		return nil, kernelerr.Newf(kernelerr.BookNotReady, "book %s not found: %v", id, err)
	}
	return b, nil
}

// --- Group ---

func (s *Store) SaveGroup(ctx context.Context, g *models.Group) error {
	return s.exec(ctx, `
		INSERT INTO groups (id, book_id, code, name, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name, parent_id = EXCLUDED.parent_id
	`, g.ID, g.BookID, g.Code, g.Name, g.ParentID)
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	row := s.queryRow(ctx, `SELECT id, book_id, code, name, parent_id FROM groups WHERE id = $1`, id)
	g := &models.Group{}
	if err := row.Scan(&g.ID, &g.BookID, &g.Code, &g.Name, &g.ParentID); err != nil {
		return nil, kernelerr.Newf(kernelerr.NotLinked, "group %s not found: %v", id, err)
	}
	return g, nil
}

// --- Account ---

func (s *Store) SaveAccount(ctx context.Context, a *models.Account) error {
	return s.exec(ctx, `
		INSERT INTO accounts (id, profile_id, book_id, group_id, code, name, account_type, currency, profile_default_currency, imbalance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code, name = EXCLUDED.name, imbalance = EXCLUDED.imbalance
	`, a.ID, a.ProfileID, a.BookID, a.GroupID, a.Code, a.Name, a.AccountType,
		a.Currency.Code, a.ProfileDefaultCurrency.Code, a.Imbalance.Decimal())
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row := s.queryRow(ctx, `
		SELECT id, profile_id, book_id, group_id, code, name, account_type, currency, profile_default_currency, imbalance
		FROM accounts WHERE id = $1
	`, id)
	a := &models.Account{}
	var accType, curCode, profCurCode string
	var imbalance decimal.Decimal
	if err := row.Scan(&a.ID, &a.ProfileID, &a.BookID, &a.GroupID, &a.Code, &a.Name, &accType, &curCode, &profCurCode, &imbalance); err != nil {
		return nil, kernelerr.Newf(kernelerr.NotLinked, "account %s not found: %v", id, err)
	}
	a.AccountType = models.AccountType(accType)
	a.Currency = s.resolveCurrency(curCode)
	a.ProfileDefaultCurrency = s.resolveCurrency(profCurCode)
	a.Imbalance = money.FromDecimal(imbalance)
	return a, nil
}

func (s *Store) CodeExists(ctx context.Context, bookID uuid.UUID, code string) (bool, error) {
	var exists bool
	row := s.queryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM groups WHERE book_id = $1 AND code = $2
			UNION
			SELECT 1 FROM accounts WHERE book_id = $1 AND code = $2
		)
	`, bookID, code)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// --- Pocket ---

func (s *Store) PocketsByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Pocket, error) {
	rows, err := s.query(ctx, `
		SELECT id, account_id, account_amount, profile_amount, account_balance, profile_balance, pocket_date
		FROM pockets WHERE account_id = $1 AND account_balance > 0
		ORDER BY pocket_date ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Pocket
	for rows.Next() {
		p := &models.Pocket{}
		var accountAmount, profileAmount, accountBalance, profileBalance decimal.Decimal
		if err := rows.Scan(&p.ID, &p.AccountID, &accountAmount, &profileAmount, &accountBalance, &profileBalance, &p.Date); err != nil {
			return nil, err
		}
		p.AccountAmount = money.FromDecimal(accountAmount)
		p.ProfileAmount = money.FromDecimal(profileAmount)
		p.AccountBalance = money.FromDecimal(accountBalance)
		p.ProfileBalance = money.FromDecimal(profileBalance)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SavePocket(ctx context.Context, p *models.Pocket) error {
	return s.exec(ctx, `
		INSERT INTO pockets (id, account_id, account_amount, profile_amount, account_balance, profile_balance, pocket_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			account_amount = EXCLUDED.account_amount, profile_amount = EXCLUDED.profile_amount,
			account_balance = EXCLUDED.account_balance, profile_balance = EXCLUDED.profile_balance
	`, p.ID, p.AccountID, p.AccountAmount.Decimal(), p.ProfileAmount.Decimal(), p.AccountBalance.Decimal(), p.ProfileBalance.Decimal(), p.Date)
}

func (s *Store) DeletePocket(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, `DELETE FROM pockets WHERE id = $1`, id)
}

// --- Transaction / Split ---

func (s *Store) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	return s.exec(ctx, `
		INSERT INTO transactions (id, book_id, description, transaction_date, creation_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, t.ID, t.BookID, t.Description, t.TransactionDate, t.CreationDate)
}

func (s *Store) SaveSplit(ctx context.Context, sp *models.Split) error {
	return s.exec(ctx, `
		INSERT INTO splits (id, transaction_id, account_id, account_amount, profile_amount, local_cost, split_type, is_linked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			account_amount = EXCLUDED.account_amount, profile_amount = EXCLUDED.profile_amount,
			local_cost = EXCLUDED.local_cost, is_linked = EXCLUDED.is_linked
	`, sp.ID, sp.TransactionID, sp.AccountID, sp.AccountAmount.Decimal(), sp.ProfileAmount.Decimal(), sp.LocalCost.Decimal(), sp.SplitType, sp.IsLinked)
}

func (s *Store) SplitsAfter(ctx context.Context, accountID uuid.UUID, after time.Time) ([]*models.Split, error) {
	rows, err := s.query(ctx, `
		SELECT sp.id, sp.transaction_id, sp.account_id, sp.account_amount, sp.profile_amount, sp.local_cost, sp.split_type, sp.is_linked
		FROM splits sp
		JOIN transactions t ON t.id = sp.transaction_id
		WHERE sp.account_id = $1 AND sp.is_linked = true AND t.transaction_date > $2
		ORDER BY t.transaction_date ASC
	`, accountID, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Split
	for rows.Next() {
		sp := &models.Split{}
		var accountAmount, profileAmount, localCost decimal.Decimal
		var splitType string
		if err := rows.Scan(&sp.ID, &sp.TransactionID, &sp.AccountID, &accountAmount, &profileAmount, &localCost, &splitType, &sp.IsLinked); err != nil {
			return nil, err
		}
		sp.AccountAmount = money.FromDecimal(accountAmount)
		sp.ProfileAmount = money.FromDecimal(profileAmount)
		sp.LocalCost = money.FromDecimal(localCost)
		sp.SplitType = models.SplitType(splitType)
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) TransactionDateOf(ctx context.Context, sp *models.Split) (time.Time, error) {
	row := s.queryRow(ctx, `SELECT transaction_date FROM transactions WHERE id = $1`, sp.TransactionID)
	var date time.Time
	if err := row.Scan(&date); err != nil {
		return time.Time{}, kernelerr.Newf(kernelerr.NotLinked, "split %s has no transaction: %v", sp.ID, err)
	}
	return date, nil
}
