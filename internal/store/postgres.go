package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/propscribe/propscribe/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Accounts ---

const accountColumns = `id, users, terms_agreed_version, terms_agreed_at, terms_agreed_by,
	 last_active_at, last_active_user, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Users, &a.TermsAgreedVersion, &a.TermsAgreedAt, &a.TermsAgreedBy,
		&a.LastActiveAt, &a.LastActiveUser, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *PostgresStore) GetAccountByUserID(ctx context.Context, userID string) (*models.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE $1 = ANY(users) LIMIT 1`, userID))
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, users, last_active_at, last_active_user, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.Users, account.LastActiveAt, account.LastActiveUser,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAccountTerms(ctx context.Context, id string, update TermsUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET terms_agreed_version = $2, terms_agreed_by = $3,
		   terms_agreed_at = NOW(), updated_at = NOW()
		 WHERE id = $1`, id, update.Version, update.AgreedBy)
	if err != nil {
		return fmt.Errorf("update account terms: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- API Keys ---

const apiKeyColumns = `id, account_id, created_by, hashed_token, revoked_at, created_at, updated_at`

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	var k models.APIKey
	err := row.Scan(&k.ID, &k.AccountID, &k.CreatedBy, &k.HashedToken,
		&k.RevokedAt, &k.CreatedAt, &k.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	return &k, nil
}

func (s *PostgresStore) GetActiveAPIKeyByHash(ctx context.Context, hashedToken string) (*models.APIKey, error) {
	return scanAPIKey(s.pool.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE hashed_token = $1 AND revoked_at IS NULL`, hashedToken))
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, account_id, created_by, hashed_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.AccountID, key.CreatedBy, key.HashedToken, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActiveAPIKeys(ctx context.Context, accountID string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE account_id = $1 AND revoked_at IS NULL
		 ORDER BY created_at DESC LIMIT 50`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.AccountID, &k.CreatedBy, &k.HashedToken,
			&k.RevokedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id string, accountID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET revoked_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND account_id = $2 AND revoked_at IS NULL`, id, accountID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Completions ---

const completionColumns = `id, account_id, user_id, type, status, request_params,
	 latency_ms, provider_completion_id, usage, response, failure_reason, created_at, updated_at`

func (s *PostgresStore) CreateCompletion(ctx context.Context, cmpl *models.Completion) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO completions (id, account_id, user_id, type, status, request_params, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cmpl.ID, cmpl.AccountID, cmpl.UserID, cmpl.Type, cmpl.Status,
		[]byte(cmpl.RequestParams), cmpl.CreatedAt, cmpl.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create completion: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCompletion(ctx context.Context, id string) (*models.Completion, error) {
	return scanCompletion(s.pool.QueryRow(ctx,
		`SELECT `+completionColumns+` FROM completions WHERE id = $1`, id))
}

// SettleCompletion writes the terminal fields for a pending completion.
// The WHERE status = 'pending' guard makes double resolution lose cleanly:
// the second writer gets ErrAlreadySettled instead of overwriting terminal
// fields, and an unknown id gets ErrNotFound.
func (s *PostgresStore) SettleCompletion(ctx context.Context, id string, status string, opts ...SettleOption) error {
	if status != models.CompletionStatusSuccess && status != models.CompletionStatusFailed {
		return fmt.Errorf("settle completion: %q is not a terminal status", status)
	}

	p := ApplySettleOptions(opts)

	var tag pgconn.CommandTag
	var err error
	switch {
	case p.Result != nil:
		usageJSON, merr := json.Marshal(p.Result.Usage)
		if merr != nil {
			return fmt.Errorf("marshal usage: %w", merr)
		}
		tag, err = s.pool.Exec(ctx,
			`UPDATE completions SET status = $2, latency_ms = $3, provider_completion_id = $4,
			   usage = $5, response = $6, updated_at = NOW()
			 WHERE id = $1 AND status = 'pending'`,
			id, status, p.Result.LatencyMS, p.Result.ProviderCompletionID, usageJSON, p.Result.Response)
	case p.FailureReason != nil:
		tag, err = s.pool.Exec(ctx,
			`UPDATE completions SET status = $2, failure_reason = $3, updated_at = NOW()
			 WHERE id = $1 AND status = 'pending'`,
			id, status, *p.FailureReason)
	default:
		tag, err = s.pool.Exec(ctx,
			`UPDATE completions SET status = $2, updated_at = NOW()
			 WHERE id = $1 AND status = 'pending'`, id, status)
	}
	if err != nil {
		return fmt.Errorf("settle completion: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing row from a lost settle race.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM completions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("settle completion: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadySettled
}

func (s *PostgresStore) ListRecentCompletions(ctx context.Context, accountID string, completionType string, limit int) ([]*models.Completion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+completionColumns+` FROM completions
		 WHERE account_id = $1 AND type = $2 AND status = 'success'
		 ORDER BY created_at DESC LIMIT $3`, accountID, completionType, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent completions: %w", err)
	}
	defer rows.Close()

	var cmpls []*models.Completion
	for rows.Next() {
		cmpl, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		cmpls = append(cmpls, cmpl)
	}
	return cmpls, rows.Err()
}

func scanCompletion(row pgx.Row) (*models.Completion, error) {
	var c models.Completion
	var params, usage []byte
	err := row.Scan(&c.ID, &c.AccountID, &c.UserID, &c.Type, &c.Status, &params,
		&c.LatencyMS, &c.ProviderCompletionID, &usage, &c.Response, &c.FailureReason,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan completion: %w", err)
	}
	c.RequestParams = params
	if usage != nil {
		var u models.TokenUsage
		if err := json.Unmarshal(usage, &u); err != nil {
			return nil, fmt.Errorf("unmarshal usage: %w", err)
		}
		c.Usage = &u
	}
	return &c, nil
}

// isDuplicateKeyError reports whether err is a Postgres unique violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
