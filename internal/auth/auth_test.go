package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscribe/propscribe/internal/accounts"
	"github.com/propscribe/propscribe/internal/apikeys"
	"github.com/propscribe/propscribe/internal/store"
	"github.com/propscribe/propscribe/pkg/models"
)

// mockStore backs the accounts and apikeys services in resolver tests.
type mockStore struct {
	store.Store
	accounts   map[string]*models.Account
	keys       map[string]*models.APIKey
	keyLookups int
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts: make(map[string]*models.Account),
		keys:     make(map[string]*models.APIKey),
	}
}

func (s *mockStore) GetAccountByUserID(_ context.Context, userID string) (*models.Account, error) {
	for _, a := range s.accounts {
		for _, u := range a.Users {
			if u == userID {
				return a, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.accounts[account.ID] = account
	return nil
}

func (s *mockStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.keys[key.ID] = key
	return nil
}

func (s *mockStore) GetActiveAPIKeyByHash(_ context.Context, hash string) (*models.APIKey, error) {
	s.keyLookups++
	for _, k := range s.keys {
		if k.HashedToken == hash && k.RevokedAt == nil {
			return k, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) RevokeAPIKey(_ context.Context, id string, accountID string) error {
	k, ok := s.keys[id]
	if !ok || k.AccountID != accountID {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	k.RevokedAt = &now
	return nil
}

// spyVerifier records whether Verify was ever called.
type spyVerifier struct {
	claims *TokenClaims
	err    error
	calls  int
}

func (v *spyVerifier) Verify(context.Context, string) (*TokenClaims, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServices(st *mockStore) (*accounts.Service, *apikeys.Service) {
	return accounts.NewService(st, "test", testLogger()),
		apikeys.NewService(st, "test", testLogger())
}

func TestUserResolver(t *testing.T) {
	t.Run("resolves verified token with phone number", func(t *testing.T) {
		st := newMockStore()
		accts, _ := newTestServices(st)

		verifier := &spyVerifier{claims: &TokenClaims{Subject: "sub123", PhoneNumber: "+447700900123"}}
		resolver := NewUserResolver(verifier, accts, "test", testLogger())

		identity, err := resolver.Resolve(context.Background(), "some-token")
		require.NoError(t, err)
		assert.Equal(t, "test_usr_sub123", identity.UserID)
		assert.Equal(t, "+447700900123", identity.PhoneNumber)
		assert.False(t, identity.System)
		// No account linked yet.
		assert.Empty(t, identity.AccountID)
	})

	t.Run("links existing account", func(t *testing.T) {
		st := newMockStore()
		accts, _ := newTestServices(st)

		_, err := accts.EnsureForUser(context.Background(), "test_usr_sub123")
		require.NoError(t, err)

		verifier := &spyVerifier{claims: &TokenClaims{Subject: "sub123", PhoneNumber: "+447700900123"}}
		resolver := NewUserResolver(verifier, accts, "test", testLogger())

		identity, err := resolver.Resolve(context.Background(), "some-token")
		require.NoError(t, err)
		assert.NotEmpty(t, identity.AccountID)
	})

	t.Run("rejects token without phone number", func(t *testing.T) {
		st := newMockStore()
		accts, _ := newTestServices(st)

		verifier := &spyVerifier{claims: &TokenClaims{Subject: "sub123"}}
		resolver := NewUserResolver(verifier, accts, "test", testLogger())

		_, err := resolver.Resolve(context.Background(), "some-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Contains(t, err.Error(), "missing_phone_number")
	})

	t.Run("rejects unverifiable token", func(t *testing.T) {
		st := newMockStore()
		accts, _ := newTestServices(st)

		verifier := &spyVerifier{err: assert.AnError}
		resolver := NewUserResolver(verifier, accts, "test", testLogger())

		_, err := resolver.Resolve(context.Background(), "garbage")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAPIKeyResolver(t *testing.T) {
	st := newMockStore()
	_, keys := newTestServices(st)
	resolver := NewAPIKeyResolver(keys)

	created, err := keys.Create(context.Background(), "acct_1", "usr_1")
	require.NoError(t, err)

	t.Run("resolves active key", func(t *testing.T) {
		identity, err := resolver.Resolve(context.Background(), created.Secret)
		require.NoError(t, err)
		assert.Equal(t, created.Key.ID, identity.UserID)
		assert.Equal(t, "acct_1", identity.AccountID)
		assert.False(t, identity.System)
	})

	t.Run("rejects credential that is not key shaped", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "eyJhbGciOiJSUzI1NiJ9.x.y")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rejects foreign environment secret without a lookup", func(t *testing.T) {
		st.keyLookups = 0
		_, err := resolver.Resolve(context.Background(), "prod_sk_deadbeef")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, st.keyLookups)
	})

	t.Run("rejects revoked key", func(t *testing.T) {
		require.NoError(t, keys.Revoke(context.Background(), "acct_1", created.Key.ID))
		_, err := resolver.Resolve(context.Background(), created.Secret)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestCombinedResolver_MutualExclusion(t *testing.T) {
	st := newMockStore()
	accts, keys := newTestServices(st)

	created, err := keys.Create(context.Background(), "acct_1", "usr_1")
	require.NoError(t, err)

	verifier := &spyVerifier{claims: &TokenClaims{Subject: "sub123", PhoneNumber: "+447700900123"}}
	resolver := NewCombinedResolver(
		NewUserResolver(verifier, accts, "test", testLogger()),
		NewAPIKeyResolver(keys),
	)

	t.Run("key shaped credential never reaches the verifier", func(t *testing.T) {
		verifier.calls = 0
		identity, err := resolver.Resolve(context.Background(), created.Secret)
		require.NoError(t, err)
		assert.Equal(t, created.Key.ID, identity.UserID)
		assert.Zero(t, verifier.calls)
	})

	t.Run("invalid key shaped credential is not retried as a token", func(t *testing.T) {
		verifier.calls = 0
		_, err := resolver.Resolve(context.Background(), "test_sk_unknown")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, verifier.calls)
	})

	t.Run("foreign environment secret is not treated as a key", func(t *testing.T) {
		verifier.calls = 0
		st.keyLookups = 0
		_, err := resolver.Resolve(context.Background(), "prod_sk_deadbeef")
		require.NoError(t, err)
		assert.Zero(t, st.keyLookups)
		assert.Equal(t, 1, verifier.calls)
	})

	t.Run("non key credential goes to the verifier only", func(t *testing.T) {
		verifier.calls = 0
		identity, err := resolver.Resolve(context.Background(), "opaque-user-token")
		require.NoError(t, err)
		assert.Equal(t, "test_usr_sub123", identity.UserID)
		assert.Equal(t, 1, verifier.calls)
	})
}

func TestSystemResolver(t *testing.T) {
	const project = "propscribe-prod"
	goodClaims := func() *TokenClaims {
		return &TokenClaims{
			Subject:       "svc",
			Audience:      []string{project},
			Email:         "propscribe@propscribe-prod.iam.gserviceaccount.com",
			EmailVerified: true,
		}
	}

	t.Run("accepts own service account", func(t *testing.T) {
		resolver := NewSystemResolver(&spyVerifier{claims: goodClaims()}, project, "propscribe")
		identity, err := resolver.Resolve(context.Background(), "tok")
		require.NoError(t, err)
		assert.True(t, identity.System)
		assert.Equal(t, SystemUserID, identity.UserID)
		assert.Empty(t, identity.AccountID)
	})

	t.Run("rejects wrong audience", func(t *testing.T) {
		claims := goodClaims()
		claims.Audience = []string{"someone-else"}
		resolver := NewSystemResolver(&spyVerifier{claims: claims}, project, "propscribe")
		_, err := resolver.Resolve(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rejects unverified email", func(t *testing.T) {
		claims := goodClaims()
		claims.EmailVerified = false
		resolver := NewSystemResolver(&spyVerifier{claims: claims}, project, "propscribe")
		_, err := resolver.Resolve(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rejects foreign service account", func(t *testing.T) {
		claims := goodClaims()
		claims.Email = "intruder@propscribe-prod.iam.gserviceaccount.com"
		resolver := NewSystemResolver(&spyVerifier{claims: claims}, project, "propscribe")
		_, err := resolver.Resolve(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestMockResolver(t *testing.T) {
	resolver := NewMockResolver()

	identity, err := resolver.Resolve(context.Background(), `{"user_id":"usr_1","account_id":"acct_1","phone_number":"+4477"}`)
	require.NoError(t, err)
	assert.Equal(t, "usr_1", identity.UserID)
	assert.Equal(t, "acct_1", identity.AccountID)

	_, err = resolver.Resolve(context.Background(), "not json")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = resolver.Resolve(context.Background(), `{"account_id":"acct_1"}`)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDispatcher(t *testing.T) {
	st := newMockStore()
	accts, keys := newTestServices(st)
	verifier := &spyVerifier{claims: &TokenClaims{Subject: "sub123", PhoneNumber: "+447700900123"}}

	user := NewUserResolver(verifier, accts, "test", testLogger())
	apiKey := NewAPIKeyResolver(keys)

	t.Run("routes to the named resolver", func(t *testing.T) {
		d, err := NewDispatcher("", testLogger(), user, apiKey, NewCombinedResolver(user, apiKey))
		require.NoError(t, err)

		identity, err := d.Authenticate(context.Background(), "user", "tok")
		require.NoError(t, err)
		assert.Equal(t, "test_usr_sub123", identity.UserID)

		_, err = d.Authenticate(context.Background(), "nope", "tok")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("override replaces the requested resolver", func(t *testing.T) {
		d, err := NewDispatcher("mock", testLogger(), user, NewMockResolver())
		require.NoError(t, err)

		identity, err := d.Authenticate(context.Background(), "user", `{"user_id":"usr_override"}`)
		require.NoError(t, err)
		assert.Equal(t, "usr_override", identity.UserID)
	})

	t.Run("unregistered override fails construction", func(t *testing.T) {
		_, err := NewDispatcher("mock", testLogger(), user)
		assert.Error(t, err)
	})

	t.Run("duplicate resolver names fail construction", func(t *testing.T) {
		_, err := NewDispatcher("", testLogger(), user, user)
		assert.Error(t, err)
	})
}
