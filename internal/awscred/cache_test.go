package awscred

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

type fakeIssuer struct {
	issued int
	err    error
}

func (f *fakeIssuer) IssueTemporaryCredential(ctx context.Context, durationSeconds int32) (*Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.issued++
	return &Credential{
		AccessKey:    fmt.Sprintf("AKIA%d", f.issued),
		SecretKey:    "secret",
		SessionToken: "token",
	}, nil
}

func TestCacheReusesCredentialWithinLifetime(t *testing.T) {
	issuer := &fakeIssuer{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base

	cache := NewCache(issuer, 3600)
	cache.now = func() time.Time { return clock }

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, issuer.issued)

	clock = base.Add(10 * time.Second)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, issuer.issued)
	require.Equal(t, first.AccessKey, second.AccessKey)
}

func TestCacheRefreshesAfterBufferedExpiry(t *testing.T) {
	issuer := &fakeIssuer{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base

	cache := NewCache(issuer, 3600)
	cache.now = func() time.Time { return clock }

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	// expiry is lifetime minus the 60s buffer: 3540s after issue
	clock = base.Add(3539 * time.Second)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, issuer.issued)

	clock = base.Add(3540 * time.Second)
	cred, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, issuer.issued)
	require.Equal(t, "AKIA2", cred.AccessKey)
}

func TestCacheFailedRefreshLeavesCacheEmpty(t *testing.T) {
	issuer := &fakeIssuer{err: fmt.Errorf("sts down")}
	cache := NewCache(issuer, 3600)

	_, err := cache.Get(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrCredential))

	// once the issuer recovers the next call succeeds
	issuer.err = nil
	cred, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIA1", cred.AccessKey)
}

func TestCacheDefaultsDuration(t *testing.T) {
	cache := NewCache(&fakeIssuer{}, 0)
	require.Equal(t, int32(3600), cache.duration)
}

func TestRetrieveExposesExpiry(t *testing.T) {
	issuer := &fakeIssuer{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cache := NewCache(issuer, 900)
	cache.now = func() time.Time { return base }

	creds, err := cache.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIA1", creds.AccessKeyID)
	require.True(t, creds.CanExpire)
	require.Equal(t, base.Add(900*time.Second-expiryBuffer), creds.Expires)
}
