package awscred

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

// expiryBuffer is shaved off the nominal credential lifetime so a
// credential handed out just before expiry is still valid for the call
// that uses it.
const expiryBuffer = 60 * time.Second

type Credential struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	ExpiresAt    time.Time
}

// Issuer hands out one short-lived credential per call.
type Issuer interface {
	IssueTemporaryCredential(ctx context.Context, durationSeconds int32) (*Credential, error)
}

type stsIssuer struct {
	client *sts.Client
}

func NewSTSIssuer(ctx context.Context, region string) (Issuer, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &stsIssuer{client: sts.NewFromConfig(cfg)}, nil
}

func (s *stsIssuer) IssueTemporaryCredential(ctx context.Context, durationSeconds int32) (*Credential, error) {
	resp, err := s.client.GetSessionToken(ctx, &sts.GetSessionTokenInput{
		DurationSeconds: aws.Int32(durationSeconds),
	})
	if err != nil {
		return nil, err
	}
	creds := resp.Credentials
	if creds == nil || creds.AccessKeyId == nil || creds.SecretAccessKey == nil {
		return nil, fmt.Errorf("sts returned no credentials")
	}
	cred := &Credential{
		AccessKey: *creds.AccessKeyId,
		SecretKey: *creds.SecretAccessKey,
	}
	if creds.SessionToken != nil {
		cred.SessionToken = *creds.SessionToken
	}
	if creds.Expiration != nil {
		cred.ExpiresAt = *creds.Expiration
	}
	return cred, nil
}

// Cache holds one credential set for the whole process. Reads are cheap;
// only the refresh path takes the lock long enough to matter, and two
// concurrent refreshes are impossible by construction.
type Cache struct {
	issuer   Issuer
	duration int32

	mu     sync.Mutex
	cached *Credential
	expiry time.Time
	now    func() time.Time
}

func NewCache(issuer Issuer, durationSeconds int32) *Cache {
	if durationSeconds <= 0 {
		durationSeconds = 3600
	}
	return &Cache{
		issuer:   issuer,
		duration: durationSeconds,
		now:      time.Now,
	}
}

// Get returns the cached credential, refreshing it first when the cache is
// empty or past its buffered expiry. A failed refresh leaves the cache
// unchanged so the next call retries.
func (c *Cache) Get(ctx context.Context) (Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if c.cached != nil && now.Before(c.expiry) {
		return *c.cached, nil
	}
	cred, err := c.issuer.IssueTemporaryCredential(ctx, c.duration)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", appErr.ErrCredential, err)
	}
	c.cached = cred
	c.expiry = now.Add(time.Duration(c.duration)*time.Second - expiryBuffer)
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = c.expiry
	}
	logutil.GetLogger(ctx).Info("refreshed temporary credentials",
		zap.Time("expiry", c.expiry),
	)
	return *cred, nil
}

// Retrieve adapts the cache to aws.CredentialsProvider so SDK clients can
// be built once and keep reading fresh credentials.
func (c *Cache) Retrieve(ctx context.Context) (aws.Credentials, error) {
	cred, err := c.Get(ctx)
	if err != nil {
		return aws.Credentials{}, err
	}
	out := aws.Credentials{
		AccessKeyID:     cred.AccessKey,
		SecretAccessKey: cred.SecretKey,
		SessionToken:    cred.SessionToken,
	}
	if !cred.ExpiresAt.IsZero() {
		out.CanExpire = true
		out.Expires = cred.ExpiresAt
	}
	return out, nil
}
