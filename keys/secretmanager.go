package keys

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/jwtdemo/jwtguard/core"
)

// SecretAccessor wraps the AccessSecretVersion method of the Secret Manager
// client. *secretmanager.Client satisfies it.
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// SecretManagerResolver loads PEM encoded public keys from Google Secret
// Manager. The selector's KeyID names the secret. Keys are fetched once and
// kept in memory.
type SecretManagerResolver struct {
	client  SecretAccessor
	project string
	version string

	mu    sync.RWMutex
	cache map[string]jwk.Key
}

// NewSecretManagerResolver returns a resolver reading the "latest" version of
// secrets in project.
func NewSecretManagerResolver(client SecretAccessor, project string) (*SecretManagerResolver, error) {
	if client == nil {
		return nil, errors.New("secret manager client cannot be nil")
	}
	if project == "" {
		return nil, errors.New("project cannot be empty")
	}
	return &SecretManagerResolver{
		client:  client,
		project: project,
		version: "latest",
		cache:   make(map[string]jwk.Key),
	}, nil
}

// ResolveKey returns the key stored in the secret named by selector.KeyID.
func (r *SecretManagerResolver) ResolveKey(ctx context.Context, selector core.KeySelector) (any, error) {
	if selector.KeyID == "" {
		return nil, ErrNoDefaultKey
	}

	r.mu.RLock()
	key, ok := r.cache[selector.KeyID]
	r.mu.RUnlock()
	if ok {
		return WithAlgorithm(key, selector.Algorithm)
	}

	key, err := r.fetch(ctx, selector.KeyID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[selector.KeyID] = key
	r.mu.Unlock()

	return WithAlgorithm(key, selector.Algorithm)
}

func (r *SecretManagerResolver) fetch(ctx context.Context, name string) (jwk.Key, error) {
	path := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", r.project, name, r.version)
	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: path})
	if err != nil {
		return nil, fmt.Errorf("could not access secret %s: %w", path, err)
	}

	key, err := ParsePEM(resp.GetPayload().GetData())
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}
	if err := key.Set(jwk.KeyIDKey, name); err != nil {
		return nil, err
	}
	return key, nil
}
