// Package keys provides core.KeyResolver implementations backed by key
// material held in process: static keys, PEM files and Google Secret Manager.
package keys

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/jwtdemo/jwtguard/core"
)

var (
	// ErrKeyNotFound is returned when no key matches the selector's KeyID.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNoDefaultKey is returned when the selector has no KeyID and the
	// resolver cannot pick a single key.
	ErrNoDefaultKey = errors.New("no default key, set a key id")
)

// StaticResolver resolves selectors against a fixed set of public keys.
// It is immutable after construction and safe for concurrent use.
type StaticResolver struct {
	byID       map[string]jwk.Key
	defaultKey jwk.Key
}

// NewStaticResolver indexes keys by their "kid". A key without a kid becomes
// the default key, as does the only key when exactly one is given. Private
// keys are reduced to their public part.
func NewStaticResolver(keys ...jwk.Key) (*StaticResolver, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one key is required")
	}

	r := &StaticResolver{byID: make(map[string]jwk.Key, len(keys))}
	for i, key := range keys {
		if key == nil {
			return nil, fmt.Errorf("key at index %d cannot be nil", i)
		}
		public, err := jwk.PublicKeyOf(key)
		if err != nil {
			return nil, fmt.Errorf("key at index %d: %w", i, err)
		}

		kid := public.KeyID()
		if kid == "" {
			if r.defaultKey != nil {
				return nil, errors.New("only one key may omit its key id")
			}
			r.defaultKey = public
			continue
		}
		if _, ok := r.byID[kid]; ok {
			return nil, fmt.Errorf("duplicate key id %q", kid)
		}
		r.byID[kid] = public
	}

	if r.defaultKey == nil && len(keys) == 1 {
		for _, key := range r.byID {
			r.defaultKey = key
		}
	}

	return r, nil
}

// ResolveKey returns the key named by selector.KeyID, or the default key
// when KeyID is empty. A selector Algorithm is stamped on the returned key.
func (r *StaticResolver) ResolveKey(_ context.Context, selector core.KeySelector) (any, error) {
	var key jwk.Key
	if selector.KeyID == "" {
		if r.defaultKey == nil {
			return nil, ErrNoDefaultKey
		}
		key = r.defaultKey
	} else {
		var ok bool
		if key, ok = r.byID[selector.KeyID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, selector.KeyID)
		}
	}

	return WithAlgorithm(key, selector.Algorithm)
}

// ParsePEM parses a PEM encoded key and returns its public part as a jwk.Key.
func ParsePEM(data []byte) (jwk.Key, error) {
	key, err := jwk.ParseKey(data, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("could not parse PEM key: %w", err)
	}
	public, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, fmt.Errorf("could not derive public key: %w", err)
	}
	return public, nil
}

// LoadPEMFile reads and parses a PEM encoded key file. When kid is not
// empty it is set as the key's "kid".
func LoadPEMFile(path, kid string) (jwk.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read key file: %w", err)
	}
	key, err := ParsePEM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if kid != "" {
		if err := key.Set(jwk.KeyIDKey, kid); err != nil {
			return nil, err
		}
	}
	return key, nil
}

// WithAlgorithm returns key with its "alg" set to alg. The input key is not
// modified. An empty alg returns key unchanged.
func WithAlgorithm(key jwk.Key, alg string) (jwk.Key, error) {
	if alg == "" {
		return key, nil
	}

	var sigAlg jwa.SignatureAlgorithm
	if err := sigAlg.Accept(alg); err != nil {
		return nil, fmt.Errorf("invalid algorithm %q: %w", alg, err)
	}

	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("could not export key: %w", err)
	}
	pinned, err := jwk.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("could not import key: %w", err)
	}
	if kid := key.KeyID(); kid != "" {
		if err := pinned.Set(jwk.KeyIDKey, kid); err != nil {
			return nil, err
		}
	}
	if err := pinned.Set(jwk.AlgorithmKey, sigAlg); err != nil {
		return nil, err
	}
	return pinned, nil
}

// SelectFromSet picks the key for selector out of set. With a KeyID the
// matching key is returned; without one, the only key of a single-key set,
// or the whole set so the verifier can match on the token's kid.
func SelectFromSet(set jwk.Set, selector core.KeySelector) (any, error) {
	if set == nil || set.Len() == 0 {
		return nil, fmt.Errorf("%w: key set is empty", ErrKeyNotFound)
	}

	if selector.KeyID != "" {
		key, ok := set.LookupKeyID(selector.KeyID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, selector.KeyID)
		}
		return WithAlgorithm(key, selector.Algorithm)
	}

	if set.Len() == 1 {
		key, _ := set.Key(0)
		return WithAlgorithm(key, selector.Algorithm)
	}
	return set, nil
}
