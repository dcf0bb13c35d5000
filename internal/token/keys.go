package token

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/google/uuid"
)

const keySize = 32

// Key is one HMAC signing key. It signs until InactiveAt and verifies until
// ExpiresAt.
type Key struct {
	Version    string
	Secret     []byte
	CreatedAt  time.Time
	InactiveAt time.Time
	ExpiresAt  time.Time
}

// IsActive reports whether the key may still sign at now.
func (k *Key) IsActive(now time.Time) bool {
	return now.Before(k.InactiveAt)
}

// IsExpired reports whether the key may no longer verify at now.
func (k *Key) IsExpired(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}

// keySlots is replaced as a whole on every rotation or eviction.
type keySlots struct {
	active   *Key
	inactive *Key
}

// KeyManager hands out the current signing key and resolves verification
// keys by version. At most two keys are live: the active one and the one it
// replaced, until that one expires.
type KeyManager struct {
	slots      atomic.Pointer[keySlots]
	rotation   time.Duration
	transition time.Duration
	now        func() time.Time
	onRotate   func(*Key)
}

// Option configures a KeyManager.
type Option func(*KeyManager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *KeyManager) { m.now = now }
}

// WithRotationHook is called once for every key the manager creates.
func WithRotationHook(fn func(*Key)) Option {
	return func(m *KeyManager) { m.onRotate = fn }
}

// NewKeyManager creates a manager with no keys; the first SigningKey call
// generates one.
func NewKeyManager(rotation, transition time.Duration, opts ...Option) (*KeyManager, error) {
	if rotation <= 0 || transition <= 0 || transition >= rotation {
		return nil, ErrInvalidKeyWindow
	}
	m := &KeyManager{
		rotation:   rotation,
		transition: transition,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SigningKey returns the active key, rotating first when it has passed its
// InactiveAt. Concurrent callers racing on a rotation all end up with the
// key that won the swap.
func (m *KeyManager) SigningKey() (*Key, error) {
	for {
		now := m.now()
		cur := m.slots.Load()
		if cur != nil && cur.active != nil && cur.active.IsActive(now) {
			return cur.active, nil
		}

		key, err := m.newKey(now)
		if err != nil {
			return nil, err
		}
		next := &keySlots{active: key}
		if cur != nil && cur.active != nil && !cur.active.IsExpired(now) {
			next.inactive = cur.active
		}
		if m.slots.CompareAndSwap(cur, next) {
			if m.onRotate != nil {
				m.onRotate(key)
			}
			return key, nil
		}
	}
}

// VerificationKey returns the live key with the given version. An inactive
// key found past its expiry is evicted.
func (m *KeyManager) VerificationKey(version string) (*Key, bool) {
	for {
		now := m.now()
		cur := m.slots.Load()
		if cur == nil {
			return nil, false
		}

		if cur.active != nil && cur.active.Version == version {
			if cur.active.IsExpired(now) {
				return nil, false
			}
			return cur.active, true
		}

		if cur.inactive == nil || cur.inactive.Version != version {
			return nil, false
		}
		if !cur.inactive.IsExpired(now) {
			return cur.inactive, true
		}
		if m.slots.CompareAndSwap(cur, &keySlots{active: cur.active}) {
			return nil, false
		}
	}
}

func (m *KeyManager) newKey(now time.Time) (*Key, error) {
	secret, err := util.RandomBytes(keySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	inactiveAt := now.Add(m.rotation)
	return &Key{
		Version:    uuid.New().String(),
		Secret:     secret,
		CreatedAt:  now,
		InactiveAt: inactiveAt,
		ExpiresAt:  inactiveAt.Add(m.transition),
	}, nil
}
