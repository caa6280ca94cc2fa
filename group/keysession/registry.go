// Package keysession tracks in-flight batch uploads that carry group
// key bundles past the invite/rotation inline threshold: a
// mutex-guarded map with a background cleanup goroutine evicting
// entries past their TTL. Queued bundles are sealed at rest under a
// per-registry ChaCha20-Poly1305 key, so wrapped key material never
// sits in plain process memory between the invite call and the batch
// upload that drains it.
package keysession

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pandayo-labs/veilsdk/internal/metrics"
	"github.com/pandayo-labs/veilsdk/wire"
)

// DefaultTTL is how long an upload session survives without being
// drained before the cleanup goroutine evicts it.
const DefaultTTL = 10 * time.Minute

type entry struct {
	sealed  [][]byte // one sealed item per queued bundle, drained front-to-back
	expires time.Time
}

// Registry holds pending batch uploads keyed by an opaque session id.
type Registry struct {
	mu            sync.Mutex
	sessions      map[string]*entry
	atRestKey     []byte
	ttl           time.Duration
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// NewRegistry starts a registry with its own background cleanup loop
// and a fresh at-rest sealing key. Callers must call Close to stop it.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	atRestKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, atRestKey); err != nil {
		panic("keysession: cannot read from crypto/rand: " + err.Error())
	}
	r := &Registry{
		sessions:    make(map[string]*entry),
		atRestKey:   atRestKey,
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
	r.cleanupTicker = time.NewTicker(ttl / 2)
	go r.runCleanup()
	return r
}

func (r *Registry) seal(item wire.GroupKeyServerOutput) ([]byte, error) {
	plain, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(r.atRestKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return append(nonce, aead.Seal(nil, nonce, plain, nil)...), nil
}

func (r *Registry) open(sealed []byte) (wire.GroupKeyServerOutput, error) {
	var item wire.GroupKeyServerOutput
	aead, err := chacha20poly1305.New(r.atRestKey)
	if err != nil {
		return item, err
	}
	nonce, body := sealed[:chacha20poly1305.NonceSize], sealed[chacha20poly1305.NonceSize:]
	plain, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return item, err
	}
	err = json.Unmarshal(plain, &item)
	return item, err
}

// Start registers the flattened remaining batches under a fresh
// session id and returns it. Satisfies group.keySessionStarter.
func (r *Registry) Start(batches [][]wire.GroupKeyServerOutput) string {
	var sealed [][]byte
	n := 0
	for _, b := range batches {
		for _, item := range b {
			blob, err := r.seal(item)
			if err != nil {
				continue
			}
			sealed = append(sealed, blob)
			n++
		}
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{sealed: sealed, expires: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	metrics.Global.RecordKeySessionBatch(n)
	return id
}

// Next drains up to n items from the session's remaining queue. done
// is true once the session has no items left, at which point it is
// removed from the registry. ok is false if the session id is unknown
// or has expired.
func (r *Registry) Next(sessionID string, n int) (batch []wire.GroupKeyServerOutput, done bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.sessions[sessionID]
	if !exists || time.Now().After(e.expires) {
		delete(r.sessions, sessionID)
		return nil, false, false
	}

	if n > len(e.sealed) {
		n = len(e.sealed)
	}
	batch = make([]wire.GroupKeyServerOutput, 0, n)
	for _, blob := range e.sealed[:n] {
		item, err := r.open(blob)
		if err != nil {
			continue
		}
		batch = append(batch, item)
	}
	e.sealed = e.sealed[n:]

	if len(e.sealed) == 0 {
		delete(r.sessions, sessionID)
		return batch, true, true
	}
	e.expires = time.Now().Add(r.ttl)
	return batch, false, true
}

// Close stops the cleanup goroutine and discards all pending sessions.
func (r *Registry) Close() {
	close(r.stopCleanup)
	r.cleanupTicker.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*entry)
}

func (r *Registry) runCleanup() {
	for {
		select {
		case <-r.cleanupTicker.C:
			r.evictExpired()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) evictExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, e := range r.sessions {
		if now.After(e.expires) {
			delete(r.sessions, id)
		}
	}
}
