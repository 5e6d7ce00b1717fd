// Package keys provides secure in-memory handling of private scalars and
// other sensitive byte buffers (issuer/regulator private keys, decrypted PII)
// that must be wiped from memory as soon as they are no longer needed.
package keys

import (
	"crypto/rand"
	"sync"
)

// BufferPool hands out zeroed byte buffers and guarantees that anything
// returned via Put has been overwritten before it can be reused or garbage
// collected, so a decrypted private key or PII field never lingers in a
// pooled allocation.
type BufferPool struct {
	size int
	pool sync.Pool
	mu   sync.Mutex // serializes wipe operations to prevent concurrent overlapping wipes
}

// NewBufferPool creates a pool of buffers of the given fixed size, e.g. 32
// for a BabyJubJub scalar or an AES-256 key.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		},
	}
}

// Get returns a zeroed buffer of the pool's configured size.
func (p *BufferPool) Get() []byte {
	buf := p.pool.Get().([]byte)
	for i := range buf {
		if buf[i] != 0 {
			zero(buf)
			break
		}
	}
	return buf
}

// Put wipes buf and, if it matches the pool's size, returns it to the pool.
// Buffers of the wrong size are wiped and discarded rather than pooled.
func (p *BufferPool) Put(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	secureWipe(buf)
	if len(buf) == p.size {
		p.pool.Put(buf) //nolint:staticcheck // size already checked above
	}
}

// secureWipe overwrites data in three passes — random, 0xFF, then 0x00 — so
// the original contents cannot be recovered from a single incomplete
// overwrite.
func secureWipe(data []byte) {
	if len(data) == 0 {
		return
	}

	randomPass := make([]byte, len(data))
	_, _ = rand.Read(randomPass)
	copy(data, randomPass)
	zero(randomPass)

	for i := range data {
		data[i] = 0xFF
	}
	for i := range data {
		data[i] = 0x00
	}
}

func zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// Wipe is the standalone form of secureWipe for callers that don't use a
// BufferPool — e.g. a one-off plaintext buffer decrypted from escrow.
func Wipe(data []byte) {
	secureWipe(data)
}
