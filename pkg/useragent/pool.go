package useragent

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"
)

// Chrome is the desktop Chrome identity sent when no pool is configured.
const Chrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultPool holds desktop browser identities that search engines serve the
// classic HTML results page to. Chrome comes first so a sequential pool
// starts with the identity the uTLS chrome profile matches.
var DefaultPool = []string{
	Chrome,
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// Mode selects how Next picks the following User-Agent.
type Mode int

const (
	Sequential Mode = iota
	Random
)

// Pool hands out User-Agent strings. It is safe for concurrent use.
type Pool struct {
	uas     []string
	mode    Mode
	counter atomic.Uint64
}

// NewPool copies uas into a new pool, falling back to DefaultPool when uas
// is empty.
func NewPool(uas []string, mode Mode) *Pool {
	if len(uas) == 0 {
		uas = DefaultPool
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &Pool{uas: copied, mode: mode}
}

// Next returns a User-Agent according to the pool's mode.
func (p *Pool) Next() string {
	if p.mode == Random {
		return p.GetRandom()
	}
	return p.GetSequential()
}

// GetSequential returns User-Agents round-robin.
func (p *Pool) GetSequential() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// GetRandom picks a User-Agent with crypto/rand, degrading to sequential
// order if the random source fails.
func (p *Pool) GetRandom() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.GetSequential()
	}
	return p.uas[n.Int64()]
}

// Len returns the number of identities in the pool.
func (p *Pool) Len() int {
	return len(p.uas)
}
