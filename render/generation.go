package render

import "sync/atomic"

// Generation is a monotonically increasing version of the view. Advancing it
// makes every outstanding Token stale. The zero value is ready to use.
type Generation struct {
	id atomic.Uint64
}

// Current returns the latest generation id.
func (g *Generation) Current() uint64 {
	return g.id.Load()
}

// Advance starts a new generation and returns its id.
func (g *Generation) Advance() uint64 {
	return g.id.Add(1)
}

// Token captures the current generation.
func (g *Generation) Token() Token {
	return Token{gen: g, id: g.id.Load()}
}

// Token is a cooperative cancellation handle: work tagged with a token is
// abandoned once the generation moves past it. The zero Token never goes
// stale.
type Token struct {
	gen *Generation
	id  uint64
}

// ID returns the generation the token was taken at.
func (t Token) ID() uint64 {
	return t.id
}

// Current reports whether no newer generation has started.
func (t Token) Current() bool {
	return t.gen == nil || t.gen.id.Load() == t.id
}
