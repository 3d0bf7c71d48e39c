package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out "<prefix>-<n>" identifiers so assertions can name the
// rows a service created.
type IDGenerator struct {
	prefix string
	issued atomic.Uint64
}

// NewIDGenerator defaults an empty prefix to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.issued.Add(1))
}

// NextFunc returns Next as an injectable function. A nil generator yields
// empty identifiers.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many identifiers have been handed out.
func (g *IDGenerator) Issued() uint64 {
	return g.issued.Load()
}
