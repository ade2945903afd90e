package contract

import "github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"

// Stones is the stone registry and the sole issuer of stone identifiers.
type Stones struct {
	lastID ir.StoneID
	stones map[ir.StoneID]ir.Stone
}

// NewStones creates an empty registry.
func NewStones() *Stones {
	return &Stones{stones: make(map[ir.StoneID]ir.Stone)}
}

// Register stores a new stone owned by the caller and returns its identifier.
// Any caller may register; identifiers are never reused.
func (s *Stones) Register(cc ir.CallContext, attrs ir.StoneAttributes) ir.StoneID {
	id := s.lastID + 1
	s.lastID = id
	s.stones[id] = ir.Stone{
		ID:              id,
		StoneAttributes: attrs,
		Owner:           cc.Caller,
		RegisteredAt:    cc.Height,
	}
	return id
}

// Get returns the stone registered under id.
func (s *Stones) Get(id ir.StoneID) (ir.Stone, bool) {
	stone, ok := s.stones[id]
	return stone, ok
}

// LastID returns the most recently allocated identifier, 0 when empty.
func (s *Stones) LastID() ir.StoneID {
	return s.lastID
}
