package vault

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator issues identifiers for withdrawal requests and transaction records.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceIDs issues prefix-1, prefix-2, ... and is safe for concurrent use.
type SequenceIDs struct {
	prefix string
	next   atomic.Uint64
}

func NewSequenceIDs(prefix string) *SequenceIDs {
	return &SequenceIDs{prefix: prefix}
}

func (s *SequenceIDs) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.next.Add(1))
}
