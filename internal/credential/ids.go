package credential

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

var (
	collectionIDPattern = regexp.MustCompile(`^COL-\d{8}-\d{6}$`)
	deliveryIDPattern   = regexp.MustCompile(`^DEL-\d{8}-\d{6}$`)
)

const maxSequence = 999999

// IDGenerator issues PREFIX-YYYYMMDD-NNNNNN identifiers with a sequence
// that restarts every UTC day. Sequences are process-local.
type IDGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	day  string
	next int
}

func NewCollectionIDGenerator(now func() time.Time) *IDGenerator {
	return newIDGenerator("COL", now)
}

func NewDeliveryIDGenerator(now func() time.Time) *IDGenerator {
	return newIDGenerator("DEL", now)
}

func newIDGenerator(prefix string, now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{prefix: prefix, now: now}
}

// Next returns the next identifier for today.
func (g *IDGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := g.now().UTC().Format("20060102")
	if day != g.day {
		g.day = day
		g.next = 0
	}
	if g.next >= maxSequence {
		return "", fmt.Errorf("%s sequence exhausted for %s", g.prefix, day)
	}
	g.next++
	return fmt.Sprintf("%s-%s-%06d", g.prefix, day, g.next), nil
}

func ValidCollectionID(id string) bool {
	return collectionIDPattern.MatchString(id)
}

func ValidDeliveryID(id string) bool {
	return deliveryIDPattern.MatchString(id)
}
