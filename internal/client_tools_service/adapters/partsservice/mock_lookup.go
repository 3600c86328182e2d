package partsservice

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
)

const (
	mockDescription  = "This part is fake, and you know it."
	mockCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	mockCodeLength   = 8
	mockMaxStock     = 10 // exclusive
)

var minPrice = decimal.RequireFromString("0.01")

// MockLookup stands in for the remote parts service during development.
// Each lookup returns the queried part with random stock and price,
// followed by up to maxParts generated parts sorted by price.
type MockLookup struct {
	logger      *slog.Logger
	maxParts    int
	randomCount bool

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewMockLookup creates a MockLookup returning between 0 and maxParts extra
// parts. A nil rng is replaced by a time-seeded source.
func NewMockLookup(logger *slog.Logger, maxParts int, rng *rand.Rand) *MockLookup {
	if maxParts < 0 {
		maxParts = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MockLookup{
		logger:      logger.With("lookup", "mock"),
		maxParts:    maxParts,
		randomCount: true,
		rng:         rng,
	}
}

// WithFixedCount makes every lookup return exactly maxParts extra parts.
func (m *MockLookup) WithFixedCount() *MockLookup {
	m.randomCount = false
	return m
}

func (m *MockLookup) Name() string {
	return "mock"
}

func (m *MockLookup) Lookup(ctx context.Context, part domain.PartItem) ([]domain.PartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	base := part
	base.Availability = m.rng.Intn(mockMaxStock)
	base.Price = m.randomPrice()

	n := m.maxParts
	if m.randomCount {
		n = m.rng.Intn(m.maxParts + 1)
	}

	generated := make([]domain.PartItem, 0, n)
	for i := 0; i < n; i++ {
		id := strconv.Itoa(1000 + m.rng.Intn(9000))
		code := m.randomCode()
		generated = append(generated, domain.PartItem{
			PartNumber:   id + "-" + code,
			Description:  mockDescription,
			PartCode:     code,
			PartID:       id,
			Availability: m.rng.Intn(mockMaxStock),
			Price:        m.randomPrice(),
		})
	}
	sort.SliceStable(generated, func(i, j int) bool {
		return generated[i].Price.LessThan(generated[j].Price.Decimal)
	})

	m.logger.DebugContext(ctx, "MockLookup: generated compatible parts", "part_number", part.PartNumber, "count", len(generated))
	return append([]domain.PartItem{base}, generated...), nil
}

// randomPrice is a value in [0.01, 99) rounded to cents. Caller holds mu.
func (m *MockLookup) randomPrice() domain.Price {
	d := decimal.NewFromFloat(m.rng.Float64() * float64(1+m.rng.Intn(99)))
	if d.LessThan(minPrice) {
		d = minPrice
	}
	return domain.NewPrice(d)
}

// randomCode returns a lowercase alphanumeric code. Caller holds mu.
func (m *MockLookup) randomCode() string {
	b := make([]byte, mockCodeLength)
	for i := range b {
		b[i] = mockCodeAlphabet[m.rng.Intn(len(mockCodeAlphabet))]
	}
	return string(b)
}
