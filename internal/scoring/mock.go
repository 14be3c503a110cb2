package scoring

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// MockScorer produces random scores in {50,60,...,100}. It is only used when
// a caller asks for StrategyMock.
type MockScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockScorer(seed int64) *MockScorer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockScorer{rng: rand.New(rand.NewSource(seed))}
}

func (m *MockScorer) Name() Strategy { return StrategyMock }

func (m *MockScorer) Score(_ context.Context, _ string) (Analysis, error) {
	var s CategoryScores
	m.mu.Lock()
	for _, c := range Categories {
		s.Set(c, (m.rng.Intn(6)+5)*10)
	}
	m.mu.Unlock()
	return NewAnalysis(StrategyMock, s, SynthesizeFeedback(s)), nil
}
