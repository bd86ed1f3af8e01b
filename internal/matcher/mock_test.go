package matcher

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/store"
)

// --- Extracted store mock ---

type mockExtracted struct {
	mock.Mock
}

func (m *mockExtracted) GetExtracted(ctx context.Context, id int64) (*model.ExtractedRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractedRecord), args.Error(1)
}

func (m *mockExtracted) ListSubmissions(ctx context.Context, f store.SubmissionFilter) ([]int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// --- Canonical store mock ---

type mockCanonical struct {
	mock.Mock
}

func (m *mockCanonical) FindIdentity(ctx context.Context, number string) (*model.CanonicalIdentityRecord, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CanonicalIdentityRecord), args.Error(1)
}

func (m *mockCanonical) FindTax(ctx context.Context, number string) (*model.CanonicalTaxRecord, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CanonicalTaxRecord), args.Error(1)
}

func (m *mockCanonical) FindLand(ctx context.Context, surveyNo string) (*model.CanonicalLandRecord, error) {
	args := m.Called(ctx, surveyNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CanonicalLandRecord), args.Error(1)
}

func (m *mockCanonical) FindLandByIdentity(ctx context.Context, id model.LandIdentity) (*model.CanonicalLandRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CanonicalLandRecord), args.Error(1)
}

// --- In-memory result store ---

type memResults struct {
	mu       sync.Mutex
	rows     map[int64]model.ReconciliationResult
	writes   int
	failWith error
}

func newMemResults() *memResults {
	return &memResults{rows: make(map[int64]model.ReconciliationResult)}
}

func (m *memResults) GetResult(_ context.Context, id int64) (*model.ReconciliationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memResults) UpsertResult(_ context.Context, id int64, mutate store.MutateFunc) (*model.ReconciliationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	var r *model.ReconciliationResult
	if existing, ok := m.rows[id]; ok {
		r = &existing
		r.Outcomes = append(model.Outcomes(nil), existing.Outcomes...)
	} else {
		r = model.NewReconciliationResult(id)
		r.ID = uuid.New().String()
		r.CreatedAt = time.Now().UTC()
	}
	if err := mutate(r); err != nil {
		return nil, err
	}
	m.rows[id] = *r
	m.writes++
	return r, nil
}

func (m *memResults) ResultStats(context.Context, time.Time) (*store.ResultStats, error) {
	return &store.ResultStats{}, nil
}
