// Package memory keeps every repository in process memory behind one mutex.
// It backs the "memory" database driver and the usecase tests.
package memory

import (
	"sort"
	"sync"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

type Store struct {
	mu sync.Mutex

	ibRequests    map[string]*domain.IBRequest
	groupRates    map[string]map[string]domain.GroupPipRate
	plans         map[string]*domain.CommissionPlan
	clients       map[string]*domain.ClientReferral
	groups        map[string]domain.TradingGroup
	entries       []*domain.CommissionLedgerEntry
	entryKeys     map[string]struct{}
	trades        map[string]struct{}
	accounts      map[string]*domain.IBCommissionAccount
	distributions []*domain.Distribution
	withdrawals   map[string]*domain.WithdrawalRequest
	jobs          map[string]*domain.ReconcileJob
}

func NewStore() *Store {
	return &Store{
		ibRequests:  make(map[string]*domain.IBRequest),
		groupRates:  make(map[string]map[string]domain.GroupPipRate),
		plans:       make(map[string]*domain.CommissionPlan),
		clients:     make(map[string]*domain.ClientReferral),
		groups:      make(map[string]domain.TradingGroup),
		entryKeys:   make(map[string]struct{}),
		trades:      make(map[string]struct{}),
		accounts:    make(map[string]*domain.IBCommissionAccount),
		withdrawals: make(map[string]*domain.WithdrawalRequest),
		jobs:        make(map[string]*domain.ReconcileJob),
	}
}

var (
	_ domain.IBRequestRepository      = (*Store)(nil)
	_ domain.CommissionPlanRepository = (*Store)(nil)
	_ domain.ClientReferralRepository = (*Store)(nil)
	_ domain.GroupCatalog             = (*Store)(nil)
	_ domain.CommissionLedger         = (*Store)(nil)
	_ domain.WithdrawalRepository     = (*Store)(nil)
	_ domain.ReconcileJobRepository   = (*Store)(nil)
)

// page returns the bounds of one page over n items.
func page(n, page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return 0, n
	}
	start := (page - 1) * limit
	if start > n {
		start = n
	}
	end := start + limit
	if end > n {
		end = n
	}
	return start, end
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
