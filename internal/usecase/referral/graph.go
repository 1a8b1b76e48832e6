package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/metrics"
)

const (
	DefaultMaxAncestors = 10
	DefaultMaxTreeDepth = 50
)

type GraphUsecase interface {
	SetReferrer(ctx context.Context, ibID, referrerID string) (*domain.IBRequest, error)
	AncestorsOf(ctx context.Context, ibID string) ([]*domain.IBRequest, error)
	SubtreeOf(ctx context.Context, ibID string) (*domain.ReferralTree, error)
	CheckAssignment(ibID, referrerID string) domain.ReferralCheck
}

// DefaultGraphUsecase answers ancestor and subtree queries over the referral
// forest formed by approved sub-IBs and their referrers.
type DefaultGraphUsecase struct {
	ibRepo       domain.IBRequestRepository
	maxAncestors int
	maxTreeDepth int
	metrics      *metrics.IBMetrics
	now          func() time.Time
}

func NewDefaultGraphUsecase(
	ibRepo domain.IBRequestRepository,
	maxAncestors, maxTreeDepth int,
	ibMetrics *metrics.IBMetrics,
) *DefaultGraphUsecase {
	if maxAncestors <= 0 {
		maxAncestors = DefaultMaxAncestors
	}
	if maxTreeDepth <= 0 {
		maxTreeDepth = DefaultMaxTreeDepth
	}
	return &DefaultGraphUsecase{
		ibRepo:       ibRepo,
		maxAncestors: maxAncestors,
		maxTreeDepth: maxTreeDepth,
		metrics:      ibMetrics,
		now:          time.Now,
	}
}

// SetReferrer makes referrerID the referrer of an approved IB, turning it into
// a sub-IB.
func (g *DefaultGraphUsecase) SetReferrer(ctx context.Context, ibID, referrerID string) (*domain.IBRequest, error) {
	if ibID == "" || referrerID == "" {
		return nil, fmt.Errorf("%w: ib id and referrer id are required", domain.ErrValidation)
	}

	ib, err := g.ibRepo.ChangeIBType(ctx, ibID, domain.IBTypeSubIB, referrerID, g.now(), g.CheckAssignment(ibID, referrerID))
	if err != nil {
		return nil, err
	}

	slog.Info("referrer assigned", "ib_id", ibID, "referrer_id", referrerID)
	return ib, nil
}

// CheckAssignment returns the check guarding the edge referrerID -> ibID. The
// edge is refused when referrerID is ibID, when ibID is already an ancestor of
// referrerID, or when referrerID is not an approved IB.
func (g *DefaultGraphUsecase) CheckAssignment(ibID, referrerID string) domain.ReferralCheck {
	return func(ctx context.Context, lookup domain.NodeLookup) error {
		err := checkAssignment(ctx, lookup, ibID, referrerID, g.maxTreeDepth)
		if err != nil {
			g.metrics.RecordReferralRejection(rejectionReason(err))
		}
		return err
	}
}

func checkAssignment(ctx context.Context, lookup domain.NodeLookup, ibID, referrerID string, maxDepth int) error {
	if referrerID == ibID {
		return fmt.Errorf("%w: ib %s cannot refer itself", domain.ErrCycle, ibID)
	}

	if _, err := lookup(ctx, ibID); err != nil {
		return fmt.Errorf("ib %s: %w", ibID, err)
	}

	referrer, err := lookup(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("referrer %s: %w", referrerID, err)
	}
	if !referrer.IsApprovedIB() {
		return fmt.Errorf("%w: referrer %s is not an approved ib", domain.ErrNotFound, referrerID)
	}

	seen := map[string]bool{referrerID: true}
	current := referrer.ReferrerID
	for depth := 1; current != ""; depth++ {
		if current == ibID {
			return fmt.Errorf("%w: ib %s is an ancestor of %s", domain.ErrCycle, ibID, referrerID)
		}
		if seen[current] || depth > maxDepth {
			// The stored chain is already broken; refuse to extend it.
			return fmt.Errorf("%w: referral chain above %s is corrupted", domain.ErrCycle, referrerID)
		}
		seen[current] = true

		node, err := lookup(ctx, current)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = node.ReferrerID
	}

	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCycle):
		return "cycle"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// AncestorsOf returns the referrer chain of ibID, nearest first. The walk
// stops at the root, at a missing node or after maxAncestors hops.
func (g *DefaultGraphUsecase) AncestorsOf(ctx context.Context, ibID string) ([]*domain.IBRequest, error) {
	ib, err := g.ibRepo.GetIBRequestByID(ctx, ibID)
	if err != nil {
		return nil, err
	}

	var chain []*domain.IBRequest
	seen := map[string]bool{ib.ID: true}
	current := ib.ReferrerID
	for current != "" && len(chain) < g.maxAncestors {
		if seen[current] {
			slog.Error("referral cycle detected while walking ancestors", "ib_id", ibID, "at", current)
			break
		}
		seen[current] = true

		parent, err := g.ibRepo.GetIBRequestByID(ctx, current)
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("referrer missing from referral chain", "ib_id", ibID, "missing", current)
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		current = parent.ReferrerID
	}

	return chain, nil
}

// SubtreeOf builds the downline of ibID level by level. Nodes already visited
// are skipped and the walk stops at maxTreeDepth, so corrupted data cannot
// make it loop.
func (g *DefaultGraphUsecase) SubtreeOf(ctx context.Context, ibID string) (*domain.ReferralTree, error) {
	root, err := g.ibRepo.GetIBRequestByID(ctx, ibID)
	if err != nil {
		return nil, err
	}

	rootNode := &domain.ReferralTree{IB: root, Level: 0}
	nodes := map[string]*domain.ReferralTree{root.ID: rootNode}
	frontier := []string{root.ID}

	for depth := 1; len(frontier) > 0; depth++ {
		if depth > g.maxTreeDepth {
			for _, id := range frontier {
				nodes[id].Truncated = true
			}
			slog.Warn("referral tree truncated", "ib_id", ibID, "max_depth", g.maxTreeDepth)
			break
		}

		children, err := g.ibRepo.GetReferrals(ctx, frontier)
		if err != nil {
			return nil, err
		}

		next := make([]string, 0, len(children))
		for _, child := range children {
			if child == nil {
				continue
			}
			parent, ok := nodes[child.ReferrerID]
			if !ok {
				slog.Warn("skipping orphaned referral", "ib_id", child.ID, "referrer_id", child.ReferrerID)
				continue
			}
			if _, visited := nodes[child.ID]; visited {
				slog.Error("skipping referral already in tree", "ib_id", child.ID, "root", ibID)
				continue
			}
			node := &domain.ReferralTree{IB: child, Level: depth}
			parent.Children = append(parent.Children, node)
			nodes[child.ID] = node
			next = append(next, child.ID)
		}
		frontier = next
	}

	countDescendants(rootNode)
	return rootNode, nil
}

func countDescendants(node *domain.ReferralTree) int {
	total := 0
	for _, child := range node.Children {
		total += 1 + countDescendants(child)
	}
	node.TotalDescendants = total
	return total
}
