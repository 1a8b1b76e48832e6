package domain

// ReferralTree is a node of an IB's downline as rendered for display.
type ReferralTree struct {
	IB               *IBRequest
	Level            int
	Children         []*ReferralTree
	TotalDescendants int
	Truncated        bool
}
