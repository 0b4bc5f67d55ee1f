package catalog

import "time"

// BadgeType is the closed set of badges a product may carry.
type BadgeType string

const (
	BadgeNew        BadgeType = "new"
	BadgeSale       BadgeType = "sale"
	BadgeTrending   BadgeType = "trending"
	BadgeFeatured   BadgeType = "featured"
	BadgeBestSeller BadgeType = "bestSeller"
	BadgeLowStock   BadgeType = "lowStock"
)

// AllBadgeTypes lists the closed set in no particular order; use Priority
// for display ordering.
var AllBadgeTypes = []BadgeType{BadgeNew, BadgeSale, BadgeTrending, BadgeFeatured, BadgeBestSeller, BadgeLowStock}

// badgePriority mirrors the spec's display priority table:
// new=1 < lowStock=2 < sale=3 < trending=4 < bestSeller=5 < featured=6.
var badgePriority = map[BadgeType]int{
	BadgeNew:        1,
	BadgeLowStock:   2,
	BadgeSale:       3,
	BadgeTrending:   4,
	BadgeBestSeller: 5,
	BadgeFeatured:   6,
}

// Priority returns the display priority of b, 0 for an unrecognized type.
func (b BadgeType) Priority() int { return badgePriority[b] }

// Valid reports whether b is one of the closed six badge types.
func (b BadgeType) Valid() bool {
	_, ok := badgePriority[b]
	return ok
}

// MaxActiveBadges bounds badges[] growth per the spec's open question: the
// hard invariant is "at most one badge per type" (a closed 6-element set),
// so this cap can never actually bind, but we keep it as documented headroom
// should the badge type set ever grow.
const MaxActiveBadges = 32

// Badge is one badge assigned to a product, manually or by rule.
type Badge struct {
	Type       BadgeType      `json:"type" db:"type"`
	AssignedAt time.Time      `json:"assignedAt" db:"assigned_at"`
	AssignedBy *string        `json:"assignedBy,omitempty" db:"assigned_by"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty" db:"expires_at"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
}

// IsAutomated reports whether b was assigned by a rule rather than an admin.
func (b Badge) IsAutomated() bool { return b.AssignedBy == nil }

// IsExpired reports whether b has passed its expiry at instant now.
func (b Badge) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

// FindBadge returns the badge of the given type and whether it was found.
func FindBadge(badges []Badge, t BadgeType) (Badge, bool) {
	for _, b := range badges {
		if b.Type == t {
			return b, true
		}
	}
	return Badge{}, false
}

// RemoveBadgeType returns badges with any entry of type t removed.
func RemoveBadgeType(badges []Badge, t BadgeType) []Badge {
	out := badges[:0:0]
	for _, b := range badges {
		if b.Type != t {
			out = append(out, b)
		}
	}
	return out
}

// ActiveBadges filters out badges expired as of now.
func ActiveBadges(badges []Badge, now time.Time) []Badge {
	out := badges[:0:0]
	for _, b := range badges {
		if !b.IsExpired(now) {
			out = append(out, b)
		}
	}
	return out
}

// DisplayBadge selects the highest-priority active badge, the one shown in
// UI surfaces. Returns false if there are no active badges.
func DisplayBadge(badges []Badge, now time.Time) (Badge, bool) {
	active := ActiveBadges(badges, now)
	if len(active) == 0 {
		return Badge{}, false
	}
	best := active[0]
	for _, b := range active[1:] {
		if b.Type.Priority() > best.Type.Priority() {
			best = b
		}
	}
	return best, true
}
