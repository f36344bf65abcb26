package engagement

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/domain"
)

// ChallengeService tracks per-category challenge progression. Challenges
// unlock once the category's cumulative XP reaches their threshold; completing
// an active challenge adds its XP. Not safe for concurrent use.
type ChallengeService struct {
	catalog  []domain.Challenge
	progress domain.ChallengeProgress
	entity   entity[domain.ChallengeProgress]
	log      *zap.Logger
}

// NewChallengeService creates a challenge service over the given catalog.
// A nil catalog uses DefaultChallenges().
func NewChallengeService(store domain.StateStore, catalog []domain.Challenge, log *zap.Logger) (*ChallengeService, error) {
	if catalog == nil {
		catalog = DefaultChallenges()
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return &ChallengeService{
		catalog:  catalog,
		progress: domain.NewChallengeProgress(),
		entity:   entity[domain.ChallengeProgress]{store: store, key: keyChallenges},
		log:      log,
	}, nil
}

// Load reads persisted progress.
func (c *ChallengeService) Load() error {
	p, err := c.entity.load(domain.NewChallengeProgress)
	if err != nil {
		return err
	}
	c.progress = p.Clone()
	return nil
}

// Unlocked reports whether ch is unlocked at the given category XP.
func Unlocked(ch domain.Challenge, categoryXP int64) bool {
	return categoryXP >= ch.UnlockThresholdXP
}

// List returns the category's challenges in catalog order with their status.
// An empty category lists every challenge.
func (c *ChallengeService) List(category domain.ChallengeCategory) []domain.ChallengeView {
	var out []domain.ChallengeView
	for _, ch := range c.catalog {
		if category != "" && ch.Category != category {
			continue
		}
		out = append(out, domain.ChallengeView{Challenge: ch, Status: c.status(ch)})
	}
	return out
}

// Categories returns the categories present in the catalog, in catalog order.
func (c *ChallengeService) Categories() []domain.ChallengeCategory {
	var out []domain.ChallengeCategory
	for _, ch := range c.catalog {
		if !slices.Contains(out, ch.Category) {
			out = append(out, ch.Category)
		}
	}
	return out
}

// Start moves an available challenge into the active set. XP is unchanged.
func (c *ChallengeService) Start(id string, now time.Time) (domain.ChallengeView, error) {
	ch, ok := c.find(id)
	if !ok {
		return domain.ChallengeView{}, fmt.Errorf("challenge %q: %w", id, domain.ErrChallengeNotFound)
	}
	if st := c.status(ch); st != domain.ChallengeAvailable {
		return domain.ChallengeView{}, fmt.Errorf("start %q while %s: %w", id, st, domain.ErrInvalidChallengeState)
	}

	next := c.progress.Clone()
	next.Active[id] = now
	if err := c.entity.save(next); err != nil {
		return domain.ChallengeView{}, err
	}
	c.progress = next

	c.log.Info("challenge started", zap.String("id", id), zap.String("category", string(ch.Category)))
	return domain.ChallengeView{Challenge: ch, Status: domain.ChallengeActive}, nil
}

// Complete finishes an active challenge and credits its XP to the category.
// Completing a challenge that is not active fails with ErrInvalidChallengeState.
func (c *ChallengeService) Complete(id string, now time.Time) (domain.ChallengeView, error) {
	ch, ok := c.find(id)
	if !ok {
		return domain.ChallengeView{}, fmt.Errorf("challenge %q: %w", id, domain.ErrChallengeNotFound)
	}
	if st := c.status(ch); st != domain.ChallengeActive {
		return domain.ChallengeView{}, fmt.Errorf("complete %q while %s: %w", id, st, domain.ErrInvalidChallengeState)
	}

	next := c.progress.Clone()
	delete(next.Active, id)
	next.Completed[id] = now
	next.CategoryXP[ch.Category] += ch.XPReward
	if err := c.entity.save(next); err != nil {
		return domain.ChallengeView{}, err
	}
	c.progress = next

	c.log.Info("challenge completed",
		zap.String("id", id),
		zap.Int64("xp_reward", ch.XPReward),
		zap.Int64("category_xp", next.CategoryXP[ch.Category]))
	return domain.ChallengeView{Challenge: ch, Status: domain.ChallengeCompleted}, nil
}

// CategoryXP returns cumulative XP for a category.
func (c *ChallengeService) CategoryXP(category domain.ChallengeCategory) int64 {
	return c.progress.CategoryXP[category]
}

// Progress returns a copy of the progression state.
func (c *ChallengeService) Progress() domain.ChallengeProgress {
	return c.progress.Clone()
}

func (c *ChallengeService) status(ch domain.Challenge) domain.ChallengeStatus {
	_, completed := c.progress.Completed[ch.ID]
	_, active := c.progress.Active[ch.ID]
	switch {
	case completed:
		return domain.ChallengeCompleted
	case active:
		return domain.ChallengeActive
	case Unlocked(ch, c.progress.CategoryXP[ch.Category]):
		return domain.ChallengeAvailable
	default:
		return domain.ChallengeLocked
	}
}

func (c *ChallengeService) find(id string) (domain.Challenge, bool) {
	i := slices.IndexFunc(c.catalog, func(ch domain.Challenge) bool { return ch.ID == id })
	if i < 0 {
		return domain.Challenge{}, false
	}
	return c.catalog[i], true
}

// ValidateCatalog checks IDs are unique, XP rewards positive and thresholds
// strictly increasing within each category.
func ValidateCatalog(catalog []domain.Challenge) error {
	seen := make(map[string]bool, len(catalog))
	last := make(map[domain.ChallengeCategory]int64)
	for _, ch := range catalog {
		if seen[ch.ID] {
			return fmt.Errorf("challenge catalog: duplicate id %q", ch.ID)
		}
		seen[ch.ID] = true
		if ch.XPReward <= 0 {
			return fmt.Errorf("challenge catalog: %q xp reward must be positive", ch.ID)
		}
		if ch.UnlockThresholdXP < 0 {
			return fmt.Errorf("challenge catalog: %q threshold must be non-negative", ch.ID)
		}
		if prev, ok := last[ch.Category]; ok && ch.UnlockThresholdXP <= prev {
			return fmt.Errorf("challenge catalog: %q threshold %d not above %d", ch.ID, ch.UnlockThresholdXP, prev)
		}
		last[ch.Category] = ch.UnlockThresholdXP
	}
	return nil
}

// ─── Challenge Catalog ──────────────────────────────────────────────────────
// Five tiers per category at 0 / 50 / 150 / 300 / 500 XP.
// IDs are stable; clients may store them.

// DefaultChallenges returns the built-in catalog.
func DefaultChallenges() []domain.Challenge {
	return []domain.Challenge{
		// ── Strength ───────────────────────────────────────────────────
		{ID: "strength-1", Name: "Push-up Starter", Description: "3 sets of 10 push-ups", Category: domain.CategoryStrength, XPReward: 50, UnlockThresholdXP: 0},
		{ID: "strength-2", Name: "Plank Builder", Description: "Hold a plank for 60 seconds, 3 times", Category: domain.CategoryStrength, XPReward: 100, UnlockThresholdXP: 50},
		{ID: "strength-3", Name: "Squat Ladder", Description: "Squat ladder from 5 to 15 reps", Category: domain.CategoryStrength, XPReward: 150, UnlockThresholdXP: 150},
		{ID: "strength-4", Name: "Full-Body Circuit", Description: "4 rounds of a 6-move circuit", Category: domain.CategoryStrength, XPReward: 200, UnlockThresholdXP: 300},
		{ID: "strength-5", Name: "Strength Week", Description: "Five strength sessions in seven days", Category: domain.CategoryStrength, XPReward: 300, UnlockThresholdXP: 500},

		// ── Cardio ─────────────────────────────────────────────────────
		{ID: "cardio-1", Name: "Brisk Walk", Description: "Walk briskly for 20 minutes", Category: domain.CategoryCardio, XPReward: 50, UnlockThresholdXP: 0},
		{ID: "cardio-2", Name: "Jog Intervals", Description: "8 rounds of 1 minute jog, 1 minute walk", Category: domain.CategoryCardio, XPReward: 100, UnlockThresholdXP: 50},
		{ID: "cardio-3", Name: "5K Effort", Description: "Cover 5 km running or cycling", Category: domain.CategoryCardio, XPReward: 150, UnlockThresholdXP: 150},
		{ID: "cardio-4", Name: "Hill Repeats", Description: "6 hill or stair repeats", Category: domain.CategoryCardio, XPReward: 200, UnlockThresholdXP: 300},
		{ID: "cardio-5", Name: "Endurance Hour", Description: "60 minutes of continuous cardio", Category: domain.CategoryCardio, XPReward: 300, UnlockThresholdXP: 500},

		// ── Flexibility ────────────────────────────────────────────────
		{ID: "flexibility-1", Name: "Morning Stretch", Description: "10 minutes of full-body stretching", Category: domain.CategoryFlexibility, XPReward: 50, UnlockThresholdXP: 0},
		{ID: "flexibility-2", Name: "Hip Opener", Description: "15 minutes of hip mobility", Category: domain.CategoryFlexibility, XPReward: 100, UnlockThresholdXP: 50},
		{ID: "flexibility-3", Name: "Yoga Flow", Description: "A 30-minute yoga flow", Category: domain.CategoryFlexibility, XPReward: 150, UnlockThresholdXP: 150},
		{ID: "flexibility-4", Name: "Splits Progress", Description: "20 minutes of split training", Category: domain.CategoryFlexibility, XPReward: 200, UnlockThresholdXP: 300},
		{ID: "flexibility-5", Name: "Mobility Week", Description: "Stretch every day for a week", Category: domain.CategoryFlexibility, XPReward: 300, UnlockThresholdXP: 500},

		// ── Mindfulness ────────────────────────────────────────────────
		{ID: "mindfulness-1", Name: "Breathe", Description: "5 minutes of box breathing", Category: domain.CategoryMindfulness, XPReward: 50, UnlockThresholdXP: 0},
		{ID: "mindfulness-2", Name: "Body Scan", Description: "A 15-minute body scan", Category: domain.CategoryMindfulness, XPReward: 100, UnlockThresholdXP: 50},
		{ID: "mindfulness-3", Name: "Digital Sunset", Description: "No screens for the last hour before bed", Category: domain.CategoryMindfulness, XPReward: 150, UnlockThresholdXP: 150},
		{ID: "mindfulness-4", Name: "Gratitude Log", Description: "Write three gratitudes daily for 5 days", Category: domain.CategoryMindfulness, XPReward: 200, UnlockThresholdXP: 300},
		{ID: "mindfulness-5", Name: "Silent Hour", Description: "One hour of mindful silence", Category: domain.CategoryMindfulness, XPReward: 300, UnlockThresholdXP: 500},
	}
}
