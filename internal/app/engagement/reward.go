package engagement

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/domain"
)

// Candidate probabilities.
const (
	progressProbability     = 0.7
	streakStepProbability   = 0.1
	streakMaxProbability    = 0.8
	milestoneProbability    = 0.9
	personalizedProbability = 0.3
	surpriseBaseProbability = 0.05

	// repeatWindow is how many recent claims the anti-repetition filter inspects.
	repeatWindow = 3
)

// milestoneRewardStreaks are the streak lengths that offer a milestone reward.
var milestoneRewardStreaks = []int{5, 10, 30, 100}

// Random is the randomness the reward engine draws from.
// *math/rand.Rand satisfies it.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// NewRandom returns a Random seeded from seed.
func NewRandom(seed int64) Random {
	return rand.New(rand.NewSource(seed))
}

// EvaluateRewards builds the candidate set for the given streak and interests,
// drops types the user has claimed for the last three claims in a row, then
// walks the candidates in order taking the first whose draw succeeds. When no
// draw succeeds a candidate is picked uniformly. recentClaims is newest first.
// Returns nil only when every candidate was filtered out.
func EvaluateRewards(streakLength int, interests []string, recentClaims []domain.ClaimedReward, rng Random) *domain.RewardCandidate {
	candidates := rewardCandidates(streakLength, interests, rng)

	if blocked, ok := repeatedType(recentClaims); ok {
		candidates = slices.DeleteFunc(candidates, func(c domain.RewardCandidate) bool {
			return c.Type == blocked
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, c := range candidates {
		if rng.Float64() < c.Probability {
			return &c
		}
	}
	pick := candidates[rng.Intn(len(candidates))]
	return &pick
}

// rewardCandidates returns the working set in evaluation order.
// The surprise inclusion draw is taken once per call.
func rewardCandidates(streak int, interests []string, rng Random) []domain.RewardCandidate {
	out := []domain.RewardCandidate{{
		ID:          "progress",
		Type:        domain.RewardProgress,
		Title:       "Progress Boost",
		Description: "Every check-in counts. Nice work showing up today.",
		Value:       "+10 XP",
		Probability: progressProbability,
	}}

	if streak >= 3 {
		out = append(out, domain.RewardCandidate{
			ID:          fmt.Sprintf("streak-%d", streak),
			Type:        domain.RewardStreak,
			Title:       fmt.Sprintf("%d-Day Streak Bonus", streak),
			Description: fmt.Sprintf("%d days in a row. Your consistency is paying off.", streak),
			Value:       fmt.Sprintf("+%d XP", 5*streak),
			Probability: min(streakStepProbability*float64(streak), streakMaxProbability),
		})
	}

	if slices.Contains(milestoneRewardStreaks, streak) {
		out = append(out, domain.RewardCandidate{
			ID:          fmt.Sprintf("milestone-%d", streak),
			Type:        domain.RewardMilestone,
			Title:       fmt.Sprintf("%d-Day Milestone", streak),
			Description: fmt.Sprintf("You reached a %d-day streak. That's a real habit.", streak),
			Value:       fmt.Sprintf("%d-day badge", streak),
			Probability: milestoneProbability,
		})
	}

	if hasInterest(interests, "strength") {
		out = append(out, domain.RewardCandidate{
			ID:          "personalized-strength",
			Type:        domain.RewardPersonalized,
			Title:       "Strength Pick",
			Description: "A new strength routine picked for you.",
			Value:       "Unlocked: kettlebell flow",
			Probability: personalizedProbability,
		})
	}

	if hasInterest(interests, "cardio") {
		out = append(out, domain.RewardCandidate{
			ID:          "personalized-cardio",
			Type:        domain.RewardPersonalized,
			Title:       "Cardio Pick",
			Description: "A new cardio session picked for you.",
			Value:       "Unlocked: interval run",
			Probability: personalizedProbability,
		})
	}

	if rng.Float64() < surpriseBaseProbability {
		out = append(out, domain.RewardCandidate{
			ID:          "surprise",
			Type:        domain.RewardSurprise,
			Title:       "Surprise!",
			Description: "A little something extra for showing up.",
			Value:       "Mystery bonus",
			Probability: 1.0,
		})
	}

	return out
}

// repeatedType reports the type shared by all of the last repeatWindow claims.
func repeatedType(recent []domain.ClaimedReward) (domain.RewardType, bool) {
	if len(recent) < repeatWindow {
		return "", false
	}
	t := recent[0].Type
	for _, c := range recent[1:repeatWindow] {
		if c.Type != t {
			return "", false
		}
	}
	return t, true
}

func hasInterest(interests []string, want string) bool {
	return slices.ContainsFunc(interests, func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), want)
	})
}

// ─── Reward service ─────────────────────────────────────────────────────────

// RewardService surfaces variable rewards and keeps the append-only claim log.
// Offers live in memory; the claim log is persisted. Not safe for concurrent use.
type RewardService struct {
	claims []domain.ClaimedReward // oldest first
	offers map[string]domain.RewardCandidate
	entity entity[[]domain.ClaimedReward]
	rng    Random
	log    *zap.Logger
}

// NewRewardService creates a reward service drawing from rng.
func NewRewardService(store domain.StateStore, rng Random, log *zap.Logger) *RewardService {
	return &RewardService{
		offers: make(map[string]domain.RewardCandidate),
		entity: entity[[]domain.ClaimedReward]{store: store, key: keyClaims},
		rng:    rng,
		log:    log,
	}
}

// Load reads the persisted claim log.
func (r *RewardService) Load() error {
	claims, err := r.entity.load(func() []domain.ClaimedReward { return nil })
	if err != nil {
		return err
	}
	r.claims = claims
	return nil
}

// Check evaluates rewards and remembers the result as an open offer.
func (r *RewardService) Check(streakLength int, interests []string) *domain.RewardCandidate {
	c := EvaluateRewards(streakLength, interests, r.History(repeatWindow), r.rng)
	if c != nil {
		r.offers[c.ID] = *c
		r.log.Debug("reward offered", zap.String("id", c.ID), zap.String("type", string(c.Type)))
	}
	return c
}

// Claim appends an open offer to the claim log. Claiming the same offer
// again appends another entry.
func (r *RewardService) Claim(rewardID string, now time.Time) (domain.ClaimedReward, error) {
	offer, ok := r.offers[rewardID]
	if !ok {
		return domain.ClaimedReward{}, fmt.Errorf("reward %q: %w", rewardID, domain.ErrRewardNotFound)
	}

	entry := domain.ClaimedReward{
		ID:        uuid.NewString(),
		RewardID:  offer.ID,
		Type:      offer.Type,
		Title:     offer.Title,
		ClaimedAt: now,
	}
	next := append(slices.Clone(r.claims), entry)
	if err := r.entity.save(next); err != nil {
		return domain.ClaimedReward{}, err
	}
	r.claims = next

	r.log.Info("reward claimed", zap.String("reward_id", entry.RewardID), zap.String("claim_id", entry.ID))
	return entry, nil
}

// History returns up to limit claims, newest first. limit <= 0 returns all.
func (r *RewardService) History(limit int) []domain.ClaimedReward {
	n := len(r.claims)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ClaimedReward, 0, n)
	for i := len(r.claims) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.claims[i])
	}
	return out
}
