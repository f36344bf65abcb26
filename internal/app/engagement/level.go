package engagement

import (
	"math"

	"github.com/habitloop/habitloop/internal/domain"
)

// maxLevel caps the level curve.
const maxLevel = 100

// XPForLevel returns the cumulative XP required to reach a given level.
// Uses an exponential curve: 100 * 1.2^(level-1) for level >= 2.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	return int64(100 * math.Pow(1.2, float64(level-1)))
}

// LevelForXP returns the level for a given XP amount.
func LevelForXP(xp int64) int {
	level := 1
	for level < maxLevel {
		if xp < XPForLevel(level+1) {
			return level
		}
		level++
	}
	return maxLevel
}

// LevelFor builds the level view for a total XP amount.
func LevelFor(xp int64) domain.UserLevel {
	ul := domain.UserLevel{Level: LevelForXP(xp), CurrentXP: xp}
	if ul.Level >= maxLevel {
		ul.ProgressPct = 100
		return ul
	}

	thisLevel := XPForLevel(ul.Level)
	nextLevel := XPForLevel(ul.Level + 1)
	ul.ToNextLevel = max(nextLevel-xp, 0)

	span := nextLevel - thisLevel
	if span <= 0 {
		ul.ProgressPct = 100
		return ul
	}
	ul.ProgressPct = math.Min(math.Max(float64(xp-thisLevel)/float64(span)*100.0, 0), 100)
	return ul
}
