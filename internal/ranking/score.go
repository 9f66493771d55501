package ranking

import (
	"math"
	"time"
)

// Default scoring constants. Likes weigh 5 views, comments 10 views, and the
// weighted sum is divided by (age + 2)^1.8.
const (
	DefaultGravity        = 1.8
	DefaultAgeOffsetHours = 2.0
	DefaultViewWeight     = 1.0
	DefaultLikeWeight     = 5.0
	DefaultCommentWeight  = 10.0
)

// Counters holds the engagement counters of one content item
type Counters struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

func (c Counters) validate() error {
	if c.Views < 0 {
		return invalid("views", "must not be negative")
	}
	if c.Likes < 0 {
		return invalid("likes", "must not be negative")
	}
	if c.Comments < 0 {
		return invalid("comments", "must not be negative")
	}
	return nil
}

// Calculator computes a gravity-decayed trending score. It is a value type
// with no state; the zero value is not usable, start from DefaultCalculator.
type Calculator struct {
	Gravity        float64
	AgeOffsetHours float64
	ViewWeight     float64
	LikeWeight     float64
	CommentWeight  float64
}

// DefaultCalculator returns the calculator with the platform's default weights
func DefaultCalculator() Calculator {
	return Calculator{
		Gravity:        DefaultGravity,
		AgeOffsetHours: DefaultAgeOffsetHours,
		ViewWeight:     DefaultViewWeight,
		LikeWeight:     DefaultLikeWeight,
		CommentWeight:  DefaultCommentWeight,
	}
}

// Validate checks the calculator parameters. Gravity must stay above 1 or
// old content is never overtaken and the index turns into an all-time board.
func (c Calculator) Validate() error {
	if !(c.Gravity > 1) || math.IsInf(c.Gravity, 0) {
		return invalid("gravity", "must be a finite value greater than 1")
	}
	if !(c.AgeOffsetHours > 0) || math.IsInf(c.AgeOffsetHours, 0) {
		return invalid("age_offset_hours", "must be a finite value greater than 0")
	}
	for field, w := range map[string]float64{
		"view_weight":    c.ViewWeight,
		"like_weight":    c.LikeWeight,
		"comment_weight": c.CommentWeight,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return invalid(field, "must be a finite, non-negative value")
		}
	}
	return nil
}

// WeightedSum returns the undecayed engagement value of the counters
func (c Calculator) WeightedSum(counters Counters) float64 {
	return float64(counters.Views)*c.ViewWeight +
		float64(counters.Likes)*c.LikeWeight +
		float64(counters.Comments)*c.CommentWeight
}

// Score returns WeightedSum / (ageHours + offset)^gravity.
func (c Calculator) Score(counters Counters, ageHours float64) (float64, error) {
	if err := counters.validate(); err != nil {
		return 0, err
	}
	if ageHours < 0 || math.IsNaN(ageHours) || math.IsInf(ageHours, 0) {
		return 0, invalid("age_hours", "must be a finite, non-negative value")
	}
	return c.WeightedSum(counters) / math.Pow(ageHours+c.AgeOffsetHours, c.Gravity), nil
}

// AgeHours returns the age of createdAt at now in hours, clamped at zero so
// clock skew between the store and this process never yields a negative age.
func AgeHours(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt).Hours()
	if age < 0 {
		return 0
	}
	return age
}
