// Package decay implements the temporal-decay and recency math that ranks
// memories by how fresh and how reinforced they are.
package decay

import (
	"math"
	"time"
)

// Decay tracks the inputs to a memory's importance decay: the base score
// before any decay, how many times it has been accessed, when it was last
// accessed, and the per-memory decay rate.
type Decay struct {
	BaseImportance float32   `json:"base_importance"`
	AccessCount    uint32    `json:"access_count"`
	LastAccessed   time.Time `json:"last_accessed"`
	DecayRate      float32   `json:"decay_rate"`
}

// New returns a Decay seeded with the given base importance, zero accesses,
// and the default decay rate of 1.0.
func New(baseImportance float32) Decay {
	return Decay{
		BaseImportance: clamp01(baseImportance),
		AccessCount:    0,
		LastAccessed:   time.Now().UTC(),
		DecayRate:      1.0,
	}
}

// RecordAccess increments the access count and refreshes LastAccessed.
func (d *Decay) RecordAccess() {
	d.AccessCount++
	d.LastAccessed = time.Now().UTC()
}

// UpdateBaseImportance clamps and stores a new base importance, used when a
// memory is manually edited rather than re-accessed.
func (d *Decay) UpdateBaseImportance(v float32) {
	d.BaseImportance = clamp01(v)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CurrentImportance computes the decayed, access-reinforced importance:
//
//	days         = (now - last_accessed) / 1 day
//	time_decay   = exp(-decay_rate * days / 30)
//	access_boost = ln(access_count + 1)
//	current      = max(min_threshold, base_importance * time_decay * access_boost)
func CurrentImportance(d Decay, minThreshold float32) float32 {
	days := float32(time.Since(d.LastAccessed).Hours() / 24)
	timeDecay := float32(math.Exp(float64(-d.DecayRate * days / 30)))
	accessBoost := float32(math.Log(float64(d.AccessCount) + 1))
	current := d.BaseImportance * timeDecay * accessBoost
	if current < minThreshold {
		return minThreshold
	}
	return current
}

// Recency computes the age-based recency score, independent of access
// history:
//
//	days    = max(0, (now - created_at) / 1 day)
//	recency = exp(-days / recency_decay_days)
//
// Future-dated memories (negative age, from clock skew) yield 1.0.
func Recency(createdAt time.Time, recencyDecayDays float64) float32 {
	if recencyDecayDays <= 0 {
		recencyDecayDays = 1
	}
	days := time.Since(createdAt).Hours() / 24
	if days < 0 {
		return 1.0
	}
	return float32(math.Exp(-days / recencyDecayDays))
}
