package selection

import (
	"github.com/fabula-rasa/fabula/internal/config"
	"github.com/fabula-rasa/fabula/internal/models"
)

// MemberPenalties maps each member behind one of the three most recent
// selections to the penalty for that slot.
//
// A member who appears in more than one slot keeps the first, most recent,
// penalty. A member is penalized once per decision, not once per slot.
func MemberPenalties(history []Entry, cfg config.Config) map[string]float64 {
	weights := cfg.MemberPenalties.Slots()
	penalties := make(map[string]float64)
	for i, e := range Recent(history, RecentWindow) {
		if _, seen := penalties[e.Book.Member]; seen {
			continue
		}
		penalties[e.Book.Member] = weights[i]
	}
	return penalties
}

// TagAdjustments maps every tag on the three most recent selections to the
// adjustment for its slot. A tag that recurs keeps the largest value, the
// least severe one when adjustments are negative. Note the asymmetry with
// MemberPenalties, where the most recent slot wins.
//
// The result is empty when tag adjustments are not configured.
func TagAdjustments(history []Entry, cfg config.Config) map[string]float64 {
	adjustments := make(map[string]float64)
	if cfg.TagAdjustments == nil {
		return adjustments
	}

	weights := cfg.TagAdjustments.Slots()
	for i, e := range Recent(history, RecentWindow) {
		for _, tag := range models.NormalizeTags(e.Book.Tags) {
			if current, seen := adjustments[tag]; seen && current >= weights[i] {
				continue
			}
			adjustments[tag] = weights[i]
		}
	}
	return adjustments
}
