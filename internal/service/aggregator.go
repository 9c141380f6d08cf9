package service

import (
	"sort"

	"github.com/screening-engine/internal/domain"
)

// IdentityFunc maps a recommendation to the key under which duplicates merge.
type IdentityFunc func(domain.Recommendation) string

// StrictIdentity groups by (normalized title, category, citation).
func StrictIdentity(r domain.Recommendation) string {
	return r.StrictKey()
}

// TitleIdentity groups by normalized title only.
func TitleIdentity(r domain.Recommendation) string {
	return r.TitleKey()
}

type survivor struct {
	rec   domain.Recommendation
	order int
}

// Aggregate deduplicates candidates under key. In each group the candidate
// with the lowest priority rank survives, the first one on a tie. A status
// carried by a discarded candidate is copied onto a survivor that has none.
// Output is stable-sorted by rank, then by the survivor's emission order.
func Aggregate(candidates []domain.Recommendation, key IdentityFunc) []domain.Recommendation {
	if key == nil {
		key = StrictIdentity
	}

	groups := make(map[string]*survivor, len(candidates))
	ordered := make([]*survivor, 0, len(candidates))

	for i, cand := range candidates {
		k := key(cand)
		current, exists := groups[k]
		if !exists {
			s := &survivor{rec: cand, order: i}
			groups[k] = s
			ordered = append(ordered, s)
			continue
		}

		if cand.Priority.Rank() < current.rec.Priority.Rank() {
			discardedStatus := current.rec.Status
			current.rec = cand
			current.order = i
			if current.rec.Status == "" {
				current.rec.Status = discardedStatus
			}
			continue
		}

		if current.rec.Status == "" && cand.Status != "" {
			current.rec.Status = cand.Status
		}
	}

	sort.SliceStable(ordered, func(a, b int) bool {
		ra, rb := ordered[a].rec.Priority.Rank(), ordered[b].rec.Priority.Rank()
		if ra != rb {
			return ra < rb
		}
		return ordered[a].order < ordered[b].order
	})

	out := make([]domain.Recommendation, 0, len(ordered))
	for _, s := range ordered {
		out = append(out, s.rec)
	}
	return out
}

// ApplyStatuses stamps workflow statuses, keyed by strict identity, onto a
// copy of the candidates.
func ApplyStatuses(candidates []domain.Recommendation, statuses map[string]string) []domain.Recommendation {
	out := make([]domain.Recommendation, len(candidates))
	copy(out, candidates)
	if len(statuses) == 0 {
		return out
	}
	for i := range out {
		if status, ok := statuses[out[i].StrictKey()]; ok && out[i].Status == "" {
			out[i].Status = status
		}
	}
	return out
}
