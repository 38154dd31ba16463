package search

import (
	"sort"

	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
)

// fuseWeighted merges keyword and semantic hits by resource id.
// score(d) = keyword(d)*Wk + semantic(d)*Ws, where a missing side contributes 0.
// Scores are not normalised. Keyword highlights win when both sides have them.
func fuseWeighted(keyword, semantic []result.Hit, w request.Weights) []result.Hit {
	type fused struct {
		hit   result.Hit
		score float64
	}

	merged := make(map[string]*fused, len(keyword)+len(semantic))
	order := make([]string, 0, len(keyword)+len(semantic))

	for _, h := range keyword {
		if _, ok := merged[h.ID()]; ok {
			continue
		}
		merged[h.ID()] = &fused{hit: h, score: h.Score() * w.Keyword}
		order = append(order, h.ID())
	}

	for _, h := range semantic {
		contribution := h.Score() * w.Semantic
		if existing, ok := merged[h.ID()]; ok {
			existing.score += contribution
			if len(existing.hit.Highlights()) == 0 {
				existing.hit = result.New(existing.hit.Resource(), 0, h.Highlights())
			}
			continue
		}
		merged[h.ID()] = &fused{hit: h, score: contribution}
		order = append(order, h.ID())
	}

	out := make([]result.Hit, 0, len(order))
	for _, id := range order {
		f := merged[id]
		out = append(out, f.hit.WithScore(f.score))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}
