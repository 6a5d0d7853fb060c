package driver

import (
	"sync"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/likelihood"
	"github.com/dancooke/octopus/readmap"
)

// likelihoodCache implements both filter.LikelihoodCache and
// model.ReadLikelihoods: one LogLikelihoods(sample, haplotype) []float64
// method, lazily building a likelihood.Model per distinct haplotype and
// memoizing the resulting per-read scores. spec.md §5 calls this out by
// name as shared, read-mostly state guarded by its own mutex, owned
// exclusively by the window task that created it.
type likelihoodCache struct {
	reads      *readmap.ReadMap
	flankState align.FlankState
	indelModel likelihood.IndelErrorModel

	mu     sync.Mutex
	models map[*align.Haplotype]*likelihood.Model
	scores map[cacheEntry][]float64
}

type cacheEntry struct {
	sample    string
	haplotype *align.Haplotype
}

func newLikelihoodCache(reads *readmap.ReadMap, flankState align.FlankState, indelModel likelihood.IndelErrorModel) *likelihoodCache {
	return &likelihoodCache{
		reads:      reads,
		flankState: flankState,
		indelModel: indelModel,
		models:     make(map[*align.Haplotype]*likelihood.Model),
		scores:     make(map[cacheEntry][]float64),
	}
}

// LogLikelihoods returns, for one sample and one haplotype, the
// log-probability of every read of that sample whose region the haplotype's
// region fully contains (reads that only partly overlap it, and reads whose
// scoring fails, are left out), in the same order for every haplotype queried against that
// sample (the order readmap.ReadMap.OverlapRange returns, which is stable
// across calls for the same (sample, region)).
func (c *likelihoodCache) LogLikelihoods(sample string, h *align.Haplotype) []float64 {
	entry := cacheEntry{sample: sample, haplotype: h}

	c.mu.Lock()
	if cached, ok := c.scores[entry]; ok {
		c.mu.Unlock()
		return cached
	}
	model, ok := c.models[h]
	if !ok {
		model = likelihood.New(h, c.flankState, c.indelModel)
		c.models[h] = model
	}
	c.mu.Unlock()

	reads := c.reads.OverlapRange(sample, h.RegionVal)
	scores := make([]float64, 0, len(reads))
	for _, read := range reads {
		if !h.Contains(read.RegionVal) {
			continue
		}
		logP, err := model.LogProbability(read, nil)
		if err != nil {
			continue
		}
		scores = append(scores, logP)
	}

	c.mu.Lock()
	c.scores[entry] = scores
	c.mu.Unlock()
	return scores
}
