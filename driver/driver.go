// Package driver implements spec.md §5's concurrency and resource model:
// a fixed worker pool over (contig, region) work items, shared read-mostly
// state guarded by per-resource mutexes, strictly ordered per-contig
// emission, and between-window cancellation.
//
// The walker itself is a sequential state machine (spec.md §5), so window
// boundaries for a contig are discovered in one single-threaded pass; the
// CPU-heavy work of turning a window into haplotypes, likelihoods, and a
// genotype call is then fanned out across the worker pool, following
// pileup/snp/pileup.go's traverse.Each(parallelism, func(jobIdx int) error)
// shape and encoding/bamprovider's shared-state-behind-a-mutex idiom.
package driver

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/candidate"
	"github.com/dancooke/octopus/caller"
	"github.com/dancooke/octopus/filter"
	"github.com/dancooke/octopus/hapgen"
	"github.com/dancooke/octopus/haplotype"
	"github.com/dancooke/octopus/likelihood"
	"github.com/dancooke/octopus/model"
	"github.com/dancooke/octopus/octerrors"
	"github.com/dancooke/octopus/phase"
	"github.com/dancooke/octopus/readmap"
	"github.com/dancooke/octopus/region"
)

// ReferenceGenome is the subset of reference.Genome the driver needs: it is
// expressed as an interface here so the driver does not import the
// reference package's concrete FASTA-loading concerns, only its contract.
type ReferenceGenome interface {
	SeqNames() []string
	Len(contig string) (uint64, error)
	Get(contig string, begin, end uint32) (string, error)
}

// ReadSource is the subset of readio.Source the driver needs.
type ReadSource interface {
	Samples() []string
	Fetch(sample string, r region.GenomicRegion) ([]*align.AlignedRead, error)
}

// Config bundles the tunables spec.md §6 names for candidate generation,
// windowing, and haplotype filtering.
type Config struct {
	Walker            hapgen.Config
	MaxHaplotypes     int
	AllowFlankScoring bool
	MinPhaseScore     float64
	Parallelism       int
	IndelModel        likelihood.IndelErrorModel
	// AllowModelFiltering lets the caller's own genotype posteriors, not
	// just the raw per-read likelihood top-N cut, discard haplotypes
	// before a final re-inference, spec.md §6.
	AllowModelFiltering bool
	// MinHaplotypePosterior is the marginal posterior (caller.Latents.
	// HaplotypeSupport) a haplotype must clear to survive model-based
	// filtering, spec.md §6. Only read when AllowModelFiltering is set.
	MinHaplotypePosterior float64
}

// WindowCall is one emitted window's result: its region, the genotype
// latents the configured caller produced, and the phase score against the
// previous emitted window on the same contig (0 for a contig's first emitted
// window; -Inf when either window has no candidate genotypes; +Inf when
// fewer than two genotype pairings are read-linked, including when no read
// links the two windows).
type WindowCall struct {
	Region         region.GenomicRegion
	Latents        caller.Latents
	Haplotypes     []*align.Haplotype
	VariantCalls   []caller.VariantCall
	ReferenceCalls []caller.ReferenceCall
	PhaseScore     float64
}

// Driver owns the shared, read-mostly handles a calling run borrows from:
// the reference genome, the read source, and the configured caller. Each
// is safe for concurrent use by multiple window tasks (reference.Genome and
// readio.Source already guard their own mutable state internally); the
// driver adds no additional locking beyond what ordered emission requires.
type Driver struct {
	genome ReferenceGenome
	reads  ReadSource
	caller *caller.Caller
	cfg    Config
}

// New constructs a Driver over the given shared handles.
func New(genome ReferenceGenome, reads ReadSource, c *caller.Caller, cfg Config) *Driver {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &Driver{genome: genome, reads: reads, caller: c, cfg: cfg}
}

// Emit is called once per window, in strictly increasing region order
// within a contig, and contigs in the reference's SeqNames order
// regardless of how their windows were scheduled across the pool.
type Emit func(WindowCall) error

// Run processes every contig in the reference's declared order, emitting
// one WindowCall per window. ctx is checked for cancellation between
// windows, per spec.md §5 ("work items are cancellable between windows").
func (d *Driver) Run(ctx context.Context, emit Emit) error {
	for _, contig := range d.genome.SeqNames() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runContig(ctx, contig, emit); err != nil {
			return err
		}
	}
	return nil
}

// runContig discovers window boundaries single-threadedly (the walker's
// sequential-state-machine requirement), then fans the per-window
// haplotype/likelihood/genotype work out across the configured
// parallelism, and finally emits results in region order.
func (d *Driver) runContig(ctx context.Context, contig string, emit Emit) error {
	contigLen, err := d.genome.Len(contig)
	if err != nil {
		return err
	}
	full := region.New(contig, 0, uint32(contigLen))

	reads, err := d.fetchAllSamples(full)
	if err != nil {
		return octerrors.Wrap(err, octerrors.IoError, "driver: fetching contig reads")
	}
	rm := readmap.New(reads)

	var allReads []*align.AlignedRead
	for _, rs := range reads {
		allReads = append(allReads, rs...)
	}
	refSeq := d.genome.Get
	variants, err := candidateVariants(allReads, full, refSeq)
	if err != nil {
		return err
	}
	alleles := altAllelesOf(variants)

	windows := walkWindows(d.cfg.Walker, rm, alleles, contig)
	if len(windows) == 0 {
		return nil
	}

	results := make([]*WindowCall, len(windows))
	errs := make([]error, len(windows))

	jobs := d.cfg.Parallelism
	if jobs > len(windows) {
		jobs = len(windows)
	}
	// traverse.Each spawns exactly `jobs` goroutines; each one is
	// responsible for its own contiguous shard of windows, following
	// pileup.go's own startIdx/endIdx-per-jobIdx sharding shape.
	err = traverse.Each(jobs, func(jobIdx int) error {
		startIdx := (jobIdx * len(windows)) / jobs
		endIdx := ((jobIdx + 1) * len(windows)) / jobs
		for i := startIdx; i < endIdx; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue // cancellation is not itself a window failure
			}
			call, err := d.processWindow(windows[i], rm, variants, refSeq)
			if err != nil {
				if octerrors.Is(err, octerrors.ModelFailure) || octerrors.Is(err, octerrors.IoError) {
					vlog.Infof("driver: window %s skipped: %v", windows[i], err)
					continue
				}
				errs[i] = err
				continue
			}
			results[i] = call
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "driver: worker pool")
	}

	var prev *WindowCall
	var phasedRegions []region.GenomicRegion
	var boundaryScores []float64
	for i, call := range results {
		if errs[i] != nil {
			return errs[i]
		}
		if call == nil {
			continue // empty region or model failure: no-call, nothing to emit
		}
		if prev != nil {
			call.PhaseScore = d.phaseScoreAgainst(prev, call, rm)
			boundaryScores = append(boundaryScores, call.PhaseScore)
		}
		phasedRegions = append(phasedRegions, call.Region)
		if err := emit(*call); err != nil {
			return err
		}
		prev = call
	}

	if len(phasedRegions) > 0 {
		sets := phase.BuildPhaseSets(phasedRegions, boundaryScores, d.cfg.MinPhaseScore)
		vlog.Infof("driver: contig %s produced %d phase set(s) from %d windows", contig, len(sets), len(phasedRegions))
	}
	return nil
}

func (d *Driver) fetchAllSamples(full region.GenomicRegion) (map[string][]*align.AlignedRead, error) {
	samples := d.reads.Samples()
	out := make(map[string][]*align.AlignedRead, len(samples))
	var mu sync.Mutex
	err := traverse.Each(len(samples), func(i int) error {
		sample := samples[i]
		rs, err := d.reads.Fetch(sample, full)
		if err != nil {
			return err
		}
		mu.Lock()
		out[sample] = rs
		mu.Unlock()
		return nil
	})
	return out, err
}

// candidateVariants generates and sorts the contig's candidate Ref/Alt
// pairs, spec.md §4.3's candidate generation. Trivial (Ref == Alt)
// variants are dropped: they imply no alternative allele at all.
func candidateVariants(reads []*align.AlignedRead, full region.GenomicRegion, refSeq func(string, uint32, uint32) (string, error)) ([]align.Variant, error) {
	variants, err := candidate.Generate(reads, full, refSeq)
	if err != nil {
		return nil, err
	}
	out := make([]align.Variant, 0, len(variants))
	for _, v := range variants {
		if v.Trivial() {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

// altAllelesOf extracts the alt allele of every variant, sorted, the shape
// hapgen.Walker and haplotype.Tree operate over.
func altAllelesOf(variants []align.Variant) []align.Allele {
	alleles := make([]align.Allele, len(variants))
	for i, v := range variants {
		alleles[i] = v.Alt
	}
	sort.Slice(alleles, func(i, j int) bool { return alleles[i].Less(alleles[j]) })
	return alleles
}

// walkWindows runs the sequential walker state machine to completion,
// returning every window up to the end-of-contig sentinel.
func walkWindows(cfg hapgen.Config, rm *readmap.ReadMap, alleles []align.Allele, contig string) []region.GenomicRegion {
	walker := hapgen.New(cfg)
	prev := hapgen.InitialRegion(contig)
	var windows []region.GenomicRegion
	for {
		next := walker.Walk(prev, rm, alleles)
		if isSentinel(prev, next) {
			return windows
		}
		windows = append(windows, next)
		prev = next
	}
}

func isSentinel(prev, next region.GenomicRegion) bool {
	return next.Empty() && next.Begin == prev.End+2
}

// processWindow builds the window's haplotype set, scores every read
// against every haplotype, filters to the configured haplotype budget, and
// hands the result to the configured caller.
func (d *Driver) processWindow(w region.GenomicRegion, rm *readmap.ReadMap, contigVariants []align.Variant, refSeq func(string, uint32, uint32) (string, error)) (*WindowCall, error) {
	windowVariants := variantsIn(contigVariants, w)
	windowAlleles := make([]align.Allele, len(windowVariants))
	for i, v := range windowVariants {
		windowAlleles[i] = v.Alt
	}

	tree := haplotype.New(refSeq)
	for _, a := range windowAlleles {
		tree.Extend(a)
	}
	haplotypes, err := tree.ExtractHaplotypes(w)
	if err != nil {
		return nil, err
	}
	if len(haplotypes) == 0 {
		return nil, nil // empty region: no reads implied any alternative allele here
	}

	samples := rm.SampleNames()
	if len(samples) == 0 {
		return nil, nil
	}

	flank := align.FlankState{ActiveRegion: w}
	if d.cfg.AllowFlankScoring {
		flank.HasLHSFlankInactiveCandidates = true
		flank.HasRHSFlankInactiveCandidates = true
	}
	cache := newLikelihoodCache(rm, flank, d.cfg.IndelModel)

	maxHaps := d.cfg.MaxHaplotypes
	if maxHaps <= 0 || maxHaps > len(haplotypes) {
		maxHaps = len(haplotypes)
	}
	kept, _ := filter.FilterByMaximumLikelihood(haplotypes, samples, cache, maxHaps)

	latents, err := d.caller.InferLatents(kept, cache)
	if err != nil {
		return nil, octerrors.Wrap(err, octerrors.ModelFailure, "driver: caller inference")
	}

	if d.cfg.AllowModelFiltering {
		support := latents.HaplotypeSupport()
		modelKept := make([]*align.Haplotype, 0, len(kept))
		for _, h := range kept {
			if support[model.HaplotypeKey(h)] >= d.cfg.MinHaplotypePosterior {
				modelKept = append(modelKept, h)
			}
		}
		if len(modelKept) > 0 && len(modelKept) < len(kept) {
			kept = modelKept
			latents, err = d.caller.InferLatents(kept, cache)
			if err != nil {
				return nil, octerrors.Wrap(err, octerrors.ModelFailure, "driver: caller re-inference after model filtering")
			}
		}
	}

	return &WindowCall{
		Region:         w,
		Latents:        latents,
		Haplotypes:     kept,
		VariantCalls:   d.caller.CallVariants(windowVariants, latents),
		ReferenceCalls: d.caller.CallReference(windowVariants, latents),
	}, nil
}

func variantsIn(variants []align.Variant, w region.GenomicRegion) []align.Variant {
	var out []align.Variant
	for _, v := range variants {
		if region.Contains(w, v.Region()) {
			out = append(out, v)
		}
	}
	return out
}

// phaseScoreAgainst reports the confidence that prev and cur's calls should
// be joined into one phase set, spec.md §4.6: the log-likelihood ratio
// phase.Score computes between prev and cur's candidate genotype lists,
// using caller.Latents.GenotypeList/GenotypePosteriors to recover the
// genotype/posterior pairs phase.Score needs. Falls back to -Inf (never
// joinable) when either window's genotype list is empty; phase.Score itself
// returns +Inf when it has fewer than two phasings to compare.
func (d *Driver) phaseScoreAgainst(prev, cur *WindowCall, rm *readmap.ReadMap) float64 {
	leftGenotypes := prev.Latents.GenotypeList()
	rightGenotypes := cur.Latents.GenotypeList()
	if len(leftGenotypes) == 0 || len(rightGenotypes) == 0 {
		return math.Inf(-1)
	}
	return phase.Score(leftGenotypes, rightGenotypes, prev.Latents.GenotypePosteriors(), cur.Latents.GenotypePosteriors(), rm, prev.Region, cur.Region)
}
