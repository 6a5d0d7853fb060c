// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
octopus-call is a germline/somatic variant caller. It reads one reference
FASTA (with a .fai index), one or more BAM files (with .bai indexes), calls
variants according to the configured generative model, and writes a VCF.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/config"
	"github.com/dancooke/octopus/driver"
	"github.com/dancooke/octopus/octerrors"
	"github.com/dancooke/octopus/readio"
	"github.com/dancooke/octopus/reference"
	"github.com/dancooke/octopus/region"
	"github.com/dancooke/octopus/vcfio"
)

var (
	callerKind          = flag.String("caller", "individual", "Generative model: individual, population, cancer, trio, or polyclone")
	ploidy              = flag.Uint("ploidy", 2, "Default sample ploidy")
	maxHaplotypes       = flag.Uint("max-haplotypes", 128, "Upper bound on haplotypes scored per window")
	minVariantPosterior = flag.Float64("min-variant-posterior", 1, "Phred-scaled posterior threshold to emit a variant call")
	minRefCallPosterior = flag.Float64("min-refcall-posterior", 1, "Phred-scaled posterior threshold to emit a reference call")
	minSomaticPosterior = flag.Float64("min-somatic-posterior", 1, "Phred-scaled posterior threshold to emit a somatic call (cancer caller only)")
	minPhaseScore       = flag.Float64("min-phase-score", 0, "Phred-scaled score threshold to join two windows into one phase set")
	allowFlankScoring     = flag.Bool("allow-flank-scoring", false, "Score inactive-candidate flanks instead of charging them to haplotype choice")
	allowModelFiltering   = flag.Bool("allow-model-filtering", false, "Let the genotype model, not just raw likelihood, filter haplotypes")
	minHaplotypePosterior = flag.Float64("min-haplotype-posterior", 0, "Marginal posterior a haplotype must clear to survive model filtering (only read when allow-model-filtering is set)")
	maxClones             = flag.Uint("max-clones", 3, "Maximum number of clones considered by the cancer/polyclone subclonal stage")
	maxGenotypes          = flag.Uint("max-genotypes", 5000, "Cap on the cancer/polyclone subclonal stage's enumerated genotype count")
	normalSample          = flag.String("normal-sample", "", "Normal sample name (cancer caller)")
	maternalSample      = flag.String("maternal-sample", "", "Mother's sample name (trio caller)")
	paternalSample      = flag.String("paternal-sample", "", "Father's sample name (trio caller)")
	childSample         = flag.String("child-sample", "", "Child's sample name (trio caller)")
	refcallType         = flag.String("refcall-type", "None", "Reference call emission policy: None, Positional, or Blocked")
	callSitesOnly       = flag.Bool("call-sites-only", false, "Emit one record per site with no per-sample FORMAT/genotype columns, rather than one record per site with a genotype column per sample")
	parallelism         = flag.Int("parallelism", 1, "Maximum number of windows scored concurrently")
	fastaIndexPath      = flag.String("fasta-index", "", "Reference .fai path; defaults to fastapath + .fai")
	bamIndexSuffix      = flag.String("bam-index-suffix", ".bai", "BAM index path suffix; each bampath + this suffix is opened alongside it")
	outPath             = flag.String("out", "octopus-call.vcf", "Output VCF path; a .gz suffix bgzip-compresses it")
)

func octopusCallUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] fastapath bampath [bampath ...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = octopusCallUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() < 2 {
		log.Error.Printf("missing positional arguments (fastapath and at least one bampath required)")
		os.Exit(2)
	}
	fastaPath := flag.Arg(0)
	bamPaths := flag.Args()[1:]
	ctx := vcontext.Background()

	if err := octopusCall(ctx, fastaPath, bamPaths); err != nil {
		log.Error.Printf("%v", err)
		os.Exit(exitCodeFor(err))
	}
}

// octopusCall wires config, reference, readio, driver, and vcfio together:
// load the reference and reads, build the configured caller, run the
// driver over every contig, and write every emitted window's calls as VCF
// records, following cmd/bio-pileup/main.go's flag-to-Opts-to-pipeline
// shape.
func octopusCall(ctx context.Context, fastaPath string, bamPaths []string) error {
	cfg := buildConfig()

	genome, err := loadReference(ctx, fastaPath, *fastaIndexPath)
	if err != nil {
		return err
	}

	reads, err := openReads(ctx, bamPaths, *bamIndexSuffix)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reads.Close(); cerr != nil {
			log.Error.Printf("cmd/octopus-call: closing read sources: %v", cerr)
		}
	}()

	cfg.Samples = reads.Samples()
	variantCaller, err := cfg.BuildCaller()
	if err != nil {
		return err
	}

	dst, vcfDst, err := vcfio.Create(ctx, *outPath, *parallelism)
	if err != nil {
		return octerrors.Wrap(err, octerrors.IoError, "cmd/octopus-call: creating output VCF")
	}
	var writeErr error
	defer func() {
		if cerr := vcfDst.Close(); cerr != nil && writeErr == nil {
			writeErr = cerr
		}
		file.CloseAndReport(ctx, dst, &writeErr)
	}()

	writerSamples := cfg.Samples
	if cfg.CallSitesOnly {
		writerSamples = nil
	}
	writer := vcfio.NewWriter(vcfDst, writerSamples)
	contigs := make([]vcfio.ContigLine, 0, len(genome.SeqNames()))
	for _, name := range genome.SeqNames() {
		length, lerr := genome.Len(name)
		if lerr != nil {
			return lerr
		}
		contigs = append(contigs, vcfio.ContigLine{Name: name, Length: length})
	}
	if err := writer.WriteHeader(contigs); err != nil {
		return octerrors.Wrap(err, octerrors.IoError, "cmd/octopus-call: writing VCF header")
	}

	d := driver.New(genome, reads, variantCaller, cfg.BuildDriverConfig())
	runErr := d.Run(ctx, func(call driver.WindowCall) error {
		return emitWindow(writer, call, cfg.RefCallType, cfg.CallSitesOnly)
	})
	if runErr != nil {
		return runErr
	}
	if err := writer.Flush(); err != nil {
		return octerrors.Wrap(err, octerrors.IoError, "cmd/octopus-call: flushing VCF")
	}
	return writeErr
}

// emitWindow converts one window's caller.VariantCalls (and, when
// refCallType requests it, its ReferenceCalls) into vcfio.Records and
// writes them. A reference call carries no ALT and no per-sample
// genotype detail: spec.md §6's refcall_type only distinguishes whether
// such sites are reported at all (None), one per site (Positional), or
// merged into blocks (Blocked) — block-merging is left to a downstream
// VCF consumer, so both non-None settings are written one record per
// site here. When callSitesOnly is set, no per-sample FORMAT/genotype
// columns are written at all (vcfio.Writer already omits them whenever it
// was constructed with no sample list), so the per-sample map is skipped
// here too.
func emitWindow(w *vcfio.Writer, call driver.WindowCall, refCallType config.RefCallType, callSitesOnly bool) error {
	for _, vc := range call.VariantCalls {
		var samples map[string]map[string]string
		if !callSitesOnly {
			samples = make(map[string]map[string]string, len(vc.Genotypes))
			for sample, gt := range vc.Genotypes {
				samples[sample] = map[string]string{
					"GT": strings.Join(gt.Alleles, "/"),
					"GP": fmt.Sprintf("%.2f", gt.Posterior),
				}
			}
		}
		rec := vcfio.Record{
			Contig:  vc.Region.Contig,
			Pos:     vc.Region.Begin,
			Ref:     vc.Ref,
			Alt:     []string{vc.Alt},
			Qual:    vc.Posterior,
			Samples: samples,
		}
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}

	if refCallType == config.RefCallNone {
		return nil
	}
	for _, rc := range call.ReferenceCalls {
		rec := vcfio.Record{
			Contig: rc.Region.Contig,
			Pos:    rc.Region.Begin,
			Ref:    ".",
			Qual:   rc.Posterior,
			Filter: "PASS",
		}
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

func buildConfig() config.Config {
	cfg := config.Default()
	cfg.Caller = config.CallerKind(strings.ToLower(*callerKind))
	cfg.Ploidy = uint32(*ploidy)
	cfg.MaxHaplotypes = uint32(*maxHaplotypes)
	cfg.MinVariantPosterior = *minVariantPosterior
	cfg.MinRefCallPosterior = *minRefCallPosterior
	cfg.MinSomaticPosterior = *minSomaticPosterior
	cfg.MinPhaseScore = *minPhaseScore
	cfg.AllowFlankScoring = *allowFlankScoring
	cfg.AllowModelFiltering = *allowModelFiltering
	cfg.MinHaplotypePosterior = *minHaplotypePosterior
	cfg.MaxClones = int(*maxClones)
	cfg.MaxGenotypes = int(*maxGenotypes)
	cfg.NormalSample = *normalSample
	cfg.MaternalSample = *maternalSample
	cfg.PaternalSample = *paternalSample
	cfg.Pedigree.Child = *childSample
	cfg.Pedigree.Mother = *maternalSample
	cfg.Pedigree.Father = *paternalSample
	cfg.RefCallType = config.RefCallType(*refcallType)
	cfg.CallSitesOnly = *callSitesOnly
	cfg.Parallelism = *parallelism
	return cfg
}

func loadReference(ctx context.Context, fastaPath, indexPath string) (genome *reference.Genome, err error) {
	if indexPath == "" {
		indexPath = fastaPath + ".fai"
	}
	fastaIn, err := file.Open(ctx, fastaPath)
	if err != nil {
		return nil, octerrors.Wrap(err, octerrors.IoError, "cmd/octopus-call: opening reference FASTA")
	}
	defer file.CloseAndReport(ctx, fastaIn, &err)

	indexIn, err := file.Open(ctx, indexPath)
	if err != nil {
		return nil, octerrors.Wrap(err, octerrors.IoError, "cmd/octopus-call: opening reference .fai index")
	}
	defer file.CloseAndReport(ctx, indexIn, &err)

	genome, err = reference.Load(fastaIn.Reader(ctx), indexIn.Reader(ctx))
	return genome, err
}

func openReads(ctx context.Context, bamPaths []string, indexSuffix string) (*multiSource, error) {
	sources := make([]*readio.Source, 0, len(bamPaths))
	for _, bamPath := range bamPaths {
		bamIn, err := file.Open(ctx, bamPath)
		if err != nil {
			return nil, octerrors.Wrap(err, octerrors.IoError, "cmd/octopus-call: opening BAM file")
		}
		indexIn, err := file.Open(ctx, bamPath+indexSuffix)
		if err != nil {
			return nil, octerrors.Wrap(err, octerrors.IoError, "cmd/octopus-call: opening BAM index")
		}
		source, err := readio.Open(bamIn.Reader(ctx), indexIn.Reader(ctx))
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return newMultiSource(sources), nil
}

func exitCodeFor(err error) int {
	if octerrors.Is(err, octerrors.ConfigError) {
		return 2
	}
	return 1
}

// multiSource aggregates multiple readio.Source BAM files behind the
// single driver.ReadSource contract: samples are the union of every
// file's @RG sample names (spec.md §6's "one or more BAM/CRAM files"), and
// a fetch is routed to whichever source actually carries that sample.
type multiSource struct {
	sources []*readio.Source
	owner   map[string]*readio.Source
	samples []string
}

func newMultiSource(sources []*readio.Source) *multiSource {
	owner := make(map[string]*readio.Source)
	var samples []string
	for _, s := range sources {
		for _, sample := range s.Samples() {
			if _, ok := owner[sample]; !ok {
				owner[sample] = s
				samples = append(samples, sample)
			}
		}
	}
	return &multiSource{sources: sources, owner: owner, samples: samples}
}

func (m *multiSource) Samples() []string { return m.samples }

func (m *multiSource) Fetch(sample string, r region.GenomicRegion) ([]*align.AlignedRead, error) {
	s, ok := m.owner[sample]
	if !ok {
		return nil, octerrors.Errorf(octerrors.ConfigError, "cmd/octopus-call: unknown sample %q", sample)
	}
	return s.Fetch(sample, r)
}

func (m *multiSource) Close() error {
	var first error
	for _, s := range m.sources {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
