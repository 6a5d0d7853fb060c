// Package config implements spec.md §6's configuration structure and the
// validation spec.md §7 requires before any work begins: an invalid option
// or combination is an octerrors.ConfigError, surfaced by Validate before
// Build ever constructs a driver.Config/caller.Caller pair.
//
// Grounded on cmd/bio-pileup/main.go's flag-var-block-to-Opts-struct shape
// (a plain exported struct, validated once, then handed to the package
// doing the actual work) and caller.VariantCallerBuilder's own resolved
// Open Question (general Parameters struct plus one model-specific struct
// selected by Kind).
package config

import (
	"github.com/dancooke/octopus/caller"
	"github.com/dancooke/octopus/driver"
	"github.com/dancooke/octopus/hapgen"
	"github.com/dancooke/octopus/likelihood"
	"github.com/dancooke/octopus/model"
	"github.com/dancooke/octopus/octerrors"
)

// CallerKind is the recognised value set for the `caller` option,
// spec.md §6.
type CallerKind string

const (
	Individual CallerKind = "individual"
	Population CallerKind = "population"
	Cancer     CallerKind = "cancer"
	Trio       CallerKind = "trio"
	Polyclone  CallerKind = "polyclone"
)

// RefCallType is the recognised value set for `refcall_type`, spec.md §6.
type RefCallType string

const (
	RefCallNone       RefCallType = "None"
	RefCallPositional RefCallType = "Positional"
	RefCallBlocked    RefCallType = "Blocked"
)

// Config is spec.md §6's full configuration surface.
type Config struct {
	Caller CallerKind

	Samples        []string
	Ploidy         uint32
	PloidyOverride map[string]uint32 // per-sample ploidy override

	MaxHaplotypes         uint32
	MinHaplotypePosterior float64

	// Phred-scaled thresholds (spec.md §6: "Phred thresholds").
	MinVariantPosterior float64
	MinRefCallPosterior float64
	MinSomaticPosterior float64
	MinPhaseScore       float64

	AllowFlankScoring   bool
	AllowModelFiltering bool

	NormalSample   string // cancer
	MaternalSample string // trio
	PaternalSample string // trio
	Pedigree       model.Trio

	// MaxClones and MaxGenotypes bound the Cancer/Polyclone callers'
	// subclonal-stage genotype search, spec.md §4.5/§6.
	MaxClones    int
	MaxGenotypes int

	RefCallType   RefCallType
	CallSitesOnly bool

	Parallelism int
}

// Default returns the option defaults spec.md §6 and §9 imply: diploid,
// no flank scoring or model filtering (both opt-in per spec.md §9's
// conservative-by-default framing), no ref-calling, single-threaded.
func Default() Config {
	polyclone := model.DefaultPolycloneParameters()
	return Config{
		Ploidy:        2,
		RefCallType:   RefCallNone,
		MaxHaplotypes: 128,
		Parallelism:   1,
		MaxClones:     polyclone.MaxClones,
		MaxGenotypes:  polyclone.MaxGenotypes,
	}
}

// Validate checks the option combination spec.md §7 requires to hold
// before any work begins; every failure carries octerrors.ConfigError.
func (c Config) Validate() error {
	switch c.Caller {
	case Individual, Population, Cancer, Trio, Polyclone:
	default:
		return octerrors.Errorf(octerrors.ConfigError, "config: unrecognised caller %q", c.Caller)
	}
	if len(c.Samples) == 0 {
		return octerrors.Errorf(octerrors.ConfigError, "config: no samples configured")
	}
	if c.Ploidy == 0 {
		return octerrors.Errorf(octerrors.ConfigError, "config: ploidy must be at least 1")
	}
	switch c.RefCallType {
	case RefCallNone, RefCallPositional, RefCallBlocked:
	default:
		return octerrors.Errorf(octerrors.ConfigError, "config: unrecognised refcall_type %q", c.RefCallType)
	}

	switch c.Caller {
	case Individual:
		if len(c.Samples) != 1 {
			return octerrors.Errorf(octerrors.ConfigError, "config: individual caller requires exactly one sample")
		}
	case Cancer:
		if c.NormalSample == "" {
			return octerrors.Errorf(octerrors.ConfigError, "config: cancer caller requires normal_sample")
		}
		if len(c.Samples) != 2 {
			return octerrors.Errorf(octerrors.ConfigError, "config: cancer caller requires exactly (normal, tumour) samples")
		}
	case Trio:
		if c.MaternalSample == "" || c.PaternalSample == "" {
			return octerrors.Errorf(octerrors.ConfigError, "config: trio caller requires maternal_sample and paternal_sample")
		}
		if c.Pedigree.Child == "" {
			return octerrors.Errorf(octerrors.ConfigError, "config: trio caller requires pedigree.Child")
		}
	case Polyclone:
		if len(c.Samples) != 1 {
			return octerrors.Errorf(octerrors.ConfigError, "config: polyclone caller requires exactly one sample")
		}
	}
	switch c.Caller {
	case Cancer, Polyclone:
		if c.MaxClones < 2 {
			return octerrors.Errorf(octerrors.ConfigError, "config: max_clones must be at least 2")
		}
		if c.MaxGenotypes <= 0 {
			return octerrors.Errorf(octerrors.ConfigError, "config: max_genotypes must be positive")
		}
	}
	return nil
}

// BuildCaller resolves Config into a *caller.Caller via
// caller.VariantCallerBuilder, spec.md §9's general-plus-model-specific
// builder shape.
func (c Config) BuildCaller() (*caller.Caller, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var kind caller.Kind
	switch c.Caller {
	case Individual:
		kind = caller.Individual
	case Population:
		kind = caller.Population
	case Cancer:
		kind = caller.Cancer
	case Trio:
		kind = caller.Pedigree
	case Polyclone:
		kind = caller.Polyclone
	}

	builder := caller.NewVariantCallerBuilder(kind).
		WithGeneralParameters(caller.Parameters{
			Samples:              c.Samples,
			MinVariantPosterior:  c.MinVariantPosterior,
			MinRefCallPosterior:  c.MinRefCallPosterior,
			MinSomaticPosterior:  c.MinSomaticPosterior,
		})

	switch c.Caller {
	case Population:
		builder = builder.WithPopulationPloidy(int(c.Ploidy))
	case Trio:
		builder = builder.WithTrio(model.Trio{
			Child:  c.Pedigree.Child,
			Mother: c.MaternalSample,
			Father: c.PaternalSample,
		})
	case Cancer, Polyclone:
		builder = builder.WithPolycloneParameters(model.PolycloneParameters{
			MaxClones:      c.MaxClones,
			MaxGenotypes:   c.MaxGenotypes,
			ClonalityPrior: model.DefaultClonalityPrior,
		})
	}

	built, err := builder.Build()
	if err != nil {
		return nil, octerrors.Wrap(err, octerrors.ConfigError, "config: building caller")
	}
	return built, nil
}

// BuildDriverConfig resolves Config into the driver.Config the pipeline
// actually runs with: windowing policy, filter budget, and concurrency.
func (c Config) BuildDriverConfig() driver.Config {
	return driver.Config{
		Walker: hapgen.Config{
			MaxIncluded:     10,
			IndicatorPolicy: hapgen.IncludeIfLinkableToNovelRegion,
			ExtensionPolicy: hapgen.WithinReadLengthOfFirstIncluded,
		},
		MaxHaplotypes:         int(c.MaxHaplotypes),
		AllowFlankScoring:     c.AllowFlankScoring,
		MinPhaseScore:         c.MinPhaseScore,
		Parallelism:           c.Parallelism,
		IndelModel:            likelihood.DefaultIndelErrorModel(),
		AllowModelFiltering:   c.AllowModelFiltering,
		MinHaplotypePosterior: c.MinHaplotypePosterior,
	}
}

// PloidyFor returns the effective ploidy for sample, applying
// PloidyOverride when present.
func (c Config) PloidyFor(sample string) uint32 {
	if p, ok := c.PloidyOverride[sample]; ok {
		return p
	}
	return c.Ploidy
}
