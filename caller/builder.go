package caller

import (
	"github.com/pkg/errors"

	"github.com/dancooke/octopus/model"
)

// VariantCallerBuilder follows spec.md §9's resolved open question: the
// source carries two incompatible versions of this builder; we take the
// later version's shape, a general parameter struct plus one
// model-specific parameter struct selected by Kind.
type VariantCallerBuilder struct {
	kind       Kind
	general    Parameters
	polyclone  model.PolycloneParameters
	population model.PopulationModel
	cancer     model.PolycloneParameters // tumour-stage parameters; normal ploidy fixed at 2
	pedigree   model.Trio
}

// NewVariantCallerBuilder starts a builder for kind, with default
// model-specific parameters.
func NewVariantCallerBuilder(kind Kind) *VariantCallerBuilder {
	return &VariantCallerBuilder{
		kind:      kind,
		polyclone: model.DefaultPolycloneParameters(),
		cancer:    model.DefaultPolycloneParameters(),
	}
}

// WithGeneralParameters sets the model-independent parameters.
func (b *VariantCallerBuilder) WithGeneralParameters(p Parameters) *VariantCallerBuilder {
	b.general = p
	return b
}

// WithPolycloneParameters sets the polyclone-specific parameters, used when
// Kind is Polyclone or Cancer (the tumour stage reuses the same shape).
func (b *VariantCallerBuilder) WithPolycloneParameters(p model.PolycloneParameters) *VariantCallerBuilder {
	b.polyclone = p
	b.cancer = p
	return b
}

// WithPopulationPloidy sets the ploidy PopulationModel assumes per sample.
func (b *VariantCallerBuilder) WithPopulationPloidy(ploidy int) *VariantCallerBuilder {
	b.population = model.PopulationModel{Ploidy: ploidy}
	return b
}

// WithTrio sets the pedigree roles, used when Kind is Pedigree.
func (b *VariantCallerBuilder) WithTrio(t model.Trio) *VariantCallerBuilder {
	b.pedigree = t
	return b
}

// Build validates the accumulated parameters and constructs the Caller.
func (b *VariantCallerBuilder) Build() (*Caller, error) {
	if len(b.general.Samples) == 0 && b.kind != Pedigree {
		return nil, errors.New("caller builder: no samples configured")
	}
	c := &Caller{kind: b.kind, params: b.general}
	switch b.kind {
	case Individual:
	case Population:
		c.population = b.population
	case Cancer:
		c.cancer = model.NewCancerModel(b.cancer)
	case Polyclone:
		c.polyclone = model.NewPolycloneModel(b.polyclone)
	case Pedigree:
		c.pedigree = model.PedigreeModel{Trio: b.pedigree}
		if b.pedigree.Child == "" || b.pedigree.Mother == "" || b.pedigree.Father == "" {
			return nil, errors.New("caller builder: pedigree requires child, mother, and father sample names")
		}
		c.params.Samples = []string{b.pedigree.Child, b.pedigree.Mother, b.pedigree.Father}
	default:
		return nil, errors.Errorf("caller builder: unknown kind %d", b.kind)
	}
	return c, nil
}
