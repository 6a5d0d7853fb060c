package caller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/model"
	"github.com/dancooke/octopus/region"
)

type fakeCache struct{}

func (fakeCache) LogLikelihoods(_ string, _ *align.Haplotype) []float64 { return []float64{-0.1} }

func mkHap(seq string) *align.Haplotype {
	return &align.Haplotype{RegionVal: region.New("1", 0, uint32(len(seq))), Sequence: seq}
}

func TestBuilderRejectsMissingSamples(t *testing.T) {
	_, err := NewVariantCallerBuilder(Individual).Build()
	assert.Error(t, err)
}

func TestBuilderIndividualInfersLatents(t *testing.T) {
	c, err := NewVariantCallerBuilder(Individual).
		WithGeneralParameters(Parameters{Samples: []string{"s1"}}).
		Build()
	require.NoError(t, err)
	lat, err := c.InferLatents([]*align.Haplotype{mkHap("A"), mkHap("C")}, fakeCache{})
	require.NoError(t, err)
	assert.NotEmpty(t, lat.GenotypePosteriors())
}

func TestBuilderPedigreeRequiresAllRoles(t *testing.T) {
	_, err := NewVariantCallerBuilder(Pedigree).
		WithTrio(model.Trio{Child: "c", Mother: "m"}).
		Build()
	assert.Error(t, err)
}
