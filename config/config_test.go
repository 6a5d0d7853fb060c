package config

import (
	"testing"

	"github.com/dancooke/octopus/model"
	"github.com/dancooke/octopus/octerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsUnknownCaller(t *testing.T) {
	c := Default()
	c.Caller = "nonsense"
	c.Samples = []string{"s1"}
	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, octerrors.ConfigError, octerrors.KindOf(err))
}

func TestValidateRejectsNoSamples(t *testing.T) {
	c := Default()
	c.Caller = Individual
	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, octerrors.ConfigError, octerrors.KindOf(err))
}

func TestValidateRejectsZeroPloidy(t *testing.T) {
	c := Default()
	c.Caller = Individual
	c.Samples = []string{"s1"}
	c.Ploidy = 0
	err := c.Validate()
	require.Error(t, err)
}

func TestValidateCancerRequiresNormalSampleAndTwoSamples(t *testing.T) {
	c := Default()
	c.Caller = Cancer
	c.Samples = []string{"tumour"}
	err := c.Validate()
	assert.Error(t, err)

	c.NormalSample = "normal"
	c.Samples = []string{"normal", "tumour"}
	assert.NoError(t, c.Validate())
}

func TestValidateTrioRequiresParentSamplesAndPedigree(t *testing.T) {
	c := Default()
	c.Caller = Trio
	c.Samples = []string{"child", "mother", "father"}
	err := c.Validate()
	assert.Error(t, err)

	c.MaternalSample = "mother"
	c.PaternalSample = "father"
	c.Pedigree = model.Trio{Child: "child", Mother: "mother", Father: "father"}
	assert.NoError(t, c.Validate())
}

func TestBuildCallerRejectsInvalidConfigWithoutConstructingACaller(t *testing.T) {
	c := Default()
	c.Caller = Individual
	_, err := c.BuildCaller()
	require.Error(t, err)
	assert.Equal(t, octerrors.ConfigError, octerrors.KindOf(err))
}

func TestBuildCallerIndividual(t *testing.T) {
	c := Default()
	c.Caller = Individual
	c.Samples = []string{"s1"}
	got, err := c.BuildCaller()
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestBuildCallerTrioUsesPedigreeRoles(t *testing.T) {
	c := Default()
	c.Caller = Trio
	c.Samples = []string{"child", "mother", "father"}
	c.MaternalSample = "mother"
	c.PaternalSample = "father"
	c.Pedigree = model.Trio{Child: "child"}
	got, err := c.BuildCaller()
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestPloidyForAppliesOverride(t *testing.T) {
	c := Default()
	c.Ploidy = 2
	c.PloidyOverride = map[string]uint32{"s1": 1}
	assert.Equal(t, uint32(1), c.PloidyFor("s1"))
	assert.Equal(t, uint32(2), c.PloidyFor("s2"))
}

func TestBuildDriverConfigCarriesParallelismAndHaplotypeBudget(t *testing.T) {
	c := Default()
	c.Parallelism = 4
	c.MaxHaplotypes = 64
	dc := c.BuildDriverConfig()
	assert.Equal(t, 4, dc.Parallelism)
	assert.Equal(t, 64, dc.MaxHaplotypes)
}
