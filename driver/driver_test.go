package driver

import (
	"context"
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/caller"
	"github.com/dancooke/octopus/hapgen"
	"github.com/dancooke/octopus/likelihood"
	"github.com/dancooke/octopus/region"
)

// fakeGenome is a single-contig in-memory reference used across tests.
type fakeGenome struct {
	contig string
	seq    string
}

func (g *fakeGenome) SeqNames() []string { return []string{g.contig} }
func (g *fakeGenome) Len(contig string) (uint64, error) {
	return uint64(len(g.seq)), nil
}
func (g *fakeGenome) Get(contig string, begin, end uint32) (string, error) {
	return g.seq[begin:end], nil
}

// fakeReadSource serves a fixed, pre-built per-sample read list regardless
// of the requested region (tests only ever ask for the whole contig).
type fakeReadSource struct {
	samples []string
	reads   map[string][]*align.AlignedRead
}

func (s *fakeReadSource) Samples() []string { return s.samples }
func (s *fakeReadSource) Fetch(sample string, _ region.GenomicRegion) ([]*align.AlignedRead, error) {
	return s.reads[sample], nil
}

func matchRead(contig string, begin uint32, seq string) *align.AlignedRead {
	return &align.AlignedRead{
		RegionVal:      region.New(contig, begin, begin+uint32(len(seq))),
		Sequence:       seq,
		Qualities:      make([]uint8, len(seq)),
		Cigar:          sam.Cigar{sam.NewCigarOp(sam.CigarMatch, len(seq))},
		MappingQuality: 60,
	}
}

func fillQuals(r *align.AlignedRead, q uint8) *align.AlignedRead {
	for i := range r.Qualities {
		r.Qualities[i] = q
	}
	return r
}

func testConfig() Config {
	return Config{
		Walker: hapgen.Config{
			MaxIncluded:     10,
			IndicatorPolicy: hapgen.IncludeNone,
			ExtensionPolicy: hapgen.WithinReadLengthOfFirstIncluded,
		},
		MaxHaplotypes: 128,
		Parallelism:   2,
		IndelModel:    likelihood.DefaultIndelErrorModel(),
	}
}

func TestRunEmitsNoWindowsWhenNoVariantReads(t *testing.T) {
	contigSeq := strings.Repeat("A", 50)
	genome := &fakeGenome{contig: "1", seq: contigSeq}
	reads := []*align.AlignedRead{
		fillQuals(matchRead("1", 5, contigSeq[5:20]), 40),
	}
	source := &fakeReadSource{samples: []string{"s1"}, reads: map[string][]*align.AlignedRead{"s1": reads}}

	c, err := caller.NewVariantCallerBuilder(caller.Individual).
		WithGeneralParameters(caller.Parameters{Samples: []string{"s1"}}).
		Build()
	require.NoError(t, err)

	d := New(genome, source, c, testConfig())

	var calls []WindowCall
	err = d.Run(context.Background(), func(wc WindowCall) error {
		calls = append(calls, wc)
		return nil
	})
	require.NoError(t, err)
	// No mismatches against the reference means no candidate alleles, so
	// the walker never advances past its initial empty region and the
	// contig produces zero windows.
	assert.Empty(t, calls)
}

func TestRunEmitsWindowCoveringAMismatch(t *testing.T) {
	contigSeq := strings.Repeat("A", 60)
	genome := &fakeGenome{contig: "1", seq: contigSeq}

	readSeq := []byte(contigSeq[10:30])
	readSeq[5] = 'C' // mismatch at contig position 15
	reads := []*align.AlignedRead{
		fillQuals(matchRead("1", 10, string(readSeq)), 40),
		fillQuals(matchRead("1", 10, string(readSeq)), 40),
	}
	source := &fakeReadSource{samples: []string{"s1"}, reads: map[string][]*align.AlignedRead{"s1": reads}}

	c, err := caller.NewVariantCallerBuilder(caller.Individual).
		WithGeneralParameters(caller.Parameters{Samples: []string{"s1"}}).
		Build()
	require.NoError(t, err)

	d := New(genome, source, c, testConfig())

	var calls []WindowCall
	err = d.Run(context.Background(), func(wc WindowCall) error {
		calls = append(calls, wc)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, calls)

	for _, wc := range calls {
		assert.NotEmpty(t, wc.Latents.GenotypePosteriors())
		assert.NotEmpty(t, wc.Haplotypes)
	}
	// Windows must be emitted in strictly increasing begin order.
	for i := 1; i < len(calls); i++ {
		assert.LessOrEqual(t, calls[i-1].Region.Begin, calls[i].Region.Begin)
	}
}

func TestRunStopsBetweenWindowsOnCancellation(t *testing.T) {
	contigSeq := strings.Repeat("A", 60)
	genome := &fakeGenome{contig: "1", seq: contigSeq}
	readSeq := []byte(contigSeq[10:30])
	readSeq[5] = 'C'
	reads := []*align.AlignedRead{fillQuals(matchRead("1", 10, string(readSeq)), 40)}
	source := &fakeReadSource{samples: []string{"s1"}, reads: map[string][]*align.AlignedRead{"s1": reads}}

	c, err := caller.NewVariantCallerBuilder(caller.Individual).
		WithGeneralParameters(caller.Parameters{Samples: []string{"s1"}}).
		Build()
	require.NoError(t, err)

	d := New(genome, source, c, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = d.Run(ctx, func(wc WindowCall) error { return nil })
	assert.Error(t, err)
}

func TestIsSentinelDetectsWalkerEndOfContig(t *testing.T) {
	prev := region.New("1", 10, 20)
	sentinel := region.Shift(region.TailRegion(prev), 2)
	assert.True(t, isSentinel(prev, sentinel))
	assert.False(t, isSentinel(prev, region.New("1", 20, 25)))
}
