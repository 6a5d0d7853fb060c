package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFasta = ">1 some description\nACGTACGTAC\nGTACGTACGT\n>2\nTTTTCCCCGG\n"

func testIndex() string {
	return strings.Join([]string{
		"1\t20\t20\t10\t11",
		"2\t10\t47\t10\t11",
		"",
	}, "\n")
}

func TestLoadExposesSeqNamesAndLengths(t *testing.T) {
	g, err := Load(strings.NewReader(testFasta), strings.NewReader(testIndex()))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, g.SeqNames())
	n, err := g.Len("1")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), n)
}

func TestGetReturnsNewlineFreeSlice(t *testing.T) {
	g, err := Load(strings.NewReader(testFasta), strings.NewReader(testIndex()))
	require.NoError(t, err)
	seq, err := g.Get("1", 8, 12)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", seq)
}

func TestGetRejectsOutOfRangeRegion(t *testing.T) {
	g, err := Load(strings.NewReader(testFasta), strings.NewReader(testIndex()))
	require.NoError(t, err)
	_, err = g.Get("1", 15, 25)
	assert.Error(t, err)
}

func TestLoadRejectsIndexNamingUnknownContig(t *testing.T) {
	badIndex := "1\t20\t20\t10\t11\n3\t5\t50\t5\t6\n"
	_, err := Load(strings.NewReader(testFasta), strings.NewReader(badIndex))
	assert.Error(t, err)
}
