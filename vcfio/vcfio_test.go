package vcfio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHeaderEmitsFixedMetaLinesAndContigs(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, []string{"s1"})
	require.NoError(t, w.WriteHeader([]ContigLine{{Name: "1", Length: 1000}}))
	require.NoError(t, w.Flush())

	out := buf.String()
	assert.Contains(t, out, "##fileformat=VCFv4.3")
	assert.Contains(t, out, "##contig=<ID=1,length=1000>")
	assert.Contains(t, out, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1")
}

func TestWriteRecordEmitsTabDelimitedLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, []string{"s1", "s2"})
	require.NoError(t, w.WriteHeader(nil))
	require.NoError(t, w.WriteRecord(Record{
		Contig: "1",
		Pos:    99,
		Ref:    "A",
		Alt:    []string{"C"},
		Qual:   30,
		Samples: map[string]map[string]string{
			"s1": {"GT": "0/1", "GP": "0,3,30"},
		},
	}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	last := lines[len(lines)-1]
	fields := strings.Split(last, "\t")
	assert.Equal(t, "1", fields[0])
	assert.Equal(t, "100", fields[1]) // 0-based 99 -> 1-based 100
	assert.Equal(t, "A", fields[3])
	assert.Equal(t, "C", fields[4])
	assert.Equal(t, "PASS", fields[6])
	assert.Equal(t, "GT:GP", fields[8])
	assert.Equal(t, "0/1:0,3,30", fields[9])
	assert.Equal(t, "./.", fields[10]) // s2 carries no call
}

func TestWriteRecordDefaultsMissingFilterToPass(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)
	require.NoError(t, w.WriteHeader(nil))
	require.NoError(t, w.WriteRecord(Record{Contig: "1", Pos: 0, Ref: "A", Alt: []string{"G"}}))
	require.NoError(t, w.Flush())
	assert.Contains(t, buf.String(), "\tPASS\t")
}
