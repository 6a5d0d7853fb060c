// Package reference provides indexed random access to the reference
// genome, spec.md §6: one FASTA with a `.fai` index, contig names and sizes
// enumerated from the index, random access by (contig, begin, end)
// returning a newline-free ASCII slice.
//
// Adapted from encoding/fasta/fasta.go and encoding/fasta/index.go: the
// teacher's Fasta interface and eager in-memory load are kept, generalized
// from "one FASTA reader among several encodings" into this module's sole
// reference-genome access point, with the index parsed via the same
// tsv-based approach index.go uses to emit it.
package reference

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/grailbio/base/tsv"

	"github.com/dancooke/octopus/octerrors"
)

// faiRow is one line of a samtools .fai index: name, length, byte offset of
// the first base, bases per line, bytes per line (including the newline).
// The file carries no header row, so tsv.Reader matches these positionally
// in declaration order; the same layout index.go's GenerateIndex writes.
type faiRow struct {
	Name      string `tsv:"name"`
	Length    int64  `tsv:"length"`
	Offset    int64  `tsv:"offset"`
	LineBases int64  `tsv:"lineBases"`
	LineWidth int64  `tsv:"lineWidth"`
}

// Genome is indexed random access to a reference FASTA, spec.md §6.
type Genome struct {
	seqs     map[string]string
	seqNames []string
	lengths  map[string]uint64
}

// Load reads fastaData in full (the teacher's eager in-memory strategy) and
// indexData as a .fai index giving contig order and sizes.
func Load(fastaData io.Reader, indexData io.Reader) (*Genome, error) {
	g := &Genome{seqs: make(map[string]string), lengths: make(map[string]uint64)}

	r := tsv.NewReader(indexData)
	for {
		var row faiRow
		if err := r.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, octerrors.Wrap(err, octerrors.IoError, "reference: parsing .fai index")
		}
		g.seqNames = append(g.seqNames, row.Name)
		g.lengths[row.Name] = uint64(row.Length)
	}
	if len(g.seqNames) == 0 {
		return nil, octerrors.Errorf(octerrors.IoError, "reference: empty .fai index")
	}

	scanner := bufio.NewScanner(fastaData)
	scanner.Buffer(nil, 300*1024*1024)
	var seqName string
	var seq strings.Builder
	flush := func() {
		if seqName != "" {
			g.seqs[seqName] = seq.String()
			seq.Reset()
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			seqName = strings.Split(line[1:], " ")[0]
			continue
		}
		seq.WriteString(line)
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, octerrors.Wrap(err, octerrors.IoError, "reference: reading FASTA data")
	}

	for _, name := range g.seqNames {
		if _, ok := g.seqs[name]; !ok {
			return nil, octerrors.Errorf(octerrors.ReferenceMismatch,
				"reference: index names contig %q absent from FASTA body", name)
		}
	}
	return g, nil
}

// SeqNames returns contig names in the order they appear in the index.
func (g *Genome) SeqNames() []string { return g.seqNames }

// Len returns the contig's base count.
func (g *Genome) Len(contig string) (uint64, error) {
	n, ok := g.lengths[contig]
	if !ok {
		return 0, octerrors.Errorf(octerrors.ReferenceMismatch, "reference: unknown contig %q", contig)
	}
	return n, nil
}

// Get returns the newline-free ASCII slice [begin, end) of contig.
func (g *Genome) Get(contig string, begin, end uint32) (string, error) {
	s, ok := g.seqs[contig]
	if !ok {
		return "", octerrors.Errorf(octerrors.ReferenceMismatch, "reference: unknown contig %q", contig)
	}
	if end < begin {
		return "", errors.Errorf("reference: invalid range %d-%d", begin, end)
	}
	if int(end) > len(s) {
		return "", octerrors.Errorf(octerrors.IoError,
			"reference: range %d-%d exceeds contig %q length %d", begin, end, contig, len(s))
	}
	return s[begin:end], nil
}
