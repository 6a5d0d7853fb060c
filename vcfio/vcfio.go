// Package vcfio writes variant calls as VCF 4.3 text. Full VCF/BCF
// conformance is explicitly out of scope (spec.md §1 treats the encoder as
// an external collaborator); this package covers only the columns and
// FORMAT fields this module's own callers populate: #CHROM, POS, REF, ALT,
// QUAL, FILTER, and a GT/GP FORMAT pair per sample.
//
// Grounded on pileup/snp/output.go's writer-construction shape
// (github.com/grailbio/base/file for the destination, github.com/grailbio/
// base/tsv for the tab-delimited body, github.com/grailbio/hts/bgzf for the
// optional compressed path) adapted from that file's fixed ref/alt TSV
// schema to VCF's record shape.
package vcfio

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/pkg/errors"
)

// Record is one VCF data line: a single REF allele with one or more ALT
// alleles at one position, plus per-sample genotype calls.
type Record struct {
	Contig string
	Pos    uint32 // 0-based; written as 1-based per VCF convention
	Ref    string
	Alt    []string
	Qual   float64 // Phred-scaled; spec.md §6's min_variant_posterior etc. are in this scale
	Filter string  // "PASS" or a semicolon-joined failing-filter list

	// Samples maps sample name to that sample's FORMAT values, keyed by
	// FORMAT field name ("GT", "GP", ...). Writer derives the FORMAT column
	// from the union of keys across samples (GT first, the rest sorted); a
	// sample lacking one of those keys gets an empty value for it.
	Samples map[string]map[string]string
}

// Writer writes a VCF 4.3 text stream: one header, then one tab-delimited
// line per Record, following output.go's tsv.Writer-over-an-io.Writer
// idiom (no buffering decisions of its own; the caller supplies whatever
// io.Writer fits, plain or bgzip-wrapped).
type Writer struct {
	tsv     *tsv.Writer
	samples []string // fixed sample column order, set at construction
}

// NewWriter constructs a Writer over w. Call WriteHeader once before any
// WriteRecord call.
func NewWriter(w io.Writer, samples []string) *Writer {
	sorted := append([]string{}, samples...)
	sort.Strings(sorted)
	return &Writer{tsv: tsv.NewWriter(w), samples: sorted}
}

// WriteHeader emits the fixed VCF 4.3 meta-information lines and the
// #CHROM column header. contigs, if non-empty, adds one ##contig line per
// entry (name, length) in the given order — the reference's own
// declaration order, so downstream readers see contigs in the same order
// the driver emits calls in.
func (wr *Writer) WriteHeader(contigs []ContigLine) error {
	lines := []string{
		"##fileformat=VCFv4.3",
		`##FILTER=<ID=PASS,Description="All filters passed">`,
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
		`##FORMAT=<ID=GP,Number=G,Type=Float,Description="Phred-scaled genotype posterior probabilities">`,
	}
	for _, c := range contigs {
		lines = append(lines, "##contig=<ID="+c.Name+",length="+strconv.FormatUint(uint64(c.Length), 10)+">")
	}
	for _, l := range lines {
		wr.tsv.WriteString(l)
		if err := wr.tsv.EndLine(); err != nil {
			return errors.Wrap(err, "vcfio: writing header")
		}
	}

	cols := []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}
	if len(wr.samples) > 0 {
		cols = append(cols, "FORMAT")
		cols = append(cols, wr.samples...)
	}
	for _, c := range cols {
		wr.tsv.WriteString(c)
	}
	if err := wr.tsv.EndLine(); err != nil {
		return errors.Wrap(err, "vcfio: writing #CHROM header")
	}
	return nil
}

// ContigLine is one reference contig's name and length, for the VCF
// header's ##contig lines.
type ContigLine struct {
	Name   string
	Length uint64
}

// WriteRecord writes one variant call line. Samples present in the Writer's
// fixed sample order but absent from rec.Samples are written as "./.".
func (wr *Writer) WriteRecord(rec Record) error {
	wr.tsv.WriteString(rec.Contig)
	wr.tsv.WriteUint32(rec.Pos + 1)
	wr.tsv.WriteString(".") // ID: this module assigns no dbSNP/COSMIC identifiers
	wr.tsv.WriteString(rec.Ref)
	wr.tsv.WriteString(strings.Join(rec.Alt, ","))
	wr.tsv.WriteString(strconv.FormatFloat(rec.Qual, 'f', 2, 64))
	filter := rec.Filter
	if filter == "" {
		filter = "PASS"
	}
	wr.tsv.WriteString(filter)
	wr.tsv.WriteString(".") // INFO: no site-level annotations carried by this module

	if len(wr.samples) > 0 {
		format := formatKeysOf(rec.Samples)
		wr.tsv.WriteString(strings.Join(format, ":"))
		for _, sample := range wr.samples {
			values, ok := rec.Samples[sample]
			if !ok {
				wr.tsv.WriteString("./.")
				continue
			}
			parts := make([]string, len(format))
			for i, key := range format {
				parts[i] = values[key]
			}
			wr.tsv.WriteString(strings.Join(parts, ":"))
		}
	}
	return errors.Wrap(wr.tsv.EndLine(), "vcfio: writing record")
}

// formatKeysOf returns a deterministic FORMAT key order: "GT" first if
// present, then every other key seen across samples, sorted.
func formatKeysOf(samples map[string]map[string]string) []string {
	seen := map[string]bool{}
	var rest []string
	for _, values := range samples {
		for k := range values {
			if k == "GT" || seen[k] {
				continue
			}
			seen[k] = true
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, values := range samples {
		if _, ok := values["GT"]; ok {
			return append([]string{"GT"}, rest...)
		}
	}
	return rest
}

// Flush flushes any buffered output.
func (wr *Writer) Flush() error {
	return errors.Wrap(wr.tsv.Flush(), "vcfio: flushing")
}

// Create opens path (optionally bgzip-compressed, chosen by a ".gz"
// suffix) via github.com/grailbio/base/file and github.com/grailbio/hts/
// bgzf, the way pileup/snp/output.go opens its per-format destination
// files. The returned closer must be closed (via file.CloseAndReport, or
// directly) after the last WriteRecord call.
func Create(ctx context.Context, path string, parallelism int) (dst file.File, w io.WriteCloser, err error) {
	dst, err = file.Create(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "vcfio: creating output file")
	}
	if strings.HasSuffix(path, ".gz") {
		return dst, bgzf.NewWriter(dst.Writer(ctx), parallelism), nil
	}
	return dst, nopCloser{dst.Writer(ctx)}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
