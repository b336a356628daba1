// hapcol: fast and memory-efficient haplotype assembly from long reads.
// Copyright (c) 2019-2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/hapcol/blob/master/LICENSE.txt>.

package wif

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	psort "github.com/exascience/pargo/sort"
	"github.com/klauspost/compress/gzip"
)

// FormatError reports a malformed WIF line.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed WIF line %v: %v", e.Line, e.Msg)
}

// CoverageError reports a column covered by more reads than the
// solver supports.
type CoverageError struct {
	Column   int
	Position int
	Maximum  int
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("coverage threshold exceeded at column %v (position %v): more than %v reads", e.Column, e.Position, e.Maximum)
}

// parseFragment parses one WIF line. Each line is a ` : `-separated
// sequence of `<position> <nucleotide> <allele> <phred>` entries and
// `--` gap markers, terminated by a `#` token followed by one or two
// mapping qualities, a `:`, and one or two `u` characters.
func parseFragment(line string, lineno int) (*Fragment, error) {
	var sc StringScanner
	sc.Reset(line)
	fragment := &Fragment{}
	terminated := false
	for sc.Len() > 0 {
		token := sc.ReadField()
		switch token {
		case "":
			continue
		case "#":
			fragment.MapQ = append(fragment.MapQ, sc.ReadInt())
			if next := sc.ReadField(); next != ":" {
				mapq, err := strconv.Atoi(next)
				if err != nil {
					return nil, &FormatError{lineno, fmt.Sprintf("invalid mapping quality %q", next)}
				}
				fragment.MapQ = append(fragment.MapQ, mapq)
				sc.ExpectSeparator()
				sc.ReadField()
				sc.ReadField()
			} else {
				sc.ReadField()
			}
			terminated = true
		case "--":
			sc.ExpectSeparator()
			continue
		default:
			position, err := strconv.Atoi(token)
			if err != nil {
				return nil, &FormatError{lineno, fmt.Sprintf("invalid position %q", token)}
			}
			if n := len(fragment.Entries); n > 0 && position <= fragment.Entries[n-1].Position {
				return nil, &FormatError{lineno, fmt.Sprintf("positions not strictly increasing at %v", position)}
			}
			sc.ReadField() // the nucleotide is not used
			var allele Allele
			switch alleleToken := sc.ReadField(); alleleToken {
			case "0":
				allele = Major
			case "1":
				allele = Minor
			default:
				return nil, &FormatError{lineno, fmt.Sprintf("allele %q is not 0 or 1", alleleToken)}
			}
			phred := sc.ReadInt()
			sc.ExpectSeparator()
			fragment.Entries = append(fragment.Entries, SnpEntry{
				Position: position,
				Allele:   allele,
				Phred:    phred,
			})
		}
		if terminated {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &FormatError{lineno, err.Error()}
	}
	if !terminated {
		return nil, &FormatError{lineno, "line has no terminator"}
	}
	if len(fragment.Entries) == 0 {
		return nil, &FormatError{lineno, "read covers no variant"}
	}
	return fragment, nil
}

type stableFragmentSorter []*Fragment

func (s stableFragmentSorter) SequentialSort(i, j int) {
	sort.SliceStable(s[i:j], func(p, q int) bool {
		return s[i:j][p].Start() < s[i:j][q].Start()
	})
}

func (s stableFragmentSorter) NewTemp() psort.StableSorter {
	return stableFragmentSorter(make([]*Fragment, len(s)))
}

func (s stableFragmentSorter) Len() int {
	return len(s)
}

func (s stableFragmentSorter) Less(i, j int) bool {
	return s[i].Start() < s[j].Start()
}

func (s stableFragmentSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableFragmentSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

type stablePositionSorter []int

func (s stablePositionSorter) SequentialSort(i, j int) {
	sort.Ints(s[i:j])
}

func (s stablePositionSorter) NewTemp() psort.StableSorter {
	return stablePositionSorter(make([]int, len(s)))
}

func (s stablePositionSorter) Len() int {
	return len(s)
}

func (s stablePositionSorter) Less(i, j int) bool {
	return s[i] < s[j]
}

func (s stablePositionSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stablePositionSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ReadFragments parses all reads of a WIF file, in file order. Files
// ending in .gz are decompressed on the fly.
func ReadFragments(filename string) ([]*Fragment, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var in io.Reader = f
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		in = gz
	}
	var fragments []*Fragment
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fragment, err := parseFragment(line, lineno)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, fragment)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// Block is a set of reads connected through shared variant positions,
// together with the ascending positions they cover. Read ids are
// assigned per block, in ascending order of start position.
type Block struct {
	Fragments []*Fragment
	Positions []int
}

// Reader returns a fresh column reader over the block.
func (b *Block) Reader(threshold int, discardWeights bool) *ColumnReader {
	return NewColumnReader(b, threshold, discardWeights)
}

// BlockReader splits the reads of a WIF file into blocks: connected
// components of reads under the relation "share at least one variant
// position". In unique mode the whole input forms a single block.
type BlockReader struct {
	blocks []*Block
	next   int
}

// NewBlockReader parses a WIF file and splits it into blocks.
func NewBlockReader(filename string, unique bool) (*BlockReader, error) {
	fragments, err := ReadFragments(filename)
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return nil, fmt.Errorf("%v contains no reads", filename)
	}
	psort.StableSort(stableFragmentSorter(fragments))
	positions := make([]int, 0, len(fragments))
	for _, fragment := range fragments {
		for _, entry := range fragment.Entries {
			positions = append(positions, entry.Position)
		}
	}
	psort.StableSort(stablePositionSorter(positions))
	universe := positions[:0]
	for i, position := range positions {
		if i == 0 || position != universe[len(universe)-1] {
			universe = append(universe, position)
		}
	}
	reader := &BlockReader{}
	if unique {
		reader.blocks = []*Block{{Fragments: fragments, Positions: universe}}
	} else {
		reader.blocks = splitBlocks(fragments, universe)
	}
	for _, block := range reader.blocks {
		for i, fragment := range block.Fragments {
			fragment.ReadID = i
		}
	}
	return reader, nil
}

// splitBlocks sweeps the start-sorted fragments and cuts a new block
// whenever a fragment starts beyond the span of the current one. Two
// reads whose spans overlap always share a column, because skipped
// positions inside a span are filled with blank entries.
func splitBlocks(fragments []*Fragment, universe []int) []*Block {
	var blocks []*Block
	var current *Block
	blockEnd := 0
	for _, fragment := range fragments {
		if current == nil || fragment.Start() > blockEnd {
			current = &Block{}
			blocks = append(blocks, current)
			blockEnd = fragment.End()
		} else if fragment.End() > blockEnd {
			blockEnd = fragment.End()
		}
		current.Fragments = append(current.Fragments, fragment)
	}
	position := 0
	for _, block := range blocks {
		last := block.Fragments[0].Start()
		for _, fragment := range block.Fragments {
			if fragment.End() > last {
				last = fragment.End()
			}
		}
		for position < len(universe) && universe[position] <= last {
			block.Positions = append(block.Positions, universe[position])
			position++
		}
	}
	return blocks
}

// HasNext returns true when the reader has another block.
func (r *BlockReader) HasNext() bool {
	return r.next < len(r.blocks)
}

// Next returns the next block in ascending position order.
func (r *BlockReader) Next() *Block {
	block := r.blocks[r.next]
	r.next++
	return block
}

// NumBlocks returns the number of blocks of the input.
func (r *BlockReader) NumBlocks() int {
	return len(r.blocks)
}

type activeFragment struct {
	fragment *Fragment
	cursor   int
}

// ColumnReader streams the columns of one block in left-to-right
// order. Positions a read spans but does not cover produce blank
// entries, like the WhatsHap column reader this is derived from.
type ColumnReader struct {
	fragments      []*Fragment
	positions      []int
	threshold      int
	discardWeights bool
	col            int
	nextFragment   int
	active         []activeFragment
}

// NewColumnReader returns a column reader over the given block that
// refuses columns covered by more than threshold reads. With
// discardWeights, all phred scores are replaced by 1.
func NewColumnReader(block *Block, threshold int, discardWeights bool) *ColumnReader {
	return &ColumnReader{
		fragments:      block.Fragments,
		positions:      block.Positions,
		threshold:      threshold,
		discardWeights: discardWeights,
	}
}

// HasNext returns true when the reader has another column.
func (r *ColumnReader) HasNext() bool {
	return r.col < len(r.positions)
}

// NumCols returns the number of variant positions of the block.
func (r *ColumnReader) NumCols() int {
	return len(r.positions)
}

// Positions returns the ascending variant positions of the block.
func (r *ColumnReader) Positions() []int {
	return r.positions
}

// Next returns the next column. Active entries are listed in
// ascending read id order, which the fragment sort guarantees.
func (r *ColumnReader) Next() (Column, error) {
	position := r.positions[r.col]
	for r.nextFragment < len(r.fragments) && r.fragments[r.nextFragment].Start() <= position {
		r.active = append(r.active, activeFragment{fragment: r.fragments[r.nextFragment]})
		r.nextFragment++
	}
	column := make(Column, 0, len(r.active))
	keep := r.active[:0]
	for i := range r.active {
		a := r.active[i]
		if a.fragment.End() < position {
			continue
		}
		if len(column) >= r.threshold {
			return nil, &CoverageError{Column: r.col + 1, Position: position, Maximum: r.threshold}
		}
		if entry := a.fragment.Entries[a.cursor]; entry.Position == position {
			phred := entry.Phred
			if r.discardWeights {
				phred = 1
			}
			column = append(column, Entry{ReadID: a.fragment.ReadID, Allele: entry.Allele, Phred: phred})
			a.cursor++
		} else {
			column = append(column, Entry{ReadID: a.fragment.ReadID, Allele: Blank, Phred: 0})
		}
		if a.fragment.End() > position {
			keep = append(keep, a)
		}
	}
	r.active = keep
	r.col++
	return column, nil
}
