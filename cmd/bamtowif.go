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

package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/exascience/hapcol/internal"
)

// BamToWifHelp is the help string for this command.
const BamToWifHelp = "bam-to-wif parameters:\n" +
	"hapcol bam-to-wif bam-file variants-file wif-file\n" +
	"[--min-mapq quality]\n" +
	"[--log-path path]\n"

// variantSite is one biallelic SNP: a 1-based position with its
// reference and alternative base.
type variantSite struct {
	pos      int
	ref, alt byte
}

// BamToWif implements the hapcol bam-to-wif command. It reads a BAM
// file and a variants file (one `position ref alt` triple per line)
// and writes one WIF line per read that covers at least two variants.
func BamToWif() error {
	var logPath string
	var minMapQ int

	var flags flag.FlagSet
	flags.IntVar(&minMapQ, "min-mapq", 0, "skip reads below this mapping quality")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 5, BamToWifHelp)

	bamFile := getFilename(os.Args[2], BamToWifHelp)
	variantFile := getFilename(os.Args[3], BamToWifHelp)
	wifFile := getFilename(os.Args[4], BamToWifHelp)

	setLogOutput(logPath)

	sites, err := readVariants(variantFile)
	if err != nil {
		return err
	}
	log.Println("Number of variant sites:", len(sites))

	f, err := os.Open(bamFile)
	if err != nil {
		return err
	}
	defer f.Close()
	reader, err := bam.NewReader(f, 1)
	if err != nil {
		return err
	}
	defer reader.Close()

	out, err := os.Create(wifFile)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)

	written := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Close()
			return err
		}
		if rec.Flags&(sam.Unmapped|sam.Secondary|sam.Supplementary|sam.Duplicate|sam.QCFail) != 0 {
			continue
		}
		if int(rec.MapQ) < minMapQ {
			continue
		}
		entries := siteEntries(rec, sites)
		if len(entries) < 2 {
			continue
		}
		fmt.Fprintf(w, "%s : # %d : u\n", strings.Join(entries, " : "), rec.MapQ)
		written++
	}
	log.Println("Number of reads written:", written)

	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// readVariants parses a variants file as produced by the companion
// variant extraction scripts: whitespace-separated
// `position ref alt` triples, one SNP per line.
func readVariants(filename string) ([]variantSite, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sites []variantSite
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		ref := strings.ToUpper(fields[1])
		alt := strings.ToUpper(fields[2])
		if len(ref) != 1 || len(alt) != 1 {
			continue
		}
		sites = append(sites, variantSite{
			pos: int(internal.ParseInt(fields[0], 10, 64)),
			ref: ref[0],
			alt: alt[0],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.Slice(sites, func(i, j int) bool {
		return sites[i].pos < sites[j].pos
	})
	return sites, nil
}

// siteEntries walks the record's CIGAR and renders a WIF entry for
// every variant site the read base matches as reference or
// alternative allele.
func siteEntries(rec *sam.Record, sites []variantSite) []string {
	seq := rec.Seq.Expand()
	refPos := rec.Pos // 0-based
	readPos := 0
	i := sort.Search(len(sites), func(i int) bool {
		return sites[i].pos > refPos
	})

	var entries []string
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i < len(sites) && sites[i].pos <= refPos+n {
				offset := sites[i].pos - 1 - refPos
				if readPos+offset >= len(seq) || readPos+offset >= len(rec.Qual) {
					i++
					continue
				}
				base := seq[readPos+offset]
				allele := -1
				if base == sites[i].ref {
					allele = 0
				} else if base == sites[i].alt {
					allele = 1
				}
				if allele >= 0 {
					entries = append(entries, fmt.Sprintf("%d %c %d %d",
						sites[i].pos, base, allele, rec.Qual[readPos+offset]))
				}
				i++
			}
			refPos += n
			readPos += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readPos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			for i < len(sites) && sites[i].pos <= refPos+n {
				i++
			}
			refPos += n
		}
	}
	return entries
}
