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
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/hapcol/mec"
	"github.com/exascience/hapcol/wif"
)

// PhaseHelp is the help string for the phase command.
const PhaseHelp = "phase parameters:\n" +
	"hapcol [phase] -i/--input wif-file -o/--haplotypes output-file\n" +
	"[-u/--discard-weights]\n" +
	"[-x/--no-ambiguous]\n" +
	"[-e/--error-rate rate]\n" +
	"[-a/--alpha significance]\n" +
	"[-A/--all-heterozygous]\n" +
	"[-U/--unique]\n" +
	"[-b/--balance-ratio ratio]\n" +
	"[--log-path path]\n" +
	"[--timed]\n"

// Phase implements the hapcol phase command. It reads a WIF file,
// solves the k-constrained minimum error correction problem per
// block, and writes the two haplotypes.
func Phase(argsFrom int) error {
	var input, output, logPath string
	var discardWeights, noAmbiguous, allHeterozygous, unique, timed bool
	var errorRate, alpha, balanceRatio float64

	var flags flag.FlagSet
	flags.StringVar(&input, "i", "", "WIF input file")
	flags.StringVar(&input, "input", "", "WIF input file")
	flags.StringVar(&output, "o", "", "haplotype output file")
	flags.StringVar(&output, "haplotypes", "", "haplotype output file")
	flags.BoolVar(&discardWeights, "u", false, "treat all weights as 1")
	flags.BoolVar(&discardWeights, "discard-weights", false, "treat all weights as 1")
	flags.BoolVar(&noAmbiguous, "x", false, "do not mark ambiguous positions with X")
	flags.BoolVar(&noAmbiguous, "no-ambiguous", false, "do not mark ambiguous positions with X")
	flags.Float64Var(&errorRate, "e", 0.05, "per-read error rate")
	flags.Float64Var(&errorRate, "error-rate", 0.05, "per-read error rate")
	flags.Float64Var(&alpha, "a", 0.01, "significance of the correction bound")
	flags.Float64Var(&alpha, "alpha", 0.01, "significance of the correction bound")
	flags.BoolVar(&allHeterozygous, "A", false, "disable the homozygous branch")
	flags.BoolVar(&allHeterozygous, "all-heterozygous", false, "disable the homozygous branch")
	flags.BoolVar(&unique, "U", false, "treat the input as a single block")
	flags.BoolVar(&unique, "unique", false, "treat the input as a single block")
	flags.Float64Var(&balanceRatio, "b", -1, "minimum minority fraction per haplotype; requires -A")
	flags.Float64Var(&balanceRatio, "balance-ratio", -1, "minimum minority fraction per haplotype; requires -A")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&timed, "timed", false, "time the phasing")

	parseFlags(flags, argsFrom, PhaseHelp)

	sanity := true
	if !checkExist("--input", input) {
		sanity = false
	}
	if !checkCreate("--haplotypes", output) {
		sanity = false
	}
	if errorRate < 0 || errorRate > 1 {
		log.Printf("Error: Invalid error rate %v, must be in [0, 1].\n", errorRate)
		sanity = false
	}
	if alpha < 0 || alpha > 1 {
		log.Printf("Error: Invalid alpha %v, must be in [0, 1].\n", alpha)
		sanity = false
	}
	balanced := balanceRatio >= 0
	if balanced {
		if balanceRatio > 0.5 {
			log.Printf("Error: Invalid balance ratio %v, must be in [0, 0.5].\n", balanceRatio)
			sanity = false
		}
		if !allHeterozygous {
			log.Println("Error: The --balance-ratio option requires --all-heterozygous.")
			sanity = false
		}
	}
	if !sanity {
		fmt.Fprint(os.Stderr, PhaseHelp)
		os.Exit(1)
	}

	setLogOutput(logPath)

	log.Println("Arguments:")
	log.Println("Input filename:", input)
	log.Println("Haplotype filename:", output)
	log.Println("Discard weights?", discardWeights)
	log.Println("Do not add X's?", noAmbiguous)
	log.Println("Error rate:", errorRate)
	log.Println("Alpha:", alpha)
	log.Println("All heterozygous?", allHeterozygous)
	log.Println("Unique block?", unique)
	if balanced {
		log.Println("Balance ratio:", balanceRatio)
	}

	opts := mec.Options{
		ErrorRate:       errorRate,
		Alpha:           alpha,
		Unweighted:      discardWeights,
		AllHeterozygous: allHeterozygous,
		Balanced:        balanced,
		BalanceRatio:    balanceRatio,
	}
	ks := mec.NewKTable(errorRate, alpha)

	blocks, err := wif.NewBlockReader(input, unique)
	if err != nil {
		return err
	}
	log.Println("Number of blocks:", blocks.NumBlocks())

	var line1, line2 []byte
	totalCost := mec.Cost(0)

	runErr := error(nil)
	timedRun(timed, "Phasing.", func() {
		for blocks.HasNext() {
			block := blocks.Next()
			params, err := mec.ComputeParams(block.Reader(mec.MaxCoverage, discardWeights), ks)
			if err != nil {
				runErr = err
				return
			}
			solver := mec.NewSolver(params, ks, opts)
			result, err := solver.Run(block.Reader(mec.MaxCoverage, discardWeights))
			if err != nil {
				runErr = err
				return
			}
			totalCost = totalCost.Add(result.Cost)
			if noAmbiguous {
				for i := range result.Haplotype1 {
					line1 = append(line1, haploChar(result.Haplotype1[i]))
					line2 = append(line2, haploChar(result.Haplotype2[i]))
				}
			} else {
				out1, out2, err := mec.AddXs(block.Reader(mec.MaxCoverage, discardWeights),
					result.Haplotype1, result.Haplotype2, discardWeights)
				if err != nil {
					runErr = err
					return
				}
				line1 = append(line1, out1...)
				line2 = append(line2, out2...)
			}
		}
	})
	if runErr != nil {
		return runErr
	}

	log.Println("Optimal cost:", totalCost)

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "%s\n%s\n", line1, line2); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func haploChar(one bool) byte {
	if one {
		return '1'
	}
	return '0'
}
