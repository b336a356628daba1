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

// hapcol assembles the two haplotypes of a single individual from
// long sequencing reads, by solving the k-constrained weighted
// minimum error correction problem column by column.
//
// Please see https://github.com/exascience/hapcol for a documentation
// of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/hapcol/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: phase, bam-to-wif")
	fmt.Fprint(os.Stderr, "\n", cmd.PhaseHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.BamToWifHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "phase":
		err = cmd.Phase(2)
	case "bam-to-wif":
		err = cmd.BamToWif()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		err = cmd.Phase(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
