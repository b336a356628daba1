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

package mec

import (
	"fmt"
	"log"

	"github.com/exascience/hapcol/wif"
)

// Options configure a solve.
type Options struct {
	ErrorRate       float64
	Alpha           float64
	Unweighted      bool
	AllHeterozygous bool
	Balanced        bool
	BalanceRatio    float64
}

// InfeasibleError reports that some column cannot be explained within
// its correction bound.
type InfeasibleError struct {
	Column   int
	Coverage int
	K        int
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible solution: column %v with coverage %v and k %v cannot be explained", e.Column, e.Coverage, e.K)
}

// Result is the outcome of a solve over one block.
type Result struct {
	Haplotype1 []bool
	Haplotype2 []bool
	Cost       Cost
}

// Backtrace records how a heterozygous column was reached: the jump
// to the previous heterozygous anchor, the prevision index there, the
// haplotype labeling, and whether a new block starts here.
type Backtrace struct {
	Jump     int
	Index    int
	Swap     bool
	NewBlock bool
}

// Solver runs the column dynamic program over one block of reads.
// All sliding-window state lives in fixed-size ring buffers; only the
// backtrace tables grow with the number of columns.
type Solver struct {
	opts   Options
	ks     KTable
	params *Params

	window     []wif.Column
	inputPtr   int
	indexerPtr int
	forw, back [][]int
	kJ         []int
	homoCost   []int
	homoWeight []Cost

	prevision    [][][]Cost
	previsionPtr int
	opt          []Cost
	optPtr       int

	backtrace    [][][]Backtrace
	isHomozygous []bool
	homoZero     []bool
	bestHet      []Backtrace

	gen  Combinations
	bal  BalancedCombinations
	step int
	covJ int
}

// NewSolver allocates all solver state for the given window geometry.
func NewSolver(params *Params, ks KTable, opts Options) *Solver {
	maxL := params.MaxL
	windowSize := 2*(maxL-1) + 1

	s := &Solver{
		opts:       opts,
		ks:         ks,
		params:     params,
		indexerPtr: maxL - 1,
	}

	s.window = make([]wif.Column, windowSize)
	s.forw = make([][]int, windowSize)
	s.back = make([][]int, windowSize)
	s.kJ = make([]int, windowSize)
	s.homoCost = make([]int, windowSize)
	s.homoWeight = make([]Cost, windowSize)
	for i := 0; i < windowSize; i++ {
		s.window[i] = make(wif.Column, params.MaxCov)
		s.forw[i] = make([]int, params.MaxCov)
		s.back[i] = make([]int, params.MaxCov)
		for c := 0; c < params.MaxCov; c++ {
			s.window[i][c] = wif.Sentinel()
			s.forw[i][c] = -1
			s.back[i][c] = -1
		}
		s.kJ[i] = params.MaxK
		s.homoCost[i] = maxCounter
		s.homoWeight[i] = Infinity
	}

	s.prevision = make([][][]Cost, maxL)
	for d := 0; d < maxL; d++ {
		s.prevision[d] = make([][]Cost, maxL)
		for q := 0; q < maxL; q++ {
			row := make([]Cost, params.SumSuccessiveL[q])
			for x := range row {
				row[x] = Infinity
			}
			s.prevision[d][q] = row
		}
	}

	s.opt = make([]Cost, maxL+1)
	for i := range s.opt {
		s.opt[i] = Infinity
	}

	s.backtrace = make([][][]Backtrace, params.NumCols)
	for j := 0; j < params.NumCols; j++ {
		s.backtrace[j] = make([][]Backtrace, len(params.Scheme[j]))
		for q := range s.backtrace[j] {
			s.backtrace[j][q] = make([]Backtrace, params.Scheme[j][q])
		}
	}
	s.isHomozygous = make([]bool, params.NumCols)
	s.homoZero = make([]bool, params.NumCols)
	s.bestHet = make([]Backtrace, params.NumCols)

	return s
}

func ringNext(p, size, shift int) int {
	return (p + shift) % size
}

func ringPrev(p, size, shift int) int {
	return (p + size - shift) % size
}

func (s *Solver) homoFeasible(slot int) bool {
	return !s.opts.AllHeterozygous && s.homoCost[slot] <= s.kJ[slot]
}

func (s *Solver) finished(source ColumnSource) bool {
	return !source.HasNext() && s.window[ringNext(s.inputPtr, len(s.window), 1)][0].ReadID == wif.SentinelReadID
}

// Run executes the forward pass over all columns of the source and
// reconstructs the two haplotypes.
func (s *Solver) Run(source ColumnSource) (*Result, error) {
	maxL := s.params.MaxL

	// Fill the window with the synthetic empty column and the
	// following maxL-1 input columns.
	for l := 0; source.HasNext() && l < maxL; l++ {
		slot := ringNext(s.inputPtr, len(s.window), l)
		var column wif.Column
		if l > 0 {
			var err error
			column, err = source.Next()
			if err != nil {
				return nil, err
			}
		}
		if err := s.insertColumn(slot, column, l); err != nil {
			return nil, err
		}
	}

	// Base case: the empty column costs nothing.
	s.opt[s.optPtr] = 0
	s.kJ[s.inputPtr] = 0
	s.homoWeight[s.inputPtr] = 0
	s.homoCost[s.inputPtr] = 0

	currentCost := Cost(0)
	for p, hasSuccessive := 1, true; hasSuccessive; {
		slot := ringNext(s.inputPtr, len(s.window), p-1)
		feasible := p-1 == 0 || s.homoFeasible(slot)
		if p >= maxL || s.forw[s.indexerPtr+p][0] == -1 || !feasible {
			hasSuccessive = false
		} else {
			dest := ringNext(s.previsionPtr, len(s.prevision), p)
			s.prevision[dest][p][0] = currentCost
			p++
		}
	}

	solutionExistence := true
	for !s.finished(source) && solutionExistence {
		var err error
		solutionExistence, err = s.processColumn(source)
		if err != nil {
			return nil, err
		}
	}

	if !solutionExistence {
		return nil, &InfeasibleError{Column: s.step, Coverage: s.covJ, K: s.kJ[s.inputPtr]}
	}

	haplotype1, haplotype2 := s.reconstruct()
	return &Result{
		Haplotype1: haplotype1,
		Haplotype2: haplotype2,
		Cost:       s.opt[s.optPtr],
	}, nil
}

// processColumn advances the window by one column, evaluates the
// homozygous branch and all correction masks, writes previsions and
// backtrace records, and commits OPT. It returns false when the
// column has no feasible explanation.
func (s *Solver) processColumn(source ColumnSource) (bool, error) {
	maxL := s.params.MaxL
	s.step++

	var column wif.Column
	if source.HasNext() {
		var err error
		column, err = source.Next()
		if err != nil {
			return false, err
		}
	}

	// Shift the window and insert the column entering on the right.
	s.inputPtr = ringNext(s.inputPtr, len(s.window), 1)
	newSlot := ringNext(s.inputPtr, len(s.window), maxL-1)
	if err := s.insertColumn(newSlot, column, s.step+maxL-1); err != nil {
		return false, err
	}

	// Refresh the indexers towards all successive columns. Once a
	// column shares nothing with the current one, neither do the ones
	// behind it.
	for q := 1; q < maxL; q++ {
		slot := ringNext(s.inputPtr, len(s.window), q)
		intersectColumns(s.window[slot], s.window[s.inputPtr], s.forw[s.indexerPtr+q], s.back[s.indexerPtr+q])
		if s.forw[s.indexerPtr+q][0] == -1 {
			for p := q + 1; p < maxL; p++ {
				s.forw[s.indexerPtr+p][0] = -1
				s.back[s.indexerPtr+p][0] = -1
			}
			break
		}
	}

	// And towards all previous columns.
	for q := 1; q < maxL; q++ {
		slot := ringPrev(s.inputPtr, len(s.window), q)
		intersectColumns(s.window[slot], s.window[s.inputPtr], s.forw[s.indexerPtr-q], s.back[s.indexerPtr-q])
		if s.forw[s.indexerPtr-q][0] == -1 {
			for p := q + 1; p < maxL; p++ {
				s.forw[s.indexerPtr-p][0] = -1
				s.back[s.indexerPtr-p][0] = -1
			}
			break
		}
	}

	// Reset the prevision row of the column entering the window.
	s.previsionPtr = ringNext(s.previsionPtr, len(s.prevision), 1)
	newPrevision := ringNext(s.previsionPtr, len(s.prevision), maxL-1)
	lastSlot := ringNext(s.inputPtr, len(s.window), maxL-1)
	for i := 1; i < len(s.prevision[newPrevision]); i++ {
		prec := ringPrev(lastSlot, len(s.window), i)
		activeCommon := activeCommonColumns(s.window[prec], s.window[lastSlot])
		bound := cumulativeBinomial(activeCommon, s.kJ[prec])
		row := s.prevision[newPrevision][i]
		for x := 0; x < bound && x < len(row); x++ {
			row[x] = Infinity
		}
	}

	// Commit a fresh OPT slot.
	s.optPtr = ringNext(s.optPtr, len(s.opt), 1)
	s.opt[s.optPtr] = Infinity

	colj, covJ := representColumn(s.window[s.inputPtr])
	s.covJ = covJ
	kJ := s.kJ[s.inputPtr]

	solutionExistence := false

	// First option: the column is explained as homozygous. Evaluated
	// before the heterozygous branch so that ties keep the homozygous
	// explanation.
	if !s.opts.AllHeterozygous && s.homoCost[s.inputPtr] <= kJ {
		temp := s.homoWeight[s.inputPtr].Add(s.opt[ringPrev(s.optPtr, len(s.opt), 1)])
		if temp < s.opt[s.optPtr] {
			s.opt[s.optPtr] = temp
			solutionExistence = true
			s.isHomozygous[s.step] = true
		}
	}

	currentBest := Infinity

	evaluate := func(mask BitColumn) {
		currentCost := Infinity

		// The corrected column must be heterozygous.
		correctedColj := colj ^ mask
		if !correctedColj.Any() || correctedColj.Count() == covJ {
			return
		}

		var weightMask Cost
		if s.opts.Unweighted {
			weightMask = Cost(mask.Count())
		} else {
			weightMask = maskWeight(mask, s.window[s.inputPtr])
		}

		tempJump := -1
		tempIndex := 0
		tempSwap := false
		tempNewBlock := false

		// Scan the previous heterozygous anchors reachable through a
		// run of homozygous-feasible, connected columns.
		q := 1
		homoSlot := ringPrev(s.inputPtr, len(s.window), q-1)
		cumulativeHomo := Cost(0)
		feasible := true
		for hasPrevious := true; hasPrevious; {
			feasible = q-1 == 0 || s.homoFeasible(homoSlot)
			if q >= maxL || s.forw[s.indexerPtr-q][0] == -1 || !feasible {
				hasPrevious = false
			} else {
				qSlot := ringPrev(s.inputPtr, len(s.window), q)
				maskQJ, activeQJ := extractCommonMask(s.window[qSlot], s.window[s.inputPtr], mask,
					s.forw[s.indexerPtr-q], s.back[s.indexerPtr-q])

				// Same haplotype labeling at the anchor.
				if maskQJ.Count() <= s.kJ[qSlot] {
					index := cumulativeRankOf(maskQJ, activeQJ)
					temp := s.prevision[s.previsionPtr][q][index].Add(weightMask).Add(cumulativeHomo)
					if temp < currentCost {
						currentCost = temp
						solutionExistence = true
						tempJump = q
						tempIndex = index
						tempSwap = s.backtrace[s.step-q][q][index].Swap
						tempNewBlock = false
					}
				}

				// Swapped labeling.
				maskQJ = maskQJ.Complement(activeQJ)
				if maskQJ.Count() <= s.kJ[qSlot] {
					index := cumulativeRankOf(maskQJ, activeQJ)
					temp := s.prevision[s.previsionPtr][q][index].Add(weightMask).Add(cumulativeHomo)
					if temp < currentCost {
						currentCost = temp
						solutionExistence = true
						tempJump = q
						tempIndex = index
						tempSwap = !s.backtrace[s.step-q][q][index].Swap
						tempNewBlock = false
					}
				}

				q++
				homoSlot = ringPrev(s.inputPtr, len(s.window), q-1)
				cumulativeHomo = cumulativeHomo.Add(s.homoWeight[homoSlot])
			}
		}

		// Third option: this is the first heterozygous column of a
		// new block.
		if q <= maxL && feasible {
			temp := s.opt[ringPrev(s.optPtr, len(s.opt), q)].Add(weightMask).Add(cumulativeHomo)
			if temp < currentCost {
				currentCost = temp
				solutionExistence = true
				tempJump = q
				tempIndex = 0
				tempSwap = false
				tempNewBlock = true
			}
		}

		// Write a prevision for every successive column reachable
		// through a run of homozygous-feasible, connected columns.
		for p, hasSuccessive := 1, true; hasSuccessive; {
			homoSlot := ringNext(s.inputPtr, len(s.window), p-1)
			feasibleNext := p-1 == 0 || s.homoFeasible(homoSlot)
			if p >= maxL || s.forw[s.indexerPtr+p][0] == -1 || !feasibleNext {
				hasSuccessive = false
			} else {
				projected, activePJ := projectMask(mask, s.back[s.indexerPtr+p])
				index := cumulativeRankOf(projected, activePJ)
				dest := ringNext(s.previsionPtr, len(s.prevision), p)
				if currentCost < s.prevision[dest][p][index] {
					s.prevision[dest][p][index] = currentCost
					s.backtrace[s.step][p][index] = Backtrace{
						Jump:     tempJump,
						Index:    tempIndex,
						Swap:     tempSwap,
						NewBlock: tempNewBlock,
					}
				}
				p++
			}
		}

		if currentCost < currentBest {
			currentBest = currentCost
			s.bestHet[s.step] = Backtrace{
				Jump:     tempJump,
				Index:    tempIndex,
				Swap:     tempSwap,
				NewBlock: tempNewBlock,
			}
		}

		if currentCost < s.opt[s.optPtr] {
			s.opt[s.optPtr] = currentCost
			s.isHomozygous[s.step] = false
		}
	}

	if s.opts.Balanced {
		s.bal.Initialize(covJ, kJ, colj, s.opts.BalanceRatio)
		for s.bal.HasNext() {
			s.bal.Next()
			evaluate(s.bal.Combination())
		}
	} else {
		s.gen.InitializeCumulative(covJ, kJ)
		for s.gen.HasNext() {
			s.gen.Next()
			evaluate(s.gen.Combination())
		}
	}

	if s.step%500 == 0 {
		log.Printf(".:: step: %v  ==>  OPT: %v", s.step, s.opt[s.optPtr])
	}

	return solutionExistence, nil
}
