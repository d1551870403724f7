// htstools: streaming statistics, filtering and interval comparison
// for high-throughput sequencing files.
// Copyright (c) 2026 imec vzw.

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
// <https://github.com/ExaScience/htstools/blob/master/LICENSE.txt>.

package intervals

import (
	"context"

	"github.com/exascience/pargo/pipeline"
)

// JaccardResult compares two interval collections by the number of
// positions they cover.
type JaccardResult struct {
	A, B         string
	Intersection int64
	Union        int64
	// Ratio is Intersection/Union, and 0 when Union is 0.
	Ratio float64
}

// Jaccard computes the Jaccard coefficient of two indexed collections.
// Per contig present in either collection, the intersection is the
// overlap of both flattened interval lists and the union is the length
// of their merge. The totals are summed over all contigs.
func Jaccard(a, b *Index) JaccardResult {
	result := JaccardResult{A: a.Name, B: b.Name}
	for contig, ca := range a.contigs {
		lengthA := TotalLength(ca.flattened)
		if cb := b.contigs[contig]; cb != nil {
			intersection := IntersectionLength(ca.flattened, cb.flattened)
			result.Intersection += intersection
			result.Union += lengthA + TotalLength(cb.flattened) - intersection
		} else {
			result.Union += lengthA
		}
	}
	for contig, cb := range b.contigs {
		if a.contigs[contig] == nil {
			result.Union += TotalLength(cb.flattened)
		}
	}
	if result.Union > 0 {
		result.Ratio = float64(result.Intersection) / float64(result.Union)
	}
	return result
}

// A ResultWriter receives Jaccard results one at a time.
type ResultWriter interface {
	Write(result JaccardResult) error
}

type pair struct {
	i, j int
}

// pairSource is a pipeline.Source that enumerates all pairs (i, j) with
// 0 <= i < j < n in lexicographic order.
type pairSource struct {
	n, i, j int
	data    []pair
}

func newPairSource(n int) *pairSource {
	return &pairSource{n: n, i: 0, j: 1}
}

func (src *pairSource) Err() error {
	return nil
}

func (src *pairSource) Prepare(_ context.Context) int {
	return src.n * (src.n - 1) / 2
}

func (src *pairSource) Fetch(size int) (fetched int) {
	src.data = make([]pair, 0, size)
	for len(src.data) < size && src.i < src.n-1 {
		src.data = append(src.data, pair{src.i, src.j})
		if src.j++; src.j == src.n {
			src.i++
			src.j = src.i + 1
		}
	}
	return len(src.data)
}

func (src *pairSource) Data() interface{} {
	return src.data
}

// AllPairs computes the Jaccard coefficient for every unordered pair of
// indexes. Pairs are computed in parallel, and handed to out one at a
// time in lexicographic order of their positions in indexes, as soon as
// all earlier pairs are written. Fewer than two indexes produce no
// results.
func AllPairs(indexes []*Index, out ResultWriter) error {
	if len(indexes) < 2 {
		return nil
	}
	var p pipeline.Pipeline
	p.Source(newPairSource(len(indexes)))
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			pairs := data.([]pair)
			results := make([]JaccardResult, len(pairs))
			for k, pr := range pairs {
				results[k] = Jaccard(indexes[pr.i], indexes[pr.j])
			}
			return results
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, result := range data.([]JaccardResult) {
				if err := out.Write(result); err != nil {
					p.SetErr(err)
					break
				}
			}
			return nil
		})),
	)
	p.Run()
	return p.Err()
}
