// Package sais implements a suffix-array primitive.
//
// The forward and inverse Burrows-Wheeler Transform only need a suffix array
// of the block being transformed; the algorithm used to build that array is
// not part of the compressor's design surface (see bwtc.doTransform), so
// this package implements the classic prefix-doubling (Manber-Myers)
// construction rather than the O(n) SA-IS algorithm. It trades asymptotic
// optimality for a small, easily verified implementation.
package sais

import "sort"

// ComputeSA computes the suffix array of T and places the result in SA. Both
// T and SA must have the same length. SA[i] is the starting offset of the
// i-th lexicographically smallest suffix of T.
func ComputeSA(T []byte, SA []int) {
	n := len(T)
	if len(SA) != n {
		panic("sais: mismatching sizes")
	}
	if n == 0 {
		return
	}

	rank := make([]int, n)
	tmp := make([]int, n)
	for i, b := range T {
		rank[i] = int(b)
		SA[i] = i
	}

	for k := 1; ; k *= 2 {
		key := func(i int) (int, int) {
			r1 := rank[i]
			r2 := -1
			if i+k < n {
				r2 = rank[i+k]
			}
			return r1, r2
		}
		sort.Slice(SA, func(a, b int) bool {
			a1, a2 := key(SA[a])
			b1, b2 := key(SA[b])
			if a1 != b1 {
				return a1 < b1
			}
			return a2 < b2
		})

		tmp[SA[0]] = 0
		for i := 1; i < n; i++ {
			tmp[SA[i]] = tmp[SA[i-1]]
			a1, a2 := key(SA[i-1])
			b1, b2 := key(SA[i])
			if a1 != b1 || a2 != b2 {
				tmp[SA[i]]++
			}
		}
		copy(rank, tmp)

		if rank[SA[n-1]] == n-1 {
			break
		}
	}
}
