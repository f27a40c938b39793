// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package smiles

import (
	"slices"
	"sort"
)

// rankAtoms assigns every atom a distinct rank. Initial classes come from
// atom invariants and are refined by neighbour ranks and stereo labels
// until stable. Remaining ties are broken by promoting the lowest-indexed
// atom of the first tied class.
func rankAtoms(m *Molecule, adj [][]edge) []int {
	n := len(m.Atoms)
	keys := make([][]int, n)
	for i, a := range m.Atoms {
		arom := 0
		if a.Aromatic {
			arom = 1
		}
		keys[i] = []int{len(adj[i]), atomicNumbers[a.Element], a.Isotope, a.Charge, a.HCount, arom, a.Class}
	}
	ranks := refineStereo(m, rankKeys(keys), adj)
	for distinct(ranks) < n {
		ranks = refineStereo(m, breakTie(ranks), adj)
	}
	return ranks
}

// refineStereo refines by neighbour ranks, then splits classes whose
// stereocentres differ in handedness, until neither step splits a class.
// This is what separates the mirror-image halves of a meso molecule.
func refineStereo(m *Molecule, ranks []int, adj [][]edge) []int {
	ranks = refine(ranks, adj)
	for {
		keys := make([][]int, len(ranks))
		for i, a := range m.Atoms {
			keys[i] = []int{ranks[i], stereoLabel(a, ranks)}
		}
		next := rankKeys(keys)
		if distinct(next) == distinct(ranks) {
			return ranks
		}
		ranks = refine(next, adj)
	}
}

// stereoLabel is the atom's chirality restated with its neighbours in rank
// order, or 0 when the atom has no chirality or two neighbours share a rank.
func stereoLabel(a *Atom, ranks []int) int {
	if a.Chirality == ChiralNone {
		return 0
	}
	rank := func(v int) int {
		if v == ImplicitH {
			return -1
		}
		return ranks[v]
	}
	byRank := slices.Clone(a.Stereo)
	sort.Slice(byRank, func(i, j int) bool { return rank(byRank[i]) < rank(byRank[j]) })
	for k := 1; k < len(byRank); k++ {
		if rank(byRank[k-1]) == rank(byRank[k]) {
			return 0
		}
	}
	c := a.Chirality
	if odd(a.Stereo, byRank) {
		c = c.flip()
	}
	return int(c)
}

func refine(ranks []int, adj [][]edge) []int {
	classes := distinct(ranks)
	for {
		keys := make([][]int, len(ranks))
		for i := range ranks {
			nb := make([]int, 0, len(adj[i]))
			for _, e := range adj[i] {
				nb = append(nb, ranks[e.to]*8+int(e.bond.Order))
			}
			sort.Ints(nb)
			keys[i] = append([]int{ranks[i]}, nb...)
		}
		next := rankKeys(keys)
		c := distinct(next)
		if c == classes {
			return next
		}
		ranks, classes = next, c
	}
}

func breakTie(ranks []int) []int {
	counts := make(map[int]int)
	for _, r := range ranks {
		counts[r]++
	}
	tied := -1
	for r, c := range counts {
		if c > 1 && (tied < 0 || r < tied) {
			tied = r
		}
	}
	keys := make([][]int, len(ranks))
	promoted := false
	for i, r := range ranks {
		k := 2 * r
		if r == tied && !promoted {
			k--
			promoted = true
		}
		keys[i] = []int{k}
	}
	return rankKeys(keys)
}

// rankKeys maps each key to its position among the distinct sorted keys.
func rankKeys(keys [][]int) []int {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return slices.Compare(keys[idx[a]], keys[idx[b]]) < 0
	})
	ranks := make([]int, len(keys))
	r := 0
	for k, i := range idx {
		if k > 0 && slices.Compare(keys[idx[k-1]], keys[i]) != 0 {
			r++
		}
		ranks[i] = r
	}
	return ranks
}

func distinct(ranks []int) int {
	seen := make(map[int]struct{}, len(ranks))
	for _, r := range ranks {
		seen[r] = struct{}{}
	}
	return len(seen)
}
