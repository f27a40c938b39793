// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package smiles

// atomicNumbers covers the elements that appear in monomer libraries and
// common small-molecule SMILES. "*" sorts before every element.
var atomicNumbers = map[string]int{
	"*": 0,
	"H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8, "F": 9, "Ne": 10,
	"Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15, "S": 16, "Cl": 17, "Ar": 18,
	"K": 19, "Ca": 20, "Sc": 21, "Ti": 22, "V": 23, "Cr": 24, "Mn": 25, "Fe": 26,
	"Co": 27, "Ni": 28, "Cu": 29, "Zn": 30, "Ga": 31, "Ge": 32, "As": 33, "Se": 34,
	"Br": 35, "Kr": 36, "Rb": 37, "Sr": 38, "Y": 39, "Zr": 40, "Nb": 41, "Mo": 42,
	"Tc": 43, "Ru": 44, "Rh": 45, "Pd": 46, "Ag": 47, "Cd": 48, "In": 49, "Sn": 50,
	"Sb": 51, "Te": 52, "I": 53, "Xe": 54, "Cs": 55, "Ba": 56, "La": 57, "Gd": 64,
	"Lu": 71, "Hf": 72, "Ta": 73, "W": 74, "Re": 75, "Os": 76, "Ir": 77, "Pt": 78,
	"Au": 79, "Hg": 80, "Tl": 81, "Pb": 82, "Bi": 83,
}

// organicValences lists the normal valences of the organic subset, used to
// derive implicit hydrogens.
var organicValences = map[string][]int{
	"B":  {3},
	"C":  {4},
	"N":  {3, 5},
	"O":  {2},
	"P":  {3, 5},
	"S":  {2, 4, 6},
	"F":  {1},
	"Cl": {1},
	"Br": {1},
	"I":  {1},
	"*":  {0},
}

// aromaticSymbols maps lowercase aromatic symbols to their element.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
	"se": "Se", "as": "As",
}

// organicAromatic lists the aromatic symbols allowed outside brackets.
var organicAromatic = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
}

func isElement(sym string) bool {
	_, ok := atomicNumbers[sym]
	return ok
}

// implicitHydrogens returns the hydrogens an organic-subset atom carries
// given the summed valence of its bonds. Aromatic atoms only fill their
// lowest valence, less one for the ring's pi bond.
func implicitHydrogens(a *Atom, bondSum int) int {
	valences, ok := organicValences[a.Element]
	if !ok {
		return 0
	}
	if a.Aromatic {
		if v := valences[0] - bondSum - 1; v > 0 {
			return v
		}
		return 0
	}
	for _, v := range valences {
		if v >= bondSum {
			return v - bondSum
		}
	}
	return 0
}
