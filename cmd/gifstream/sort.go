package main

import (
	"sort"

	"github.com/maruel/natural"
)

// sortedNaturally returns a copy of paths ordered so that embedded numbers
// compare by value: frame2.png comes before frame10.png.
func sortedNaturally(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.SliceStable(out, func(i, j int) bool { return natural.Less(out[i], out[j]) })
	return out
}
