/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import "slices"

// shuffle is an in-place Fisher-Yates shuffle. intN must return a uniform
// value in [0, n).
func shuffle(names []string, intN func(n int) int) {
	for i := len(names) - 1; i > 0; i-- {
		j := intN(i + 1)
		names[i], names[j] = names[j], names[i]
	}
}

// partition shuffles a copy of names and slices it into consecutive teams
// of size. The last team is short when len(names) is not a multiple of size.
func partition(names []string, size int, intN func(n int) int) [][]string {
	shuffled := slices.Clone(names)
	shuffle(shuffled, intN)

	teams := make([][]string, 0, (len(shuffled)+size-1)/size)
	for chunk := range slices.Chunk(shuffled, size) {
		teams = append(teams, slices.Clone(chunk))
	}

	return teams
}

// assignments maps each display name to the index of its team. With
// duplicate names the later team wins.
func assignments(teams [][]string) map[string]int {
	out := make(map[string]int)
	for i, team := range teams {
		for _, name := range team {
			out[name] = i
		}
	}

	return out
}
