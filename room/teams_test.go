/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionShape(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for n := 0; n <= 17; n++ {
		for size := 1; size <= 6; size++ {
			t.Run(fmt.Sprintf("n=%d/size=%d", n, size), func(t *testing.T) {
				names := make([]string, n)
				for i := range names {
					names[i] = fmt.Sprintf("player-%d", i)
				}

				teams := partition(names, size, rng.IntN)

				require.Len(t, teams, (n+size-1)/size)

				var seen []string
				for i, team := range teams {
					if i < len(teams)-1 {
						assert.Len(t, team, size)
					} else {
						assert.LessOrEqual(t, len(team), size)
						assert.NotEmpty(t, team)
					}
					seen = append(seen, team...)
				}

				slices.Sort(seen)
				want := slices.Clone(names)
				slices.Sort(want)
				assert.Equal(t, want, seen)
			})
		}
	}
}

func TestPartitionEmpty(t *testing.T) {
	teams := partition(nil, 3, rand.IntN)

	assert.NotNil(t, teams)
	assert.Empty(t, teams)
}

func TestPartitionLeavesInputAlone(t *testing.T) {
	names := []string{"a", "b", "c", "d"}

	_ = partition(names, 2, func(n int) int { return 0 })

	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
}

func TestShuffleUsesEverySwap(t *testing.T) {
	names := []string{"a", "b", "c", "d"}

	// Always picking index 0 rotates the first element to the end.
	shuffle(names, func(n int) int { return 0 })

	assert.Equal(t, []string{"b", "c", "d", "a"}, names)
}

func TestAssignments(t *testing.T) {
	got := assignments([][]string{{"Alice", "Bob"}, {"Cara"}})

	assert.Equal(t, map[string]int{"Alice": 0, "Bob": 0, "Cara": 1}, got)
}
