package allocation

import (
	"fmt"
	"testing"

	"github.com/padaria-next/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcts(values map[uint]string) map[uint]decimal.Decimal {
	out := make(map[uint]decimal.Decimal, len(values))
	for id, value := range values {
		out[id] = decimal.RequireFromString(value)
	}
	return out
}

func TestAllocateSplitsByLargestRemainder(t *testing.T) {
	result, err := Allocate(pcts(map[uint]string{1: "60", 2: "40"}), 7, []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 4, 2: 3}, result.Quantities)
	assert.True(t, result.Balanced)
	assert.Empty(t, result.Warning)
	assert.Equal(t, 7, result.Total())
}

func TestAllocateTieBreaksByOrderPosition(t *testing.T) {
	percentages := pcts(map[uint]string{1: "33.3333", 2: "33.3333", 3: "33.3334"})

	result, err := Allocate(percentages, 10, []uint{3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Total())
	assert.Equal(t, map[uint]int{1: 3, 2: 3, 3: 4}, result.Quantities)

	result, err = Allocate(pcts(map[uint]string{1: "50", 2: "50"}), 3, []uint{2, 1})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 1, 2: 2}, result.Quantities)
}

func TestAllocateSumInvariant(t *testing.T) {
	configs := []map[uint]string{
		{1: "60", 2: "40"},
		{1: "33.3333", 2: "33.3333", 3: "33.3334"},
		{1: "12.5", 2: "12.5", 3: "25", 4: "50"},
		{1: "99.99", 2: "0.01"},
		{1: "10", 2: "20", 3: "30", 4: "15", 5: "25"},
		{1: "100"},
	}
	for i, config := range configs {
		percentages := pcts(config)
		for total := 0; total <= 257; total++ {
			result, err := Allocate(percentages, total, nil)
			require.NoError(t, err)
			assert.Equal(t, total, result.Total(), "config %d total %d", i, total)
			for id, qty := range result.Quantities {
				assert.GreaterOrEqual(t, qty, 0, "config %d product %d", i, id)
			}
		}
	}
}

func TestAllocateIsDeterministic(t *testing.T) {
	percentages := pcts(map[uint]string{4: "25", 1: "25", 3: "25", 2: "25"})
	first, err := Allocate(percentages, 3, []uint{4, 3, 2, 1})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Allocate(percentages, 3, []uint{4, 3, 2, 1})
		require.NoError(t, err)
		assert.Equal(t, first.Quantities, again.Quantities)
	}
	assert.Equal(t, map[uint]int{4: 1, 3: 1, 2: 1, 1: 0}, first.Quantities)
}

func TestAllocateNormalizesUnbalancedPercentages(t *testing.T) {
	result, err := Allocate(pcts(map[uint]string{1: "30", 2: "20"}), 10, []uint{1, 2})
	require.NoError(t, err)
	assert.False(t, result.Balanced)
	assert.Contains(t, result.Warning, "sum to 50")
	assert.Equal(t, map[uint]int{1: 6, 2: 4}, result.Quantities)
}

func TestAllocateZeroTotal(t *testing.T) {
	result, err := Allocate(pcts(map[uint]string{1: "60", 2: "40"}), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 0, 2: 0}, result.Quantities)
}

func TestAllocateErrors(t *testing.T) {
	_, err := Allocate(pcts(map[uint]string{1: "100"}), -1, nil)
	assert.ErrorIs(t, err, ErrNegativeTotal)

	_, err = Allocate(pcts(map[uint]string{1: "101"}), 5, nil)
	assert.ErrorIs(t, err, ErrPercentageOutOfRange)

	_, err = Allocate(pcts(map[uint]string{1: "0", 2: "0"}), 5, nil)
	assert.ErrorIs(t, err, ErrNoAllocableProducts)

	_, err = Allocate(map[uint]decimal.Decimal{}, 5, nil)
	assert.ErrorIs(t, err, ErrNoAllocableProducts)
}

func TestAllocateZeroPercentageGetsNothing(t *testing.T) {
	result, err := Allocate(pcts(map[uint]string{1: "0", 2: "100"}), 9, []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 0, 2: 9}, result.Quantities)
}

func TestSortProductsByCategoryNameID(t *testing.T) {
	paes := &models.Category{ID: 1, SortOrder: 2}
	doces := &models.Category{ID: 2, SortOrder: 1}
	products := []models.Product{
		{ID: 5, Name: "Sem categoria"},
		{ID: 4, Name: "pão francês", Category: paes},
		{ID: 3, Name: "Broa", Category: paes},
		{ID: 2, Name: "Sonho", Category: doces},
		{ID: 1, Name: "Broa", Category: paes},
	}

	assert.Equal(t, []uint{2, 1, 3, 4, 5}, ProductOrder(products))
	assert.Equal(t, uint(5), products[0].ID, "input slice must not be reordered")
}

func ExampleAllocate() {
	result, _ := Allocate(map[uint]decimal.Decimal{
		1: decimal.NewFromInt(60),
		2: decimal.NewFromInt(40),
	}, 7, []uint{1, 2})
	fmt.Println(result.Quantities[1], result.Quantities[2])
	// Output: 4 3
}
