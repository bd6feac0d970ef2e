package dice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// seqSrc replays a fixed sequence of Intn results.
type seqSrc struct {
	vals []int
	i    int
}

func (s *seqSrc) Intn(_ int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, 12, r.Total())
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{Expression: "1d6+2", Dice: []int{4}, Modifier: 2}
	assert.Equal(t, "1d6+2 → [4] +2 = 6", r.String())
}

func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}}
	assert.Panics(t, func() { _ = r.String() })
}

func TestParse_Forms(t *testing.T) {
	cases := []struct {
		in       string
		count    int
		sides    int
		modifier int
	}{
		{"d20", 1, 20, 0},
		{"1d6", 1, 6, 0},
		{"2d6+3", 2, 6, 3},
		{"1d8-1", 1, 8, -1},
		{"1D4 + 1", 1, 4, 1},
		{"4", 0, 0, 4},
		{"-1", 0, 0, -1},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			e, err := dice.Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.count, e.Count)
			assert.Equal(t, tc.sides, e.Sides)
			assert.Equal(t, tc.modifier, e.Modifier)
			assert.Equal(t, tc.count == 0, e.IsFixed())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "d", "0d6", "2d1", "xd6", "1d6+x", "abc"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nope") })
}

func TestRoll_UsesEachDieIndependently(t *testing.T) {
	src := &seqSrc{vals: []int{0, 5, 2}}
	r := dice.Roll(dice.MustParse("3d6+1"), src)
	assert.Equal(t, []int{1, 6, 3}, r.Dice)
	assert.Equal(t, 11, r.Total())
}

func TestRoll_FixedRollsNothing(t *testing.T) {
	src := &seqSrc{vals: []int{3}}
	r := dice.Roll(dice.MustParse("5"), src)
	assert.Empty(t, r.Dice)
	assert.Equal(t, 5, r.Total())
	assert.Equal(t, 0, src.i)
}

func TestRoll_Property_InRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		e := dice.Expression{Raw: "x", Count: count, Sides: sides}
		r := dice.Roll(e, dice.NewSeededSource(rapid.Int64().Draw(rt, "seed")))
		require.Len(rt, r.Dice, count)
		for _, d := range r.Dice {
			assert.GreaterOrEqual(rt, d, 1)
			assert.LessOrEqual(rt, d, sides)
		}
	})
}

func TestSeededSource_Reproducible(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestD20_Range(t *testing.T) {
	assert.Equal(t, 1, dice.D20(&seqSrc{vals: []int{0}}))
	assert.Equal(t, 20, dice.D20(&seqSrc{vals: []int{19}}))
}

func TestRoller_LogsRolls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	roller := dice.NewLoggedRoller(&seqSrc{vals: []int{3}}, zap.New(core))

	res, err := roller.RollExpr("1d6+2")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Total())
	assert.Equal(t, 4, roller.D20("attack"))

	require.Equal(t, 2, logs.Len())
	assert.True(t, strings.Contains(logs.All()[0].Message, "dice roll"))

	_, err = roller.RollExpr("bogus")
	assert.Error(t, err)
}
