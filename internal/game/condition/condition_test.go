package condition_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

func stunned() *condition.ConditionDef {
	return &condition.ConditionDef{ID: "stunned", Name: "Stunned", DurationType: condition.DurationRounds, RestrictActions: []string{"action", "movement"}}
}

func weakened() *condition.ConditionDef {
	return &condition.ConditionDef{ID: "weakened", Name: "Weakened", DurationType: condition.DurationRounds, MaxStacks: 3, AttackModifier: -1}
}

func shielded() *condition.ConditionDef {
	return &condition.ConditionDef{ID: "shielded", Name: "Shielded", DurationType: condition.DurationPermanent, ACModifier: 2}
}

func TestActiveSet_Apply_Unstackable(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(stunned(), 3, 1))
	assert.True(t, s.Has("stunned"))
	assert.Equal(t, 1, s.Stacks("stunned"))
}

func TestActiveSet_Apply_StacksCapped(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(weakened(), 2, 2))
	require.NoError(t, s.Apply(weakened(), 2, 1))
	assert.Equal(t, 3, s.Stacks("weakened"))
}

func TestActiveSet_Apply_NilDef(t *testing.T) {
	s := condition.NewActiveSet()
	assert.Error(t, s.Apply(nil, 1, 1))
}

func TestActiveSet_Tick_Expires(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(stunned(), 1, 2))
	require.NoError(t, s.Apply(shielded(), 1, 0))
	assert.Empty(t, s.Tick())
	assert.Equal(t, []string{"stunned"}, s.Tick())
	assert.False(t, s.Has("stunned"))
	assert.True(t, s.Has("shielded"))
}

func TestActiveSet_Reapply_KeepsLongerDuration(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(weakened(), 1, 3))
	require.NoError(t, s.Apply(weakened(), 1, 1))
	s.Tick()
	s.Tick()
	assert.True(t, s.Has("weakened"))
	assert.Equal(t, []string{"weakened"}, s.Tick())
}

func TestActiveSet_Clone_Independent(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(weakened(), 1, 3))
	cp := s.Clone()
	s.Remove("weakened")
	assert.True(t, cp.Has("weakened"))
	assert.Equal(t, []string{"weakened"}, cp.IDs())
}

func TestModifiers(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(weakened(), 2, 3))
	require.NoError(t, s.Apply(shielded(), 1, 0))
	assert.Equal(t, -2, condition.AttackModifier(s))
	assert.Equal(t, 2, condition.ACModifier(s))
	assert.False(t, condition.IsRestricted(s, "action"))
	require.NoError(t, s.Apply(stunned(), 1, 1))
	assert.True(t, condition.IsRestricted(s, "movement"))
}

func TestModifiers_NilSet(t *testing.T) {
	assert.Equal(t, 0, condition.AttackModifier(nil))
	assert.Equal(t, 0, condition.ACModifier(nil))
	assert.False(t, condition.IsRestricted(nil, "action"))
}

func TestDef_IsBuff(t *testing.T) {
	assert.True(t, shielded().IsBuff())
	assert.False(t, weakened().IsBuff())
}

func TestDef_Validate(t *testing.T) {
	assert.NoError(t, stunned().Validate())
	bad := &condition.ConditionDef{ID: "x", Name: "X", DurationType: "until_save"}
	assert.Error(t, bad.Validate())
	assert.Error(t, (&condition.ConditionDef{Name: "X", DurationType: "rounds"}).Validate())
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	body := "id: slowed\nname: Slowed\nduration_type: rounds\nrestrict_actions: [movement]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slowed.yaml"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	reg, err := condition.LoadDirectory(dir)
	require.NoError(t, err)
	def, ok := reg.Get("slowed")
	require.True(t, ok)
	assert.Equal(t, []string{"movement"}, def.RestrictActions)
	assert.Len(t, reg.All(), 1)
}

func TestLoadDirectory_RejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	body := "id: slowed\nname: Slowed\nduration_type: rounds\nlua_on_apply: boom\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slowed.yaml"), []byte(body), 0o644))
	_, err := condition.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestProperty_StacksNeverExceedMax(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := condition.NewActiveSet()
		n := rapid.IntRange(1, 10).Draw(rt, "applications")
		for i := 0; i < n; i++ {
			stacks := rapid.IntRange(0, 5).Draw(rt, "stacks")
			require.NoError(rt, s.Apply(weakened(), stacks, 2))
		}
		assert.LessOrEqual(rt, s.Stacks("weakened"), 3)
		assert.GreaterOrEqual(rt, s.Stacks("weakened"), 1)
	})
}
