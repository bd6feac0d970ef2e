package condition

// AttackModifier returns the net attack-roll modifier of all active
// conditions, multiplied by stacks. A nil set contributes nothing.
func AttackModifier(s *ActiveSet) int {
	if s == nil {
		return 0
	}
	total := 0
	for _, ac := range s.conditions {
		total += ac.Def.AttackModifier * ac.Stacks
	}
	return total
}

// ACModifier returns the net armor modifier of all active conditions,
// multiplied by stacks. A nil set contributes nothing.
func ACModifier(s *ActiveSet) int {
	if s == nil {
		return 0
	}
	total := 0
	for _, ac := range s.conditions {
		total += ac.Def.ACModifier * ac.Stacks
	}
	return total
}

// IsRestricted reports whether class ("action" or "movement") is blocked
// by any active condition.
func IsRestricted(s *ActiveSet, class string) bool {
	if s == nil {
		return false
	}
	for _, ac := range s.conditions {
		for _, r := range ac.Def.RestrictActions {
			if r == class {
				return true
			}
		}
	}
	return false
}
