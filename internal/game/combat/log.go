package combat

// Category classifies a log entry for presentation.
type Category string

const (
	CategoryCombatStart Category = "combat-start"
	CategoryInitiative  Category = "initiative"
	CategoryAttackHit   Category = "attack-hit"
	CategoryAttackMiss  Category = "attack-miss"
	CategoryCritical    Category = "critical"
	CategorySpellHit    Category = "spell-hit"
	CategoryDeath       Category = "death"
	CategoryVictory     Category = "victory"
	CategoryDefeat      Category = "defeat"
	CategoryMovement    Category = "movement"
	CategoryHeal        Category = "heal"
)

// LogEntry is one human-readable line of the encounter log.
type LogEntry struct {
	Text     string
	Category Category
}
