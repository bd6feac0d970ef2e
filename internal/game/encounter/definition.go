package encounter

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

// Definition describes the hostile side of an encounter.
type Definition struct {
	Hostiles []npc.HostileGroup `yaml:"hostiles"`
	// HostilePositions pins hostiles by combatant id, e.g. "enemy:goblin:0".
	HostilePositions map[string]grid.Position `yaml:"hostile_positions"`
	ControlledStart  *grid.Position           `yaml:"controlled_start"`
}

// Party is the friendly side: one controlled actor and any allies.
type Party struct {
	Controlled combat.Snapshot   `yaml:"controlled"`
	Allies     []combat.Snapshot `yaml:"allies"`
}

// LoadDefinition reads an encounter definition from a YAML file.
func LoadDefinition(path string) (Definition, error) {
	var def Definition
	if err := decodeFile(path, &def); err != nil {
		return Definition{}, fmt.Errorf("encounter definition: %w", err)
	}
	if len(def.Hostiles) == 0 {
		return Definition{}, fmt.Errorf("encounter definition %s lists no hostiles: %w", path, combat.ErrInvalidEncounterDefinition)
	}
	return def, nil
}

// LoadParty reads the controlled actor and allies from a YAML file.
func LoadParty(path string) (Party, error) {
	var p Party
	if err := decodeFile(path, &p); err != nil {
		return Party{}, fmt.Errorf("party: %w", err)
	}
	return p, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
