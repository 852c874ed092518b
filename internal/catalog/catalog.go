package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meltforce/liftlog/internal/models"
)

//go:embed exercises.json
var exercisesJSON []byte

// Catalog is the read-only exercise reference dataset, loaded once at startup.
type Catalog struct {
	exercises []models.ExerciseRef
	byID      map[string]*models.ExerciseRef
}

// Load parses the bundled exercise dataset.
func Load() (*Catalog, error) {
	var exercises []models.ExerciseRef
	if err := json.Unmarshal(exercisesJSON, &exercises); err != nil {
		return nil, fmt.Errorf("parsing exercise dataset: %w", err)
	}

	c := &Catalog{
		exercises: exercises,
		byID:      make(map[string]*models.ExerciseRef, len(exercises)),
	}
	for i := range c.exercises {
		c.byID[c.exercises[i].ID] = &c.exercises[i]
	}
	return c, nil
}

// FindByID returns the exercise with the given id, or nil if unknown.
func (c *Catalog) FindByID(id string) *models.ExerciseRef {
	return c.byID[id]
}

// All returns every exercise in catalog order.
func (c *Catalog) All() []models.ExerciseRef {
	return c.exercises
}

// Search filters by name substring and/or body-part tag, both optional and
// case-insensitive.
func (c *Catalog) Search(query, bodyPart string) []models.ExerciseRef {
	query = strings.ToLower(strings.TrimSpace(query))
	bodyPart = strings.ToLower(strings.TrimSpace(bodyPart))

	var result []models.ExerciseRef
	for _, ex := range c.exercises {
		if query != "" && !strings.Contains(strings.ToLower(ex.Name), query) {
			continue
		}
		if bodyPart != "" && !hasTag(ex.BodyParts, bodyPart) {
			continue
		}
		result = append(result, ex)
	}
	return result
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// cardioNameHints mark an exercise as cardio by name alone, independent of tags.
var cardioNameHints = []string{"run", "treadmill", "cardio", "esteira", "corrida"}

// IsCardio reports whether an exercise should be seeded with a single set
// instead of the usual three. Heuristic: a "cardio" body-part tag, or a name
// containing any of the known cardio substrings.
func IsCardio(ex models.ExerciseRef) bool {
	if hasTag(ex.BodyParts, "cardio") {
		return true
	}
	name := strings.ToLower(ex.Name)
	for _, hint := range cardioNameHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}
