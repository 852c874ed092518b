package history

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/models"
)

// Derived views over the history list. Everything here is a pure scan over
// the records, recomputed per request — the dataset is one person's workout
// log, not a time-series database.

// WeekComparison holds this week's totals against last week's.
type WeekComparison struct {
	Workouts        int     `json:"workouts"`
	DurationSeconds int     `json:"duration_seconds"`
	Volume          float64 `json:"volume"`

	PrevWorkouts        int     `json:"prev_workouts"`
	PrevDurationSeconds int     `json:"prev_duration_seconds"`
	PrevVolume          float64 `json:"prev_volume"`

	WorkoutsDelta float64 `json:"workouts_delta"`
	DurationDelta float64 `json:"duration_delta"`
	VolumeDelta   float64 `json:"volume_delta"`

	IsWorkoutsDown bool `json:"is_workouts_down"`
	IsDurationDown bool `json:"is_duration_down"`
	IsVolumeDown   bool `json:"is_volume_down"`
}

// startOfWeek returns Monday 00:00 of t's week. Sunday counts into the
// preceding week (ISO semantics).
func startOfWeek(t time.Time) time.Time {
	day := int(t.Weekday()) // Sunday = 0
	back := day - 1
	if day == 0 {
		back = 6
	}
	t = t.AddDate(0, 0, -back)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeeklyStats aggregates the current ISO week against the previous one.
func WeeklyStats(records []models.WorkoutHistoryRecord, now time.Time) WeekComparison {
	thisStart := startOfWeek(now)
	prevStart := thisStart.AddDate(0, 0, -7)

	var cmp WeekComparison
	for _, rec := range records {
		switch {
		case !rec.Date.Before(thisStart) && rec.Date.Before(thisStart.AddDate(0, 0, 7)):
			cmp.Workouts++
			cmp.DurationSeconds += rec.DurationSeconds
			cmp.Volume += rec.TotalVolume
		case !rec.Date.Before(prevStart) && rec.Date.Before(thisStart):
			cmp.PrevWorkouts++
			cmp.PrevDurationSeconds += rec.DurationSeconds
			cmp.PrevVolume += rec.TotalVolume
		}
	}

	cmp.WorkoutsDelta = float64(cmp.Workouts - cmp.PrevWorkouts)
	cmp.DurationDelta = float64(cmp.DurationSeconds - cmp.PrevDurationSeconds)
	cmp.VolumeDelta = cmp.Volume - cmp.PrevVolume
	cmp.IsWorkoutsDown = cmp.WorkoutsDelta < 0
	cmp.IsDurationDown = cmp.DurationDelta < 0
	cmp.IsVolumeDown = cmp.VolumeDelta < 0
	return cmp
}

// TopExercise is one entry of the weekly top-3.
type TopExercise struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SetCount int    `json:"set_count"`
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// TopExercises ranks exercises from the last 7 calendar days by completed
// set count (not occurrences) and returns the top 3, re-enriched with
// catalog media — history records do not always carry full metadata.
func TopExercises(records []models.WorkoutHistoryRecord, cat *catalog.Catalog, now time.Time) []TopExercise {
	cutoff := now.AddDate(0, 0, -7)

	counts := make(map[string]*TopExercise)
	var order []string
	for _, rec := range records {
		if rec.Date.Before(cutoff) || rec.Date.After(now) {
			continue
		}
		for _, ex := range rec.Exercises {
			entry, ok := counts[ex.ID]
			if !ok {
				entry = &TopExercise{ID: ex.ID, Name: ex.Name}
				counts[ex.ID] = entry
				order = append(order, ex.ID)
			}
			entry.SetCount += len(ex.Sets)
		}
	}

	result := make([]TopExercise, 0, len(order))
	for _, id := range order {
		result = append(result, *counts[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SetCount > result[j].SetCount
	})
	if len(result) > 3 {
		result = result[:3]
	}
	for i := range result {
		if ref := cat.FindByID(result[i].ID); ref != nil {
			result[i].ImageURL = ref.ImageURL
			result[i].VideoURL = ref.VideoURL
		}
	}
	return result
}

// muscleGroupNames is the catalog-tag → display-group normalization table,
// carried over verbatim from the original product. Yes, forearms maps to
// Bíceps; that is a product decision, not an anatomical claim.
var muscleGroupNames = map[string]string{
	"biceps":     "Bíceps",
	"forearms":   "Bíceps",
	"antebraços": "Bíceps",
	"upper arms": "Bíceps",
	"arms":       "Bíceps",

	"triceps": "Tríceps",

	"chest":     "Peito",
	"pectorals": "Peito",

	"back":       "Costas",
	"lats":       "Costas",
	"upper back": "Costas",

	"shoulders": "Ombros",
	"delts":     "Ombros",

	"abs":   "Abdômen",
	"waist": "Abdômen",
	"core":  "Abdômen",

	"quads":      "Quadríceps",
	"quadriceps": "Quadríceps",
	"legs":       "Quadríceps",
	"thighs":     "Quadríceps",

	"hamstrings": "Posterior de Coxa",
	"glutes":     "Glúteos",
	"calves":     "Panturrilha",

	"cardio": "Cardio",
}

// Generic region tags are dropped when a specific muscle from the same
// region appears in the same tag list, so one exercise never double-counts
// a region.
var (
	genericArmTags  = map[string]bool{"upper arms": true, "arms": true}
	specificArmTags = map[string]bool{"biceps": true, "triceps": true, "forearms": true, "antebraços": true}

	genericLegTags  = map[string]bool{"legs": true, "thighs": true}
	specificLegTags = map[string]bool{"quads": true, "quadriceps": true, "hamstrings": true, "glutes": true, "calves": true}
)

// muscleGroupOrder fixes the display order of the volume buckets.
var muscleGroupOrder = []string{
	"Peito", "Costas", "Ombros", "Bíceps", "Tríceps",
	"Abdômen", "Quadríceps", "Posterior de Coxa", "Glúteos", "Panturrilha", "Cardio",
}

// normalizeBodyParts maps an exercise's tags to display groups, applying the
// specific-over-generic suppression and deduplicating.
func normalizeBodyParts(tags []string) []string {
	hasSpecificArm := false
	hasSpecificLeg := false
	for _, tag := range tags {
		if specificArmTags[tag] {
			hasSpecificArm = true
		}
		if specificLegTags[tag] {
			hasSpecificLeg = true
		}
	}

	seen := make(map[string]bool)
	var groups []string
	for _, tag := range tags {
		if genericArmTags[tag] && hasSpecificArm {
			continue
		}
		if genericLegTags[tag] && hasSpecificLeg {
			continue
		}
		group, ok := muscleGroupNames[tag]
		if !ok || seen[group] {
			continue
		}
		seen[group] = true
		groups = append(groups, group)
	}
	return groups
}

// GroupCount is one muscle group's exercise count.
type GroupCount struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// BodyPartVolume holds the most-worked and least-trained group lists.
type BodyPartVolume struct {
	MostWorked   []GroupCount `json:"most_worked"`   // top 6, count > 0, descending
	LeastTrained []GroupCount `json:"least_trained"` // count < 5, ascending
}

// leastTrainedThreshold flags groups with fewer exercises than this as
// under-trained.
const leastTrainedThreshold = 5

// ComputeBodyPartVolume counts, per muscle group, how many logged exercises
// touched it, using the catalog's tags (history records carry only id/name).
func ComputeBodyPartVolume(records []models.WorkoutHistoryRecord, cat *catalog.Catalog) BodyPartVolume {
	counts := make(map[string]int, len(muscleGroupOrder))
	for _, group := range muscleGroupOrder {
		counts[group] = 0
	}

	for _, rec := range records {
		for _, ex := range rec.Exercises {
			ref := cat.FindByID(ex.ID)
			if ref == nil {
				continue
			}
			for _, group := range normalizeBodyParts(ref.BodyParts) {
				counts[group]++
			}
		}
	}

	var most, least []GroupCount
	for _, group := range muscleGroupOrder {
		c := counts[group]
		if c > 0 {
			most = append(most, GroupCount{Group: group, Count: c})
		}
		if c < leastTrainedThreshold {
			least = append(least, GroupCount{Group: group, Count: c})
		}
	}

	sort.SliceStable(most, func(i, j int) bool { return most[i].Count > most[j].Count })
	if len(most) > 6 {
		most = most[:6]
	}
	sort.SliceStable(least, func(i, j int) bool { return least[i].Count < least[j].Count })

	return BodyPartVolume{MostWorked: most, LeastTrained: least}
}

// weekKey produces the original's "YEAR-W<n>" label. The week number counts
// 7-day blocks from January 1st, offset by Jan 1's weekday (Sunday = 0):
//
//	n = ceil((dayOfYear + weekday(Jan 1) + 1) / 7)
//
// This is not ISO 8601 week numbering, but it is stable and deterministic,
// which is all the streak needs.
func weekKey(t time.Time) string {
	firstDay := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	n := int(math.Ceil(float64(t.YearDay()+int(firstDay.Weekday())+1) / 7.0))
	return fmt.Sprintf("%d-W%d", t.Year(), n)
}

// Streak counts consecutive weeks (ending now) with at least one finished
// workout. A workout-free current week does not break the streak — the
// previous week serves as a grace period until the week's first session.
func Streak(records []models.WorkoutHistoryRecord, now time.Time) int {
	trained := make(map[string]bool, len(records))
	for _, rec := range records {
		trained[weekKey(rec.Date)] = true
	}
	if len(trained) == 0 {
		return 0
	}

	cursor := now
	if !trained[weekKey(cursor)] {
		cursor = cursor.AddDate(0, 0, -7)
		if !trained[weekKey(cursor)] {
			return 0
		}
	}

	streak := 0
	for trained[weekKey(cursor)] {
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
	return streak
}
