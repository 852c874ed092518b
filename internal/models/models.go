package models

import (
	"strconv"
	"strings"
	"time"
)

// SetType classifies a set within an exercise.
type SetType string

const (
	SetNormal    SetType = "normal"
	SetWarmUp    SetType = "warmup"
	SetFailure   SetType = "failure"
	SetDrop      SetType = "drop"
	SetNegative  SetType = "negative"
	SetLast      SetType = "last_set"
	SetRestPause SetType = "rest_pause"
)

// WeightUnit is the display unit for an exercise's loads.
type WeightUnit string

const (
	UnitKg  WeightUnit = "kg"
	UnitLbs WeightUnit = "lbs"
)

// Objective is the user's stated training goal.
type Objective string

const (
	ObjectiveHypertrophy Objective = "hypertrophy"
	ObjectiveStrength    Objective = "strength"
	ObjectiveCutting     Objective = "cutting"
)

// VibrationLength controls how long the rest-timer vibration runs.
type VibrationLength string

const (
	VibrationShort  VibrationLength = "short"
	VibrationMedium VibrationLength = "medium"
	VibrationLong   VibrationLength = "long"
)

// ExerciseRef is a read-only entry from the exercise catalog.
type ExerciseRef struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ImageURL  string   `json:"image_url,omitempty"`
	VideoURL  string   `json:"video_url,omitempty"`
	BodyParts []string `json:"body_parts"`
	Equipment []string `json:"equipment"`
}

// SetEntry is one set of an exercise during a live session. Weight and reps
// are raw text: the client edits them keystroke by keystroke, so partial or
// invalid input must survive until commit, where it is parsed once.
type SetEntry struct {
	ID        int     `json:"id"` // 1-based, doubles as the display label
	Weight    string  `json:"weight"`
	Reps      string  `json:"reps"`
	Completed bool    `json:"completed"`
	Type      SetType `json:"type"`
	RPE       string  `json:"rpe,omitempty"`
}

// ExerciseInSession wraps a catalog exercise with its live set data.
type ExerciseInSession struct {
	Exercise        ExerciseRef `json:"exercise"`
	Sets            []SetEntry  `json:"sets"`
	Notes           string      `json:"notes"`
	PinnedNote      string      `json:"pinned_note"`
	RestTimeSeconds int         `json:"rest_time_seconds"`
	WeightUnit      WeightUnit  `json:"weight_unit"`
	Expanded        bool        `json:"expanded"`
}

// DefaultRestSeconds is the per-exercise rest countdown used when no override is set.
const DefaultRestSeconds = 90

// SavedExercise is a template entry: the exercise id plus cached display
// metadata so templates render without a catalog lookup.
type SavedExercise struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ImageURL  string   `json:"image_url,omitempty"`
	BodyParts []string `json:"body_parts,omitempty"`
}

// SavedWorkout is a named, reusable workout template.
type SavedWorkout struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Exercises     []SavedExercise `json:"exercises"`
	LastDoneLabel string          `json:"last_done_label"`
	CreatedAt     time.Time       `json:"created_at"`
	IsFavorite    bool            `json:"is_favorite"`
	Category      string          `json:"category,omitempty"`
	IsAIGenerated bool            `json:"is_ai_generated"`
}

// HistorySet is a completed set snapshot inside a history record.
type HistorySet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Type   SetType `json:"type"`
}

// HistoryExercise is one exercise inside a history record, holding only the
// sets that were actually completed.
type HistoryExercise struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Sets []HistorySet `json:"sets"`
}

// WorkoutHistoryRecord is an immutable snapshot of a finished session.
type WorkoutHistoryRecord struct {
	ID              string            `json:"id"`
	WorkoutID       string            `json:"workout_id,omitempty"` // source template, if any
	WorkoutName     string            `json:"workout_name"`
	Date            time.Time         `json:"date"`
	DurationSeconds int               `json:"duration_seconds"`
	TotalVolume     float64           `json:"total_volume"`
	TotalSeries     int               `json:"total_series"`
	Exercises       []HistoryExercise `json:"exercises"`
}

// WeightEntry is one point in the profile's append-only weight log.
type WeightEntry struct {
	Weight float64   `json:"weight"`
	Date   time.Time `json:"date"`
}

// UserProfile is the per-installation singleton profile.
type UserProfile struct {
	Weight        *float64      `json:"weight,omitempty"`
	WeightHistory []WeightEntry `json:"weight_history"`
	Height        *float64      `json:"height,omitempty"`
	Objective     Objective     `json:"objective,omitempty"`
}

// LastPerformed is the rolling "previous: X kg × Y" cache entry for an
// exercise, recorded when a set with both fields filled is completed.
type LastPerformed struct {
	Weight string    `json:"weight"`
	Reps   string    `json:"reps"`
	Date   time.Time `json:"date"`
}

// SuggestedPlan is one AI-generated workout suggestion.
type SuggestedPlan struct {
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Exercises []SavedExercise `json:"exercises"`
}

// ParseWeight converts set weight text to a number. Un-parseable or empty
// input defaults to 0 — the documented commit-time coercion policy.
func ParseWeight(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseReps converts rep-count text to an int, defaulting to 0 on failure.
func ParseReps(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
