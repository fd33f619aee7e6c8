// internal/domain/workout.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlan is a named collection of exercises assigned to one student by one creator.
type WorkoutPlan struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	FrequencyPerWeek *int               `bson:"frequency_per_week" json:"frequencyPerWeek"`
	AssignedTo       primitive.ObjectID `bson:"assigned_to" json:"assignedTo"` // student
	CreatedBy        primitive.ObjectID `bson:"created_by" json:"createdBy"`   // coach
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
}

// WorkoutItem is one exercise line of a WorkoutPlan. There is no ordering field.
type WorkoutItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID   primitive.ObjectID `bson:"workout_id" json:"workoutId"`
	ExerciseID  primitive.ObjectID `bson:"exercise_id" json:"exerciseId"`
	Sets        int                `bson:"sets" json:"sets"`
	Reps        int                `bson:"reps" json:"reps"`
	LoadKg      *float64           `bson:"load_kg" json:"loadKg"`
	RestSeconds *int               `bson:"rest_seconds" json:"restSeconds"`
	Notes       *string            `bson:"notes" json:"notes"`
}

// WorkoutItemDetail is a WorkoutItem joined with its exercise, as shown to the student.
type WorkoutItemDetail struct {
	WorkoutItem
	ExerciseName string `json:"exerciseName"`
	MuscleGroup  string `json:"muscleGroup,omitempty"`
}
