package domain

// Table names, shared by storage and the realtime feed.
const (
	TableUsers        = "users"
	TableExercises    = "exercises"
	TableWorkouts     = "workouts"
	TableWorkoutItems = "workout_exercises"
)
