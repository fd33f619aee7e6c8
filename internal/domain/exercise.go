// internal/domain/exercise.go
package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is an entry of the read-only exercise catalog.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	MuscleGroup string             `bson:"muscle_group,omitempty" json:"muscleGroup,omitempty"` // e.g. "peito", "pernas"
	Equipment   string             `bson:"equipment,omitempty" json:"equipment,omitempty"`
	DemoURL     string             `bson:"demo_url,omitempty" json:"demoUrl,omitempty"`
}
