package realtime

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"
)

// Publisher is the sink of a change source; *Hub satisfies it.
type Publisher interface {
	Publish(ev Event)
}

// ChangeStreamSource turns MongoDB change streams into Events. Change streams
// need a replica set; with a standalone server use the in-process notifier.
type ChangeStreamSource struct {
	db     *mongo.Database
	sink   Publisher
	tables []string
}

func NewChangeStreamSource(db *mongo.Database, sink Publisher, tables ...string) *ChangeStreamSource {
	return &ChangeStreamSource{
		db:     db,
		sink:   sink,
		tables: tables,
	}
}

// changeDoc is the subset of a change event we read.
type changeDoc struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

// Run watches every table until ctx is done. It returns nil on cancellation
// and the combined stream errors otherwise.
func (s *ChangeStreamSource) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, table := range s.tables {
		wg.Add(1)
		go func(table string) {
			defer wg.Done()
			if err := s.watch(ctx, table); err != nil {
				log.Errorf("realtime: change stream on %s stopped: %s", table, err)
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(table)
	}
	wg.Wait()
	return errs
}

func (s *ChangeStreamSource) watch(ctx context.Context, table string) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}}}}},
	}
	stream, err := s.db.Collection(table).Watch(ctx, pipeline, options.ChangeStream())
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer stream.Close(context.Background())

	log.Infof("realtime: watching %s", table)
	for stream.Next(ctx) {
		var doc changeDoc
		if err := stream.Decode(&doc); err != nil {
			log.Warnf("realtime: undecodable change on %s: %s", table, err)
			continue
		}
		typ, ok := operationEventType(doc.OperationType)
		if !ok {
			continue
		}
		s.sink.Publish(NewEvent(table, typ, doc.DocumentKey.ID.Hex()))
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return err
	}
	return nil
}

func operationEventType(op string) (EventType, bool) {
	switch op {
	case "insert":
		return EventInsert, true
	case "update", "replace":
		return EventUpdate, true
	case "delete":
		return EventDelete, true
	}
	return "", false
}
