package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ukane-philemon/transcripts/internal/db"
	"github.com/ukane-philemon/transcripts/internal/transcript"
)

const (
	// Collections
	studentCollection = "students"
	counterCollection = "counters"

	// Keys
	dbIDKey    = "_id"
	valueKey   = "value"
	studentSeq = "studentID"

	// Actions
	actionMax = "$max"
)

// Check that *MongoDB implements transcript.Persister.
var _ transcript.Persister = (*MongoDB)(nil)

// MongoDB implements transcript.Persister.
type MongoDB struct {
	log               *zap.Logger
	db                *mongo.Database
	studentCollection *mongo.Collection
	counterCollection *mongo.Collection
}

// New connects to a mongo database and returns a new instance of *MongoDB.
func New(ctx context.Context, log *zap.Logger, dbName string, connectionURL string) (*MongoDB, error) {
	database, err := db.NewMongoDB(ctx, log, dbName, connectionURL)
	if err != nil {
		return nil, err
	}

	return &MongoDB{
		log:               log,
		db:                database,
		studentCollection: database.Collection(studentCollection),
		counterCollection: database.Collection(counterCollection),
	}, nil
}

// Load reads every student and the last issued student ID.
// Implements transcript.Persister.
func (mdb *MongoDB) Load(ctx context.Context) (*transcript.Snapshot, error) {
	cur, err := mdb.studentCollection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: dbIDKey, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("studentCollection.Find error: %w", err)
	}

	var dbStudents []*dbStudent
	err = cur.All(ctx, &dbStudents)
	if err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}

	snapshot := &transcript.Snapshot{
		Students: make([]*transcript.Student, 0, len(dbStudents)),
	}
	for _, s := range dbStudents {
		snapshot.Students = append(snapshot.Students, s.Student())
	}

	var counter dbCounter
	err = mdb.counterCollection.FindOne(ctx, bson.M{dbIDKey: studentSeq}).Decode(&counter)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("counterCollection.FindOne error: %w", err)
	}
	snapshot.LastID = transcript.StudentID(counter.Value)

	return snapshot, nil
}

// Apply writes change in a single transaction.
// Implements transcript.Persister.
func (mdb *MongoDB) Apply(ctx context.Context, change *transcript.Change) error {
	applyFn := func(sessCtx mongo.SessionContext) (any, error) {
		if change.Upsert != nil {
			student := toDBStudent(change.Upsert, time.Now().Unix())
			_, err := mdb.studentCollection.ReplaceOne(sessCtx, bson.M{dbIDKey: student.ID}, student, options.Replace().SetUpsert(true))
			if err != nil {
				return nil, fmt.Errorf("studentCollection.ReplaceOne error: %w", err)
			}
		}

		if change.Delete != 0 {
			_, err := mdb.studentCollection.DeleteOne(sessCtx, bson.M{dbIDKey: int64(change.Delete)})
			if err != nil {
				return nil, fmt.Errorf("studentCollection.DeleteOne error: %w", err)
			}
		}

		// $max keeps the counter monotonic.
		counterUpdate := bson.M{actionMax: bson.M{valueKey: int64(change.LastID)}}
		_, err := mdb.counterCollection.UpdateOne(sessCtx, bson.M{dbIDKey: studentSeq}, counterUpdate, options.Update().SetUpsert(true))
		if err != nil {
			return nil, fmt.Errorf("counterCollection.UpdateOne error: %w", err)
		}

		return nil, nil
	}

	_, err := mdb.withSession(ctx, applyFn)
	return err
}

// Shutdown attempts to shutdown the database.
// Implements transcript.Persister.
func (mdb *MongoDB) Shutdown(ctx context.Context) error {
	return db.ShutdownMongoDB(ctx, mdb.log, mdb.db)
}

// withSession starts a mongodb session for sessionFn.
func (mdb *MongoDB) withSession(ctx context.Context, sessionFn func(ctx mongo.SessionContext) (any, error)) (any, error) {
	session, err := mdb.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("db.Client().StartSession error: %w", err)
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, sessionFn)
	if err != nil {
		return nil, err
	}

	return res, nil
}
