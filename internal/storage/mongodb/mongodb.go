// Package mongodb provides a MongoDB-backed implementation of the
// storage.Storage interface.
//
// Students are documents in one collection. Ids are ObjectIDs generated
// on insert and exposed as their 24-character hex string; a unique index
// on "email" makes the server reject duplicates with error code 11000.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aanand-mishra/alunos-api/internal/config"
	"github.com/aanand-mishra/alunos-api/internal/storage"
	"github.com/aanand-mishra/alunos-api/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the document implementation of storage.Storage.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ storage.Storage = (*Mongo)(nil)

// document is the stored shape of a student.
type document struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"nome"`
	Phone     string             `bson:"telefone"`
	BirthDate string             `bson:"dataNascimento"`
	Email     string             `bson:"email"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d document) student() types.Student {
	return types.Student{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Phone:     d.Phone,
		BirthDate: d.BirthDate,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
	}
}

// Connect dials cfg.MongoDB.URI, checks the server answers and makes sure
// the unique email index exists. The whole sequence is bounded by
// cfg.MongoDB.ConnectTimeout.
func Connect(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.MongoDB.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.Connect: %w", err)
	}

	// Connect is lazy; Ping is what actually reaches the server.
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb.Connect: ping: %w", err)
	}

	m := &Mongo{
		client: client,
		coll:   client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return m, nil
}

// NewWithCollection wraps an existing collection. The caller owns the
// client; Close on the returned value is a no-op.
func NewWithCollection(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongodb.Connect: create email index: %w", err)
	}
	return nil
}

// classify turns a driver error into the storage error taxonomy.
func classify(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrDuplicateKey)
	}
	return storage.Fail(op, err)
}

// parseID converts an opaque id to an ObjectID. ok is false for anything
// that is not a valid hex ObjectID; such ids match no document.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// ListStudents returns every document sorted by creation time, newest
// first. _id breaks ties between documents created in the same
// millisecond.
func (m *Mongo) ListStudents(ctx context.Context) ([]types.Student, error) {
	const op = "mongodb.ListStudents"

	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, storage.Fail(op, err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storage.Fail(op, err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, d.student())
	}

	return students, nil
}

// GetStudent fetches one document by _id. A nil result means not found.
func (m *Mongo) GetStudent(ctx context.Context, id string) (types.Student, bool, error) {
	const op = "mongodb.GetStudent"

	oid, ok := parseID(id)
	if !ok {
		return types.Student{}, false, nil
	}

	var doc document
	err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, storage.Fail(op, err)
	}

	return doc.student(), true, nil
}

// InsertStudent stores a new document. The ObjectID is generated here
// rather than by the server so the id is known without a round trip.
func (m *Mongo) InsertStudent(ctx context.Context, in types.StudentInput) (string, error) {
	const op = "mongodb.InsertStudent"

	// BSON dates have millisecond precision; truncate so what we return
	// matches what a later read gives back.
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := document{
		ID:        primitive.NewObjectID(),
		Name:      in.Name,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return "", classify(op, err)
	}

	return doc.ID.Hex(), nil
}

// ReplaceStudent sets the four editable fields. createdAt and _id are
// left alone.
func (m *Mongo) ReplaceStudent(ctx context.Context, id string, in types.StudentInput) (bool, error) {
	const op = "mongodb.ReplaceStudent"

	oid, ok := parseID(id)
	if !ok {
		return false, nil
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "nome", Value: in.Name},
		{Key: "telefone", Value: in.Phone},
		{Key: "dataNascimento", Value: in.BirthDate},
		{Key: "email", Value: in.Email},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	res, err := m.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return false, classify(op, err)
	}

	return res.MatchedCount > 0, nil
}

// DeleteStudent removes one document by _id.
func (m *Mongo) DeleteStudent(ctx context.Context, id string) (bool, error) {
	const op = "mongodb.DeleteStudent"

	oid, ok := parseID(id)
	if !ok {
		return false, nil
	}

	res, err := m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, storage.Fail(op, err)
	}

	return res.DeletedCount > 0, nil
}

// Close disconnects the client opened by Connect.
func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
