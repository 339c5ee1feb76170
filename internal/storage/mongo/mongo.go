// Package mongo provides a MongoDB-backed implementation of the
// storage.Storage interface.
//
// Every section lives in a single "students" collection. A unique index on
// (section, serialNumber) turns the find-max-then-insert sequence into an
// optimistic allocation: a writer that loses the race gets a duplicate key
// error and retries with a fresh maximum.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aanand-mishra/roster-api/internal/config"
	"github.com/aanand-mishra/roster-api/internal/section"
	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
)

const (
	StudentCollection = "students"

	// maxInsertAttempts bounds serial number retries under contention.
	maxInsertAttempts = 8
)

// ErrSerialContention is returned when CreateStudent keeps losing the
// serial number race.
var ErrSerialContention = errors.New("serial number allocation contended")

var studentProjection = bson.D{
	{Key: "_id", Value: 0},
	{Key: "serialNumber", Value: 1},
	{Key: "prn", Value: 1},
	{Key: "password", Value: 1},
	{Key: "mobile", Value: 1},
	{Key: "branch", Value: 1},
	{Key: "year", Value: 1},
	{Key: "section", Value: 1},
}

var bySerial = bson.D{{Key: "serialNumber", Value: 1}}

// Mongo is the concrete implementation of storage.Storage.
type Mongo struct {
	client   *mongo.Client
	students *mongo.Collection
}

var _ storage.Storage = (*Mongo)(nil)

// New connects to cfg.Storage.URI, verifies the connection and ensures the
// collection indexes exist.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Storage.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	students := client.Database(cfg.Storage.Database).Collection(StudentCollection)

	_, err = students.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "section", Value: 1}, {Key: "serialNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("section_serial_unique"),
		},
		{
			Keys:    bson.D{{Key: "section", Value: 1}, {Key: "prn", Value: 1}},
			Options: options.Index().SetName("section_prn"),
		},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: create indexes: %w", err)
	}

	return &Mongo{client: client, students: students}, nil
}

func (m *Mongo) CreateStudent(ctx context.Context, sec section.Section, student types.Student) (types.Student, error) {
	student.Section = sec.String()

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		next, err := m.nextSerial(ctx, sec)
		if err != nil {
			return types.Student{}, err
		}
		student.SerialNumber = next

		_, err = m.students.InsertOne(ctx, student)
		if err == nil {
			return student, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", err)
		}
	}
	return types.Student{}, fmt.Errorf("CreateStudent: section %s: %w", sec, ErrSerialContention)
}

func (m *Mongo) nextSerial(ctx context.Context, sec section.Section) (int64, error) {
	var last types.Student
	err := m.students.FindOne(ctx,
		bson.D{{Key: "section", Value: sec.String()}},
		options.FindOne().
			SetSort(bson.D{{Key: "serialNumber", Value: -1}}).
			SetProjection(bson.D{{Key: "serialNumber", Value: 1}}),
	).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: find last serial: %w", err)
	}
	return last.SerialNumber + 1, nil
}

func (m *Mongo) GetStudentsByPRN(ctx context.Context, sec section.Section, prn string) ([]types.Student, error) {
	filter := bson.D{
		{Key: "section", Value: sec.String()},
		{Key: "prn", Value: prn},
	}
	students, err := m.findStudents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("GetStudentsByPRN: %w", err)
	}
	return students, nil
}

func (m *Mongo) GetStudents(ctx context.Context, sec section.Section, f types.StudentFilter) ([]types.Student, error) {
	filter := bson.D{{Key: "section", Value: sec.String()}}
	if f.Branch != nil {
		filter = append(filter, bson.E{Key: "branch", Value: *f.Branch})
	}
	if f.Year != nil {
		filter = append(filter, bson.E{Key: "year", Value: *f.Year})
	}

	students, err := m.findStudents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: %w", err)
	}
	return students, nil
}

func (m *Mongo) findStudents(ctx context.Context, filter bson.D) ([]types.Student, error) {
	cursor, err := m.students.Find(ctx, filter,
		options.Find().SetSort(bySerial).SetProjection(studentProjection))
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	students := make([]types.Student, 0)
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return students, nil
}

func (m *Mongo) GetPRNs(ctx context.Context, sec section.Section) ([]types.PRN, error) {
	cursor, err := m.students.Find(ctx,
		bson.D{{Key: "section", Value: sec.String()}},
		options.Find().
			SetSort(bySerial).
			SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: "prn", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("GetPRNs: find: %w", err)
	}

	prns := make([]types.PRN, 0)
	if err := cursor.All(ctx, &prns); err != nil {
		return nil, fmt.Errorf("GetPRNs: decode: %w", err)
	}
	return prns, nil
}

func (m *Mongo) DeleteStudent(ctx context.Context, sec section.Section, prn string) error {
	res, err := m.students.DeleteOne(ctx, bson.D{
		{Key: "section", Value: sec.String()},
		{Key: "prn", Value: prn},
	})
	if err != nil {
		return fmt.Errorf("DeleteStudent: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrStudentNotFound
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
