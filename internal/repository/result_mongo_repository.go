package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultsCollection is the MongoDB collection holding exam results.
const ResultsCollection = "exam_results"

// resultDocument is the BSON shape of an exam result. IDs are stored as
// strings so documents stay readable from the mongo shell.
type resultDocument struct {
	ID          string `bson:"_id"`
	StudentID   int    `bson:"student_id"`
	ExamID      string `bson:"exam_id"`
	SubjectID   int    `bson:"subject_id"`
	ClassroomID int    `bson:"classroom_id"`

	Score      float64 `bson:"score"`
	MaxMarks   float64 `bson:"max_marks"`
	Percentage float64 `bson:"percentage"`
	Grade      string  `bson:"grade"`
	Remarks    string  `bson:"remarks"`

	Status    model.ResultStatus `bson:"status"`
	CreatedBy int                `bson:"created_by"`

	SubmittedBy     *int       `bson:"submitted_by,omitempty"`
	SubmittedAt     *time.Time `bson:"submitted_at,omitempty"`
	ApprovedBy      *int       `bson:"approved_by,omitempty"`
	ApprovedAt      *time.Time `bson:"approved_at,omitempty"`
	PublishedBy     *int       `bson:"published_by,omitempty"`
	PublishedAt     *time.Time `bson:"published_at,omitempty"`
	RejectedBy      *int       `bson:"rejected_by,omitempty"`
	RejectedAt      *time.Time `bson:"rejected_at,omitempty"`
	RejectionReason string     `bson:"rejection_reason,omitempty"`

	History []model.AuditEntry `bson:"history"`
	Version int                `bson:"version"`
	// QueueAt mirrors COALESCE(submitted_at, created_at) for ordering.
	QueueAt time.Time `bson:"queue_at"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toResultDocument(r *model.ExamResult) resultDocument {
	return resultDocument{
		ID:              r.ID.String(),
		StudentID:       r.StudentID,
		ExamID:          r.ExamID.String(),
		SubjectID:       r.SubjectID,
		ClassroomID:     r.ClassroomID,
		Score:           r.Score,
		MaxMarks:        r.MaxMarks,
		Percentage:      r.Percentage,
		Grade:           r.Grade,
		Remarks:         r.Remarks,
		Status:          r.Status,
		CreatedBy:       r.CreatedBy,
		SubmittedBy:     r.SubmittedBy,
		SubmittedAt:     r.SubmittedAt,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		PublishedBy:     r.PublishedBy,
		PublishedAt:     r.PublishedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		History:         r.History,
		Version:         r.Version,
		QueueAt:         r.QueueTime(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (d *resultDocument) toModel() (*model.ExamResult, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse result id: %w", err)
	}
	examID, err := uuid.Parse(d.ExamID)
	if err != nil {
		return nil, fmt.Errorf("parse exam id: %w", err)
	}
	return &model.ExamResult{
		ID:              id,
		StudentID:       d.StudentID,
		ExamID:          examID,
		SubjectID:       d.SubjectID,
		ClassroomID:     d.ClassroomID,
		Score:           d.Score,
		MaxMarks:        d.MaxMarks,
		Percentage:      d.Percentage,
		Grade:           d.Grade,
		Remarks:         d.Remarks,
		Status:          d.Status,
		CreatedBy:       d.CreatedBy,
		SubmittedBy:     d.SubmittedBy,
		SubmittedAt:     utcPtr(d.SubmittedAt),
		ApprovedBy:      d.ApprovedBy,
		ApprovedAt:      utcPtr(d.ApprovedAt),
		PublishedBy:     d.PublishedBy,
		PublishedAt:     utcPtr(d.PublishedAt),
		RejectedBy:      d.RejectedBy,
		RejectedAt:      utcPtr(d.RejectedAt),
		RejectionReason: d.RejectionReason,
		History:         d.History,
		Version:         d.Version,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// MongoResultRepository stores exam results in a MongoDB collection.
type MongoResultRepository struct {
	col *mongo.Collection
}

// NewMongoResultRepository creates a new MongoResultRepository.
func NewMongoResultRepository(db *mongo.Database) *MongoResultRepository {
	return &MongoResultRepository{col: db.Collection(ResultsCollection)}
}

var _ ResultRepository = (*MongoResultRepository)(nil)

// EnsureIndexes creates the unique result key index and the review queue index.
// It is idempotent.
func (r *MongoResultRepository) EnsureIndexes(ctx context.Context) ([]string, error) {
	return r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "exam_id", Value: 1}, {Key: "subject_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_result_key"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "queue_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_status_queue"),
		},
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_student_status"),
		},
	})
}

// Create inserts a new result document.
func (r *MongoResultRepository) Create(ctx context.Context, res *model.ExamResult) error {
	if _, err := r.col.InsertOne(ctx, toResultDocument(res)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a result by its ID.
func (r *MongoResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// GetByKey retrieves a result by student, exam and subject.
func (r *MongoResultRepository) GetByKey(ctx context.Context, key model.ResultKey) (*model.ExamResult, error) {
	return r.findOne(ctx, bson.M{
		"student_id": key.StudentID,
		"exam_id":    key.ExamID.String(),
		"subject_id": key.SubjectID,
	})
}

func (r *MongoResultRepository) findOne(ctx context.Context, filter bson.M) (*model.ExamResult, error) {
	var doc resultDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toModel()
}

// CompareAndSet applies change atomically with a status-guarded FindOneAndUpdate.
func (r *MongoResultRepository) CompareAndSet(
	ctx context.Context,
	id uuid.UUID,
	expected model.ResultStatus,
	change model.ResultChange,
) (*model.ExamResult, error) {
	set := bson.M{
		"status":     change.Status,
		"updated_at": change.Entry.At,
	}
	for _, f := range append(marksFields(change.Marks), stampFields(change.Entry)...) {
		set[f.name] = f.value
	}
	if at := queueTimeAfter(change.Entry); at != nil {
		set["queue_at"] = *at
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"history": change.Entry},
		"$inc":  bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc resultDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id.String(), "status": expected}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStaleStatus
		}
		return nil, err
	}
	return doc.toModel()
}

// List retrieves results matching filter, oldest in the queue first.
func (r *MongoResultRepository) List(ctx context.Context, f model.ResultFilter) ([]model.ExamResult, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "queue_at", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		findOptions.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		findOptions.SetSkip(int64(f.Offset))
	}
	filter := resultQuery(f)
	cursor, err := r.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.ExamResult
	for cursor.Next(ctx) {
		var doc resultDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		res, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, cursor.Err()
}

// Count returns how many results match f.
func (r *MongoResultRepository) Count(ctx context.Context, f model.ResultFilter) (int, error) {
	n, err := r.col.CountDocuments(ctx, resultQuery(f))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func resultQuery(f model.ResultFilter) bson.M {
	filter := bson.M{}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.ExamID != nil {
		filter["exam_id"] = f.ExamID.String()
	}
	if f.ClassroomID != nil {
		filter["classroom_id"] = *f.ClassroomID
	}
	if f.SubjectID != nil {
		filter["subject_id"] = *f.SubjectID
	}
	if f.StudentID != nil {
		filter["student_id"] = *f.StudentID
	}
	return filter
}

// CountByStatus returns the number of results in each status.
func (r *MongoResultRepository) CountByStatus(ctx context.Context) (map[model.ResultStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[model.ResultStatus]int)
	for cursor.Next(ctx) {
		var row struct {
			Status model.ResultStatus `bson:"_id"`
			Count  int                `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.Count
	}
	return counts, cursor.Err()
}
