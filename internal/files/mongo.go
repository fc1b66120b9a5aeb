package files

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JaimeStill/intake/pkg/pagination"
)

// Collection names shared with the classifier.
const (
	InventoryCollection = "fileInventory"
	ResultsCollection   = "dataScanResult"
)

type inventoryDoc struct {
	FileID       string     `bson:"fileId"`
	FileName     string     `bson:"fileName"`
	FileType     string     `bson:"fileType"`
	FileLocation string     `bson:"fileLocation"`
	ContentType  string     `bson:"contentType"`
	SizeBytes    int64      `bson:"sizeBytes"`
	PageCount    *int       `bson:"pageCount,omitempty"`
	Status       Status     `bson:"status"`
	ErrorReason  *string    `bson:"errorReason,omitempty"`
	UploadedAt   *time.Time `bson:"uploadedAt,omitempty"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

func (d inventoryDoc) record() Record {
	return Record{
		FileID:          d.FileID,
		FileName:        d.FileName,
		FileType:        d.FileType,
		StorageLocation: d.FileLocation,
		ContentType:     d.ContentType,
		SizeBytes:       d.SizeBytes,
		PageCount:       d.PageCount,
		Status:          d.Status,
		ErrorReason:     d.ErrorReason,
		UploadedAt:      d.UploadedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type resultsDoc struct {
	FileID  string           `bson:"fileId"`
	Results []map[string]any `bson:"results"`
}

type mongoStore struct {
	inventory *mongo.Collection
	results   *mongo.Collection
	now       func() time.Time
}

// NewMongoStore creates a Store over the fileInventory and dataScanResult
// collections of db.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{
		inventory: db.Collection(InventoryCollection),
		results:   db.Collection(ResultsCollection),
		now:       time.Now,
	}
}

// EnsureMongoIndexes creates the unique fileId indexes both collections rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{InventoryCollection, ResultsCollection} {
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "fileId", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", name, err)
		}
	}
	return nil
}

func (s *mongoStore) Upsert(ctx context.Context, reg Registration) (*Record, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	filter := bson.M{"fileId": reg.FileID}
	update := upsertUpdate(reg, s.now().UTC())

	var doc inventoryDoc
	err := s.inventory.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)

	// concurrent upserts of a new fileId race on the unique index; the loser
	// retries as an update of the winner's document
	if mongo.IsDuplicateKeyError(err) {
		err = s.inventory.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", InventoryCollection, err)
	}

	rec := doc.record()
	return &rec, nil
}

func (s *mongoStore) MarkUploaded(ctx context.Context, fileID, location string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"status":     StatusUploaded,
			"uploadedAt": at,
			"updatedAt":  s.now().UTC(),
		},
		"$unset": bson.M{"errorReason": ""},
	}
	return s.settle(ctx, fileID, location, update)
}

func (s *mongoStore) MarkFailed(ctx context.Context, fileID, location, reason string) error {
	update := bson.M{
		"$set": bson.M{
			"status":      StatusError,
			"errorReason": reason,
			"updatedAt":   s.now().UTC(),
		},
	}
	return s.settle(ctx, fileID, location, update)
}

func (s *mongoStore) settle(ctx context.Context, fileID, location string, update bson.M) error {
	res, err := s.inventory.UpdateOne(ctx, settleFilter(fileID, location), update)
	if err != nil {
		return fmt.Errorf("settle %s: %w", fileID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSuperseded
	}
	return nil
}

func (s *mongoStore) Find(ctx context.Context, fileID string) (*Record, error) {
	var doc inventoryDoc
	err := s.inventory.FindOne(ctx, bson.M{"fileId": fileID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", fileID, err)
	}

	rec := doc.record()
	return &rec, nil
}

func (s *mongoStore) FindResults(ctx context.Context, fileID string) (*Results, error) {
	var doc resultsDoc
	err := s.results.FindOne(ctx, bson.M{"fileId": fileID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResultsNotFound
		}
		return nil, fmt.Errorf("find results %s: %w", fileID, err)
	}

	if doc.Results == nil {
		doc.Results = make([]map[string]any, 0)
	}
	return &Results{FileID: doc.FileID, Results: doc.Results}, nil
}

func (s *mongoStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	filter := listFilter(filters)

	total, err := s.inventory.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", InventoryCollection, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "fileId", Value: 1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.PageSize))

	cursor, err := s.inventory.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", InventoryCollection, err)
	}

	var docs []inventoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", InventoryCollection, err)
	}

	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.record())
	}

	result := pagination.NewPageResult(records, int(total), page)
	return &result, nil
}

func upsertUpdate(reg Registration, now time.Time) bson.M {
	set := bson.M{
		"fileName":     reg.FileName,
		"fileType":     reg.FileType,
		"fileLocation": reg.StorageLocation,
		"contentType":  reg.ContentType,
		"sizeBytes":    reg.SizeBytes,
		"status":       StatusRequested,
		"updatedAt":    now,
	}
	unset := bson.M{
		"errorReason": "",
		"uploadedAt":  "",
	}

	if reg.PageCount != nil {
		set["pageCount"] = *reg.PageCount
	} else {
		unset["pageCount"] = ""
	}

	return bson.M{
		"$set":         set,
		"$unset":       unset,
		"$setOnInsert": bson.M{"createdAt": now},
	}
}

func settleFilter(fileID, location string) bson.M {
	return bson.M{
		"fileId":       fileID,
		"fileLocation": location,
		"status":       StatusRequested,
	}
}

func listFilter(filters Filters) bson.M {
	filter := bson.M{}
	if filters.Status != nil {
		filter["status"] = *filters.Status
	}
	return filter
}
