package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"docanalyzer/types"
)

const (
	documentsCollection    = "documents"
	parentChunksCollection = "parent_chunks"
)

// DBStorer is the document metadata gateway.
type DBStorer interface {
	CreateDocument(ctx context.Context, doc types.Document) error
	UpdateDocument(ctx context.Context, id uuid.UUID, update types.DocumentUpdate) error
	GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error)
	ListDocuments(ctx context.Context) ([]types.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	SaveParentChunks(ctx context.Context, chunks []types.ParentChunk) error
	GetParentChunksByKeys(ctx context.Context, keys []types.ParentKey) ([]types.ParentChunk, error)
	DeleteParentChunks(ctx context.Context, docID uuid.UUID) error
}

// MongoStore keeps documents and parent chunks in MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// uuidSubtype is the standard BSON binary subtype for UUIDs.
const uuidSubtype = 0x04

var uuidType = reflect.TypeOf(uuid.UUID{})

func encodeUUID(ec bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if val.Type() != uuidType {
		return bsoncodec.ValueEncoderError{Name: "encodeUUID", Types: []reflect.Type{uuidType}, Received: val}
	}
	u := val.Interface().(uuid.UUID)
	return vw.WriteBinaryWithSubtype(u[:], uuidSubtype)
}

func decodeUUID(dc bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != uuidType {
		return bsoncodec.ValueDecoderError{Name: "decodeUUID", Types: []reflect.Type{uuidType}, Received: val}
	}
	data, subtype, err := vr.ReadBinary()
	if err != nil {
		return err
	}
	if subtype != uuidSubtype {
		return fmt.Errorf("unexpected binary subtype %d for uuid", subtype)
	}
	u, err := uuid.FromBytes(data)
	if err != nil {
		return err
	}
	val.Set(reflect.ValueOf(u))
	return nil
}

// uuidRegistry makes uuid.UUID round-trip as BSON binary subtype 4
// instead of the default array encoding.
func uuidRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(uuidType, bsoncodec.ValueEncoderFunc(encodeUUID))
	reg.RegisterTypeDecoder(uuidType, bsoncodec.ValueDecoderFunc(decodeUUID))
	return reg
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(uuidRegistry()))
	if err != nil {
		return nil, &types.MetadataStoreError{Err: fmt.Errorf("failed to connect to mongodb: %w", err)}
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &types.MetadataStoreError{Err: fmt.Errorf("failed to ping mongodb: %w", err)}
	}

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Init creates the compound index used for parent chunk lookups. One
// parent is addressed by (doc_id, parent_id); parent_id alone repeats
// across documents.
func (s *MongoStore) Init(ctx context.Context) error {
	_, err := s.db.Collection(parentChunksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "doc_id", Value: 1}, {Key: "parent_id", Value: 1}},
	})
	if err != nil {
		return &types.MetadataStoreError{Err: fmt.Errorf("failed to create parent chunk index: %w", err)}
	}
	return nil
}

func (s *MongoStore) CreateDocument(ctx context.Context, doc types.Document) error {
	if _, err := s.db.Collection(documentsCollection).InsertOne(ctx, doc); err != nil {
		return &types.MetadataStoreError{Err: fmt.Errorf("failed to insert document: %w", err)}
	}
	return nil
}

// UpdateDocument applies only the non-nil fields of update and always
// refreshes updated_at.
func (s *MongoStore) UpdateDocument(ctx context.Context, id uuid.UUID, update types.DocumentUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.RawText != nil {
		set["raw_text"] = *update.RawText
	}
	if update.CleanedText != nil {
		set["cleaned_text"] = *update.CleanedText
	}
	if update.Summary != nil {
		set["summary"] = *update.Summary
	}

	res, err := s.db.Collection(documentsCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
	)
	if err != nil {
		return &types.MetadataStoreError{Err: fmt.Errorf("failed to update document: %w", err)}
	}
	if res.MatchedCount == 0 {
		return &types.NotFoundError{Resource: "document", ID: id.String()}
	}
	return nil
}

func (s *MongoStore) GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	var doc types.Document
	err := s.db.Collection(documentsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &types.NotFoundError{Resource: "document", ID: id.String()}
		}
		return nil, &types.MetadataStoreError{Err: fmt.Errorf("failed to get document: %w", err)}
	}
	return &doc, nil
}

// ListDocuments returns documents newest first with the large text
// fields left out.
func (s *MongoStore) ListDocuments(ctx context.Context) ([]types.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"raw_text": 0, "cleaned_text": 0, "summary": 0})

	cursor, err := s.db.Collection(documentsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &types.MetadataStoreError{Err: fmt.Errorf("failed to list documents: %w", err)}
	}
	defer cursor.Close(ctx)

	var docs []types.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &types.MetadataStoreError{Err: fmt.Errorf("failed to decode documents: %w", err)}
	}
	return docs, nil
}

func (s *MongoStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.Collection(documentsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return &types.MetadataStoreError{Err: fmt.Errorf("failed to delete document: %w", err)}
	}
	if res.DeletedCount == 0 {
		return &types.NotFoundError{Resource: "document", ID: id.String()}
	}
	return nil
}

func (s *MongoStore) SaveParentChunks(ctx context.Context, chunks []types.ParentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(chunks))
	for i, c := range chunks {
		docs[i] = c
	}
	if _, err := s.db.Collection(parentChunksCollection).InsertMany(ctx, docs); err != nil {
		return &types.MetadataStoreError{Err: fmt.Errorf("failed to insert parent chunks: %w", err)}
	}
	return nil
}

// GetParentChunksByKeys fetches parents by composite key. Results come
// back in store order; callers needing a specific order must reorder.
func (s *MongoStore) GetParentChunksByKeys(ctx context.Context, keys []types.ParentKey) ([]types.ParentChunk, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	or := make(bson.A, len(keys))
	for i, k := range keys {
		or[i] = bson.M{"doc_id": k.DocID, "parent_id": k.ParentID}
	}

	cursor, err := s.db.Collection(parentChunksCollection).Find(ctx, bson.M{"$or": or})
	if err != nil {
		return nil, &types.MetadataStoreError{Err: fmt.Errorf("failed to find parent chunks: %w", err)}
	}
	defer cursor.Close(ctx)

	var chunks []types.ParentChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, &types.MetadataStoreError{Err: fmt.Errorf("failed to decode parent chunks: %w", err)}
	}
	return chunks, nil
}

func (s *MongoStore) DeleteParentChunks(ctx context.Context, docID uuid.UUID) error {
	if _, err := s.db.Collection(parentChunksCollection).DeleteMany(ctx, bson.M{"doc_id": docID}); err != nil {
		return &types.MetadataStoreError{Err: fmt.Errorf("failed to delete parent chunks: %w", err)}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
