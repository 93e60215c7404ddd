package images

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/imgcrop/model"
)

const (
	mongoDatabase   = "image-uploader"
	mongoCollection = "images"
)

// Mongo keeps records in the images collection of the image-uploader database.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ model.ImagesRepository = (*Mongo)(nil)

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri string) (*Mongo, error) {
	const op = "images.OpenMongo"

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Mongo{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

// Save inserts rec and returns it with the assigned id.
func (m *Mongo) Save(ctx context.Context, rec model.ImageRecord) (model.ImageRecord, error) {
	const op = "images.Mongo.Save"

	if err := checkSave(rec); err != nil {
		return model.ImageRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := m.coll.InsertOne(ctx, EncodeDocument(rec))
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return model.ImageRecord{}, fmt.Errorf("%s: unexpected id type %T", op, res.InsertedID)
	}
	rec.ID = id.Hex()
	return rec, nil
}

// All returns every record, newest first.
func (m *Mongo) All(ctx context.Context) ([]model.ImageRecord, error) {
	const op = "images.Mongo.All"

	opts := options.Find().SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}})
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make([]model.ImageRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := fromBSON(d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, rec)
	}
	return res, nil
}

// GetOne returns the record with id or model.ErrNotFound.
func (m *Mongo) GetOne(ctx context.Context, id string) (model.ImageRecord, error) {
	const op = "images.Mongo.GetOne"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.ImageRecord{}, model.ErrNotFound
	}

	var doc bson.M
	err = m.coll.FindOne(ctx, bson.D{{Key: fieldID, Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ImageRecord{}, model.ErrNotFound
	}
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return fromBSON(doc)
}

// Delete removes exactly the record with id.
func (m *Mongo) Delete(ctx context.Context, id string) error {
	const op = "images.Mongo.Delete"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.ErrNotFound
	}
	res, err := m.coll.DeleteOne(ctx, bson.D{{Key: fieldID, Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func fromBSON(doc bson.M) (model.ImageRecord, error) {
	m, _ := normalize(doc).(map[string]any)
	return DecodeDocument(m)
}

// normalize converts driver types into the plain values DecodeDocument reads.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	}
	return v
}
