package document

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dataviz-sync/internal/database/adapters"
	"dataviz-sync/internal/model"
)

// MongoAdapter implements the Adapter contract for MongoDB
type MongoAdapter struct {
	client   *mongo.Client
	database string
	timeouts adapters.Timeouts
}

// NewMongoAdapter connects a MongoDB adapter to the given target
func NewMongoAdapter(target adapters.Target, timeouts adapters.Timeouts) (*MongoAdapter, error) {
	timeouts = timeouts.WithDefaults()

	clientOptions := options.Client().
		ApplyURI(buildMongoURI(target)).
		SetServerSelectionTimeout(timeouts.Connect)

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Connect)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMongoDB, Op: "connect", Err: err}
	}

	return &MongoAdapter{
		client:   client,
		database: target.Database,
		timeouts: timeouts,
	}, nil
}

func buildMongoURI(target adapters.Target) string {
	if target.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d/",
			url.QueryEscape(target.Username),
			url.QueryEscape(target.Password),
			target.Host,
			target.Port,
		)
	}
	return fmt.Sprintf("mongodb://%s:%d/", target.Host, target.Port)
}

// Ping sends the ping command to the server
func (a *MongoAdapter) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Connect)
	defer cancel()

	if err := a.client.Ping(ctx, nil); err != nil {
		return "", &adapters.ConnectionError{Engine: model.EngineMongoDB, Op: "ping", Err: err}
	}
	return "MongoDB connection successful", nil
}

// ListTables enumerates collection names in the connected database
func (a *MongoAdapter) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	names, err := a.client.Database(a.database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMongoDB, Op: "list collections", Err: err}
	}
	return names, nil
}

// FetchSchema infers column identities from one sample document's runtime
// value types. An empty collection yields an empty schema, not an error.
func (a *MongoAdapter) FetchSchema(ctx context.Context, table string) ([]model.Column, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	var sample bson.M
	err := a.client.Database(a.database).Collection(table).FindOne(ctx, bson.D{}).Decode(&sample)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMongoDB, Op: "sample document", Err: err}
	}

	names := make([]string, 0, len(sample))
	for name := range sample {
		if name == "_id" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]model.Column, 0, len(names))
	for _, name := range names {
		columns = append(columns, model.Column{Name: name, Type: typeLabel(sample[name])})
	}
	return columns, nil
}

// FetchRows bulk-fetches up to limit documents with the _id projected out
func (a *MongoAdapter) FetchRows(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "_id", Value: 0}})

	cursor, err := a.client.Database(a.database).Collection(table).Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMongoDB, Op: "find", Err: err}
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &adapters.ProtocolError{Engine: model.EngineMongoDB, Op: "decode documents", Err: err}
	}

	records := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		record := make(map[string]interface{}, len(doc))
		for k, v := range doc {
			record[k] = normalizeBSON(v)
		}
		records = append(records, record)
	}
	return records, nil
}

// Close disconnects from the server
func (a *MongoAdapter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeouts.Connect)
	defer cancel()
	return a.client.Disconnect(ctx)
}

// normalizeBSON maps BSON-specific values onto transport-safe primitives
// before handing them to the generic normalizer.
func normalizeBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.DateTime:
		return adapters.NormalizeValue(val.Time())
	case primitive.Timestamp:
		return adapters.NormalizeValue(time.Unix(int64(val.T), 0))
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Binary:
		return strings.ToValidUTF8(string(val.Data), "�")
	case primitive.Decimal128:
		return val.String()
	case primitive.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeBSON(item)
		}
		return out
	case bson.M:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeBSON(item)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, elem := range val {
			out[elem.Key] = normalizeBSON(elem.Value)
		}
		return out
	default:
		return adapters.NormalizeValue(v)
	}
}

// typeLabel returns a best-effort type label for a sampled BSON value
func typeLabel(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case int32, int64, int:
		return "int"
	case float32, float64:
		return "double"
	case bool:
		return "bool"
	case primitive.DateTime, primitive.Timestamp:
		return "date"
	case primitive.ObjectID:
		return "objectid"
	case primitive.Binary:
		return "binary"
	case primitive.Decimal128:
		return "decimal"
	case primitive.A:
		return "array"
	case bson.M, bson.D:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
