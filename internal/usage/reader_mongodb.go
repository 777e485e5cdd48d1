package usage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoDBReader implements UsageReader for MongoDB.
type MongoDBReader struct {
	collection *mongo.Collection
}

// NewMongoDBReader creates a new MongoDB usage reader.
func NewMongoDBReader(database *mongo.Database) (*MongoDBReader, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBReader{collection: database.Collection(tableName)}, nil
}

func mongoMatch(params UsageQueryParams) bson.D {
	match := bson.D{}

	start, end := dateBounds(params)
	rng := bson.D{}
	if !start.IsZero() {
		rng = append(rng, bson.E{Key: "$gte", Value: start})
	}
	if !end.IsZero() {
		rng = append(rng, bson.E{Key: "$lt", Value: end})
	}
	if len(rng) > 0 {
		match = append(match, bson.E{Key: "timestamp", Value: rng})
	}
	if params.Strategy != "" {
		match = append(match, bson.E{Key: "strategy", Value: params.Strategy})
	}
	return match
}

func (r *MongoDBReader) GetSummary(ctx context.Context, params UsageQueryParams) (*UsageSummary, error) {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: mongoMatch(params)}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_requests", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "failed_requests", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{bson.D{{Key: "$eq", Value: bson.A{"$status", StatusError}}}, 1, 0}},
			}}}},
			{Key: "total_input", Value: bson.D{{Key: "$sum", Value: "$input_tokens"}}},
			{Key: "total_output", Value: bson.D{{Key: "$sum", Value: "$output_tokens"}}},
			{Key: "total_tokens", Value: bson.D{{Key: "$sum", Value: "$total_tokens"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage summary: %w", err)
	}
	defer cursor.Close(ctx)

	summary := &UsageSummary{}
	if cursor.Next(ctx) {
		var row struct {
			TotalRequests  int   `bson:"total_requests"`
			FailedRequests int   `bson:"failed_requests"`
			TotalInput     int64 `bson:"total_input"`
			TotalOutput    int64 `bson:"total_output"`
			TotalTokens    int64 `bson:"total_tokens"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode usage summary: %w", err)
		}
		*summary = UsageSummary(row)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage summary cursor: %w", err)
	}
	return summary, nil
}

func (r *MongoDBReader) GetModelUsage(ctx context.Context, params UsageQueryParams) ([]ModelUsage, error) {
	match := append(mongoMatch(params), bson.E{Key: "status", Value: StatusSuccess})
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "strategy", Value: "$strategy"}, {Key: "model", Value: "$model"}}},
			{Key: "requests", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "input_tokens", Value: bson.D{{Key: "$sum", Value: "$input_tokens"}}},
			{Key: "output_tokens", Value: bson.D{{Key: "$sum", Value: "$output_tokens"}}},
			{Key: "total_tokens", Value: bson.D{{Key: "$sum", Value: "$total_tokens"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "requests", Value: -1},
			{Key: "_id.strategy", Value: 1},
			{Key: "_id.model", Value: 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate model usage: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]ModelUsage, 0)
	for cursor.Next(ctx) {
		var row struct {
			ID struct {
				Strategy string `bson:"strategy"`
				Model    string `bson:"model"`
			} `bson:"_id"`
			Requests     int   `bson:"requests"`
			InputTokens  int64 `bson:"input_tokens"`
			OutputTokens int64 `bson:"output_tokens"`
			TotalTokens  int64 `bson:"total_tokens"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode model usage row: %w", err)
		}
		result = append(result, ModelUsage{
			Strategy:     row.ID.Strategy,
			Model:        row.ID.Model,
			Requests:     row.Requests,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			TotalTokens:  row.TotalTokens,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model usage cursor: %w", err)
	}
	return result, nil
}
