package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cankoe/survey-runner/internal/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared with the records already written by the
// account and run services.
const (
	AccountCollection  = "account"
	RunCollection      = "run"
	RunEventCollection = "runevent"
)

// MongoStore implements Registry and AccountStore on top of MongoDB.
type MongoStore struct {
	accounts *mongo.Collection
	runs     *mongo.Collection
	events   *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		accounts: db.Collection(AccountCollection),
		runs:     db.Collection(RunCollection),
		events:   db.Collection(RunEventCollection),
	}
}

func objectID(kind, hexID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s %s: %w", kind, hexID, ErrNotFound)
	}
	return oid, nil
}

func insertedHex(res *mongo.InsertOneResult) (string, error) {
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("inserted ID is not an ObjectID")
	}
	return oid.Hex(), nil
}

func (s *MongoStore) CreateAccount(ctx context.Context, account *models.Account) (string, error) {
	account.ID = ""
	res, err := s.accounts.InsertOne(ctx, account)
	if err != nil {
		return "", fmt.Errorf("failed to insert account: %w", err)
	}
	id, err := insertedHex(res)
	if err != nil {
		return "", err
	}
	account.ID = id
	return id, nil
}

func (s *MongoStore) ListAccounts(ctx context.Context, tenantID string) ([]models.Account, error) {
	filter := bson.M{}
	if tenantID != "" {
		filter["tenant_id"] = tenantID
	}
	cursor, err := s.accounts.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts: %w", err)
	}
	defer cursor.Close(ctx)

	accounts := []models.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, nil
}

func (s *MongoStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	oid, err := objectID("account", accountID)
	if err != nil {
		return nil, err
	}
	var account models.Account
	if err := s.accounts.FindOne(ctx, bson.M{"_id": oid}).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve account %s: %w", accountID, err)
	}
	return &account, nil
}

func (s *MongoStore) CreateRun(ctx context.Context, run *models.Run) (string, error) {
	run.ID = ""
	res, err := s.runs.InsertOne(ctx, run)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := insertedHex(res)
	if err != nil {
		return "", err
	}
	run.ID = id
	return id, nil
}

// UpdateRun applies update with $set and advances updated_at through $max so
// a late writer never moves the timestamp backwards.
func (s *MongoStore) UpdateRun(ctx context.Context, runID string, update models.RunUpdate) error {
	oid, err := objectID("run", runID)
	if err != nil {
		return err
	}

	set := bson.M{}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.PayoutTotal != nil {
		set["payout_total"] = *update.PayoutTotal
	}
	if update.DurationSecTotal != nil {
		set["duration_sec_total"] = *update.DurationSecTotal
	}
	if update.EVScoreAvg != nil {
		set["ev_score_avg"] = *update.EVScoreAvg
	}
	if update.RevenueHour != nil {
		set["revenue_hour"] = *update.RevenueHour
	}
	if update.Error != nil {
		set["error"] = *update.Error
	}

	doc := bson.M{"$max": bson.M{"updated_at": update.UpdatedAt}}
	if len(set) > 0 {
		doc["$set"] = set
	}

	res, err := s.runs.UpdateOne(ctx, bson.M{"_id": oid}, doc, options.Update().SetUpsert(false))
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to update run")
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	oid, err := objectID("run", runID)
	if err != nil {
		return nil, err
	}
	var run models.Run
	if err := s.runs.FindOne(ctx, bson.M{"_id": oid}).Decode(&run); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve run %s: %w", runID, err)
	}
	return &run, nil
}

func (s *MongoStore) AppendEvent(ctx context.Context, event *models.RunEvent) (string, error) {
	event.ID = ""
	res, err := s.events.InsertOne(ctx, event)
	if err != nil {
		return "", fmt.Errorf("failed to insert run event: %w", err)
	}
	id, err := insertedHex(res)
	if err != nil {
		return "", err
	}
	event.ID = id
	return id, nil
}

func (s *MongoStore) ListEvents(ctx context.Context, runID string) ([]models.RunEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.events.Find(ctx, bson.M{"run_id": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events for run %s: %w", runID, err)
	}
	defer cursor.Close(ctx)

	events := []models.RunEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events for run %s: %w", runID, err)
	}
	return events, nil
}
