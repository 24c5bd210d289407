package store

import (
	"context"
	"testing"
	"time"

	"github.com/cankoe/survey-runner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStoreGetAccount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.account", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "tenant_id", Value: "T1"},
			{Key: "site", Value: "FIVE_SURVEYS"},
			{Key: "username", Value: "alice"},
			{Key: "status", Value: "ACTIVE"},
		}))

		acc, err := NewMongoStore(mt.DB).GetAccount(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), acc.ID)
		assert.Equal(mt, "T1", acc.TenantID)
		assert.Equal(mt, models.AccountStatusActive, acc.Status)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.account", mtest.FirstBatch))

		_, err := NewMongoStore(mt.DB).GetAccount(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		_, err := NewMongoStore(mt.DB).GetAccount(context.Background(), "not-an-object-id")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoStoreCreateRun(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		run := &models.Run{TenantID: "T1", AccountID: "A1", Status: models.RunStatusInit}
		id, err := NewMongoStore(mt.DB).CreateRun(context.Background(), run)
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(id)
		assert.NoError(mt, err)
		assert.Equal(mt, id, run.ID)
	})
}

func TestMongoStoreUpdateRun(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	status := models.RunStatusLogin

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := NewMongoStore(mt.DB).UpdateRun(context.Background(), primitive.NewObjectID().Hex(),
			models.RunUpdate{Status: &status, UpdatedAt: time.Now().UTC()})
		assert.NoError(mt, err)
	})

	mt.Run("no match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := NewMongoStore(mt.DB).UpdateRun(context.Background(), primitive.NewObjectID().Hex(),
			models.RunUpdate{Status: &status, UpdatedAt: time.Now().UTC()})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoStoreListEvents(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes in order", func(mt *mtest.T) {
		ts := time.Now().UTC().Truncate(time.Millisecond)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.runevent", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "tenant_id", Value: "T1"},
				{Key: "run_id", Value: "r1"},
				{Key: "ts", Value: ts},
				{Key: "level", Value: "info"},
				{Key: "code", Value: "RUN_ENQUEUED"},
				{Key: "message", Value: "Run enqueued"},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "tenant_id", Value: "T1"},
				{Key: "run_id", Value: "r1"},
				{Key: "ts", Value: ts.Add(time.Millisecond)},
				{Key: "level", Value: "info"},
				{Key: "code", Value: "RUN_STARTED"},
				{Key: "message", Value: "Run started"},
			},
		))

		events, err := NewMongoStore(mt.DB).ListEvents(context.Background(), "r1")
		require.NoError(mt, err)
		require.Len(mt, events, 2)
		assert.Equal(mt, "RUN_ENQUEUED", events[0].Code)
		assert.Equal(mt, models.LevelInfo, events[1].Level)
		assert.False(mt, events[1].Ts.Before(events[0].Ts))
	})
}
