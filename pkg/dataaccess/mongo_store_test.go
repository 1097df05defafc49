package dataaccess

import (
	"testing"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestOpenTicketsPipeline(t *testing.T) {
	feature := entities.FeaturePlanner

	tests := []struct {
		name      string
		feature   *string
		wantMatch bson.D
	}{
		{
			name:    "all features",
			feature: nil,
			wantMatch: bson.D{
				{Key: "status", Value: entities.TicketStatusOpen},
			},
		},
		{
			name:    "single feature",
			feature: &feature,
			wantMatch: bson.D{
				{Key: "status", Value: entities.TicketStatusOpen},
				{Key: "feature", Value: entities.FeaturePlanner},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := openTicketsPipeline(tt.feature)
			require.Len(t, p, 2+len(ticketJoinStages()))
			require.Equal(t, bson.D{{Key: "$match", Value: tt.wantMatch}}, p[0])
			require.Equal(t, bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}}, p[1])
			require.Equal(t, "$lookup", p[2][0].Key)
		})
	}
}

func TestUserUpsertUpdate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u := entities.User{ID: 1, Handle: "jane", FirstName: "Jane"}

	refresh := userUpsertUpdate(u, now, true)
	require.Equal(t, bson.M{"created_at": now}, refresh["$setOnInsert"])
	require.Equal(t, bson.M{"username": "jane", "first_name": "Jane", "last_active": now}, refresh["$set"])

	insertOnly := userUpsertUpdate(u, now, false)
	require.NotContains(t, insertOnly, "$set")
	require.Equal(t, bson.M{"username": "jane", "first_name": "Jane", "last_active": now, "created_at": now}, insertOnly["$setOnInsert"])
}

func TestTicketRow_ToTicket(t *testing.T) {
	row := &ticketRow{
		Ticket:      entities.Ticket{ID: "abc", Feature: "GPA", Description: "x", Status: entities.TicketStatusOpen},
		ReporterDoc: entities.User{ID: 5, Handle: "sam"},
	}

	got := row.toTicket()
	require.Equal(t, "abc", got.ID)
	require.Equal(t, int64(5), got.Reporter.ID)
	require.Equal(t, "sam", got.Reporter.Handle)
}

func TestTicketRow_Decode(t *testing.T) {
	created := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"id":          "abc",
		"feature":     "Planner",
		"course_code": "CSEN102",
		"description": "wrong prerequisites",
		"status":      "Open",
		"created_at":  created,
		"reporter":    bson.M{"telegram_id": int64(9), "username": "kim"},
	})
	require.NoError(t, err)

	row := new(ticketRow)
	require.NoError(t, bson.Unmarshal(raw, row))

	got := row.toTicket()
	require.Equal(t, "CSEN102", got.CourseCode)
	require.Equal(t, created, got.CreatedAt.UTC())
	require.Equal(t, int64(9), got.Reporter.ID)
	require.Nil(t, got.ClosedAt)
}

func TestOverallCountsPipeline(t *testing.T) {
	pipeline := overallCountsPipeline()
	require.Len(t, pipeline, 1, "counted in a single stage")

	stage := pipeline[0]
	require.Equal(t, "$group", stage[0].Key)

	group, ok := stage[0].Value.(bson.D)
	require.True(t, ok)
	require.Equal(t, bson.E{Key: "_id", Value: nil}, group[0])
	require.Equal(t, []string{"_id", "total", "open", "closed"}, []string{group[0].Key, group[1].Key, group[2].Key, group[3].Key})

	raw, err := bson.Marshal(group[2].Value)
	require.NoError(t, err)
	require.Contains(t, bson.Raw(raw).String(), `"Open"`)
}

func TestCountsRow_Decode(t *testing.T) {
	// $sum yields int32 for small counts.
	raw, err := bson.Marshal(bson.M{"_id": nil, "total": int32(5), "open": int32(3), "closed": int32(2)})
	require.NoError(t, err)

	row := new(countsRow)
	require.NoError(t, bson.Unmarshal(raw, row))
	require.Equal(t, entities.Counts{Total: 5, Open: 3, Closed: 2}, row.toCounts())
}

func TestMongoIndexes_UsernameIsCaseInsensitive(t *testing.T) {
	var found bool
	for _, m := range mongoIndexes[collectionUsers] {
		if m.Keys.(bson.D)[0].Key != "username" {
			continue
		}
		found = true
		require.NotNil(t, m.Options)
		require.Equal(t, handleCollation, m.Options.Collation)
	}
	require.True(t, found, "username index missing")
	require.Equal(t, 2, handleCollation.Strength)
}
