package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoDalName = "mongo_store"

const (
	collectionUsers    = "users"
	collectionTickets  = "tickets"
	collectionReported = "reported"
)

// reportedEdge links a user to a ticket they reported. There is exactly one per ticket.
type reportedEdge struct {
	UserID    int64     `bson:"user_id"`
	TicketID  string    `bson:"ticket_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// ticketRow is a ticket joined with its reporter by ticketJoinStages.
type ticketRow struct {
	entities.Ticket `bson:",inline"`

	ReporterDoc entities.User `bson:"reporter"`
}

func (r *ticketRow) toTicket() *entities.Ticket {
	t := r.Ticket
	t.Reporter = r.ReporterDoc
	return &t
}

type mongoStore struct {
	// l is the logger.
	l *slog.Logger

	// client is the pooled mongo client.
	client *mongo.Client

	// database is the name of the database holding the collections.
	database string
}

// NewMongoStore creates a ticket store backed by MongoDB.
func NewMongoStore(l *slog.Logger, client *mongo.Client, database string) TicketStore {
	return &mongoStore{
		l:        l.With(slog.String(logging.KeyDal, mongoDalName)),
		client:   client,
		database: database,
	}
}

func (s *mongoStore) collection(name string) *mongo.Collection {
	return s.client.Database(s.database).Collection(name)
}

func (s *mongoStore) UpsertUser(ctx context.Context, user entities.User, now time.Time) error {
	defer observe(mongoDalName, "upsert_user")()

	_, err := s.collection(collectionUsers).UpdateOne(ctx,
		bson.M{"telegram_id": user.ID},
		userUpsertUpdate(user, now, true),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return failed(mongoDalName, "upsert_user", fmt.Errorf("error upserting user: %w", err))
	}
	return nil
}

// userUpsertUpdate builds the update document for a user merge. Without refresh an existing user is untouched.
func userUpsertUpdate(user entities.User, now time.Time, refresh bool) bson.M {
	profile := bson.M{
		"username":    user.Handle,
		"first_name":  user.FirstName,
		"last_active": now,
	}
	if !refresh {
		profile["created_at"] = now
		return bson.M{"$setOnInsert": profile}
	}
	return bson.M{
		"$setOnInsert": bson.M{"created_at": now},
		"$set":         profile,
	}
}

func (s *mongoStore) CreateTicket(ctx context.Context, t entities.NewTicket, now time.Time) (string, error) {
	defer observe(mongoDalName, "create_ticket")()

	if err := validateNewTicket(t); err != nil {
		return "", err
	}

	session, err := s.client.StartSession()
	if err != nil {
		return "", failed(mongoDalName, "create_ticket", fmt.Errorf("error starting session: %w", err))
	}
	defer session.EndSession(ctx)

	id := newTicketID()
	ticket := entities.Ticket{
		ID:          id,
		Feature:     t.Feature,
		CourseCode:  t.CourseCode,
		Description: t.Description,
		Status:      entities.TicketStatusOpen,
		CreatedAt:   now.UTC(),
	}

	// The user, ticket and edge are written in one transaction so a ticket is never visible without its reporter.
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if _, err := s.collection(collectionUsers).UpdateOne(sc,
			bson.M{"telegram_id": t.Reporter.ID},
			userUpsertUpdate(t.Reporter, now.UTC(), false),
			options.Update().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("error upserting reporter: %w", err)
		}

		if _, err := s.collection(collectionTickets).InsertOne(sc, ticket); err != nil {
			return nil, fmt.Errorf("error inserting ticket: %w", err)
		}

		if _, err := s.collection(collectionReported).InsertOne(sc, reportedEdge{
			UserID:    t.Reporter.ID,
			TicketID:  id,
			CreatedAt: now.UTC(),
		}); err != nil {
			return nil, fmt.Errorf("error inserting reported edge: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return "", failed(mongoDalName, "create_ticket", fmt.Errorf("error creating ticket: %w", err))
	}
	return id, nil
}

// ticketJoinStages attaches the reporting user to each ticket through the reported edge.
func ticketJoinStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionReported},
			{Key: "localField", Value: "id"},
			{Key: "foreignField", Value: "ticket_id"},
			{Key: "as", Value: "edge"},
		}}},
		// Tickets without an edge are dropped here.
		{{Key: "$unwind", Value: "$edge"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionUsers},
			{Key: "localField", Value: "edge.user_id"},
			{Key: "foreignField", Value: "telegram_id"},
			{Key: "as", Value: "reporter"},
		}}},
		{{Key: "$unwind", Value: "$reporter"}},
		{{Key: "$project", Value: bson.D{{Key: "edge", Value: 0}}}},
	}
}

// openTicketsPipeline lists open tickets newest first. A nil feature matches all.
func openTicketsPipeline(feature *string) mongo.Pipeline {
	match := bson.D{{Key: "status", Value: entities.TicketStatusOpen}}
	if feature != nil {
		match = append(match, bson.E{Key: "feature", Value: *feature})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
	}
	return append(pipeline, ticketJoinStages()...)
}

func ticketByIDPipeline(id string) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "id", Value: id}}}},
		{{Key: "$limit", Value: 1}},
	}
	return append(pipeline, ticketJoinStages()...)
}

func (s *mongoStore) aggregateTickets(ctx context.Context, pipeline mongo.Pipeline) ([]*entities.Ticket, error) {
	cur, err := s.collection(collectionTickets).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []*ticketRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	tickets := make([]*entities.Ticket, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, r.toTicket())
	}
	return tickets, nil
}

func (s *mongoStore) ListOpenByFeature(ctx context.Context, feature string) ([]*entities.Ticket, error) {
	defer observe(mongoDalName, "list_open_by_feature")()

	tickets, err := s.aggregateTickets(ctx, openTicketsPipeline(&feature))
	if err != nil {
		return nil, failed(mongoDalName, "list_open_by_feature", fmt.Errorf("error listing open tickets: %w", err))
	}
	return tickets, nil
}

func (s *mongoStore) ListAllOpen(ctx context.Context) ([]*entities.Ticket, error) {
	defer observe(mongoDalName, "list_all_open")()

	tickets, err := s.aggregateTickets(ctx, openTicketsPipeline(nil))
	if err != nil {
		return nil, failed(mongoDalName, "list_all_open", fmt.Errorf("error listing open tickets: %w", err))
	}
	return tickets, nil
}

func (s *mongoStore) GetByID(ctx context.Context, id string) (*entities.Ticket, error) {
	defer observe(mongoDalName, "get_by_id")()

	tickets, err := s.aggregateTickets(ctx, ticketByIDPipeline(id))
	if err != nil {
		return nil, failed(mongoDalName, "get_by_id", fmt.Errorf("error getting ticket: %w", err))
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return tickets[0], nil
}

func (s *mongoStore) CloseTicket(ctx context.Context, id string, now time.Time) (string, error) {
	defer observe(mongoDalName, "close_ticket")()

	var ticket entities.Ticket
	err := s.collection(collectionTickets).FindOneAndUpdate(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{
			"status":    entities.TicketStatusClosed,
			"closed_at": now.UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	} else if err != nil {
		return "", failed(mongoDalName, "close_ticket", fmt.Errorf("error closing ticket: %w", err))
	}
	return ticket.Feature, nil
}

func (s *mongoStore) CountsByFeature(ctx context.Context) (map[string]int64, error) {
	defer observe(mongoDalName, "counts_by_feature")()

	cur, err := s.collection(collectionTickets).Aggregate(ctx, countsByFeaturePipeline())
	if err != nil {
		return nil, failed(mongoDalName, "counts_by_feature", fmt.Errorf("error counting tickets by feature: %w", err))
	}

	var rows []struct {
		Feature string `bson:"_id"`
		Count   int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, failed(mongoDalName, "counts_by_feature", fmt.Errorf("error decoding feature counts: %w", err))
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Feature] = r.Count
	}
	return counts, nil
}

func countsByFeaturePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: entities.TicketStatusOpen}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$feature"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

func (s *mongoStore) OverallCounts(ctx context.Context) (*entities.Counts, error) {
	defer observe(mongoDalName, "overall_counts")()

	cur, err := s.collection(collectionTickets).Aggregate(ctx, overallCountsPipeline())
	if err != nil {
		return nil, failed(mongoDalName, "overall_counts", fmt.Errorf("error counting tickets: %w", err))
	}

	var rows []countsRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, failed(mongoDalName, "overall_counts", fmt.Errorf("error decoding ticket counts: %w", err))
	}

	counts := new(entities.Counts)
	if len(rows) > 0 {
		*counts = rows[0].toCounts()
	}
	return counts, nil
}

// countsRow is the single document produced by overallCountsPipeline.
type countsRow struct {
	Total  int64 `bson:"total"`
	Open   int64 `bson:"open"`
	Closed int64 `bson:"closed"`
}

func (r countsRow) toCounts() entities.Counts {
	return entities.Counts{Total: r.Total, Open: r.Open, Closed: r.Closed}
}

// overallCountsPipeline counts every status in one pass. An empty collection yields no document.
func overallCountsPipeline() mongo.Pipeline {
	statusSum := func(status entities.TicketStatus) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$status", status}}}, 1, 0,
		}}}}}
	}

	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "open", Value: statusSum(entities.TicketStatusOpen)},
			{Key: "closed", Value: statusSum(entities.TicketStatusClosed)},
		}}},
	}
}

func (s *mongoStore) UserCount(ctx context.Context) (int64, error) {
	defer observe(mongoDalName, "user_count")()

	count, err := s.collection(collectionUsers).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, failed(mongoDalName, "user_count", fmt.Errorf("error counting users: %w", err))
	}
	return count, nil
}

func (s *mongoStore) FindUserByHandle(ctx context.Context, handle string) (*entities.User, error) {
	defer observe(mongoDalName, "find_user_by_handle")()

	if handle == "" {
		return nil, ErrNotFound
	}

	user := new(entities.User)
	err := s.collection(collectionUsers).FindOne(ctx,
		bson.M{"username": handle},
		options.FindOne().SetSort(bson.M{"last_active": -1}).SetCollation(handleCollation),
	).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, failed(mongoDalName, "find_user_by_handle", fmt.Errorf("error finding user: %w", err))
	}
	return user, nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	defer observe(mongoDalName, "ping")()

	if err := s.client.Ping(ctx, nil); err != nil {
		return failed(mongoDalName, "ping", fmt.Errorf("failed to ping MongoDB: %w", err))
	}
	return nil
}

// handleCollation matches usernames case-insensitively, the way Telegram treats them.
var handleCollation = &options.Collation{Locale: "en", Strength: 2}

// mongoIndexes are applied by Migrate, keyed by collection.
var mongoIndexes = map[string][]mongo.IndexModel{
	collectionUsers: {
		{Keys: bson.D{{Key: "telegram_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName("username_ci").SetCollation(handleCollation)},
	},
	collectionTickets: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "feature", Value: 1}, {Key: "created_at", Value: -1}}},
	},
	collectionReported: {
		{Keys: bson.D{{Key: "ticket_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	},
}

func (s *mongoStore) Migrate(ctx context.Context) error {
	for col, models := range mongoIndexes {
		names, err := s.collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("error creating indexes on %s: %w", col, err)
		}
		s.l.Debug("Created indexes", slog.String("collection", col), slog.Any("indexes", names))
	}
	return nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
