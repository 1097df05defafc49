package dataaccess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const neo4jDalName = "neo4j_store"

const (
	cypherUpsertUser = `
MERGE (u:User {telegram_id: $telegram_id})
ON CREATE SET u.created_at = $now
SET u.username = $username, u.first_name = $first_name, u.last_active = $now`

	cypherCreateTicket = `
MERGE (u:User {telegram_id: $telegram_id})
ON CREATE SET u.created_at = $now, u.username = $username, u.first_name = $first_name, u.last_active = $now
CREATE (t:Ticket {
	id: $id,
	feature: $feature,
	course_code: $course_code,
	description: $description,
	status: $status,
	created_at: $now
})
CREATE (u)-[:REPORTED]->(t)
RETURN t.id AS id`

	cypherTicketColumns = `
RETURN t.id AS id, t.feature AS feature, t.course_code AS course_code,
	t.description AS description, t.status AS status,
	t.created_at AS created_at, t.closed_at AS closed_at,
	u.telegram_id AS telegram_id, u.username AS username, u.first_name AS first_name`

	cypherListOpen = `
MATCH (u:User)-[:REPORTED]->(t:Ticket {status: $status})
WHERE $feature IS NULL OR t.feature = $feature` + cypherTicketColumns + `
ORDER BY t.created_at DESC`

	cypherGetByID = `
MATCH (u:User)-[:REPORTED]->(t:Ticket {id: $id})` + cypherTicketColumns

	cypherCloseTicket = `
MATCH (t:Ticket {id: $id})
SET t.status = $status, t.closed_at = $now
RETURN t.feature AS feature`

	cypherCountsByFeature = `
MATCH (t:Ticket {status: $status})
RETURN t.feature AS feature, count(t) AS count`

	cypherOverallCounts = `
MATCH (t:Ticket)
RETURN count(t) AS total,
	count(CASE WHEN t.status = $open THEN 1 END) AS open,
	count(CASE WHEN t.status = $closed THEN 1 END) AS closed`

	cypherUserCount = `MATCH (u:User) RETURN count(u) AS count`

	cypherFindUserByHandle = `
MATCH (u:User)
WHERE toLower(u.username) = toLower($username)
RETURN u.telegram_id AS telegram_id, u.username AS username, u.first_name AS first_name,
	u.created_at AS created_at, u.last_active AS last_active
ORDER BY u.last_active DESC
LIMIT 1`
)

// neo4jSchema is applied by Migrate. Every statement is idempotent.
var neo4jSchema = []string{
	`CREATE CONSTRAINT user_telegram_id IF NOT EXISTS FOR (u:User) REQUIRE u.telegram_id IS UNIQUE`,
	`CREATE CONSTRAINT ticket_id IF NOT EXISTS FOR (t:Ticket) REQUIRE t.id IS UNIQUE`,
	`CREATE INDEX ticket_status IF NOT EXISTS FOR (t:Ticket) ON (t.status)`,
	`CREATE INDEX user_username IF NOT EXISTS FOR (u:User) ON (u.username)`,
}

type neo4jStore struct {
	// l is the logger.
	l *slog.Logger

	// driver is the pooled neo4j driver. Sessions are opened per call.
	driver neo4j.DriverWithContext

	// database is the neo4j database name. Empty uses the server default.
	database string
}

// NewNeo4jStore creates a ticket store backed by a neo4j graph.
func NewNeo4jStore(l *slog.Logger, driver neo4j.DriverWithContext, database string) TicketStore {
	return &neo4jStore{
		l:        l.With(slog.String(logging.KeyDal, neo4jDalName)),
		driver:   driver,
		database: database,
	}
}

func (s *neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

func (s *neo4jStore) closeSession(ctx context.Context, session neo4j.SessionWithContext) {
	if err := session.Close(ctx); err != nil {
		s.l.Warn("Error closing neo4j session", slog.String(logging.KeyError, err.Error()))
	}
}

// write runs work in a single write transaction on a scoped session.
func (s *neo4jStore) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer s.closeSession(ctx, session)
	return session.ExecuteWrite(ctx, work)
}

// read runs work in a single read transaction on a scoped session.
func (s *neo4jStore) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer s.closeSession(ctx, session)
	return session.ExecuteRead(ctx, work)
}

func collect(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

func (s *neo4jStore) UpsertUser(ctx context.Context, user entities.User, now time.Time) error {
	defer observe(neo4jDalName, "upsert_user")()

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherUpsertUser, map[string]any{
			"telegram_id": user.ID,
			"username":    nullable(user.Handle),
			"first_name":  nullable(user.FirstName),
			"now":         now.UTC(),
		})
	})
	if err != nil {
		return failed(neo4jDalName, "upsert_user", fmt.Errorf("error upserting user: %w", err))
	}
	return nil
}

func (s *neo4jStore) CreateTicket(ctx context.Context, t entities.NewTicket, now time.Time) (string, error) {
	defer observe(neo4jDalName, "create_ticket")()

	if err := validateNewTicket(t); err != nil {
		return "", err
	}

	id := newTicketID()
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherCreateTicket, map[string]any{
			"telegram_id": t.Reporter.ID,
			"username":    nullable(t.Reporter.Handle),
			"first_name":  nullable(t.Reporter.FirstName),
			"id":          id,
			"feature":     t.Feature,
			"course_code": nullable(t.CourseCode),
			"description": t.Description,
			"status":      string(entities.TicketStatusOpen),
			"now":         now.UTC(),
		})
	})
	if err != nil {
		return "", failed(neo4jDalName, "create_ticket", fmt.Errorf("error creating ticket: %w", err))
	}
	return id, nil
}

func (s *neo4jStore) ListOpenByFeature(ctx context.Context, feature string) ([]*entities.Ticket, error) {
	defer observe(neo4jDalName, "list_open_by_feature")()

	tickets, err := s.listOpen(ctx, feature)
	if err != nil {
		return nil, failed(neo4jDalName, "list_open_by_feature", err)
	}
	return tickets, nil
}

func (s *neo4jStore) ListAllOpen(ctx context.Context) ([]*entities.Ticket, error) {
	defer observe(neo4jDalName, "list_all_open")()

	tickets, err := s.listOpen(ctx, nil)
	if err != nil {
		return nil, failed(neo4jDalName, "list_all_open", err)
	}
	return tickets, nil
}

// listOpen lists open tickets. A nil feature matches every feature.
func (s *neo4jStore) listOpen(ctx context.Context, feature any) ([]*entities.Ticket, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherListOpen, map[string]any{
			"status":  string(entities.TicketStatusOpen),
			"feature": feature,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("error listing open tickets: %w", err)
	}

	records := res.([]*neo4j.Record)
	tickets := make([]*entities.Ticket, 0, len(records))
	for _, rec := range records {
		tickets = append(tickets, ticketFromRecord(rec))
	}
	return tickets, nil
}

func (s *neo4jStore) GetByID(ctx context.Context, id string) (*entities.Ticket, error) {
	defer observe(neo4jDalName, "get_by_id")()

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherGetByID, map[string]any{"id": id})
	})
	if err != nil {
		return nil, failed(neo4jDalName, "get_by_id", fmt.Errorf("error getting ticket: %w", err))
	}

	records := res.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return ticketFromRecord(records[0]), nil
}

func (s *neo4jStore) CloseTicket(ctx context.Context, id string, now time.Time) (string, error) {
	defer observe(neo4jDalName, "close_ticket")()

	res, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherCloseTicket, map[string]any{
			"id":     id,
			"status": string(entities.TicketStatusClosed),
			"now":    now.UTC(),
		})
	})
	if err != nil {
		return "", failed(neo4jDalName, "close_ticket", fmt.Errorf("error closing ticket: %w", err))
	}

	records := res.([]*neo4j.Record)
	if len(records) == 0 {
		return "", ErrNotFound
	}
	return recordString(records[0], "feature"), nil
}

func (s *neo4jStore) CountsByFeature(ctx context.Context) (map[string]int64, error) {
	defer observe(neo4jDalName, "counts_by_feature")()

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherCountsByFeature, map[string]any{
			"status": string(entities.TicketStatusOpen),
		})
	})
	if err != nil {
		return nil, failed(neo4jDalName, "counts_by_feature", fmt.Errorf("error counting tickets by feature: %w", err))
	}

	counts := make(map[string]int64)
	for _, rec := range res.([]*neo4j.Record) {
		counts[recordString(rec, "feature")] = recordInt(rec, "count")
	}
	return counts, nil
}

func (s *neo4jStore) OverallCounts(ctx context.Context) (*entities.Counts, error) {
	defer observe(neo4jDalName, "overall_counts")()

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherOverallCounts, map[string]any{
			"open":   string(entities.TicketStatusOpen),
			"closed": string(entities.TicketStatusClosed),
		})
	})
	if err != nil {
		return nil, failed(neo4jDalName, "overall_counts", fmt.Errorf("error counting tickets: %w", err))
	}

	counts := new(entities.Counts)
	if records := res.([]*neo4j.Record); len(records) > 0 {
		counts.Total = recordInt(records[0], "total")
		counts.Open = recordInt(records[0], "open")
		counts.Closed = recordInt(records[0], "closed")
	}
	return counts, nil
}

func (s *neo4jStore) UserCount(ctx context.Context) (int64, error) {
	defer observe(neo4jDalName, "user_count")()

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherUserCount, nil)
	})
	if err != nil {
		return 0, failed(neo4jDalName, "user_count", fmt.Errorf("error counting users: %w", err))
	}

	if records := res.([]*neo4j.Record); len(records) > 0 {
		return recordInt(records[0], "count"), nil
	}
	return 0, nil
}

func (s *neo4jStore) FindUserByHandle(ctx context.Context, handle string) (*entities.User, error) {
	defer observe(neo4jDalName, "find_user_by_handle")()

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypherFindUserByHandle, map[string]any{"username": handle})
	})
	if err != nil {
		return nil, failed(neo4jDalName, "find_user_by_handle", fmt.Errorf("error finding user: %w", err))
	}

	records := res.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	rec := records[0]
	u := &entities.User{
		ID:        recordInt(rec, "telegram_id"),
		Handle:    recordString(rec, "username"),
		FirstName: recordString(rec, "first_name"),
	}
	if t := recordTime(rec, "created_at"); t != nil {
		u.CreatedAt = *t
	}
	if t := recordTime(rec, "last_active"); t != nil {
		u.LastActiveAt = *t
	}
	return u, nil
}

func (s *neo4jStore) Ping(ctx context.Context) error {
	defer observe(neo4jDalName, "ping")()

	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return failed(neo4jDalName, "ping", fmt.Errorf("error pinging neo4j: %w", err))
	}
	return nil
}

func (s *neo4jStore) Migrate(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer s.closeSession(ctx, session)

	// Schema statements cannot share a transaction with each other.
	for _, stmt := range neo4jSchema {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return collect(ctx, tx, stmt, nil)
		})
		if err != nil {
			return fmt.Errorf("error applying schema %q: %w", stmt, err)
		}
		s.l.Debug("Applied schema statement", slog.String("statement", stmt))
	}
	return nil
}

func (s *neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// ticketFromRecord maps a row shaped by cypherTicketColumns.
func ticketFromRecord(rec *neo4j.Record) *entities.Ticket {
	t := &entities.Ticket{
		ID:          recordString(rec, "id"),
		Feature:     recordString(rec, "feature"),
		CourseCode:  recordString(rec, "course_code"),
		Description: recordString(rec, "description"),
		Status:      entities.TicketStatus(recordString(rec, "status")),
		ClosedAt:    recordTime(rec, "closed_at"),
		Reporter: entities.User{
			ID:        recordInt(rec, "telegram_id"),
			Handle:    recordString(rec, "username"),
			FirstName: recordString(rec, "first_name"),
		},
	}
	if c := recordTime(rec, "created_at"); c != nil {
		t.CreatedAt = *c
	}
	return t
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	i, _ := v.(int64)
	return i
}

func recordTime(rec *neo4j.Record, key string) *time.Time {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case neo4j.LocalDateTime:
		u := t.Time().UTC()
		return &u
	default:
		return nil
	}
}

// nullable stores empty optional strings as null properties.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
