package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const sessionIndexKey = "records:sessions"

type Data struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Kind      events.RecordKind `json:"kind"`
	Payload   json.RawMessage   `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
}

type redisRepo struct {
	client       redis.UniversalClient
	timeProvider TimeProvider
}

// NewRedis creates a redis backed record log
func NewRedis(client redis.UniversalClient, timeProvider TimeProvider) Repository {
	if client == nil {
		panic("redis client is required")
	}
	if timeProvider == nil {
		timeProvider = RealTime()
	}

	return &redisRepo{
		client:       client,
		timeProvider: timeProvider,
	}
}

func recordKey(id string) string {
	return fmt.Sprintf("record:%s", id)
}

func sessionRecordsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:records", sessionID)
}

func (r *redisRepo) Append(ctx context.Context, record *events.Record) error {
	if err := validate(record); err != nil {
		return err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.timeProvider.Now()
	}

	jsonData, err := json.Marshal(toData(record))
	if err != nil {
		return fmt.Errorf("failed to marshal record data: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, recordKey(record.ID), string(jsonData), 0)
	pipe.RPush(ctx, sessionRecordsKey(record.SessionID), record.ID)
	pipe.SAdd(ctx, sessionIndexKey, record.SessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append record in Redis: %w", err)
	}

	return nil
}

func (r *redisRepo) Get(ctx context.Context, id string) (*events.Record, error) {
	if id == "" {
		return nil, dnderr.InvalidArgument("record ID is required")
	}

	jsonData, err := r.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dnderr.NotFoundf("record '%s' not found", id).
				WithMeta("record_id", id)
		}
		return nil, fmt.Errorf("failed to get record from Redis: %w", err)
	}

	var data Data
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record data: %w", err)
	}

	return toRecord(&data), nil
}

func (r *redisRepo) ListBySession(ctx context.Context, sessionID string) ([]*events.Record, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}

	ids, err := r.client.LRange(ctx, sessionRecordsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session records from Redis: %w", err)
	}

	records := make([]*events.Record, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			record, err := r.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get record %s: %w", id, err)
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *redisRepo) ListSessions(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get record sessions from Redis: %w", err)
	}
	return ids, nil
}

func validate(record *events.Record) error {
	if record == nil {
		return dnderr.InvalidArgument("record cannot be nil")
	}
	if record.ID == "" {
		return dnderr.InvalidArgument("record ID is required")
	}
	if record.SessionID == "" {
		return dnderr.InvalidArgument("record session ID is required").
			WithMeta("record_id", record.ID)
	}
	return nil
}

func toData(record *events.Record) *Data {
	return &Data{
		ID:        record.ID,
		SessionID: record.SessionID,
		Kind:      record.Kind,
		Payload:   record.Payload,
		CreatedAt: record.CreatedAt,
	}
}

func toRecord(data *Data) *events.Record {
	return &events.Record{
		ID:        data.ID,
		SessionID: data.SessionID,
		Kind:      data.Kind,
		Payload:   data.Payload,
		CreatedAt: data.CreatedAt,
	}
}
