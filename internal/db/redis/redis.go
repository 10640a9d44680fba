// Package redis stores transcripts in Redis. Each student is a JSON value
// under its own key and a set tracks which students exist.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

// DefaultPrefix namespaces every key this package writes.
const DefaultPrefix = "transcripts:"

// Check that *Redis implements transcript.Persister.
var _ transcript.Persister = (*Redis)(nil)

// Redis implements transcript.Persister.
type Redis struct {
	log    *zap.Logger
	client *redis.Client
	prefix string
}

// New connects to the server at redisURL. Keys are written under prefix, or
// DefaultPrefix when prefix is empty.
func New(ctx context.Context, log *zap.Logger, redisURL, prefix string) (*Redis, error) {
	if redisURL == "" {
		return nil, errors.New("missing redis connection URL")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL error: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("client.Ping error: %w", err)
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}

	log.Info("Database has been connected and pinged successfully", zap.String("addr", opts.Addr), zap.String("prefix", prefix))

	return &Redis{
		log:    log,
		client: client,
		prefix: prefix,
	}, nil
}

func (r *Redis) studentKey(id transcript.StudentID) string {
	return r.prefix + "student:" + strconv.FormatInt(int64(id), 10)
}

func (r *Redis) studentsKey() string {
	return r.prefix + "students"
}

func (r *Redis) lastIDKey() string {
	return r.prefix + "last_id"
}

// Load implements transcript.Persister.
func (r *Redis) Load(ctx context.Context) (*transcript.Snapshot, error) {
	members, err := r.client.SMembers(ctx, r.studentsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("client.SMembers error: %w", err)
	}

	snapshot := new(transcript.Snapshot)

	if len(members) > 0 {
		keys := make([]string, 0, len(members))
		for _, member := range members {
			id, err := strconv.ParseInt(member, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid student id %q in %s: %w", member, r.studentsKey(), err)
			}
			keys = append(keys, r.studentKey(transcript.StudentID(id)))
		}

		values, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("client.MGet error: %w", err)
		}

		for index, value := range values {
			data, ok := value.(string)
			if !ok {
				// Set member without a record.
				continue
			}

			student := new(transcript.Student)
			if err := json.Unmarshal([]byte(data), student); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", keys[index], err)
			}
			if student.Grades == nil {
				student.Grades = make(transcript.Transcript)
			}
			snapshot.Students = append(snapshot.Students, student)
		}
	}

	lastID, err := r.client.Get(ctx, r.lastIDKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("client.Get error: %w", err)
	}
	snapshot.LastID = transcript.StudentID(lastID)

	return snapshot, nil
}

// Apply writes change inside MULTI/EXEC.
// Implements transcript.Persister.
func (r *Redis) Apply(ctx context.Context, change *transcript.Change) error {
	var data []byte
	if change.Upsert != nil {
		var err error
		data, err = json.Marshal(change.Upsert)
		if err != nil {
			return fmt.Errorf("failed to encode student %d: %w", change.Upsert.ID, err)
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if change.Upsert != nil {
			pipe.Set(ctx, r.studentKey(change.Upsert.ID), data, 0)
			pipe.SAdd(ctx, r.studentsKey(), strconv.FormatInt(int64(change.Upsert.ID), 10))
		}

		if change.Delete != 0 {
			pipe.Del(ctx, r.studentKey(change.Delete))
			pipe.SRem(ctx, r.studentsKey(), strconv.FormatInt(int64(change.Delete), 10))
		}

		// The store only ever raises LastID.
		pipe.Set(ctx, r.lastIDKey(), int64(change.LastID), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("client.TxPipelined error: %w", err)
	}

	return nil
}

// Shutdown implements transcript.Persister.
func (r *Redis) Shutdown(ctx context.Context) error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("client.Close error: %w", err)
	}

	r.log.Info("Database has been shutdown successfully")
	return nil
}
