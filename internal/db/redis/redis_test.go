package redis

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ukane-philemon/transcripts/internal/db/dbtest"
	"github.com/ukane-philemon/transcripts/internal/transcript"
)

func TestRedis(t *testing.T) {
	url := dbtest.URLFromEnv(t, "TEST_REDIS_URL")

	dbtest.RunPersisterSuite(t, func(t *testing.T) func() transcript.Persister {
		prefix := "transcripts_test:" + uuid.NewString() + ":"
		t.Cleanup(func() {
			ctx := context.Background()
			r, err := New(ctx, zap.NewNop(), url, prefix)
			if err != nil {
				return
			}
			keys, _ := r.client.Keys(ctx, prefix+"*").Result()
			if len(keys) > 0 {
				r.client.Del(ctx, keys...)
			}
			_ = r.Shutdown(ctx)
		})

		return func() transcript.Persister {
			r, err := New(context.Background(), zap.NewNop(), url, prefix)
			require.NoError(t, err)
			return r
		}
	})
}

func TestKeys(t *testing.T) {
	r := &Redis{prefix: DefaultPrefix}

	assert.Equal(t, "transcripts:student:42", r.studentKey(42))
	assert.Equal(t, "transcripts:students", r.studentsKey())
	assert.Equal(t, "transcripts:last_id", r.lastIDKey())
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), zap.NewNop(), "", "")
	assert.Error(t, err)

	_, err = New(context.Background(), zap.NewNop(), "http://localhost:6379", "")
	assert.Error(t, err)
}
