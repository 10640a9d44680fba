package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ukane-philemon/transcripts/internal/db/dbtest"
	"github.com/ukane-philemon/transcripts/internal/transcript"
)

func TestSQLite(t *testing.T) {
	dbtest.RunPersisterSuite(t, func(t *testing.T) func() transcript.Persister {
		path := filepath.Join(t.TempDir(), "transcripts.db")
		return func() transcript.Persister {
			p, err := New(context.Background(), zap.NewNop(), path)
			require.NoError(t, err)
			return p
		}
	})
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(context.Background(), zap.NewNop(), "")
	assert.Error(t, err)
}

func TestApply_CanceledContextWritesNothing(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, zap.NewNop(), filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	err = p.Apply(canceled, &transcript.Change{
		Upsert: &transcript.Student{ID: 1, Name: "Ada", Grades: transcript.Transcript{"CS101": 90}},
		LastID: 1,
	})
	require.Error(t, err)

	snapshot, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Students)
	assert.Equal(t, transcript.StudentID(0), snapshot.LastID)
}
