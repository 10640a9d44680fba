// Package dbtest holds a conformance suite every transcript.Persister backend
// runs in its own tests.
package dbtest

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

// URLFromEnv returns the connection URL stored in key or skips the test.
func URLFromEnv(t *testing.T, key string) string {
	t.Helper()
	url := os.Getenv(key)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", key)
	}
	return url
}

// NewStorage prepares empty storage for a single test and returns a function
// that opens a persister over it. The opener is called more than once to check
// that data survives a restart.
type NewStorage func(t *testing.T) (open func() transcript.Persister)

// RunPersisterSuite runs the conformance suite against one backend.
func RunPersisterSuite(t *testing.T, newStorage NewStorage) {
	t.Run("EmptyLoad", func(t *testing.T) {
		p := newStorage(t)()
		t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

		snapshot, err := p.Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, snapshot.Students)
		assert.Equal(t, transcript.StudentID(0), snapshot.LastID)
	})

	t.Run("StoreRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		open := newStorage(t)

		store, err := transcript.Open(ctx, transcript.DefaultGradeBounds, open())
		require.NoError(t, err)

		ada, err := store.AddStudent(ctx, "Ada", []*transcript.CourseGrade{
			{Course: "CS101", Grade: 95},
			{Course: "MATH.200", Grade: 71.5},
		})
		require.NoError(t, err)

		bob, err := store.AddStudent(ctx, "Bob", nil)
		require.NoError(t, err)

		cy, err := store.AddStudent(ctx, "Cy", nil)
		require.NoError(t, err)

		require.NoError(t, store.AddGrade(ctx, ada, "CS101", 98))
		require.NoError(t, store.AddGrade(ctx, bob, "$HIST", 60))
		require.NoError(t, store.DeleteStudent(ctx, cy))
		require.NoError(t, store.Shutdown(ctx))

		reopened := open()
		t.Cleanup(func() { _ = reopened.Shutdown(ctx) })

		snapshot, err := reopened.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, cy, snapshot.LastID)

		students := snapshot.Students
		sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
		require.Len(t, students, 2)

		assert.Equal(t, ada, students[0].ID)
		assert.Equal(t, "Ada", students[0].Name)
		assert.Equal(t, transcript.Transcript{"CS101": 98, "MATH.200": 71.5}, students[0].Grades)

		assert.Equal(t, bob, students[1].ID)
		assert.Equal(t, transcript.Transcript{"$HIST": 60}, students[1].Grades)
	})

	t.Run("IDsSurviveRestart", func(t *testing.T) {
		ctx := context.Background()
		open := newStorage(t)

		store, err := transcript.Open(ctx, transcript.DefaultGradeBounds, open())
		require.NoError(t, err)

		var last transcript.StudentID
		for i := 0; i < 3; i++ {
			last, err = store.AddStudent(ctx, "Student", nil)
			require.NoError(t, err)
		}
		require.NoError(t, store.DeleteStudent(ctx, last))
		require.NoError(t, store.Shutdown(ctx))

		reopened, err := transcript.Open(ctx, transcript.DefaultGradeBounds, open())
		require.NoError(t, err)
		t.Cleanup(func() { _ = reopened.Shutdown(ctx) })

		next, err := reopened.AddStudent(ctx, "Late", nil)
		require.NoError(t, err)
		assert.Equal(t, last+1, next)
		assert.Len(t, reopened.Students(), 3)
	})
}
