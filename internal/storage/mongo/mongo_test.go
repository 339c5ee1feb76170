package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/roster-api/internal/config"
	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
)

// These tests need a live server: MONGO_TEST_URI=mongodb://localhost:27017
func newTestStore(t *testing.T) *Mongo {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := &config.Config{Storage: config.Storage{
		Driver:   config.DriverMongo,
		URI:      uri,
		Database: fmt.Sprintf("roster_test_%d", time.Now().UnixNano()),
	}}
	m, err := New(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_ = m.students.Database().Drop(ctx)
		_ = m.Close(ctx)
	})
	return m
}

func student(prn, branch, year string) types.Student {
	return types.Student{PRN: prn, Password: "hash", Mobile: "9999999999", Branch: branch, Year: year}
}

func TestMongo_SerialPerSection(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()

	a1, err := m.CreateStudent(ctx, "A", student("1000000000000001", "CS", "2"))
	require.NoError(t, err)
	b1, err := m.CreateStudent(ctx, "B", student("1000000000000002", "CS", "2"))
	require.NoError(t, err)
	a2, err := m.CreateStudent(ctx, "A", student("1000000000000003", "CS", "2"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a1.SerialNumber)
	assert.Equal(t, int64(1), b1.SerialNumber)
	assert.Equal(t, int64(2), a2.SerialNumber)
}

func TestMongo_ConcurrentUniqueSerials(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateStudent(ctx, "A", student("1000000000000001", "CS", "2"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.GetStudents(ctx, "A", types.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, st := range got {
		assert.Equal(t, int64(i+1), st.SerialNumber)
	}
}

func TestMongo_ListAndDelete(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()

	_, err := m.CreateStudent(ctx, "A", student("1000000000000001", "CS", "2"))
	require.NoError(t, err)
	_, err = m.CreateStudent(ctx, "A", student("1000000000000002", "IT", "2"))
	require.NoError(t, err)

	got, err := m.GetStudents(ctx, "A", types.StudentFilter{Branch: ptr("CS"), Year: ptr("2")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Section)

	none, err := m.GetStudents(ctx, "A", types.StudentFilter{Branch: ptr("ME"), Year: ptr("4")})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	prns, err := m.GetPRNs(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []types.PRN{{PRN: "1000000000000001"}, {PRN: "1000000000000002"}}, prns)

	byPRN, err := m.GetStudentsByPRN(ctx, "A", "1000000000000002")
	require.NoError(t, err)
	assert.Len(t, byPRN, 1)

	require.NoError(t, m.DeleteStudent(ctx, "A", "1000000000000001"))
	assert.ErrorIs(t, m.DeleteStudent(ctx, "A", "1000000000000001"), storage.ErrStudentNotFound)
	assert.NoError(t, m.Ping(ctx))
}

func ptr(s string) *string { return &s }
