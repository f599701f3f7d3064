package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/tasks"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *recordingQueue) Enqueue(ts ...backlite.Task) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, ts...)
	return []string{"id"}, nil
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

type staticIndex struct {
	refs []stories.CoverRef
}

func (s *staticIndex) ListCoverReferences(ctx context.Context) ([]stories.CoverRef, error) {
	return s.refs, nil
}

func (s *staticIndex) StoryExists(ctx context.Context, id uint) (bool, error) {
	for _, r := range s.refs {
		if r.StoryID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *staticIndex) ClearCover(ctx context.Context, id uint) error {
	return nil
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("not a schedule"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	next, err := NextRun("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), next)

	_, err = NextRun("bad", from)
	assert.Error(t, err)
}

func TestCoverAuditScheduler_StartErrors(t *testing.T) {
	s := NewCoverAuditScheduler("0 3 * * *", nil, nil)
	assert.Error(t, s.Start(context.Background()))

	s = NewCoverAuditScheduler("bogus", &recordingQueue{}, nil)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestCoverAuditScheduler_StartStop(t *testing.T) {
	s := NewCoverAuditScheduler("0 3 * * *", &recordingQueue{}, nil)
	assert.Nil(t, s.NextRunTime())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.NextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRunTime())
	s.Stop()
}

func TestCoverAuditScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewCoverAuditScheduler("0 3 * * *", &recordingQueue{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestCoverAuditScheduler_RunNowEnqueues(t *testing.T) {
	q := &recordingQueue{}
	s := NewCoverAuditScheduler("0 3 * * *", q, nil)

	s.RunNow()
	require.Equal(t, 1, q.count())
	assert.Equal(t, tasks.CoverAuditTask{}, q.tasks[0])

	q.err = errors.New("queue closed")
	s.RunNow()
	assert.Equal(t, 1, q.count())
}

func TestCoverAuditScheduler_RunNowInline(t *testing.T) {
	store, err := covers.NewFileStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	require.NoError(t, store.Save("7.jpg", []byte("orphan")))

	auditor := tasks.NewCoverAuditor(&staticIndex{}, store)
	s := NewCoverAuditScheduler("0 3 * * *", nil, auditor)

	s.RunNow()
	assert.False(t, store.Exists("7.jpg"))
}
