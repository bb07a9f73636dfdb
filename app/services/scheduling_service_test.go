package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"socialpost/app/models"
	"socialpost/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	posts []*models.Post
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, post *models.Post) error {
	if d.err != nil {
		return d.err
	}
	d.posts = append(d.posts, post)
	return nil
}

func newTestScheduling(t *testing.T, loc *time.Location) (*SchedulingService, *mock.PostRepository, *recordingDispatcher) {
	repo := mock.NewPostRepository()
	dispatcher := &recordingDispatcher{}
	service := NewSchedulingService(repo, dispatcher, loc, testLogger())
	service.SetClock(func() time.Time { return fixedNow })
	return service, repo, dispatcher
}

func seedPost(t *testing.T, repo *mock.PostRepository, post *models.Post) *models.Post {
	post.BeforeCreate(fixedNow)
	require.NoError(t, repo.Create(post))
	return post
}

func TestComposeTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got, err := ComposeTime("2024-01-20", "14:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 20, 14, 0, 0, 0, time.UTC), got)

	got, err = ComposeTime("2024-01-20", "9:05", ny)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 20, 14, 5, 0, 0, time.UTC), got.UTC())
	assert.Zero(t, got.Second())
	assert.Zero(t, got.Nanosecond())

	got, err = ComposeTime("2024-01-20", "00:00", nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())

	bad := []struct{ date, tod, field string }{
		{"2024/01/20", "09:00", "date"},
		{"2024-02-30", "09:00", "date"},
		{"2024-01-20", "24:00", "time"},
		{"2024-01-20", "09:60", "time"},
		{"2024-01-20", "09", "time"},
		{"2024-01-20", "09:0", "time"},
		{"2024-01-20", "ab:cd", "time"},
	}
	for _, tt := range bad {
		_, err := ComposeTime(tt.date, tt.tod, time.UTC)
		var verr *ValidationError
		if assert.ErrorAs(t, err, &verr, "%s %s", tt.date, tt.tod) {
			assert.Equal(t, tt.field, verr.Field)
		}
	}
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestScheduling(t, time.UTC)

	t.Run("draft becomes scheduled", func(t *testing.T) {
		post := seedPost(t, repo, &models.Post{Title: "Draft", Status: models.StatusDraft})

		updated, err := service.Schedule(ctx, post.ID, "2024-01-20", "14:00")
		require.NoError(t, err)
		assert.Equal(t, models.StatusScheduled, updated.Status)
		require.NotNil(t, updated.ScheduledTime)
		assert.Equal(t, time.Date(2024, 1, 20, 14, 0, 0, 0, time.UTC), *updated.ScheduledTime)
		assert.Nil(t, updated.PostedAt)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("scheduled is rescheduled", func(t *testing.T) {
		at := fixedNow.Add(48 * time.Hour)
		post := seedPost(t, repo, &models.Post{Title: "Scheduled", Status: models.StatusScheduled, ScheduledTime: &at})

		updated, err := service.Schedule(ctx, post.ID, "2024-02-01", "18:00")
		require.NoError(t, err)
		assert.Equal(t, models.StatusScheduled, updated.Status)
		assert.Equal(t, time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC), *updated.ScheduledTime)
	})

	t.Run("posted is rescheduled and postedAt cleared", func(t *testing.T) {
		posted := fixedNow.Add(-24 * time.Hour)
		post := seedPost(t, repo, &models.Post{Title: "Posted", Status: models.StatusPosted, PostedAt: &posted})

		updated, err := service.Schedule(ctx, post.ID, "2024-01-13", "09:00")
		require.NoError(t, err)
		assert.Equal(t, models.StatusScheduled, updated.Status)
		assert.Nil(t, updated.PostedAt)
		assert.NoError(t, updated.CheckTimestamps())
	})

	t.Run("past time rejected", func(t *testing.T) {
		post := seedPost(t, repo, &models.Post{Title: "Late", Status: models.StatusDraft})
		_, err := service.Schedule(ctx, post.ID, "2024-01-12", "08:00")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)

		stored, err := repo.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, stored.Status)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := service.Schedule(ctx, 999, "2024-01-20", "14:00")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stale version", func(t *testing.T) {
		post := seedPost(t, repo, &models.Post{Title: "Versioned", Status: models.StatusDraft})
		stale := 7
		_, err := service.ScheduleAt(ctx, post.ID, fixedNow.Add(time.Hour), &stale)
		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestScheduleUsesConfiguredZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	service, repo, _ := newTestScheduling(t, tokyo)
	post := seedPost(t, repo, &models.Post{Title: "Zoned", Status: models.StatusDraft})

	updated, err := service.Schedule(context.Background(), post.ID, "2024-01-20", "09:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), *updated.ScheduledTime)
	assert.Equal(t, tokyo, service.Location())
}

func TestCreateScheduledAndUpcoming(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestScheduling(t, time.UTC)
	seedPost(t, repo, &models.Post{Title: "Draft", Status: models.StatusDraft})

	first, err := service.CreateScheduled(ctx, models.ScheduleForm{Title: "New post", Date: "2024-01-15", Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, first.Status)

	second, err := service.CreateScheduled(ctx, models.ScheduleForm{Date: "2024-01-16", Time: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTitle, second.Title)

	_, err = service.CreateScheduled(ctx, models.ScheduleForm{Title: "Past", Date: "2024-01-01", Time: "12:00"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	upcoming, err := service.Upcoming(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{second.ID, first.ID}, ids(upcoming))
}

func TestPublishNow(t *testing.T) {
	ctx := context.Background()
	service, repo, dispatcher := newTestScheduling(t, time.UTC)

	at := fixedNow.Add(time.Hour)
	scheduled := seedPost(t, repo, &models.Post{Title: "Scheduled", Platform: models.PlatformFacebook, Status: models.StatusScheduled, ScheduledTime: &at})

	post, err := service.PublishNow(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, post.Status)
	assert.Nil(t, post.ScheduledTime)
	require.NotNil(t, post.PostedAt)
	assert.Equal(t, fixedNow, *post.PostedAt)
	require.Len(t, dispatcher.posts, 1)
	assert.Equal(t, scheduled.ID, dispatcher.posts[0].ID)

	_, err = service.PublishNow(ctx, scheduled.ID)
	var conflict *SchedulingConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, models.EventPublish, conflict.Event)

	draft := seedPost(t, repo, &models.Post{Title: "Draft", Status: models.StatusDraft})
	post, err = service.PublishNow(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, post.Status)
}

func TestPublishNowDispatchFailureKeepsStatus(t *testing.T) {
	ctx := context.Background()
	service, repo, dispatcher := newTestScheduling(t, time.UTC)
	dispatcher.err = errors.New("platform down")

	draft := seedPost(t, repo, &models.Post{Title: "Draft", Status: models.StatusDraft})
	_, err := service.PublishNow(ctx, draft.ID)
	assert.ErrorIs(t, err, dispatcher.err)

	stored, err := repo.GetByID(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, stored.Status)
}

type countingDispatcher struct {
	calls atomic.Int32
}

func (d *countingDispatcher) Dispatch(ctx context.Context, post *models.Post) error {
	d.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	return nil
}

func TestPublishNowConcurrentDispatchesOnce(t *testing.T) {
	ctx := context.Background()
	repo := mock.NewPostRepository()
	dispatcher := &countingDispatcher{}
	service := NewSchedulingService(repo, dispatcher, time.UTC, testLogger())
	service.SetClock(func() time.Time { return fixedNow })
	draft := seedPost(t, repo, &models.Post{Title: "Race", Status: models.StatusDraft})

	var (
		wg        sync.WaitGroup
		published atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.PublishNow(ctx, draft.ID)
			if err == nil {
				published.Add(1)
				return
			}
			var conflict *SchedulingConflict
			assert.ErrorAs(t, err, &conflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), published.Load())
	assert.Equal(t, int32(1), dispatcher.calls.Load())
	stored, err := repo.GetByID(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, stored.Status)
}

func TestPublishNowDispatchFailureRestoresSchedule(t *testing.T) {
	ctx := context.Background()
	service, repo, dispatcher := newTestScheduling(t, time.UTC)
	dispatcher.err = errors.New("platform down")

	at := fixedNow.Add(time.Hour)
	post := seedPost(t, repo, &models.Post{Title: "Scheduled", Status: models.StatusScheduled, ScheduledTime: &at})
	_, err := service.PublishNow(ctx, post.ID)
	assert.ErrorIs(t, err, dispatcher.err)

	stored, err := repo.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, stored.Status)
	require.NotNil(t, stored.ScheduledTime)
	assert.True(t, stored.ScheduledTime.Equal(at))
	assert.Nil(t, stored.PostedAt)
	assert.NoError(t, stored.CheckTimestamps())
}

func TestPublishDue(t *testing.T) {
	ctx := context.Background()
	service, repo, dispatcher := newTestScheduling(t, time.UTC)

	past := fixedNow.Add(-time.Minute)
	exact := fixedNow
	future := fixedNow.Add(time.Hour)
	due1 := seedPost(t, repo, &models.Post{Title: "due", Status: models.StatusScheduled, ScheduledTime: &past})
	due2 := seedPost(t, repo, &models.Post{Title: "exact", Status: models.StatusScheduled, ScheduledTime: &exact})
	later := seedPost(t, repo, &models.Post{Title: "later", Status: models.StatusScheduled, ScheduledTime: &future})
	seedPost(t, repo, &models.Post{Title: "draft", Status: models.StatusDraft})

	n, err := service.PublishDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{due1.ID, due2.ID}, ids(dispatcher.posts))

	stored, err := repo.GetByID(later.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, stored.Status)

	n, err = service.PublishDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublishDueCollectsErrors(t *testing.T) {
	ctx := context.Background()
	service, repo, dispatcher := newTestScheduling(t, time.UTC)
	dispatcher.err = errors.New("platform down")

	past := fixedNow.Add(-time.Minute)
	seedPost(t, repo, &models.Post{Title: "a", Status: models.StatusScheduled, ScheduledTime: &past})
	seedPost(t, repo, &models.Post{Title: "b", Status: models.StatusScheduled, ScheduledTime: &past})

	n, err := service.PublishDue(ctx, fixedNow)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, dispatcher.err)
}

func TestPublishDueStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	service, repo, _ := newTestScheduling(t, time.UTC)
	past := fixedNow.Add(-time.Minute)
	seedPost(t, repo, &models.Post{Title: "a", Status: models.StatusScheduled, ScheduledTime: &past})

	n, err := service.PublishDue(ctx, fixedNow)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
}
