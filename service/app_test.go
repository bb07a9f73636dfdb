package service

import (
	"context"
	"testing"
	"time"

	"socialpost/app/models"
	"socialpost/config"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppRunPublishesDuePosts(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := &config.Configuration{
		Address:         "127.0.0.1:0",
		DBInMemory:      true,
		PageSize:        6,
		Timezone:        "Europe/Berlin",
		StartingCredits: 3,
		PublishInterval: time.Second,
	}
	app, err := NewApp(cfg, log)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, 3, app.Deps.Ledger.Balance())
	assert.Equal(t, "Europe/Berlin", app.Deps.Scheduling.Location().String())

	past := time.Now().Add(-time.Minute)
	post := &models.Post{Title: "due", Status: models.StatusScheduled, ScheduledTime: &past}
	post.BeforeCreate(time.Now())
	require.NoError(t, app.Repo.Posts().Create(post))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		stored, err := app.Repo.Posts().GetByID(post.ID)
		return err == nil && stored.Status == models.StatusPosted
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNewAppRejectsBadTimezone(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewApp(&config.Configuration{DBInMemory: true, Timezone: "Nowhere/Land"}, log)
	assert.Error(t, err)
}
