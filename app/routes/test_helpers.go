package routes

import (
	"testing"
	"time"

	"socialpost/app/repositories"
	"socialpost/app/services"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 12, 8, 0, 0, 0, time.UTC)

func setupTestRepository(t *testing.T) *repositories.Repository {
	repo, err := repositories.NewRepository(repositories.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func setupTestDependencies(t *testing.T, credits int) (Dependencies, *repositories.Repository) {
	log, _ := test.NewNullLogger()
	repo := setupTestRepository(t)
	store := repo.Posts()
	clock := func() time.Time { return fixedNow }

	posts := services.NewPostService(store, log)
	posts.SetClock(clock)
	scheduling := services.NewSchedulingService(store, nil, time.UTC, log)
	scheduling.SetClock(clock)
	ledger := services.NewCreditLedger(credits)
	catalog := repositories.NewProductCatalog(repositories.DefaultProducts()...)
	generation := services.NewGenerationService(catalog, store, ledger, nil, log)
	generation.SetClock(clock)

	return Dependencies{
		Posts:      posts,
		Scheduling: scheduling,
		Generation: generation,
		Ledger:     ledger,
		Products:   catalog,
		PageSize:   services.DefaultPageSize,
		Log:        log,
	}, repo
}
