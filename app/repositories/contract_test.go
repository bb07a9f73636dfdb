package repositories_test

import (
	"testing"

	"socialpost/app/models"
	"socialpost/app/repositories"
	"socialpost/app/repositories/mock"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both stores must behave the same way for the service layer.
func TestPostRepositoryContract(t *testing.T) {
	stores := map[string]func(t *testing.T) repositories.PostRepository{
		"badger": func(t *testing.T) repositories.PostRepository {
			r, err := repositories.NewRepository(repositories.Options{InMemory: true})
			require.NoError(t, err)
			t.Cleanup(func() { r.Close() })
			return r.Posts()
		},
		"mock": func(t *testing.T) repositories.PostRepository {
			return mock.NewPostRepository()
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			repo := open(t)

			var ids []int
			for _, title := range []string{"a", "b", "c", "d"} {
				p := &models.Post{Title: title, Status: models.StatusDraft, Version: 1}
				require.NoError(t, repo.Create(p))
				ids = append(ids, p.ID)
			}

			require.NoError(t, repo.Delete(ids[1]))
			assert.ErrorIs(t, repo.Delete(ids[1]), repositories.ErrNotFound)

			_, err := repo.Update(ids[2], func(p *models.Post) error {
				p.Caption = "edited"
				return nil
			})
			require.NoError(t, err)

			posts, err := repo.List()
			require.NoError(t, err)
			got := make([]int, 0, len(posts))
			for _, p := range posts {
				got = append(got, p.ID)
			}
			want := []int{ids[0], ids[2], ids[3]}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("list order mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, "edited", posts[1].Caption)
			assert.Equal(t, 2, posts[1].Version)

			// Returned posts are detached from the store.
			posts[0].Title = "mutated"
			fresh, err := repo.GetByID(ids[0])
			require.NoError(t, err)
			assert.Equal(t, "a", fresh.Title)
		})
	}
}
