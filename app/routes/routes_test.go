package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socialpost/app/middleware"
	"socialpost/app/models"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes(t *testing.T) {
	deps, _ := setupTestDependencies(t, 23)
	router := SetupRoutes(deps)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"health", "GET", "/healthz", "", http.StatusOK},
		{"list posts", "GET", "/api/posts", "", http.StatusOK},
		{"create post", "POST", "/api/posts", `{"title": "Test Post"}`, http.StatusCreated},
		{"show post", "GET", "/api/posts/1", "", http.StatusOK},
		{"edit post", "PUT", "/api/posts/1", `{"caption": "x"}`, http.StatusOK},
		{"schedule post", "POST", "/api/posts/1/schedule", `{"date": "2024-02-01", "time": "10:30"}`, http.StatusOK},
		{"upcoming", "GET", "/api/schedule", "", http.StatusOK},
		{"schedule form", "POST", "/api/schedule", `{"title": "From form", "date": "2024-02-02", "time": "10:30"}`, http.StatusCreated},
		{"publish post", "POST", "/api/posts/1/publish", "", http.StatusOK},
		{"products", "GET", "/api/products", "", http.StatusOK},
		{"stats", "GET", "/api/stats", "", http.StatusOK},
		{"generate", "POST", "/api/generate", `{"productId": "3", "prompt": "eco", "platforms": ["facebook"]}`, http.StatusCreated},
		{"delete post", "DELETE", "/api/posts/1", "", http.StatusNoContent},
		{"unknown route", "GET", "/api/nope", "", http.StatusNotFound},
		{"wrong method", "PATCH", "/api/posts/1", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
			if strings.HasPrefix(tt.path, "/api") {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestPostLifecycleOverAPI(t *testing.T) {
	deps, repo := setupTestDependencies(t, 23)
	router := SetupRoutes(deps)

	for i := 1; i <= 8; i++ {
		w := request(t, router, "POST", "/api/posts", fmt.Sprintf(`{"title": "Post %d", "caption": "caption %d"}`, i, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := request(t, router, "POST", "/api/posts/3/schedule", `{"date": "2024-01-20", "time": "14:00"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = request(t, router, "POST", "/api/posts/5/publish", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Posts      []*models.Post              `json:"posts"`
		Total      int                         `json:"total"`
		TotalPages int                         `json:"totalPages"`
		Counts     map[models.StatusFilter]int `json:"counts"`
	}
	w = request(t, router, "GET", "/api/posts?page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Equal(t, 8, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, 7, page.Posts[0].ID, "insertion order survives the store")
	assert.Equal(t, 1, page.Counts[models.FilterScheduled])
	assert.Equal(t, 1, page.Counts[models.FilterPosted])
	assert.Equal(t, 6, page.Counts[models.FilterDraft])

	// Everything went through the Badger store.
	stored, err := repo.Posts().GetByID(3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, stored.Status)

	var stats models.Stats
	w = request(t, router, "GET", "/api/stats", "")
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, models.Stats{Total: 8, Scheduled: 1, Posted: 1, Draft: 6, Credits: 23}, stats)
}

func TestStartServer(t *testing.T) {
	log, _ := test.NewNullLogger()
	router := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, "localhost:0", router, log) // Port 0 picks a random available port
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartServerAddressInUse(t *testing.T) {
	log, _ := test.NewNullLogger()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = StartServer(context.Background(), ln.Addr().String(), http.NotFoundHandler(), log)
	assert.Error(t, err)
}
