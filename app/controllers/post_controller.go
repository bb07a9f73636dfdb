package controllers

import (
	"net/http"

	"socialpost/app/models"
	"socialpost/app/services"

	"github.com/sirupsen/logrus"
)

// PostController handles HTTP requests for social posts
type PostController struct {
	posts      *services.PostService
	scheduling *services.SchedulingService
	pageSize   int
	log        logrus.FieldLogger
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, scheduling *services.SchedulingService, pageSize int, log logrus.FieldLogger) *PostController {
	if pageSize <= 0 {
		pageSize = services.DefaultPageSize
	}
	return &PostController{posts: posts, scheduling: scheduling, pageSize: pageSize, log: log}
}

// postListResponse is one page of the post history with per-status counts.
type postListResponse struct {
	models.Page
	Status models.StatusFilter         `json:"status"`
	Search string                      `json:"search"`
	Counts map[models.StatusFilter]int `json:"counts"`
}

// Index lists posts filtered by ?status= and ?q=, one page at a time
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := models.ParseStatusFilter(q.Get("status"))
	if err != nil {
		sendServiceError(w, r, pc.log, &services.ValidationError{Field: "status", Message: err.Error()})
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	if perPage <= 0 {
		perPage = pc.pageSize
	}

	query := models.PostQuery{Status: status, Search: q.Get("q"), Page: page, PerPage: perPage}
	result, counts, err := pc.posts.ListPosts(r.Context(), query)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, postListResponse{Page: result, Status: status, Search: query.Search, Counts: counts})
}

// Show returns a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	post, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Create stores a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var post models.Post
	if err := decodeJSON(r, &post); err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	post.ID = 0
	created, err := pc.posts.CreatePost(r.Context(), &post)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusCreated, created)
}

// Edit updates the editable fields of a post
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	var patch models.PostPatch
	if err := decodeJSON(r, &patch); err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	post, err := pc.posts.UpdatePost(r.Context(), id, patch)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Delete removes a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	if err := pc.posts.DeletePost(r.Context(), id); err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scheduleRequest is the body of POST /api/posts/{id}/schedule.
type scheduleRequest struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	ExpectedVersion *int   `json:"expectedVersion,omitempty"`
}

// Schedule sets or changes the publish time of a post
func (pc *PostController) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	at, err := services.ComposeTime(req.Date, req.Time, pc.scheduling.Location())
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	post, err := pc.scheduling.ScheduleAt(r.Context(), id, at, req.ExpectedVersion)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Publish posts a draft or scheduled post right away
func (pc *PostController) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	post, err := pc.scheduling.PublishNow(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, post)
}
