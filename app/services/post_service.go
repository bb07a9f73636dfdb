package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"socialpost/app/models"
	"socialpost/app/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PostService handles business logic for stored posts
type PostService struct {
	postRepo repositories.PostRepository
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, log logrus.FieldLogger) *PostService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PostService{
		postRepo: postRepo,
		log:      log.WithField("service", "posts"),
		now:      time.Now,
	}
}

// SetClock replaces the time source; used by tests.
func (s *PostService) SetClock(now func() time.Time) {
	s.now = now
}

// CreatePost stores a new post. A blank title becomes "Untitled" and a missing
// status becomes draft.
func (s *PostService) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.BeforeCreate(s.now().UTC())
	if err := post.Validate(); err != nil {
		return nil, toValidationError(err)
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, errors.Wrap(err, "create post")
	}
	s.log.WithFields(logrus.Fields{"post_id": post.ID, "status": post.Status}).Info("post created")
	return post, nil
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, errors.Wrapf(err, "get post %d", id)
	}
	return post, nil
}

// AllPosts returns every post in store order.
func (s *PostService) AllPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.postRepo.List()
	if err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	return posts, nil
}

// ListPosts returns one page of the filtered history plus per-status counts
// over the whole store.
func (s *PostService) ListPosts(ctx context.Context, q models.PostQuery) (models.Page, map[models.StatusFilter]int, error) {
	posts, err := s.AllPosts(ctx)
	if err != nil {
		return models.Page{}, nil, err
	}
	return Query(posts, q), CountByStatus(posts), nil
}

// UpdatePost edits title, caption, image or platform. Status is unchanged.
func (s *PostService) UpdatePost(ctx context.Context, id int, patch models.PostPatch) (*models.Post, error) {
	if err := models.Validator().Struct(patch); err != nil {
		return nil, toValidationError(err)
	}
	post, err := s.postRepo.Update(id, func(p *models.Post) error {
		if err := checkVersion(p, patch.ExpectedVersion); err != nil {
			return err
		}
		p.Apply(patch)
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, s.updateError(id, "edit", err)
	}
	s.log.WithFields(logrus.Fields{"post_id": id, "version": post.Version}).Info("post edited")
	return post, nil
}

// DeletePost removes a post. Deleting a missing post reports ErrNotFound.
func (s *PostService) DeletePost(ctx context.Context, id int) error {
	if err := s.postRepo.Delete(id); err != nil {
		return errors.Wrapf(err, "delete post %d", id)
	}
	s.log.WithField("post_id", id).Info("post deleted")
	return nil
}

// Stats returns the dashboard counters. Credits are filled in by the caller.
func (s *PostService) Stats(ctx context.Context) (models.Stats, error) {
	posts, err := s.AllPosts(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	counts := CountByStatus(posts)
	return models.Stats{
		Total:     counts[models.FilterAll],
		Scheduled: counts[models.FilterScheduled],
		Posted:    counts[models.FilterPosted],
		Draft:     counts[models.FilterDraft],
	}, nil
}

func (s *PostService) updateError(id int, op string, err error) error {
	if stderrors.Is(err, repositories.ErrConflict) {
		s.log.WithField("post_id", id).Warn("concurrent update rejected")
		return &ConflictError{PostID: id}
	}
	var conflict *ConflictError
	var sched *SchedulingConflict
	var verr *ValidationError
	if stderrors.As(err, &conflict) || stderrors.As(err, &sched) || stderrors.As(err, &verr) {
		return err
	}
	return errors.Wrapf(err, "%s post %d", op, id)
}

func checkVersion(p *models.Post, expected *int) error {
	if expected != nil && *expected != p.Version {
		return &ConflictError{PostID: p.ID, Expected: *expected, Actual: p.Version}
	}
	return nil
}

// toValidationError converts validator output into a ValidationError naming
// the first failing field.
func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: lowerFirst(fe.Field()), Message: "failed on " + fe.Tag()}
	}
	return &ValidationError{Message: err.Error()}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
