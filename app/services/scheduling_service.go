package services

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"socialpost/app/models"
	"socialpost/app/repositories"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Dispatcher hands a post to its platform when it is published.
type Dispatcher interface {
	Dispatch(ctx context.Context, post *models.Post) error
}

// LogDispatcher only records the publish; no platform is contacted.
type LogDispatcher struct {
	Log logrus.FieldLogger
}

func (d LogDispatcher) Dispatch(ctx context.Context, post *models.Post) error {
	if d.Log != nil {
		d.Log.WithFields(logrus.Fields{
			"post_id":  post.ID,
			"platform": post.Platform,
			"title":    post.Title,
		}).Info("post dispatched")
	}
	return nil
}

// SchedulingService moves posts through draft, scheduled and posted.
type SchedulingService struct {
	postRepo   repositories.PostRepository
	dispatcher Dispatcher
	loc        *time.Location
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewSchedulingService creates a SchedulingService composing times in loc.
func NewSchedulingService(postRepo repositories.PostRepository, dispatcher Dispatcher, loc *time.Location, log logrus.FieldLogger) *SchedulingService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("service", "scheduling")
	if dispatcher == nil {
		dispatcher = LogDispatcher{Log: log}
	}
	return &SchedulingService{
		postRepo:   postRepo,
		dispatcher: dispatcher,
		loc:        loc,
		log:        log,
		now:        time.Now,
	}
}

// SetClock replaces the time source; used by tests.
func (s *SchedulingService) SetClock(now func() time.Time) {
	s.now = now
}

// Location returns the zone dates and times of day are interpreted in.
func (s *SchedulingService) Location() *time.Location {
	return s.loc
}

// ComposeTime combines a YYYY-MM-DD date and an HH:MM time of day in loc.
// Seconds and sub-seconds are always zero.
func ComposeTime(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, invalid("date", "expected YYYY-MM-DD, got %q", date)
	}
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, invalid("time", "%v", err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

func parseTimeOfDay(v string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("expected HH:MM, got %q", v)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.Errorf("invalid hour in %q", v)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minute < 0 || minute > 59 {
		return 0, 0, errors.Errorf("invalid minute in %q", v)
	}
	return hour, minute, nil
}

// Schedule sets the publish time of a post from a date and time of day.
func (s *SchedulingService) Schedule(ctx context.Context, id int, date, timeOfDay string) (*models.Post, error) {
	at, err := ComposeTime(date, timeOfDay, s.loc)
	if err != nil {
		return nil, err
	}
	return s.ScheduleAt(ctx, id, at, nil)
}

// ScheduleAt moves a post to scheduled at the given instant, which must lie in
// the future. Rescheduling a posted post clears its postedAt.
func (s *SchedulingService) ScheduleAt(ctx context.Context, id int, at time.Time, expectedVersion *int) (*models.Post, error) {
	now := s.now()
	if !at.After(now) {
		return nil, invalid("scheduledTime", "%s is not in the future", at.Format(time.RFC3339))
	}
	post, err := s.postRepo.Update(id, func(p *models.Post) error {
		if err := checkVersion(p, expectedVersion); err != nil {
			return err
		}
		if _, err := models.Transition(ctx, p.Status, models.EventSchedule); err != nil {
			return &SchedulingConflict{PostID: id, Status: string(p.Status), Event: models.EventSchedule, At: &at}
		}
		p.MarkScheduled(at)
		p.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, s.updateError(id, models.EventSchedule, err)
	}
	s.log.WithFields(logrus.Fields{
		"post_id":        id,
		"scheduled_time": post.ScheduledTime.Format(time.RFC3339),
	}).Info("post scheduled")
	return post, nil
}

// CreateScheduled stores a new post from the scheduler form.
func (s *SchedulingService) CreateScheduled(ctx context.Context, form models.ScheduleForm) (*models.Post, error) {
	at, err := ComposeTime(form.Date, form.Time, s.loc)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !at.After(now) {
		return nil, invalid("time", "%s is not in the future", at.Format(time.RFC3339))
	}
	post := &models.Post{Title: form.Title}
	post.BeforeCreate(now.UTC())
	post.MarkScheduled(at)
	if err := s.postRepo.Create(post); err != nil {
		return nil, errors.Wrap(err, "create scheduled post")
	}
	s.log.WithFields(logrus.Fields{"post_id": post.ID, "scheduled_time": at.UTC().Format(time.RFC3339)}).Info("post created from schedule form")
	return post, nil
}

// Upcoming lists scheduled posts, most recently created first.
func (s *SchedulingService) Upcoming(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.postRepo.List()
	if err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	scheduled := FilterPosts(posts, models.FilterScheduled, "")
	for i, j := 0, len(scheduled)-1; i < j; i, j = i+1, j-1 {
		scheduled[i], scheduled[j] = scheduled[j], scheduled[i]
	}
	return scheduled, nil
}

// PublishNow publishes a draft or scheduled post immediately.
func (s *SchedulingService) PublishNow(ctx context.Context, id int) (*models.Post, error) {
	return s.publish(ctx, id, nil)
}

// PublishDue publishes every scheduled post whose time has come. Failures are
// collected and the remaining posts are still attempted.
func (s *SchedulingService) PublishDue(ctx context.Context, now time.Time) (int, error) {
	posts, err := s.postRepo.List()
	if err != nil {
		return 0, errors.Wrap(err, "list posts")
	}
	var (
		published int
		errs      []error
	)
	for _, p := range posts {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if !isDue(p, now) {
			continue
		}
		if _, err := s.publish(ctx, p.ID, &now); err != nil {
			var conflict *SchedulingConflict
			if stderrors.As(err, &conflict) || stderrors.Is(err, ErrNotFound) {
				// Rescheduled, published or deleted since the listing.
				continue
			}
			errs = append(errs, err)
			continue
		}
		published++
	}
	return published, stderrors.Join(errs...)
}

func isDue(p *models.Post, now time.Time) bool {
	return p.Status == models.StatusScheduled && p.ScheduledTime != nil && !p.ScheduledTime.After(now)
}

// publish transitions a post to posted. With dueBy set, only a scheduled post
// whose time is not after dueBy is published.
//
// The posted status is committed before the dispatcher runs, so of several
// concurrent publishes only the one whose claim commits dispatches. A failed
// dispatch restores the claimed post's previous state.
func (s *SchedulingService) publish(ctx context.Context, id int, dueBy *time.Time) (*models.Post, error) {
	now := s.now()
	var prev models.Post
	post, err := s.postRepo.Update(id, func(p *models.Post) error {
		if dueBy != nil && !isDue(p, *dueBy) {
			return &SchedulingConflict{PostID: id, Status: string(p.Status), Event: models.EventPublish, At: p.ScheduledTime}
		}
		if _, err := models.Transition(ctx, p.Status, models.EventPublish); err != nil {
			return &SchedulingConflict{PostID: id, Status: string(p.Status), Event: models.EventPublish}
		}
		prev = *p.Clone()
		p.MarkPosted(now)
		p.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, s.updateError(id, models.EventPublish, err)
	}

	log := s.log.WithFields(logrus.Fields{"post_id": id, "platform": post.Platform})
	if err := s.dispatcher.Dispatch(ctx, post.Clone()); err != nil {
		err = errors.Wrapf(err, "dispatch post %d", id)
		if rerr := s.revertPublish(id, post.Version, &prev); rerr != nil {
			log.WithError(rerr).Error("failed to restore post after dispatch failure")
			return nil, stderrors.Join(err, rerr)
		}
		log.WithError(err).Warn("dispatch failed, post restored")
		return nil, err
	}
	log.Info("post published")
	return post, nil
}

// revertPublish puts back the status and times a publish claim replaced,
// unless the post was changed again after the claim.
func (s *SchedulingService) revertPublish(id, claimed int, prev *models.Post) error {
	_, err := s.postRepo.Update(id, func(p *models.Post) error {
		if p.Version != claimed {
			return &ConflictError{PostID: id, Expected: claimed, Actual: p.Version}
		}
		p.Status = prev.Status
		p.ScheduledTime = prev.ScheduledTime
		p.PostedAt = prev.PostedAt
		p.UpdatedAt = prev.UpdatedAt
		return nil
	})
	return err
}

func (s *SchedulingService) updateError(id int, op string, err error) error {
	if stderrors.Is(err, repositories.ErrConflict) {
		return &ConflictError{PostID: id}
	}
	var conflict *ConflictError
	var sched *SchedulingConflict
	if stderrors.As(err, &conflict) || stderrors.As(err, &sched) {
		return err
	}
	return errors.Wrapf(err, "%s post %d", op, id)
}
