package controllers

import (
	"net/http"

	"socialpost/app/models"
	"socialpost/app/services"

	"github.com/sirupsen/logrus"
)

// ScheduleController serves the scheduler page
type ScheduleController struct {
	scheduling *services.SchedulingService
	log        logrus.FieldLogger
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(scheduling *services.SchedulingService, log logrus.FieldLogger) *ScheduleController {
	return &ScheduleController{scheduling: scheduling, log: log}
}

type upcomingResponse struct {
	Posts    []*models.Post `json:"posts"`
	Timezone string         `json:"timezone"`
}

// Upcoming lists scheduled posts, most recently created first
func (sc *ScheduleController) Upcoming(w http.ResponseWriter, r *http.Request) {
	posts, err := sc.scheduling.Upcoming(r.Context())
	if err != nil {
		sendServiceError(w, r, sc.log, err)
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	sendJSON(w, http.StatusOK, upcomingResponse{Posts: posts, Timezone: sc.scheduling.Location().String()})
}

// Create stores a new scheduled post from the scheduler form
func (sc *ScheduleController) Create(w http.ResponseWriter, r *http.Request) {
	var form models.ScheduleForm
	if err := decodeJSON(r, &form); err != nil {
		sendServiceError(w, r, sc.log, err)
		return
	}
	post, err := sc.scheduling.CreateScheduled(r.Context(), form)
	if err != nil {
		sendServiceError(w, r, sc.log, err)
		return
	}
	sendJSON(w, http.StatusCreated, post)
}
