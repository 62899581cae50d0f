package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/workflow"
)

type stubSchedules struct {
	err     error
	created workflow.NewSchedule
	calls   int
}

func (s *stubSchedules) Create(_ context.Context, _ access.Principal, in workflow.NewSchedule) (*models.CaregiverSchedule, error) {
	s.calls++
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	cs := &models.CaregiverSchedule{Title: in.Title, ScheduledDate: in.ScheduledDate, Status: models.ScheduleScheduled}
	cs.ID = "cs-1"
	return cs, nil
}

func (s *stubSchedules) Get(context.Context, access.Principal, string) (*models.CaregiverSchedule, error) {
	s.calls++
	return nil, s.err
}

func (s *stubSchedules) List(context.Context, access.Principal, string) ([]models.CaregiverSchedule, error) {
	s.calls++
	return []models.CaregiverSchedule{}, s.err
}

func (s *stubSchedules) Update(context.Context, access.Principal, string, workflow.ScheduleUpdate) (*models.CaregiverSchedule, error) {
	s.calls++
	return &models.CaregiverSchedule{}, s.err
}

func (s *stubSchedules) Delete(context.Context, access.Principal, string) error {
	s.calls++
	return s.err
}

func scheduleRouter(p *access.Principal, svc *stubSchedules) http.Handler {
	h := NewScheduleHandler(svc, nil)
	r := newRouter(p)
	r.POST("/caregiver-schedules", h.CreateSchedule)
	r.GET("/caregiver-schedules", h.GetSchedules)
	r.GET("/caregiver-schedules/:id", h.GetSchedule)
	r.PATCH("/caregiver-schedules/:id", h.UpdateSchedule)
	r.DELETE("/caregiver-schedules/:id", h.DeleteSchedule)
	return r
}

func TestCreateSchedule(t *testing.T) {
	svc := &stubSchedules{}
	r := scheduleRouter(asCaregiver, svc)
	when := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	w := perform(r, http.MethodPost, "/caregiver-schedules", map[string]any{
		"patientId":     "pat-1",
		"title":         "Morning visit",
		"scheduledDate": when.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, svc.created.ScheduledDate.Equal(when))
}

func TestCreateSchedule_RequiresDate(t *testing.T) {
	svc := &stubSchedules{}
	r := scheduleRouter(asCaregiver, svc)

	w := perform(r, http.MethodPost, "/caregiver-schedules", map[string]any{"patientId": "pat-1", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.calls)
}

func TestCreateSchedule_ProactiveDisabled(t *testing.T) {
	r := scheduleRouter(asCaregiver, &stubSchedules{err: workflow.ErrProactiveDisabled})
	w := perform(r, http.MethodPost, "/caregiver-schedules", map[string]any{
		"patientId":     "pat-1",
		"title":         "x",
		"scheduledDate": "2026-03-20T09:00:00Z",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminScheduleWritesAreForbidden(t *testing.T) {
	svc := &stubSchedules{err: workflow.ErrReadOnlyRole}
	r := scheduleRouter(asAdmin, svc)

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodPatch, "/caregiver-schedules/cs-1", map[string]any{"status": "CANCELLED"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = perform(r, http.MethodDelete, "/caregiver-schedules/cs-1", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}
}

func TestUpdateSchedule_BadJSON(t *testing.T) {
	svc := &stubSchedules{}
	r := scheduleRouter(asReviewer, svc)

	w := perform(r, http.MethodPatch, "/caregiver-schedules/cs-1", `{"status":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.calls)
}
