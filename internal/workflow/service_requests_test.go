package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
)

func seedRequest(h *harness, id string, status models.ServiceRequestStatus) models.ServiceRequest {
	sr := models.ServiceRequest{
		PatientID:   "pat-1",
		CaregiverID: "c1",
		Title:       "Wound dressing",
		Priority:    models.PriorityMedium,
		Status:      status,
	}
	sr.ID = id
	h.store.putRequest(sr)
	return sr
}

func TestCreateServiceRequest_PatientDefaultsCaregiver(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	sr, err := h.requests.Create(ctx, patientP1, NewServiceRequest{Title: "Wound dressing", Priority: "high"})
	require.NoError(t, err)

	assert.Equal(t, "pat-1", sr.PatientID)
	assert.Equal(t, "c1", sr.CaregiverID)
	assert.Equal(t, models.RequestPending, sr.Status)
	assert.Equal(t, models.PriorityHigh, sr.Priority)
	assert.Equal(t, fixedNow, sr.RequestedDate)

	require.Len(t, h.notifier.to("c1"), 1)
	assert.Equal(t, models.NotifyNewServiceRequest, h.notifier.to("c1")[0].Type)
	assert.Equal(t, models.NotificationPriorityHigh, h.notifier.to("c1")[0].Priority)
	require.Len(t, h.notifier.to("r1"), 1)
	assert.Equal(t, models.NotifyServiceRequestReview, h.notifier.to("r1")[0].Type)
}

func TestCreateServiceRequest_RejectsUnassignedCaregiver(t *testing.T) {
	h := newHarness()
	_, err := h.requests.Create(context.Background(), patientP1, NewServiceRequest{Title: "Bath", CaregiverID: "c2"})
	assert.ErrorIs(t, err, ErrNoActiveCaregiver)
	assert.Empty(t, h.store.requests)
}

func TestCreateServiceRequest_Validation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.requests.Create(ctx, patientP1, NewServiceRequest{Title: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.requests.Create(ctx, patientP1, NewServiceRequest{Title: "Bath", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.requests.Create(ctx, adminA1, NewServiceRequest{Title: "Bath"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.requests.Create(ctx, caregiverC1, NewServiceRequest{Title: "Bath"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateServiceRequest_AdminOnBehalfOfPatient(t *testing.T) {
	h := newHarness()
	sr, err := h.requests.Create(context.Background(), adminA1, NewServiceRequest{PatientID: "pat-2", Title: "Meal prep"})
	require.NoError(t, err)
	assert.Equal(t, "c2", sr.CaregiverID)
}

func TestUpdateServiceRequest_PatientCannotEditAfterApproval(t *testing.T) {
	for _, st := range []models.ServiceRequestStatus{
		models.RequestScheduled, models.RequestInProgress, models.RequestCompleted,
		models.RequestCancelled, models.RequestRejected,
	} {
		t.Run(string(st), func(t *testing.T) {
			h := newHarness()
			before := seedRequest(h, "sr-1", st)

			_, err := h.requests.Update(context.Background(), patientP1, "sr-1", ServiceRequestUpdate{Title: ptr("Changed")})
			assert.ErrorIs(t, err, ErrNotEditable)
			assert.Equal(t, before.Title, h.store.requests["sr-1"].Title)
			assert.Zero(t, h.store.saves)
		})
	}
}

func TestUpdateServiceRequest_PatientEditsWhilePending(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestPending)

	sr, err := h.requests.Update(context.Background(), patientP1, "sr-1", ServiceRequestUpdate{
		Title:    ptr("Wound dressing, left leg"),
		Priority: ptr("low"),
		Status:   ptr("COMPLETED"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Wound dressing, left leg", sr.Title)
	assert.Equal(t, models.PriorityLow, sr.Priority)
	assert.Equal(t, models.RequestPending, sr.Status, "patients cannot change status")
	assert.Empty(t, h.notifier.sent)
}

func TestUpdateServiceRequest_OtherPatientForbidden(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestPending)
	_, err := h.requests.Update(context.Background(), patientP2, "sr-1", ServiceRequestUpdate{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateServiceRequest_WrongCaregiverForbidden(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestApproved)

	_, err := h.requests.Update(context.Background(), caregiverC2, "sr-1", ServiceRequestUpdate{Status: ptr("COMPLETED")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, models.RequestApproved, h.store.requests["sr-1"].Status)
	assert.Zero(t, h.store.saves)
	assert.Empty(t, h.notifier.sent)
}

func TestUpdateServiceRequest_NotFound(t *testing.T) {
	h := newHarness()
	_, err := h.requests.Update(context.Background(), adminA1, "missing", ServiceRequestUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateServiceRequest_ApproveNotifiesPatientAndCaregiver(t *testing.T) {
	for _, p := range []struct {
		name string
		id   string
		role models.Role
	}{
		{"reviewer", "r1", models.RoleReviewer},
		{"admin", "a1", models.RoleAdmin},
		{"super_admin", "s1", models.RoleSuperAdmin},
	} {
		t.Run(p.name, func(t *testing.T) {
			h := newHarness()
			seedRequest(h, "sr-1", models.RequestPending)
			principal := principalFor(p.id, p.role)

			sr, err := h.requests.Update(context.Background(), principal, "sr-1", ServiceRequestUpdate{
				Status:        ptr("approved"),
				ReviewerNotes: ptr("ok"),
			})
			require.NoError(t, err)

			assert.Equal(t, models.RequestApproved, sr.Status)
			require.NotNil(t, sr.ApprovedByID)
			assert.Equal(t, p.id, *sr.ApprovedByID)
			require.NotNil(t, sr.ApprovedDate)
			assert.Equal(t, fixedNow, *sr.ApprovedDate)

			require.Len(t, h.notifier.sent, 2)
			assert.Equal(t, models.NotifyServiceRequestApproved, h.notifier.to("p1")[0].Type)
			assert.Equal(t, models.NotifyServiceRequestAssigned, h.notifier.to("c1")[0].Type)
		})
	}
}

func TestUpdateServiceRequest_RejectNotifiesPatientOnly(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestPending)

	sr, err := h.requests.Update(context.Background(), reviewerR1, "sr-1", ServiceRequestUpdate{
		Status:          ptr("REJECTED"),
		RejectionReason: ptr("Not covered"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, sr.Status)
	assert.Nil(t, sr.ApprovedByID)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "p1", h.notifier.sent[0].UserID)
	assert.Contains(t, h.notifier.sent[0].Body, "Not covered")
}

func TestUpdateServiceRequest_UnassignedReviewerForbidden(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestPending)
	_, err := h.requests.Update(context.Background(), reviewerR2, "sr-1", ServiceRequestUpdate{Status: ptr("APPROVED")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateServiceRequest_StatusRules(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	seedRequest(h, "sr-1", models.RequestPending)
	seedRequest(h, "sr-2", models.RequestCompleted)

	_, err := h.requests.Update(ctx, reviewerR1, "sr-1", ServiceRequestUpdate{Status: ptr("SCHEDULED")})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = h.requests.Update(ctx, caregiverC1, "sr-1", ServiceRequestUpdate{Status: ptr("APPROVED")})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = h.requests.Update(ctx, caregiverC1, "sr-1", ServiceRequestUpdate{Status: ptr("DONE")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.requests.Update(ctx, reviewerR1, "sr-2", ServiceRequestUpdate{Status: ptr("REJECTED")})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.RequestCompleted, h.store.requests["sr-2"].Status)
}

func TestUpdateServiceRequest_ReviewOnlyFromPending(t *testing.T) {
	tests := []struct {
		from models.ServiceRequestStatus
		to   string
	}{
		{models.RequestApproved, "APPROVED"},
		{models.RequestApproved, "REJECTED"},
		{models.RequestScheduled, "APPROVED"},
		{models.RequestScheduled, "REJECTED"},
		{models.RequestInProgress, "APPROVED"},
		{models.RequestInProgress, "REJECTED"},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+tt.to, func(t *testing.T) {
			h := newHarness()
			seedRequest(h, "sr-1", tt.from)
			linkedVisit(h, "cs-1", "sr-1", models.ScheduleScheduled)

			for _, p := range []access.Principal{reviewerR1, adminA1, superS1} {
				_, err := h.requests.Update(context.Background(), p, "sr-1", ServiceRequestUpdate{Status: ptr(tt.to)})
				assert.ErrorIs(t, err, ErrInvalidTransition, p.Role)
			}

			stored := h.store.requests["sr-1"]
			assert.Equal(t, tt.from, stored.Status)
			assert.Nil(t, stored.ApprovedByID)
			assert.Empty(t, h.notifier.sent)
			assert.Equal(t, models.ScheduleScheduled, h.store.schedules["cs-1"].Status)
			assert.Zero(t, h.store.saves)
		})
	}
}

func TestUpdateServiceRequest_RejectCancelsLinkedVisit(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestPending)
	linkedVisit(h, "cs-1", "sr-1", models.ScheduleScheduled)

	_, err := h.requests.Update(context.Background(), reviewerR1, "sr-1", ServiceRequestUpdate{Status: ptr("REJECTED")})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleCancelled, h.store.schedules["cs-1"].Status)
}

func TestUpdateServiceRequest_ScheduledCreatesLinkedVisit(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	seedRequest(h, "sr-1", models.RequestApproved)
	when := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	_, err := h.requests.Update(ctx, caregiverC1, "sr-1", ServiceRequestUpdate{Status: ptr("SCHEDULED"), ScheduledDate: &when})
	require.NoError(t, err)

	require.Len(t, h.notifier.to("p1"), 1)
	assert.Equal(t, models.NotifyServiceRequestScheduled, h.notifier.to("p1")[0].Type)

	require.Len(t, h.store.schedules, 1)
	for _, cs := range h.store.schedules {
		require.NotNil(t, cs.ServiceRequestID)
		assert.Equal(t, "sr-1", *cs.ServiceRequestID)
		assert.Equal(t, models.ScheduleTypeService, cs.ScheduleType)
		assert.Equal(t, when, cs.ScheduledDate)
		assert.Equal(t, models.ScheduleScheduled, cs.Status)
	}

	// rescheduling moves the linked visit instead of adding a second one
	later := time.Date(2026, 3, 22, 9, 0, 0, 0, time.UTC)
	_, err = h.requests.Update(ctx, caregiverC1, "sr-1", ServiceRequestUpdate{Status: ptr("SCHEDULED"), ScheduledDate: &later})
	require.NoError(t, err)
	require.Len(t, h.store.schedules, 1)
	for _, cs := range h.store.schedules {
		assert.Equal(t, later, cs.ScheduledDate)
	}

	// so does a date change on its own
	evening := later.Add(8 * time.Hour)
	_, err = h.requests.Update(ctx, caregiverC1, "sr-1", ServiceRequestUpdate{ScheduledDate: &evening})
	require.NoError(t, err)
	for _, cs := range h.store.schedules {
		assert.Equal(t, evening, cs.ScheduledDate)
	}
}

func linkedVisit(h *harness, id, requestID string, status models.ScheduleStatus) {
	cs := models.CaregiverSchedule{
		PatientID:        "pat-1",
		CaregiverID:      "c1",
		ServiceRequestID: ptr(requestID),
		Title:            "Wound dressing",
		ScheduledDate:    time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC),
		Status:           status,
	}
	cs.ID = id
	h.store.putSchedule(cs)
}

func TestUpdateServiceRequest_CancelledCancelsLinkedVisit(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestScheduled)
	linkedVisit(h, "cs-1", "sr-1", models.ScheduleScheduled)
	linkedVisit(h, "cs-done", "sr-1", models.ScheduleCompleted)

	_, err := h.requests.Update(context.Background(), caregiverC1, "sr-1", ServiceRequestUpdate{Status: ptr("CANCELLED")})
	require.NoError(t, err)

	assert.Equal(t, models.ScheduleCancelled, h.store.schedules["cs-1"].Status)
	assert.NotEmpty(t, h.store.schedules["cs-1"].CancelledReason)
	assert.Equal(t, models.ScheduleCompleted, h.store.schedules["cs-done"].Status)
}

func TestDeleteServiceRequest_CancelsLinkedVisit(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestScheduled)
	linkedVisit(h, "cs-1", "sr-1", models.ScheduleScheduled)
	linkedVisit(h, "cs-other", "sr-9", models.ScheduleScheduled)

	require.NoError(t, h.requests.Delete(context.Background(), adminA1, "sr-1"))

	assert.Equal(t, models.ScheduleCancelled, h.store.schedules["cs-1"].Status)
	assert.Equal(t, models.ScheduleScheduled, h.store.schedules["cs-other"].Status)
}

func TestUpdateServiceRequest_CareNoteFailureDoesNotRollBack(t *testing.T) {
	h := newHarness()
	h.notes.err = errors.New("care notes unavailable")
	h.notifier.err = errors.New("notifications unavailable")
	seedRequest(h, "sr-1", models.RequestScheduled)

	sr, err := h.requests.Update(context.Background(), caregiverC1, "sr-1", ServiceRequestUpdate{
		Status:  ptr("COMPLETED"),
		Outcome: ptr("Resolved"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, sr.Status)
	assert.Equal(t, models.RequestCompleted, h.store.requests["sr-1"].Status)
	assert.Equal(t, 1, h.notes.service)
	require.NotNil(t, sr.CompletedDate)
	assert.Equal(t, fixedNow, *sr.CompletedDate)
}

func TestUpdateServiceRequest_CompletedWithoutOutcomeSkipsCareNote(t *testing.T) {
	h := newHarness()
	seedRequest(h, "sr-1", models.RequestScheduled)
	_, err := h.requests.Update(context.Background(), caregiverC1, "sr-1", ServiceRequestUpdate{Status: ptr("COMPLETED")})
	require.NoError(t, err)
	assert.Zero(t, h.notes.service)
}

// A patient files "Wound dressing", the caregiver completes it with an outcome,
// and the matching visit is completed with it.
func TestWoundDressingLifecycle(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	sr, err := h.requests.Create(ctx, patientP1, NewServiceRequest{Title: "Wound dressing"})
	require.NoError(t, err)

	when := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	legacy := models.CaregiverSchedule{
		PatientID:     "pat-1",
		CaregiverID:   "c1",
		Title:         "Wound dressing",
		ScheduledDate: when,
		Status:        models.ScheduleScheduled,
	}
	legacy.ID = "cs-legacy"
	h.store.putSchedule(legacy)
	other := legacy
	other.ID = "cs-other"
	other.Title = "Medication check"
	h.store.putSchedule(other)

	stored := h.store.requests[sr.ID]
	stored.ScheduledDate = &when
	h.store.putRequest(stored)
	h.notifier.sent = nil

	got, err := h.requests.Update(ctx, caregiverC1, sr.ID, ServiceRequestUpdate{
		Status:  ptr("COMPLETED"),
		Outcome: ptr("Resolved"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.RequestCompleted, got.Status)
	toPatient := h.notifier.to("p1")
	require.Len(t, toPatient, 1)
	assert.Equal(t, models.NotifyServiceRequestCompleted, toPatient[0].Type)
	assert.Equal(t, 1, h.notes.service)
	assert.Equal(t, models.ScheduleCompleted, h.store.schedules["cs-legacy"].Status)
	assert.Equal(t, "Resolved", h.store.schedules["cs-legacy"].Outcome)
	assert.Equal(t, models.ScheduleScheduled, h.store.schedules["cs-other"].Status)
}

func TestListServiceRequests_ByRole(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	seedRequest(h, "sr-1", models.RequestPending)
	other := models.ServiceRequest{PatientID: "pat-2", CaregiverID: "c2", Title: "Meal prep", Status: models.RequestApproved}
	other.ID = "sr-2"
	h.store.putRequest(other)

	cases := []struct {
		name string
		p    func() ([]models.ServiceRequest, error)
		want []string
	}{
		{"patient", func() ([]models.ServiceRequest, error) { return h.requests.List(ctx, patientP1, "") }, []string{"sr-1"}},
		{"caregiver", func() ([]models.ServiceRequest, error) { return h.requests.List(ctx, caregiverC2, "") }, []string{"sr-2"}},
		{"reviewer", func() ([]models.ServiceRequest, error) { return h.requests.List(ctx, reviewerR1, "") }, []string{"sr-1"}},
		{"unassigned reviewer", func() ([]models.ServiceRequest, error) { return h.requests.List(ctx, reviewerR2, "") }, nil},
		{"admin", func() ([]models.ServiceRequest, error) { return h.requests.List(ctx, adminA1, "") }, []string{"sr-1", "sr-2"}},
		{"admin filtered", func() ([]models.ServiceRequest, error) { return h.requests.List(ctx, adminA1, "approved") }, []string{"sr-2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := tc.p()
			require.NoError(t, err)
			var ids []string
			for _, sr := range list {
				ids = append(ids, sr.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}

	_, err := h.requests.List(ctx, adminA1, "bogus")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteServiceRequest(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	seedRequest(h, "sr-1", models.RequestPending)
	seedRequest(h, "sr-2", models.RequestApproved)

	assert.ErrorIs(t, h.requests.Delete(ctx, patientP1, "sr-2"), ErrNotEditable)
	assert.ErrorIs(t, h.requests.Delete(ctx, caregiverC1, "sr-1"), ErrForbidden)

	require.NoError(t, h.requests.Delete(ctx, patientP1, "sr-1"))
	assert.NotContains(t, h.store.requests, "sr-1")
	require.Len(t, h.notifier.to("c1"), 1)
	assert.Equal(t, models.NotifyServiceRequestCancelled, h.notifier.to("c1")[0].Type)

	require.NoError(t, h.requests.Delete(ctx, adminA1, "sr-2"))
	assert.ErrorIs(t, h.requests.Delete(ctx, adminA1, "sr-2"), ErrNotFound)
}

func principalFor(id string, role models.Role) access.Principal {
	return access.Principal{ID: id, Role: role}
}
