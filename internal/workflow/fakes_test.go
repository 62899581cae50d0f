package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/notify"
	"homecare-app-server/internal/settings"
	"homecare-app-server/internal/store"
)

// memStore is an in-memory Store plus the reviewer lookup access.Checker needs.
type memStore struct {
	mu         sync.Mutex
	requests   map[string]models.ServiceRequest
	schedules  map[string]models.CaregiverSchedule
	patients   map[string]models.Patient
	caregivers []models.CaregiverAssignment
	reviewers  []models.ReviewerAssignment
	saves      int
}

func newMemStore() *memStore {
	return &memStore{
		requests:  map[string]models.ServiceRequest{},
		schedules: map[string]models.CaregiverSchedule{},
		patients:  map[string]models.Patient{},
	}
}

func (m *memStore) addPatient(id, userID, first, last string) models.Patient {
	p := models.Patient{UserID: userID, User: models.User{FirstName: first, LastName: last}}
	p.ID = id
	p.User.ID = userID
	m.patients[id] = p
	return p
}

func (m *memStore) assignCaregiver(caregiverID, patientID string) {
	m.caregivers = append(m.caregivers, models.CaregiverAssignment{CaregiverID: caregiverID, PatientID: patientID, IsActive: true})
}

func (m *memStore) assignReviewer(reviewerID, patientID string) {
	m.reviewers = append(m.reviewers, models.ReviewerAssignment{ReviewerID: reviewerID, PatientID: patientID, IsActive: true})
}

func (m *memStore) putRequest(sr models.ServiceRequest) {
	m.requests[sr.ID] = sr
}

func (m *memStore) putSchedule(cs models.CaregiverSchedule) {
	m.schedules[cs.ID] = cs
}

func (m *memStore) GetServiceRequest(_ context.Context, id string) (*models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sr.Patient = m.patients[sr.PatientID]
	return &sr, nil
}

func (m *memStore) CreateServiceRequest(_ context.Context, sr *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sr.ID == "" {
		sr.ID = uuid.NewString()
	}
	m.requests[sr.ID] = *sr
	return nil
}

func (m *memStore) SaveServiceRequest(_ context.Context, sr *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.requests[sr.ID] = *sr
	return nil
}

func (m *memStore) DeleteServiceRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, id)
	return nil
}

func (m *memStore) ListServiceRequests(_ context.Context, f store.ListFilter) ([]models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ServiceRequest{}
	for _, sr := range m.requests {
		if matches(f, sr.PatientID, sr.CaregiverID, string(sr.Status)) {
			out = append(out, sr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CompleteSchedulesForRequest(_ context.Context, sr *models.ServiceRequest, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, cs := range m.schedules {
		if cs.Status != models.ScheduleScheduled {
			continue
		}
		linked := cs.ServiceRequestID != nil && *cs.ServiceRequestID == sr.ID
		legacy := cs.ServiceRequestID == nil && sr.ScheduledDate != nil &&
			cs.CaregiverID == sr.CaregiverID && cs.PatientID == sr.PatientID &&
			cs.Title == sr.Title && cs.ScheduledDate.Equal(*sr.ScheduledDate)
		if !linked && !legacy {
			continue
		}
		done := at
		cs.Status = models.ScheduleCompleted
		cs.CompletedDate = &done
		cs.Outcome = sr.Outcome
		m.schedules[id] = cs
		n++
	}
	return n, nil
}

func (m *memStore) HasScheduleForRequest(_ context.Context, requestID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cs := range m.schedules {
		if cs.ServiceRequestID != nil && *cs.ServiceRequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func openSchedule(st models.ScheduleStatus) bool {
	return st == models.ScheduleScheduled || st == models.SchedulePendingApproval
}

func (m *memStore) RescheduleLinkedSchedules(_ context.Context, requestID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, cs := range m.schedules {
		if cs.ServiceRequestID != nil && *cs.ServiceRequestID == requestID && openSchedule(cs.Status) {
			cs.ScheduledDate = at
			m.schedules[id] = cs
			n++
		}
	}
	return n, nil
}

func (m *memStore) CancelSchedulesForRequest(_ context.Context, requestID, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, cs := range m.schedules {
		if cs.ServiceRequestID != nil && *cs.ServiceRequestID == requestID && openSchedule(cs.Status) {
			cs.Status = models.ScheduleCancelled
			cs.CancelledReason = reason
			m.schedules[id] = cs
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetSchedule(_ context.Context, id string) (*models.CaregiverSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.schedules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cs.Patient = m.patients[cs.PatientID]
	return &cs, nil
}

func (m *memStore) CreateSchedule(_ context.Context, cs *models.CaregiverSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cs.ID == "" {
		cs.ID = uuid.NewString()
	}
	m.schedules[cs.ID] = *cs
	return nil
}

func (m *memStore) SaveSchedule(_ context.Context, cs *models.CaregiverSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.schedules[cs.ID] = *cs
	return nil
}

func (m *memStore) DeleteSchedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	return nil
}

func (m *memStore) ListSchedules(_ context.Context, f store.ListFilter) ([]models.CaregiverSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CaregiverSchedule{}
	for _, cs := range m.schedules {
		if matches(f, cs.PatientID, cs.CaregiverID, string(cs.Status)) {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

func (m *memStore) GetPatient(_ context.Context, id string) (*models.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) GetPatientByUserID(_ context.Context, userID string) (*models.Patient, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			p := p
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) HasActiveCaregiverAssignment(_ context.Context, caregiverID, patientID string) (bool, error) {
	for _, a := range m.caregivers {
		if a.IsActive && a.CaregiverID == caregiverID && a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ActiveCaregiverForPatient(_ context.Context, patientID string) (*models.CaregiverAssignment, error) {
	for _, a := range m.caregivers {
		if a.IsActive && a.PatientID == patientID {
			a := a
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ActiveReviewerForPatient(_ context.Context, patientID string) (*models.ReviewerAssignment, error) {
	for _, a := range m.reviewers {
		if a.IsActive && a.PatientID == patientID {
			a := a
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) PatientIDsForReviewer(_ context.Context, reviewerID string) ([]string, error) {
	ids := []string{}
	for _, a := range m.reviewers {
		if a.IsActive && a.ReviewerID == reviewerID {
			ids = append(ids, a.PatientID)
		}
	}
	return ids, nil
}

func (m *memStore) HasActiveReviewerAssignment(_ context.Context, reviewerID, patientID string) (bool, error) {
	for _, a := range m.reviewers {
		if a.IsActive && a.ReviewerID == reviewerID && a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func matches(f store.ListFilter, patientID, caregiverID, status string) bool {
	if f.PatientIDs != nil {
		found := false
		for _, id := range f.PatientIDs {
			if id == patientID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CaregiverID != "" && f.CaregiverID != caregiverID {
		return false
	}
	return f.Status == "" || f.Status == status
}

type recordingNotifier struct {
	sent []notify.Message
	err  error
}

func (r *recordingNotifier) Emit(_ context.Context, m notify.Message) error {
	r.sent = append(r.sent, m)
	return r.err
}

func (r *recordingNotifier) to(userID string) []notify.Message {
	var out []notify.Message
	for _, m := range r.sent {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type fakeNotes struct {
	service  int
	schedule int
	err      error
}

func (f *fakeNotes) ServiceCompleted(context.Context, *models.ServiceRequest, string) error {
	f.service++
	return f.err
}

func (f *fakeNotes) ScheduleCompleted(context.Context, *models.CaregiverSchedule, string) error {
	f.schedule++
	return f.err
}

type fakeSettings map[settings.Key]bool

func (f fakeSettings) Enabled(_ context.Context, k settings.Key) (bool, error) {
	if v, ok := f[k]; ok {
		return v, nil
	}
	for _, d := range settings.Keys {
		if d.Key == k {
			return d.Default == "true", nil
		}
	}
	return false, errors.New("unknown key")
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type harness struct {
	store    *memStore
	notifier *recordingNotifier
	notes    *fakeNotes
	settings fakeSettings
	requests *ServiceRequests
	visits   *Schedules
}

func newHarness() *harness {
	h := &harness{
		store:    newMemStore(),
		notifier: &recordingNotifier{},
		notes:    &fakeNotes{},
		settings: fakeSettings{},
	}
	d := Deps{
		Store:     h.store,
		Access:    access.NewChecker(h.store),
		Notifier:  h.notifier,
		CareNotes: h.notes,
		Settings:  h.settings,
		Now:       func() time.Time { return fixedNow },
	}
	h.requests = NewServiceRequests(d)
	h.visits = NewSchedules(d)

	// patient user p1 (profile pat-1) cared for by c1, reviewed by r1
	h.store.addPatient("pat-1", "p1", "Ada", "Lovelace")
	h.store.assignCaregiver("c1", "pat-1")
	h.store.assignReviewer("r1", "pat-1")
	h.store.addPatient("pat-2", "p2", "Alan", "Turing")
	h.store.assignCaregiver("c2", "pat-2")
	return h
}

var (
	patientP1   = access.Principal{ID: "p1", Role: models.RolePatient}
	patientP2   = access.Principal{ID: "p2", Role: models.RolePatient}
	caregiverC1 = access.Principal{ID: "c1", Role: models.RoleCaregiver}
	caregiverC2 = access.Principal{ID: "c2", Role: models.RoleCaregiver}
	reviewerR1  = access.Principal{ID: "r1", Role: models.RoleReviewer}
	reviewerR2  = access.Principal{ID: "r2", Role: models.RoleReviewer}
	adminA1     = access.Principal{ID: "a1", Role: models.RoleAdmin}
	superS1     = access.Principal{ID: "s1", Role: models.RoleSuperAdmin}
)

func ptr[T any](v T) *T { return &v }
