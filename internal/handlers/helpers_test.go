package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/middleware"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/store"
	"homecare-app-server/internal/utils"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *utils.Meta     `json:"meta"`
	Error   string          `json:"error"`
}

// newRouter returns a gin engine that signs every request in as p. A nil p
// leaves the request anonymous.
func newRouter(p *access.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if p != nil {
			middleware.SetPrincipal(c, *p)
		}
		c.Next()
	})
	return r
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

var (
	asPatient   = &access.Principal{ID: "u-patient", Role: models.RolePatient}
	asCaregiver = &access.Principal{ID: "u-caregiver", Role: models.RoleCaregiver}
	asReviewer  = &access.Principal{ID: "u-reviewer", Role: models.RoleReviewer}
	asAdmin     = &access.Principal{ID: "u-admin", Role: models.RoleAdmin}
	asSuper     = &access.Principal{ID: "u-super", Role: models.RoleSuperAdmin}
)

// fakeStore backs the CRUD handlers in memory.
type fakeStore struct {
	mu sync.Mutex

	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	patients      map[string]*models.Patient
	caregivers    []models.CaregiverAssignment
	reviewers     []models.ReviewerAssignment
	notes         []models.CareNote
	settings      map[string]models.AdminSetting
	applications  map[string]*models.CaregiverApplication
	reviews       map[string]*models.Review
	offerings     []models.ServiceOffering
	plans         map[string]*models.ServicePlan

	listCalls map[string]int
	failWith  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
		patients:      map[string]*models.Patient{},
		settings:      map[string]models.AdminSetting{},
		applications:  map[string]*models.CaregiverApplication{},
		reviews:       map[string]*models.Review{},
		plans:         map[string]*models.ServicePlan{},
		listCalls:     map[string]int{},
	}
}

func newID() string { return uuid.NewString() }

func (f *fakeStore) addUser(id string, role models.Role, email string) *models.User {
	u := &models.User{Email: email, FirstName: "F-" + id, LastName: "L", Role: role, IsActive: true}
	u.ID = id
	f.users[id] = u
	return u
}

func (f *fakeStore) addPatient(userID string) *models.Patient {
	p := &models.Patient{UserID: userID}
	p.ID = newID()
	if u, ok := f.users[userID]; ok {
		p.User = *u
	}
	f.patients[p.ID] = p
	return p
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListUsers(_ context.Context, role models.Role) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) SaveUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) CreatePatientWithUser(ctx context.Context, u *models.User, p *models.Patient) error {
	if err := f.CreateUser(ctx, u); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = newID()
	p.UserID = u.ID
	p.User = *u
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakeStore) CreateRefreshToken(_ context.Context, t *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = newID()
	cp := *t
	f.refreshTokens[t.ID] = &cp
	return nil
}

func (f *fakeStore) FindActiveRefreshToken(_ context.Context, token, userID string, now time.Time) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.refreshTokens {
		if t.Token == token && !t.IsRevoked && t.ExpiresAt.After(now) && (userID == "" || t.UserID == userID) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) RevokeRefreshToken(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.refreshTokens[id]; ok {
		t.IsRevoked = true
	}
	return nil
}

func (f *fakeStore) GetPatient(_ context.Context, id string) (*models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListPatients(_ context.Context) ([]models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Patient{}
	for _, p := range f.patients {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) AssignCaregiver(_ context.Context, patientID, caregiverID string) (*models.CaregiverAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.caregivers {
		if f.caregivers[i].PatientID == patientID {
			f.caregivers[i].IsActive = false
		}
	}
	a := models.CaregiverAssignment{PatientID: patientID, CaregiverID: caregiverID, IsActive: true}
	a.ID = newID()
	f.caregivers = append(f.caregivers, a)
	return &a, nil
}

func (f *fakeStore) AssignReviewer(_ context.Context, patientID, reviewerID string) (*models.ReviewerAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reviewers {
		if f.reviewers[i].PatientID == patientID {
			f.reviewers[i].IsActive = false
		}
	}
	a := models.ReviewerAssignment{PatientID: patientID, ReviewerID: reviewerID, IsActive: true}
	a.ID = newID()
	f.reviewers = append(f.reviewers, a)
	return &a, nil
}

func (f *fakeStore) HasActiveCaregiverAssignment(_ context.Context, caregiverID, patientID string) (bool, error) {
	for _, a := range f.caregivers {
		if a.IsActive && a.CaregiverID == caregiverID && a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) HasActiveReviewerAssignment(_ context.Context, reviewerID, patientID string) (bool, error) {
	for _, a := range f.reviewers {
		if a.IsActive && a.ReviewerID == reviewerID && a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateCareNote(_ context.Context, n *models.CareNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = newID()
	f.notes = append(f.notes, *n)
	return nil
}

func (f *fakeStore) ListCareNotes(_ context.Context, patientID string) ([]models.CareNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.CareNote{}
	for _, n := range f.notes {
		if n.PatientID == patientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSettings(_ context.Context) ([]models.AdminSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AdminSetting{}
	for _, s := range f.settings {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) UpsertSetting(_ context.Context, row *models.AdminSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row.UpdatedAt = time.Now()
	f.settings[row.Key] = *row
	return nil
}

func (f *fakeStore) CreateApplication(_ context.Context, a *models.CaregiverApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = newID()
	cp := *a
	f.applications[a.ID] = &cp
	return nil
}

func (f *fakeStore) GetApplication(_ context.Context, id string) (*models.CaregiverApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) ListApplications(_ context.Context, status models.ApplicationStatus) ([]models.CaregiverApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls["applications"]++
	out := []models.CaregiverApplication{}
	for _, a := range f.applications {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveApplication(_ context.Context, a *models.CaregiverApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.applications[a.ID] = &cp
	return nil
}

func (f *fakeStore) CreateReview(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = newID()
	cp := *r
	f.reviews[r.ID] = &cp
	return nil
}

func (f *fakeStore) GetReview(_ context.Context, id string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) ListReviews(_ context.Context, approvedOnly bool) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls["reviews"]++
	out := []models.Review{}
	for _, r := range f.reviews {
		if !approvedOnly || r.IsApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveReview(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.reviews[r.ID] = &cp
	return nil
}

func (f *fakeStore) ListOfferings(_ context.Context) ([]models.ServiceOffering, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls["offerings"]++
	return f.offerings, nil
}

func (f *fakeStore) GetPlan(_ context.Context, id string) (*models.ServicePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}
