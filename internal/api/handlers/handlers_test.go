package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/av-estimator/engine/internal/api/middleware"
	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/models"
	"github.com/av-estimator/engine/internal/services"
	appErr "github.com/av-estimator/engine/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// serve routes one request through a router holding only pattern, as the
// user uid when it is not uuid.Nil.
func serve(t *testing.T, method, pattern, path, body string, uid uuid.UUID, h http.HandlerFunc, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if uid != uuid.Nil {
		req = req.WithContext(middleware.WithUserID(req.Context(), uid))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestLoginReturnsBearerToken(t *testing.T) {
	svc := new(mockAuthService)
	u := &models.User{ID: uuid.New(), Email: "a@b.co", Name: "Ana"}
	svc.On("Login", mock.Anything, "a@b.co", "secret-pass").Return("tok", u, nil)
	h := NewAuthHandler(svc)

	rec := serve(t, http.MethodPost, "/login", "/login", `{"email":"a@b.co","password":"secret-pass"}`, uuid.Nil, h.Login)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"access_token":"tok"`)
	assert.Contains(t, string(env.Data), `"expires_in":86400`)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Login", mock.Anything, "a@b.co", "wrong").Return("", nil, appErr.New(appErr.CodeUnauthorized, "invalid credentials"))
	h := NewAuthHandler(svc)

	rec := serve(t, http.MethodPost, "/login", "/login", `{"email":"a@b.co","password":"wrong"}`, uuid.Nil, h.Login)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeEnvelope(t, rec).Error.Code)
}

func TestRegisterValidatesBody(t *testing.T) {
	h := NewAuthHandler(new(mockAuthService))

	rec := serve(t, http.MethodPost, "/register", "/register", `{"email":"nope","password":"short"}`, uuid.Nil, h.Register)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "invalid", env.Error.Code)
	assert.Contains(t, env.Error.Message, "email must be a valid email")
	assert.Contains(t, env.Error.Message, "name is required")
}

func TestProtectedRouteWithoutUser(t *testing.T) {
	h := NewProjectsHandler(new(mockProjectService))
	rec := serve(t, http.MethodGet, "/projects", "/projects", "", uuid.Nil, h.List)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProject(t *testing.T) {
	uid := uuid.New()
	svc := new(mockProjectService)
	svc.On("CreateProject", mock.Anything, uid, mock.MatchedBy(func(in *services.CreateProjectInput) bool {
		return in.Name == "HQ Refresh" && len(in.Locations) == 1 && in.Locations[0].ID == "b1"
	})).Return(&models.Project{ID: uuid.New(), UserID: uid, Name: "HQ Refresh"}, nil)
	h := NewProjectsHandler(svc)

	body := `{"name":"HQ Refresh","locations":[{"id":"b1","name":"Building","items":[]}]}`
	rec := serve(t, http.MethodPost, "/projects", "/projects", body, uid, h.Create)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestGetProjectForbidden(t *testing.T) {
	uid, pid := uuid.New(), uuid.New()
	svc := new(mockProjectService)
	svc.On("GetProject", mock.Anything, pid, uid).Return(nil, appErr.New(appErr.CodeForbidden, "user does not own project"))
	h := NewProjectsHandler(svc)

	rec := serve(t, http.MethodGet, "/projects/{projectID}", "/projects/"+pid.String(), "", uid, h.Get)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeEnvelope(t, rec).Error.Code)
}

func TestGetProjectBadID(t *testing.T) {
	h := NewProjectsHandler(new(mockProjectService))
	rec := serve(t, http.MethodGet, "/projects/{projectID}", "/projects/abc", "", uuid.New(), h.Get)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItemPassesInput(t *testing.T) {
	uid, pid, itemID := uuid.New(), uuid.New(), uuid.New()
	svc := new(mockProjectService)
	svc.On("AddCatalogItem", mock.Anything, pid, uid, &services.AddCatalogItemInput{
		LocationID:    "r1",
		CatalogItemID: itemID,
		Qty:           2,
	}).Return(&estimate.Location{ID: "r1", Name: "Room"}, nil)
	h := NewProjectsHandler(svc)

	body := `{"location_id":"r1","catalog_item_id":"` + itemID.String() + `","qty":2}`
	rec := serve(t, http.MethodPost, "/projects/{projectID}/items", "/projects/"+pid.String()+"/items", body, uid, h.AddItem)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestSaveSelectionRequiresIndices(t *testing.T) {
	h := NewProjectsHandler(new(mockProjectService))
	pid := uuid.New()
	body := `{"location_id":"r1","indices":[],"name":"Kit"}`
	rec := serve(t, http.MethodPost, "/projects/{projectID}/selections", "/projects/"+pid.String()+"/selections", body, uuid.New(), h.SaveSelection)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Message, "indices must be at least 1")
}

func TestEstimateETagRevalidation(t *testing.T) {
	uid, pid := uuid.New(), uuid.New()
	svc := new(mockEstimateService)
	svc.On("Estimate", mock.Anything, pid, uid, "camera").Return(&services.EstimateResult{
		ProjectID: pid,
		Query:     "camera",
		Total:     estimate.Summary{Cost: 0.1 + 0.2, Labor: 1.5, ItemCount: 2},
		Locations: []estimate.LocationSummary{{ID: "r1", Name: "Room"}},
	}, nil)
	h := NewEstimatesHandler(svc)
	pattern := "/projects/{projectID}/estimate"
	path := "/projects/" + pid.String() + "/estimate?q=camera"

	first := serve(t, http.MethodGet, pattern, path, "", uid, h.Estimate)
	require.Equal(t, http.StatusOK, first.Code)
	tag := first.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Contains(t, first.Body.String(), `"cost":"0.3"`)

	second := serve(t, http.MethodGet, pattern, path, "", uid, h.Estimate, "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())
}

func TestUpdateLineMapsIndexErrors(t *testing.T) {
	uid, pkgID := uuid.New(), uuid.New()
	svc := new(mockPackageService)
	svc.On("UpdateLine", mock.Anything, pkgID, uid, 7, mock.Anything).
		Return(nil, appErr.Wrap(estimate.ErrLineIndex, appErr.CodeInvalid, "line index out of range"))
	h := NewPackagesHandler(svc)

	pattern := "/packages/{packageID}/lines/{index}"
	rec := serve(t, http.MethodPut, pattern, "/packages/"+pkgID.String()+"/lines/7", `{"model":"X","qtyPerPackage":1}`, uid, h.UpdateLine)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodPut, pattern, "/packages/"+pkgID.String()+"/lines/-1", `{"model":"X"}`, uid, h.UpdateLine)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Message, "invalid index")
}

func TestCreateProjectPackage(t *testing.T) {
	uid, pid := uuid.New(), uuid.New()
	svc := new(mockPackageService)
	svc.On("CreatePackage", mock.Anything, uid, mock.MatchedBy(func(in *services.CreatePackageInput) bool {
		return in.Scope == "project" && in.ProjectID != nil && *in.ProjectID == pid && len(in.Lines) == 1
	})).Return(&models.PackageDefinition{ID: uuid.New(), Name: "Kit", Scope: "project", Version: 1}, nil)
	h := NewPackagesHandler(svc)

	body := `{"name":"Kit","scope":"project","project_id":"` + pid.String() + `","lines":[{"model":"Mic","unitCost":"10","qtyPerPackage":2}]}`
	rec := serve(t, http.MethodPost, "/packages", "/packages", body, uid, h.Create)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestUsageRequiresProject(t *testing.T) {
	h := NewPackagesHandler(new(mockPackageService))
	pkgID := uuid.New()
	rec := serve(t, http.MethodGet, "/packages/{packageID}/usage", "/packages/"+pkgID.String()+"/usage", "", uuid.New(), h.Usage)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncAllProjectsIsAccepted(t *testing.T) {
	uid, pkgID := uuid.New(), uuid.New()
	svc := new(mockSyncService)
	svc.On("SyncEverywhere", mock.Anything, pkgID, uid).Return([]models.SyncJob{{ID: uuid.New(), PackageID: pkgID, Status: models.SyncJobPending}}, nil)
	h := NewSyncHandler(svc)

	rec := serve(t, http.MethodPost, "/packages/{packageID}/sync", "/packages/"+pkgID.String()+"/sync", `{"all_projects":true}`, uid, h.Sync)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	svc.AssertExpectations(t)
}

func TestSyncOneProject(t *testing.T) {
	uid, pkgID, pid := uuid.New(), uuid.New(), uuid.New()
	svc := new(mockSyncService)
	svc.On("SyncForUser", mock.Anything, pid, pkgID, uid).Return(&estimate.SyncReport{PackageID: pkgID.String(), Version: 3, Updated: []estimate.InstanceLocation{{LocationID: "r1", ItemIndex: 0}}}, nil)
	h := NewSyncHandler(svc)

	rec := serve(t, http.MethodPost, "/packages/{packageID}/sync", "/packages/"+pkgID.String()+"/sync", `{"project_id":"`+pid.String()+`"}`, uid, h.Sync)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertNotCalled(t, "SyncEverywhere", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogSearchLimit(t *testing.T) {
	svc := new(mockCatalogService)
	svc.On("SearchItems", mock.Anything, "shure", maxSearchLimit).Return([]models.CatalogItem{{Manufacturer: "Shure"}}, nil)
	h := NewCatalogHandler(svc)

	rec := serve(t, http.MethodGet, "/catalog", "/catalog?q=shure&limit=5000", "", uuid.New(), h.Search)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, http.MethodGet, "/catalog", "/catalog?limit=zero", "", uuid.New(), h.Search)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}
