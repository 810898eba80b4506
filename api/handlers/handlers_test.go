package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BaSui01/aiplatform/catalog"
	"github.com/BaSui01/aiplatform/history"
	"github.com/BaSui01/aiplatform/orchestrator"
	"github.com/BaSui01/aiplatform/providers/meshy"
	"github.com/BaSui01/aiplatform/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeService 实现 GenerationService
type fakeService struct {
	chatResult   *orchestrator.ChatResult
	imageOutcome *orchestrator.ImageOutcome
	task         *orchestrator.GenerationTask
	status       *meshy.TaskStatus
	records      []history.TaskRecord
	err          error
	available    bool
	cat          *catalog.Catalog

	gotUserID string
	gotPrompt string
	gotParent string
}

func (f *fakeService) SubmitChat(ctx context.Context, userID, prompt, modelID string) (*orchestrator.ChatResult, error) {
	f.gotUserID, f.gotPrompt = userID, prompt
	return f.chatResult, f.err
}
func (f *fakeService) SubmitImage(ctx context.Context, userID, prompt, size, style string) (*orchestrator.ImageOutcome, error) {
	f.gotUserID, f.gotPrompt = userID, prompt
	return f.imageOutcome, f.err
}
func (f *fakeService) Submit3D(ctx context.Context, userID string, req orchestrator.Create3DRequest) (*orchestrator.GenerationTask, error) {
	f.gotUserID, f.gotPrompt = userID, req.Prompt
	return f.task, f.err
}
func (f *fakeService) Refine3D(ctx context.Context, userID, parentTaskID, prompt string) (*orchestrator.GenerationTask, error) {
	f.gotUserID, f.gotParent = userID, parentTaskID
	return f.task, f.err
}
func (f *fakeService) PollStatus(ctx context.Context, taskID string) (*meshy.TaskStatus, error) {
	return f.status, f.err
}
func (f *fakeService) SearchHistory(ctx context.Context, userID string) ([]history.TaskRecord, error) {
	f.gotUserID = userID
	return f.records, f.err
}
func (f *fakeService) Catalog() *catalog.Catalog { return f.cat }
func (f *fakeService) ChatAvailable() bool       { return f.available }

func newFakeService() *fakeService {
	return &fakeService{
		chatResult: &orchestrator.ChatResult{Reply: "hi", Model: catalog.DefaultModelID, Available: true},
		task:       &orchestrator.GenerationTask{TaskID: "task-1", Status: "PENDING"},
		available:  true,
		cat:        catalog.New(true),
	}
}

// asUser 将用户身份注入请求上下文
func asUser(r *http.Request, userID, role string) *http.Request {
	ctx := types.WithUserID(r.Context(), userID)
	ctx = types.WithUserRole(ctx, role)
	return r.WithContext(ctx)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// --- AIHandler ---

func TestHandleStatus(t *testing.T) {
	h := NewAIHandler(newFakeService(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/ai/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["aiAvailable"])
	assert.Equal(t, "AI服务正常", data["message"])
}

func TestHandleStatus_UnavailableReportsFallback(t *testing.T) {
	svc := newFakeService()
	svc.available = false
	h := NewAIHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/ai/status", nil))

	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, false, data["aiAvailable"])
	assert.Equal(t, "使用本地回复", data["message"])
}

func TestHandleChat_Success(t *testing.T) {
	svc := newFakeService()
	h := NewAIHandler(svc, zap.NewNop())

	body := `{"message": "Hello", "model": "deepseek/deepseek-r1"}`
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(body)), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleChat(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", svc.gotUserID)
	assert.Equal(t, "Hello", svc.gotPrompt)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestHandleChat_Unauthenticated(t *testing.T) {
	h := NewAIHandler(newFakeService(), zap.NewNop())

	r := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"message":"Hello"}`))
	rec := httptest.NewRecorder()
	h.HandleChat(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, string(types.ErrUnauthorized), resp.Error.Code)
}

func TestHandleChat_ValidationErrorMapsTo400(t *testing.T) {
	svc := newFakeService()
	svc.chatResult = nil
	svc.err = types.NewError(types.ErrValidation, "prompt must not be blank")
	h := NewAIHandler(svc, zap.NewNop())

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"message":"  "}`)), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleChat(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrValidation), decodeResponse(t, rec).Error.Code)
}

func TestHandleChat_MalformedBody(t *testing.T) {
	h := NewAIHandler(newFakeService(), zap.NewNop())

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{not json`)), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleChat(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTest_DefaultsMissingMessage(t *testing.T) {
	svc := newFakeService()
	h := NewAIHandler(svc, zap.NewNop())

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/test", nil), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleTest(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello", svc.gotPrompt)
}

func TestHandleTest_UsesProvidedMessage(t *testing.T) {
	svc := newFakeService()
	h := NewAIHandler(svc, zap.NewNop())

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/test",
		strings.NewReader(`{"message":"ping"}`)), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleTest(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ping", svc.gotPrompt)
}

func TestHandleImage_ProviderErrorMapsTo502(t *testing.T) {
	svc := newFakeService()
	svc.err = types.NewError(types.ErrProvider, "synthesis failed")
	h := NewAIHandler(svc, zap.NewNop())

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/image", strings.NewReader(`{"prompt":"a chair"}`)), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleImage(rec, r)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// --- ModelsHandler ---

func TestHandleList(t *testing.T) {
	h := NewModelsHandler(newFakeService(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/ai/models", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	models := resp.Data.([]interface{})
	assert.Len(t, models, 4)
}

func TestHandleImageSupport(t *testing.T) {
	h := NewModelsHandler(newFakeService(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleImageSupport(rec, httptest.NewRequest(http.MethodGet, "/api/ai/models/image-support", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	models := decodeResponse(t, rec).Data.([]interface{})
	for _, m := range models {
		assert.Equal(t, true, m.(map[string]interface{})["supportsImage"])
	}
}

func TestHandleGet_KnownModel(t *testing.T) {
	h := NewModelsHandler(newFakeService(), zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/ai/models/x", nil)
	r.SetPathValue("modelId", catalog.DefaultModelID)
	rec := httptest.NewRecorder()
	h.HandleGet(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, catalog.DefaultModelID, data["modelId"])
}

func TestHandleGet_UnknownModelReturns404(t *testing.T) {
	h := NewModelsHandler(newFakeService(), zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/ai/models/made-up", nil)
	r.SetPathValue("modelId", "made-up/model")
	rec := httptest.NewRecorder()
	h.HandleGet(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(types.ErrNotFound), decodeResponse(t, rec).Error.Code)
}

func TestHandleAvailable(t *testing.T) {
	h := NewModelsHandler(newFakeService(), zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/ai/models/available/x", nil)
	r.SetPathValue("modelId", "deepseek/deepseek-r1")
	rec := httptest.NewRecorder()
	h.HandleAvailable(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, true, data["available"])
}

// --- ThreeDHandler ---

func TestHandleCreate_AdminOnly(t *testing.T) {
	h := NewThreeDHandler(newFakeService(), zap.NewNop())

	body := `{"prompt": "a castle", "mode": "preview"}`

	// 普通用户被拒
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/3d/text-to-3d", strings.NewReader(body)), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// 未认证
	r = httptest.NewRequest(http.MethodPost, "/api/ai/3d/text-to-3d", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreate_Success(t *testing.T) {
	svc := newFakeService()
	h := NewThreeDHandler(svc, zap.NewNop())

	body := `{"prompt": "a castle", "mode": "preview", "artStyle": "realistic"}`
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/3d/text-to-3d", strings.NewReader(body)), "admin-1", types.RoleAdmin)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", svc.gotUserID)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "task-1", data["taskId"])
}

func TestHandleCreate_ProtocolErrorMapsTo502(t *testing.T) {
	svc := newFakeService()
	svc.task = nil
	svc.err = types.NewError(types.ErrProtocol, "task creation response contains no result field")
	h := NewThreeDHandler(svc, zap.NewNop())

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/3d/text-to-3d",
		strings.NewReader(`{"prompt":"a castle","mode":"preview"}`)), "admin-1", types.RoleAdmin)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, r)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(types.ErrProtocol), decodeResponse(t, rec).Error.Code)
}

func TestHandleStatus_RequiresOnlyValidIdentity(t *testing.T) {
	svc := newFakeService()
	svc.status = &meshy.TaskStatus{TaskID: "task-1", Status: "IN_PROGRESS", Progress: 50}
	h := NewThreeDHandler(svc, zap.NewNop())

	// 普通用户即可查询状态
	r := asUser(httptest.NewRequest(http.MethodGet, "/api/ai/3d/get-text-to-3d-status/task-1", nil), "user-1", types.RoleUser)
	r.SetPathValue("taskId", "task-1")
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "IN_PROGRESS", data["status"])

	// 未认证仍被拒
	r = httptest.NewRequest(http.MethodGet, "/api/ai/3d/get-text-to-3d-status/task-1", nil)
	r.SetPathValue("taskId", "task-1")
	rec = httptest.NewRecorder()
	h.HandleStatus(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleStatus_UnknownTaskMapsTo404(t *testing.T) {
	svc := newFakeService()
	svc.err = types.NewError(types.ErrNotFound, "task not found: nope")
	h := NewThreeDHandler(svc, zap.NewNop())

	r := asUser(httptest.NewRequest(http.MethodGet, "/api/ai/3d/get-text-to-3d-status/nope", nil), "admin-1", types.RoleAdmin)
	r.SetPathValue("taskId", "nope")
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRefine_Success(t *testing.T) {
	svc := newFakeService()
	svc.task = &orchestrator.GenerationTask{TaskID: "task-2", ParentTaskID: "task-1", Status: "PENDING"}
	h := NewThreeDHandler(svc, zap.NewNop())

	body := `{"parentTaskId": "task-1", "prompt": "add towers"}`
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/3d/text-to-3d-refine", strings.NewReader(body)), "admin-1", types.RoleAdmin)
	rec := httptest.NewRecorder()
	h.HandleRefine(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "task-1", svc.gotParent)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "task-2", data["taskId"])
	assert.Equal(t, "task-1", data["parentTaskId"])
}

func TestHandleRefine_AdminOnly(t *testing.T) {
	h := NewThreeDHandler(newFakeService(), zap.NewNop())

	body := `{"parentTaskId": "task-1", "prompt": "add towers"}`
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/ai/3d/text-to-3d-refine", strings.NewReader(body)), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleRefine(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleSearchHistory(t *testing.T) {
	svc := newFakeService()
	svc.records = []history.TaskRecord{
		{ID: "task-2", UserID: "user-1", Mode: "refine", ParentTaskID: "task-1"},
		{ID: "task-1", UserID: "user-1", Mode: "preview"},
	}
	h := NewThreeDHandler(svc, zap.NewNop())

	// 普通用户检索自己的历史
	r := asUser(httptest.NewRequest(http.MethodGet, "/api/ai/3d/search-history", nil), "user-1", types.RoleUser)
	rec := httptest.NewRecorder()
	h.HandleSearchHistory(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", svc.gotUserID)
	recs := decodeResponse(t, rec).Data.([]interface{})
	assert.Len(t, recs, 2)
}

// --- HealthHandler ---

func TestHandleHealth(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReady_ChecksPassAndFail(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	h.RegisterCheck(CheckFunc{CheckName: "db", Fn: func(ctx context.Context) error { return nil }})

	rec := httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.RegisterCheck(CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error {
		return types.NewError(types.ErrStorage, "connection refused")
	}})
	rec = httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "pass", status.Checks["db"].Status)
	assert.Equal(t, "fail", status.Checks["redis"].Status)
}
