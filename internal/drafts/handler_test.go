package drafts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/composer/internal/composer"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/persistence"
	"github.com/aura-events/composer/internal/undo"
	"github.com/aura-events/composer/pkg/queue"
)

type fakeCovers struct {
	got []queue.CoverImagePayload
	err error
}

func (f *fakeCovers) EnqueueCoverImage(_ context.Context, p queue.CoverImagePayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.got = append(f.got, p)
	return "job-1", nil
}

type fakePresigner struct{}

func (fakePresigner) GeneratePresignedUploadURL(_ context.Context, key, contentType string) (string, error) {
	return "https://upload.test/" + key + "?ct=" + contentType, nil
}

func (fakePresigner) PublicObjectURL(key string) string { return "https://cdn.test/" + key }

type apiFixture struct {
	router *gin.Engine
	reg    *Registry
	store  *persistence.Memory
	sched  *undo.ManualScheduler
	rec    *notify.Recorder
	covers *fakeCovers
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &apiFixture{
		store:  persistence.NewMemory(),
		sched:  undo.NewManualScheduler(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		rec:    &notify.Recorder{},
		covers: &fakeCovers{},
	}
	logger := zaptest.NewLogger(t)
	f.reg = NewRegistry(f.store, func(uuid.UUID) notify.Notifier { return f.rec },
		composer.Options{AccountID: "acc-1", Scheduler: f.sched}, logger)
	t.Cleanup(f.reg.CloseAll)

	f.router = gin.New()
	NewHandler(f.reg, f.covers, fakePresigner{}, logger).Register(f.router.Group("/drafts"))
	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Issues  json.RawMessage `json:"issues"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (f *apiFixture) create(t *testing.T) string {
	t.Helper()
	code, env := f.do(t, http.MethodPost, "/drafts", map[string]string{"account_id": "acc-1"})
	require.Equal(t, http.StatusCreated, code)
	snap := decode[composer.Snapshot](t, env.Data)
	return "/drafts/" + snap.Event.ID.String()
}

func TestCreateAndGet(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, env := f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	snap := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, "event", snap["step"])
	assert.Equal(t, 1, f.reg.Len())
}

func TestUnknownAndInvalidDraft(t *testing.T) {
	f := newAPI(t)

	code, _ := f.do(t, http.MethodGet, "/drafts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodGet, "/drafts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNext_GateAndAdvance(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, env := f.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error, "event")

	code, _ = f.do(t, http.MethodPatch, base, map[string]string{"event_name": "Summer fair"})
	require.Equal(t, http.StatusOK, code)

	code, env = f.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "session", decode[map[string]interface{}](t, env.Data)["step"])

	code, env = f.do(t, http.MethodPost, base+"/prev", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"step":"event"}`, string(env.Data))
}

func TestUpdateEvent_InvalidVisibility(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, _ := f.do(t, http.MethodPatch, base, map[string]string{"visibility": "secret"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSession_DeleteAndUndo(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, env := f.do(t, http.MethodPost, base+"/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	sid := decode[map[string]interface{}](t, env.Data)["id"].(string)

	code, _ = f.do(t, http.MethodDelete, base+"/sessions/"+sid, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = f.do(t, http.MethodDelete, base+"/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = f.do(t, http.MethodPost, base+"/sessions/"+sid+"/undo", nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[[]map[string]interface{}](t, env.Data)
	require.Len(t, list, 1)
	assert.Equal(t, sid, list[0]["id"])

	code, _ = f.do(t, http.MethodPost, base+"/sessions/"+sid+"/undo", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMove_RequiresIndices(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, _ := f.do(t, http.MethodPost, base+"/sessions/move", map[string]int{"from": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.do(t, http.MethodPost, base+"/sessions/move", map[string]int{"from": 0, "to": 0})
	assert.Equal(t, http.StatusOK, code)
}

func TestOption_MinimumIsConflict(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, _ := f.do(t, http.MethodPost, base+"/form", nil)
	require.Equal(t, http.StatusCreated, code)
	code, env := f.do(t, http.MethodPost, base+"/form/fields", map[string]string{"field_type": "radio"})
	require.Equal(t, http.StatusCreated, code)
	fid := decode[map[string]interface{}](t, env.Data)["id"].(string)

	code, _ = f.do(t, http.MethodDelete, base+"/form/fields/"+fid+"/options/0", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, notify.KindWarning, lastNotification(t, f.rec).Kind)

	code, _ = f.do(t, http.MethodPost, base+"/form/fields/"+fid+"/options", map[string]string{"value": "C"})
	require.Equal(t, http.StatusCreated, code)
	code, env = f.do(t, http.MethodDelete, base+"/form/fields/"+fid+"/options/0", nil)
	require.Equal(t, http.StatusOK, code)
	key := decode[map[string]string](t, env.Data)["key"]

	code, _ = f.do(t, http.MethodPost, base+"/form/option-deletions/"+key+"/undo", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestTemplate_DeleteCommitsAfterGrace(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	f.do(t, http.MethodPost, base+"/form", nil)
	code, _ := f.do(t, http.MethodPost, base+"/form/fields", map[string]string{"field_type": "text"})
	require.Equal(t, http.StatusCreated, code)
	code, env := f.do(t, http.MethodPost, base+"/templates", nil)
	require.Equal(t, http.StatusCreated, code)
	tplID := decode[map[string]interface{}](t, env.Data)["id"].(string)

	code, _ = f.do(t, http.MethodDelete, base+"/templates/"+tplID, nil)
	require.Equal(t, http.StatusAccepted, code)
	code, _ = f.do(t, http.MethodDelete, base+"/templates/"+tplID, nil)
	assert.Equal(t, http.StatusConflict, code, "deletion already pending")

	_, env = f.do(t, http.MethodGet, base, nil)
	snap := decode[composer.Snapshot](t, env.Data)
	require.Len(t, snap.PendingDeletions, 1)
	assert.Equal(t, tplID, snap.PendingDeletions[0].ID)

	f.sched.Advance(5 * time.Second)
	assert.Equal(t, 1, f.store.Calls(persistence.OpDeleteTemplate))
	code, _ = f.do(t, http.MethodPost, base+"/templates/"+tplID+"/undo", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInvokeAction(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	f.do(t, http.MethodPost, base+"/sessions", nil)
	_, env := f.do(t, http.MethodGet, base, nil)
	sid := decode[composer.Snapshot](t, env.Data).Event.Sessions[0].ID
	f.do(t, http.MethodDelete, base+"/sessions/"+sid, nil)

	n := lastNotification(t, f.rec)
	require.NotNil(t, n.Action)
	code, _ := f.do(t, http.MethodPost, base+"/actions/"+n.Action.ID, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = f.do(t, http.MethodPost, base+"/actions/"+n.Action.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, env = f.do(t, http.MethodGet, base, nil)
	assert.Len(t, decode[composer.Snapshot](t, env.Data).Event.Sessions, 1)
}

func TestSave(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)
	f.do(t, http.MethodPatch, base, map[string]string{"event_name": "Fair"})

	f.store.Fail(persistence.OpSaveEvent, errors.New("db down"))
	code, _ := f.do(t, http.MethodPost, base+"/save", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, notify.KindError, lastNotification(t, f.rec).Kind)

	code, _ = f.do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodPut, base+"/bank-transfer", map[string]interface{}{"enable": true})
	require.Equal(t, http.StatusOK, code)
	code, env := f.do(t, http.MethodPost, base+"/save", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.NotEmpty(t, env.Issues)
}

func TestReopenSavedDraft(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)
	f.do(t, http.MethodPatch, base, map[string]string{"event_name": "Fair"})
	code, _ := f.do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, 0, f.reg.Len())

	code, env := f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Fair", decode[composer.Snapshot](t, env.Data).Event.EventName)
}

func TestBinding(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, env := f.do(t, http.MethodPut, base+"/values", map[string]interface{}{"path": "event_name", "value": "Fair"})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"path":"event_name","value":"Fair","error":""}`, string(env.Data))

	code, _ = f.do(t, http.MethodPut, base+"/values", map[string]interface{}{"path": "id", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodGet, base+"/values?path=event_name", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Fair", decode[map[string]interface{}](t, env.Data)["value"])

	code, _ = f.do(t, http.MethodPut, base+"/focus", map[string]string{"path": "nope.0"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPost, base+"/validate", map[string]string{"prefix": "event_name"})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestCover(t *testing.T) {
	f := newAPI(t)
	base := f.create(t)

	code, env := f.do(t, http.MethodPost, base+"/cover", map[string]string{"source_url": "https://img.test/a.png"})
	require.Equal(t, http.StatusAccepted, code)
	assert.JSONEq(t, `{"job_id":"job-1"}`, string(env.Data))
	require.Len(t, f.covers.got, 1)
	assert.Equal(t, "https://img.test/a.png", f.covers.got[0].SourceURL)

	code, _ = f.do(t, http.MethodPost, base+"/cover", map[string]string{"source_url": "ftp://img.test/a.png"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPost, base+"/cover/upload-url", map[string]string{"filename": "a.png"})
	require.Equal(t, http.StatusOK, code)
	out := decode[map[string]string](t, env.Data)
	assert.Contains(t, out["upload_url"], "ct=image/png")
	assert.Contains(t, out["public_url"], "https://cdn.test/covers/")

	code, _ = f.do(t, http.MethodPost, base+"/cover/upload-url", map[string]string{"filename": "a.exe"})
	assert.Equal(t, http.StatusBadRequest, code)

	id := uuid.MustParse(base[len("/drafts/"):])
	require.NoError(t, f.reg.SetCover(id, "https://cdn.test/covers/x.png"))
	_, env = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, "https://cdn.test/covers/x.png", decode[composer.Snapshot](t, env.Data).Event.CoverImage)
	assert.ErrorIs(t, f.reg.SetCover(uuid.New(), "x"), ErrDraftNotFound)
}

func lastNotification(t *testing.T, rec *notify.Recorder) notify.Notification {
	t.Helper()
	n, ok := rec.Last()
	require.True(t, ok)
	return n
}
