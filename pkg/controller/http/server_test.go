package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/secmon-lab/intake/pkg/controller/http"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/repository/memory"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/async"
)

type mockStorage struct {
	objectName string
	body       string
}

func (m *mockStorage) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objectName = objectName
	m.body = string(data)
	return "https://storage.googleapis.com/bucket/" + objectName, nil
}

type testServer struct {
	handler http.Handler
	repo    *memory.Memory
}

func newTestServer(t *testing.T, repo *memory.Memory, opts ...usecase.Option) *testServer {
	t.Helper()
	opts = append([]usecase.Option{
		usecase.WithAsync(async.Sync),
		usecase.WithAuth(usecase.NewNoAuthnUseCase("staff@example.com")),
	}, opts...)
	uc := usecase.New(repo, opts...)

	srv, err := httpctrl.New(uc)
	gt.NoError(t, err).Required()
	return &testServer{handler: srv, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v)).Required()
	return v
}

type caseJSON struct {
	ID           string   `json:"id"`
	CaseNumber   int64    `json:"caseNumber"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	StatusLabel  string   `json:"statusLabel"`
	AssignedTo   []string `json:"assignedTo"`
	SystemStatus string   `json:"systemStatus"`
}

func createCase(t *testing.T, s *testServer, body map[string]any) caseJSON {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/cases", body)
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	return decode[caseJSON](t, rec)
}

func TestNew_RequiresAuthenticator(t *testing.T) {
	uc := usecase.New(memory.New())
	_, err := httpctrl.New(uc)
	gt.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, memory.New())
	rec := s.do(t, http.MethodGet, "/health", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains(`"ok"`)
}

func TestAuthMiddleware(t *testing.T) {
	uc := usecase.New(memory.New(), usecase.WithAuth(usecase.NewAuthUseCase("client-1")))
	srv, err := httpctrl.New(uc)
	gt.NoError(t, err).Required()

	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)

	// health stays public
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestMe(t *testing.T) {
	s := newTestServer(t, memory.New())
	rec := s.do(t, http.MethodGet, "/api/me", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	me := decode[map[string]any](t, rec)
	gt.Value(t, me["email"]).Equal("staff@example.com")
	gt.Value(t, me["noAuthn"]).Equal(true)
}

func TestCases(t *testing.T) {
	s := newTestServer(t, memory.New(memory.WithInitialCounter(0)))

	first := createCase(t, s, map[string]any{"name": "山田", "summary": "相談"})
	gt.Value(t, first.CaseNumber).Equal(int64(1))
	gt.Value(t, first.Status).Equal("new")
	gt.Value(t, first.StatusLabel).Equal("新規")
	// provisioning runs after the response is built
	gt.Value(t, first.SystemStatus).Equal("")

	rec := s.do(t, http.MethodGet, "/api/cases/"+first.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decode[caseJSON](t, rec).SystemStatus).Equal("provisioned")

	manual := createCase(t, s, map[string]any{"name": "佐藤", "summary": "相談", "manualCaseNumber": "50"})
	gt.Value(t, manual.CaseNumber).Equal(int64(50))

	t.Run("invalid manual number", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/cases", map[string]any{"name": "x", "summary": "y", "manualCaseNumber": "-1"})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cases", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("list sorted by number", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/cases", nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		resp := decode[struct {
			Cases []caseJSON `json:"cases"`
		}](t, rec)
		gt.Array(t, resp.Cases).Length(2).Required()
		gt.Value(t, resp.Cases[0].CaseNumber).Equal(int64(50))
		gt.Value(t, resp.Cases[1].CaseNumber).Equal(int64(1))

		rec = s.do(t, http.MethodGet, "/api/cases?limit=x", nil)
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("get and not found", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/cases/"+first.ID, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, decode[caseJSON](t, rec).Name).Equal("山田")

		rec = s.do(t, http.MethodGet, "/api/cases/missing", nil)
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("status", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/cases/"+first.ID+"/status", map[string]any{"status": "completed"})
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, decode[caseJSON](t, rec).Status).Equal("completed")

		rec = s.do(t, http.MethodPut, "/api/cases/"+first.ID+"/status", map[string]any{"status": "unknown"})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("assignees", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/cases/"+first.ID+"/assignees/me", nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, decode[caseJSON](t, rec).AssignedTo).Equal([]string{"staff@example.com"})

		rec = s.do(t, http.MethodGet, "/api/cases?mine=1", nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		resp := decode[struct {
			Cases []caseJSON `json:"cases"`
		}](t, rec)
		gt.Array(t, resp.Cases).Length(1)

		rec = s.do(t, http.MethodPost, "/api/cases/"+first.ID+"/assignees/toggle", map[string]any{"email": "staff@example.com"})
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, decode[caseJSON](t, rec).AssignedTo).Length(0)
	})

	t.Run("schedule", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/cases/"+first.ID+"/schedule", map[string]any{
			"meetingStatus": "confirmed",
			"meetingType":   "online",
			"meetingDate":   "2026-05-01T10:00:00+09:00",
			"locationOrUrl": "https://meet.example.com/x",
		})
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		got := decode[map[string]any](t, rec)
		gt.Value(t, got["meetingDate"]).Equal("2026-05-01T01:00:00Z")
	})

	t.Run("patch", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, "/api/cases/"+first.ID, map[string]any{"detail": "追記"})
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		got := decode[map[string]any](t, rec)
		gt.Value(t, got["detail"]).Equal("追記")
		gt.Value(t, got["name"]).Equal("山田")
	})

	t.Run("provision retry of a provisioned case conflicts", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/cases/"+first.ID+"/provision", nil)
		gt.Value(t, rec.Code).Equal(http.StatusConflict)

		rec = s.do(t, http.MethodPost, "/api/cases/"+first.ID+"/provision?force=true", nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
	})
}

func TestCreateCase_CounterMissing(t *testing.T) {
	s := newTestServer(t, memory.New())
	rec := s.do(t, http.MethodPost, "/api/cases", map[string]any{"name": "山田", "summary": "相談"})
	gt.Value(t, rec.Code).Equal(http.StatusServiceUnavailable)

	cases, err := s.repo.Case().List(context.Background())
	gt.NoError(t, err).Required()
	gt.Array(t, cases).Length(0)
}

func TestRecords(t *testing.T) {
	store := &mockStorage{}
	s := newTestServer(t, memory.New(memory.WithInitialCounter(0)), usecase.WithStorage(store))
	c := createCase(t, s, map[string]any{"name": "山田", "summary": "相談"})

	rec := s.do(t, http.MethodPost, "/api/cases/"+c.ID+"/records", map[string]any{"content": "初回面談"})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	gt.Value(t, decode[map[string]any](t, rec)["author"]).Equal("staff@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	gt.NoError(t, mw.WriteField("content", "資料添付")).Required()
	fw, err := mw.CreateFormFile("file", "memo.txt")
	gt.NoError(t, err).Required()
	_, err = fw.Write([]byte("hello"))
	gt.NoError(t, err).Required()
	gt.NoError(t, mw.Close()).Required()

	req := httptest.NewRequest(http.MethodPost, "/api/cases/"+c.ID+"/records", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	gt.Value(t, w.Code).Equal(http.StatusCreated)
	gt.Value(t, store.body).Equal("hello")
	gt.String(t, decode[map[string]any](t, w)["attachmentUrl"].(string)).Contains("memo.txt")

	rec = s.do(t, http.MethodGet, "/api/cases/"+c.ID+"/records", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	resp := decode[struct {
		Records []map[string]any `json:"records"`
	}](t, rec)
	gt.Array(t, resp.Records).Length(2)

	rec = s.do(t, http.MethodPost, "/api/cases/"+c.ID+"/records", map[string]any{"content": ""})
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestAssistant_Disabled(t *testing.T) {
	s := newTestServer(t, memory.New(memory.WithInitialCounter(0)))
	c := createCase(t, s, map[string]any{"name": "山田", "summary": "相談"})

	rec := s.do(t, http.MethodPost, "/api/cases/"+c.ID+"/ai", map[string]any{"question": "どうすれば？"})
	gt.Value(t, rec.Code).Equal(http.StatusServiceUnavailable)

	rec = s.do(t, http.MethodGet, "/api/cases/"+c.ID+"/ai", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestImport(t *testing.T) {
	s := newTestServer(t, memory.New())

	upload := func(name, content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("file", name)
		gt.NoError(t, err).Required()
		_, err = fw.Write([]byte(content))
		gt.NoError(t, err).Required()
		gt.NoError(t, mw.Close()).Required()

		req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("cases.csv", "number,name\n3,山田\nx,佐藤\n")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	resp := decode[struct {
		Count   int              `json:"count"`
		Skipped []map[string]any `json:"skipped"`
	}](t, rec)
	gt.Number(t, resp.Count).Equal(1)
	gt.Array(t, resp.Skipped).Length(1)

	cases, err := s.repo.Case().List(context.Background())
	gt.NoError(t, err).Required()
	gt.Array(t, cases).Length(1).Required()
	gt.Value(t, cases[0].CaseNumber).Equal(int64(3))

	rec = upload("cases.txt", "x")
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestStaff(t *testing.T) {
	repo := memory.New()
	gt.NoError(t, repo.Staff().SaveMany(context.Background(), []*model.Staff{
		{Email: "a@example.com", Name: "A", SlackUserID: "U1"},
	})).Required()
	s := newTestServer(t, repo)

	rec := s.do(t, http.MethodGet, "/api/staff", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains(`"slackUserId":"U1"`)
}

func TestStaticFS(t *testing.T) {
	uc := usecase.New(memory.New(), usecase.WithAuth(usecase.NewNoAuthnUseCase("a@example.com")))
	srv, err := httpctrl.New(uc, httpctrl.WithStaticFS(fstest.MapFS{
		"index.html": {Data: []byte("<html>app</html>")},
		"app.js":     {Data: []byte("console.log(1)")},
	}))
	gt.NoError(t, err).Required()

	for _, path := range []string{"/", "/cases/abc"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, rec.Body.String()).Contains("app</html>")
	}

	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains("console.log")
}
