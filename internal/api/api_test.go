package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kazukitoyoda1215-max/Supporton/internal/console"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
	"github.com/kazukitoyoda1215-max/Supporton/internal/sheets"
	"github.com/kazukitoyoda1215-max/Supporton/internal/testutil"
)

const flowSheet = "タイトル,親カテゴリ,本文\nネット回線,,\nキャンセル,ネット回線,解約手順は...\n電気サービス,,\nキャンセル,電気サービス,電気の解約は...\n"

const phoneSheet = "id,number,name,note,type\np1,0120-000-001,テスト電力,24時間,safe\n"

// testEnv sets up a temp SQLite store, console service, and router for testing.
// An empty secret means authentication is disabled.
func testEnv(t *testing.T, secret string, cfg models.AppConfig) (*console.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, secret, cfg, nil)
}

func testEnvWithSSE(t *testing.T, secret string, cfg models.AppConfig, sseHandler http.Handler) (*console.Service, http.Handler) {
	t.Helper()
	svc := console.NewService(testutil.TestStore(t), sheets.NewFetcher(time.Second),
		console.WithAuth(console.AuthOptions{Enabled: secret != "", Secret: secret}),
		console.WithMaterials(console.Materials{
			Header: "HEAD",
			Footer: "FOOT",
			Items:  []models.Material{{ID: "m1", Name: "東京電力", URL: "https://example.com/m1.pdf"}},
		}))
	if err := svc.Load(context.Background(), cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return svc, NewRouter(svc, sseHandler)
}

// remoteConfig writes flow and phone sheets into a temp dir.
func remoteConfig(t *testing.T) (models.AppConfig, string) {
	t.Helper()
	dir := t.TempDir()
	return models.AppConfig{
		UseGoogleSheets: true,
		FlowSheetURL:    testutil.WriteSheet(t, dir, "flow.csv", flowSheet),
		PhoneSheetURL:   testutil.WriteSheet(t, dir, "phones.csv", phoneSheet),
	}, dir
}

func do(t *testing.T, router http.Handler, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginLogout(t *testing.T) {
	_, router := testEnv(t, "open-sesame", models.AppConfig{})

	if w := do(t, router, http.MethodGet, "/flow", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/login", LoginRequest{Password: "wrong"}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password = %d, want 401", w.Code)
	}

	w := do(t, router, http.MethodPost, "/login", LoginRequest{Password: "open-sesame"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, body = %s", w.Code, w.Body.String())
	}
	var login LoginResponse
	if err := json.NewDecoder(w.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}
	if login.Token == "" {
		t.Fatal("empty token")
	}
	if cookies := w.Result().Cookies(); len(cookies) != 1 || cookies[0].Value != login.Token {
		t.Errorf("session cookie = %v", cookies)
	}

	if w := do(t, router, http.MethodGet, "/flow", nil, login.Token); w.Code != http.StatusOK {
		t.Fatalf("with token = %d", w.Code)
	}

	// Cookie works too.
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: login.Token})
	cw := httptest.NewRecorder()
	router.ServeHTTP(cw, req)
	if cw.Code != http.StatusOK {
		t.Errorf("with cookie = %d", cw.Code)
	}

	if w := do(t, router, http.MethodPost, "/logout", nil, login.Token); w.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/flow", nil, login.Token); w.Code != http.StatusUnauthorized {
		t.Errorf("after logout = %d, want 401", w.Code)
	}
}

func TestAuthDisabled(t *testing.T) {
	_, router := testEnv(t, "", models.AppConfig{})
	if w := do(t, router, http.MethodGet, "/flow", nil, ""); w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/login", LoginRequest{Password: "x"}, ""); w.Code != http.StatusBadRequest {
		t.Errorf("login while disabled = %d, want 400", w.Code)
	}
}

func TestFlowEditLifecycle(t *testing.T) {
	_, router := testEnv(t, "", models.AppConfig{})

	w := do(t, router, http.MethodPost, "/flow/children", AddChildRequest{Title: "ネット回線"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("add child = %d, body = %s", w.Code, w.Body.String())
	}
	var node models.FlowNode
	if err := json.NewDecoder(w.Body).Decode(&node); err != nil {
		t.Fatal(err)
	}

	w = do(t, router, http.MethodPut, "/flow/content",
		SaveContentRequest{Path: []string{node.ID}, Content: "本文", Template: "テンプレ"}, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("save content = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/flow/node?id="+url.QueryEscape(node.ID), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("node = %d", w.Code)
	}
	var view console.NodeView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Node.Content != "本文" || view.Node.Template != "テンプレ" {
		t.Errorf("node = %+v", view.Node)
	}
	if len(view.Breadcrumbs) != 1 || view.Breadcrumbs[0].ID != node.ID {
		t.Errorf("breadcrumbs = %+v", view.Breadcrumbs)
	}

	w = do(t, router, http.MethodDelete, "/flow/nodes/"+models.RootID+"/children/"+url.PathEscape(node.ID), nil, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/flow/node?id="+url.QueryEscape(node.ID), nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted node = %d, want 404", w.Code)
	}
}

func TestFlowEdit_BadRequests(t *testing.T) {
	_, router := testEnv(t, "", models.AppConfig{})

	if w := do(t, router, http.MethodPost, "/flow/children", AddChildRequest{Title: "  "}, ""); w.Code != http.StatusBadRequest {
		t.Errorf("blank title = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/flow/children", AddChildRequest{Path: []string{"nope"}, Title: "x"}, ""); w.Code != http.StatusNotFound {
		t.Errorf("missing parent = %d, want 404", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/flow/children", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad JSON = %d, want 400", w.Code)
	}
}

func TestRemoteMode(t *testing.T) {
	cfg, _ := remoteConfig(t)
	_, router := testEnv(t, "", cfg)

	if w := do(t, router, http.MethodPost, "/flow/children", AddChildRequest{Title: "x"}, ""); w.Code != http.StatusForbidden {
		t.Errorf("edit in remote mode = %d, want 403", w.Code)
	}

	w := do(t, router, http.MethodGet, "/flow/search?q="+url.QueryEscape("キャンセル"), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	var res SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 2 || res.Results[1].ID != "キャンセル_3" {
		t.Errorf("results = %+v", res.Results)
	}

	if w := do(t, router, http.MethodGet, "/flow/search", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("search without q = %d, want 400", w.Code)
	}

	if w := do(t, router, http.MethodPost, "/sync", nil, ""); w.Code != http.StatusOK {
		t.Errorf("sync = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/flow/export", nil, "")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "キャンセル_3,電気サービス_2") {
		t.Errorf("export body = %s", w.Body.String())
	}
}

func TestSync_Failures(t *testing.T) {
	_, local := testEnv(t, "", models.AppConfig{})
	if w := do(t, local, http.MethodPost, "/sync", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("sync in local mode = %d, want 400", w.Code)
	}

	cfg, dir := remoteConfig(t)
	_, router := testEnv(t, "", cfg)
	testutil.WriteSheet(t, dir, "flow.csv", "<html><body>sign in</body></html>")
	testutil.WriteSheet(t, dir, "phones.csv", "<html><body>sign in</body></html>")

	w := do(t, router, http.MethodPost, "/sync", nil, "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("all failed = %d, want 502", w.Code)
	}
	var report console.SyncReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Flow.Hint == "" || report.Phones.Error == "" {
		t.Errorf("report = %+v", report)
	}

	// The previous tree is still served.
	w = do(t, router, http.MethodGet, "/flow", nil, "")
	var root models.FlowNode
	if err := json.NewDecoder(w.Body).Decode(&root); err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 2 {
		t.Errorf("root children = %d, want 2", len(root.Children))
	}
}

func TestConfigEndpoints(t *testing.T) {
	_, router := testEnv(t, "", models.AppConfig{})

	if w := do(t, router, http.MethodPut, "/config", models.AppConfig{PhoneSheetURL: "https://"}, ""); w.Code != http.StatusBadRequest {
		t.Errorf("invalid url = %d, want 400", w.Code)
	}

	cfg, _ := remoteConfig(t)
	w := do(t, router, http.MethodPut, "/config", cfg, "")
	if w.Code != http.StatusOK {
		t.Fatalf("put config = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ConfigResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Config.UseGoogleSheets || resp.Sync == nil || !resp.Sync.Flow.Installed {
		t.Errorf("response = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/config", nil, "")
	var got models.AppConfig
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("config = %+v, want %+v", got, cfg)
	}
}

func TestPhones(t *testing.T) {
	_, router := testEnv(t, "", models.AppConfig{})

	w := do(t, router, http.MethodPost, "/phones", AddPhoneRequest{Number: "03-1111-2222", Name: "新規業者", Note: "メモ"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("add phone = %d, body = %s", w.Code, w.Body.String())
	}
	var added models.PhoneEntry
	if err := json.NewDecoder(w.Body).Decode(&added); err != nil {
		t.Fatal(err)
	}
	if added.ID == "" || added.Type != models.PhoneSafe {
		t.Errorf("added = %+v", added)
	}

	if w := do(t, router, http.MethodPost, "/phones", AddPhoneRequest{Number: "1"}, ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing name = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodGet, "/phones?q="+url.QueryEscape("新規"), nil, "")
	var list PhoneListResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || list.Phones[0].ID != added.ID {
		t.Errorf("filtered = %+v", list)
	}

	w = do(t, router, http.MethodGet, "/phones/export", nil, "")
	if !strings.Contains(w.Body.String(), "03-1111-2222,新規業者,メモ,safe") {
		t.Errorf("export = %s", w.Body.String())
	}

	if w := do(t, router, http.MethodDelete, "/phones/"+added.ID, nil, ""); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/phones/"+added.ID, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("delete again = %d, want 404", w.Code)
	}
}

func TestMaterials(t *testing.T) {
	_, router := testEnv(t, "", models.AppConfig{})

	w := do(t, router, http.MethodPost, "/materials/text", MaterialTextRequest{IDs: []string{"m1"}}, "")
	var resp MaterialTextResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	want := "HEAD\n\n■ 東京電力\nhttps://example.com/m1.pdf\n\nFOOT"
	if resp.Text != want {
		t.Errorf("text = %q, want %q", resp.Text, want)
	}

	w = do(t, router, http.MethodGet, "/snapshots", nil, "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("snapshots without mirror = %d %s", w.Code, w.Body.String())
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, "secret", models.AppConfig{}, blockingSSE)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	_, router := testEnvWithSSE(t, "", models.AppConfig{}, blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_SessionCookie(t *testing.T) {
	svc, router := testEnvWithSSE(t, "pw", models.AppConfig{}, blockingSSE)
	token, _, err := svc.Login(context.Background(), "pw")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with session cookie should not 401")
	}
}
