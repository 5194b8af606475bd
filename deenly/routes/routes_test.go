package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"deenly/deenly/config"
	"deenly/deenly/controllers"
	"deenly/deenly/middlewares"
	"deenly/deenly/services/chat"
	"deenly/deenly/services/entitlement"
	"deenly/deenly/services/hadith"
	"deenly/deenly/services/threads"
	"deenly/deenly/sources/psql"
	"deenly/deenly/sources/psql/dao"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type echoResponder struct {
	calls atomic.Int32
}

func (e *echoResponder) Respond(_ context.Context, prompt string, _ []chat.Turn, _ []string, premium bool) (string, error) {
	e.calls.Add(1)
	if premium {
		return "Bismillah. Respuesta detallada: " + prompt, nil
	}
	return "Bismillah. " + prompt, nil
}

type testServer struct {
	handler   http.Handler
	responder *echoResponder
}

func newTestServer(t *testing.T, dailyLimit int) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := psql.Migrate(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	auth, err := middlewares.NewAuthenticator(context.Background(), config.Config{JWTSecret: "test-secret"})
	if err != nil {
		t.Fatal(err)
	}
	lib, err := hadith.Load()
	if err != nil {
		t.Fatal(err)
	}

	userDAO := dao.NewUserDAO(db)
	responder := &echoResponder{}
	manager := chat.NewManager(chat.Deps{
		Messages:     dao.NewMessageDAO(db),
		Memories:     dao.NewMemoryDAO(db),
		Responder:    responder,
		Entitlements: entitlement.NewSource(userDAO, dao.NewUsageDAO(db), time.UTC),
		DailyLimit:   dailyLimit,
	})
	h := NewRouter(Controllers{
		Auth:      controllers.NewAuthController(userDAO, auth),
		User:      controllers.NewUserController(userDAO),
		Chat:      controllers.NewChatController(manager, nil),
		Reminders: controllers.NewReminderController(dao.NewReminderDAO(db)),
		Hadith:    controllers.NewHadithController(lib),
		Health:    controllers.NewHealthController(sqlDB),
	}, auth, []string{"http://localhost:3000"})
	return &testServer{handler: h, responder: responder}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rr := s.do(t, "POST", "/auth/login", "", map[string]string{"username": username})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	return decode[map[string]string](t, rr)["token"]
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 30)
	rr := s.do(t, "GET", "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("health = %d", rr.Code)
	}
}

func TestChatRequiresToken(t *testing.T) {
	s := newTestServer(t, 30)
	for _, tok := range []string{"", "garbage"} {
		if rr := s.do(t, "GET", "/chat/threads", tok, nil); rr.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status %d", tok, rr.Code)
		}
	}
}

func TestThreadLifecycle(t *testing.T) {
	s := newTestServer(t, 30)
	tok := s.login(t, "amina")

	rr := s.do(t, "POST", "/chat/", tok, map[string]string{"content": "¿Cuántas oraciones hay al día?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("send: %d %s", rr.Code, rr.Body.String())
	}
	res := decode[chat.SendResult](t, rr)
	if res.AssistantMessage.Role != threads.RoleAssistant || res.Failed {
		t.Errorf("result = %+v", res)
	}

	ts := decode[[]threads.Thread](t, s.do(t, "GET", "/chat/threads", tok, nil))
	if len(ts) != 1 || ts[0].MessageCount != 2 || ts[0].ID != res.UserMessage.ID {
		t.Fatalf("threads = %+v", ts)
	}
	id := ts[0].ID

	// toggle twice
	upd := decode[chat.ThreadUpdate](t, s.do(t, "POST", "/chat/threads/"+id+"/star", tok, nil))
	if !upd.Starred || len(upd.MessageIDs) != 2 {
		t.Errorf("toggle on = %+v", upd)
	}
	upd = decode[chat.ThreadUpdate](t, s.do(t, "POST", "/chat/threads/"+id+"/star", tok, nil))
	if upd.Starred {
		t.Errorf("toggle off = %+v", upd)
	}

	rr = s.do(t, "PUT", "/chat/threads/"+id+"/star", tok, map[string]bool{"starred": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("put star: %d", rr.Code)
	}
	msgs := decode[[]threads.Message](t, s.do(t, "GET", "/chat/messages?thread="+id, tok, nil))
	for _, m := range msgs {
		if !m.Starred {
			t.Errorf("message %s not starred", m.ID)
		}
	}

	if ts := decode[[]threads.Thread](t, s.do(t, "GET", "/chat/threads?q=oraciones", tok, nil)); len(ts) != 1 {
		t.Errorf("search hit = %d", len(ts))
	}
	if ts := decode[[]threads.Thread](t, s.do(t, "GET", "/chat/threads?q=ayuno", tok, nil)); len(ts) != 0 {
		t.Errorf("search miss = %d", len(ts))
	}

	if rr := s.do(t, "DELETE", "/chat/threads/"+id, tok, nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr := s.do(t, "DELETE", "/chat/threads/"+id, tok, nil); rr.Code != http.StatusNotFound {
		t.Errorf("second delete: %d", rr.Code)
	}
	if ts := decode[[]threads.Thread](t, s.do(t, "GET", "/chat/threads", tok, nil)); len(ts) != 0 {
		t.Errorf("threads after delete = %d", len(ts))
	}
}

func TestSendValidation(t *testing.T) {
	s := newTestServer(t, 30)
	tok := s.login(t, "amina")
	for _, body := range []string{`{"content":"   "}`, `{"content":`, `{}`} {
		req := httptest.NewRequest("POST", "/chat/", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: status %d", body, rr.Code)
		}
	}
	if n := s.responder.calls.Load(); n != 0 {
		t.Errorf("responder called %d times", n)
	}
}

func TestDailyLimitAndPremium(t *testing.T) {
	s := newTestServer(t, 2)
	tok := s.login(t, "yusuf")

	for i := 0; i < 2; i++ {
		if rr := s.do(t, "POST", "/chat/", tok, map[string]string{"content": "pregunta"}); rr.Code != http.StatusOK {
			t.Fatalf("send %d: %d", i, rr.Code)
		}
	}
	rr := s.do(t, "POST", "/chat/", tok, map[string]string{"content": "una más"})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit: %d", rr.Code)
	}
	if got := decode[map[string]string](t, rr)["error"]; got != "limit_reached" {
		t.Errorf("error = %q", got)
	}
	if n := s.responder.calls.Load(); n != 2 {
		t.Errorf("responder calls = %d", n)
	}

	rr = s.do(t, "PUT", "/users/me/premium", tok, map[string]bool{"is_premium": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("premium: %d %s", rr.Code, rr.Body.String())
	}
	rr = s.do(t, "POST", "/chat/", tok, map[string]string{"content": "una más"})
	if rr.Code != http.StatusOK {
		t.Fatalf("premium send: %d", rr.Code)
	}
	if res := decode[chat.SendResult](t, rr); !strings.Contains(res.AssistantMessage.Content, "detallada") {
		t.Errorf("premium answer = %q", res.AssistantMessage.Content)
	}
}

func TestGuestSession(t *testing.T) {
	s := newTestServer(t, 30)
	rr := s.do(t, "POST", "/auth/guest", "", nil)
	guest := decode[map[string]string](t, rr)
	if !chat.IsGuest(guest["user_id"]) {
		t.Fatalf("guest id = %q", guest["user_id"])
	}
	tok := guest["token"]

	if rr := s.do(t, "POST", "/chat/", tok, map[string]string{"content": "salam"}); rr.Code != http.StatusOK {
		t.Fatalf("guest send: %d", rr.Code)
	}
	if ts := decode[[]threads.Thread](t, s.do(t, "GET", "/chat/threads", tok, nil)); len(ts) != 1 {
		t.Errorf("guest threads = %d", len(ts))
	}
	if rr := s.do(t, "PUT", "/users/me/premium", tok, map[string]bool{"is_premium": true}); rr.Code != http.StatusForbidden {
		t.Errorf("guest premium: %d", rr.Code)
	}
	if rr := s.do(t, "POST", "/chat/export", tok, nil); rr.Code != http.StatusForbidden {
		t.Errorf("guest export: %d", rr.Code)
	}
	me := decode[map[string]any](t, s.do(t, "GET", "/users/me", tok, nil))
	if me["guest"] != true {
		t.Errorf("me = %v", me)
	}
}

func TestExportWithoutStore(t *testing.T) {
	s := newTestServer(t, 30)
	tok := s.login(t, "amina")
	if rr := s.do(t, "POST", "/chat/export", tok, nil); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("export: %d", rr.Code)
	}
}

func TestMemories(t *testing.T) {
	s := newTestServer(t, 30)
	tok := s.login(t, "amina")

	rr := s.do(t, "POST", "/memories/", tok, map[string]string{"content": "Vive en Sevilla"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	mem := decode[chat.Memory](t, rr)
	if list := decode[[]chat.Memory](t, s.do(t, "GET", "/memories/", tok, nil)); len(list) != 1 {
		t.Errorf("list = %v", list)
	}
	if rr := s.do(t, "DELETE", "/memories/"+mem.ID, tok, nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rr.Code)
	}
	if rr := s.do(t, "DELETE", "/memories/"+mem.ID, tok, nil); rr.Code != http.StatusNotFound {
		t.Errorf("second delete: %d", rr.Code)
	}
}

func TestReminders(t *testing.T) {
	s := newTestServer(t, 30)
	tok := s.login(t, "amina")

	if rr := s.do(t, "POST", "/reminders/", tok, map[string]string{"title": "Pagar Zakat"}); rr.Code != http.StatusBadRequest {
		t.Errorf("missing remind_at: %d", rr.Code)
	}
	rr := s.do(t, "POST", "/reminders/", tok, map[string]any{
		"title":     "Pagar Zakat",
		"remind_at": time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	id := decode[map[string]any](t, rr)["id"].(string)

	if rr := s.do(t, "PUT", "/reminders/"+id+"/done", tok, nil); rr.Code != http.StatusOK {
		t.Errorf("done: %d %s", rr.Code, rr.Body.String())
	}
	if list := decode[[]map[string]any](t, s.do(t, "GET", "/reminders/", tok, nil)); len(list) != 0 {
		t.Errorf("open reminders = %d", len(list))
	}
	if list := decode[[]map[string]any](t, s.do(t, "GET", "/reminders/?all=true", tok, nil)); len(list) != 1 {
		t.Errorf("all reminders = %d", len(list))
	}
	if rr := s.do(t, "DELETE", "/reminders/not-a-uuid", tok, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: %d", rr.Code)
	}
	if rr := s.do(t, "DELETE", "/reminders/"+id, tok, nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rr.Code)
	}
}

func TestHadithRoutes(t *testing.T) {
	s := newTestServer(t, 30)
	if cols := decode[[]hadith.Collection](t, s.do(t, "GET", "/hadiths/", "", nil)); len(cols) != 3 {
		t.Errorf("collections = %d", len(cols))
	}
	col := decode[hadith.Collection](t, s.do(t, "GET", "/hadiths/muslim", "", nil))
	if col.Name != "Sahih Muslim" || len(col.Hadiths) != 1 {
		t.Errorf("muslim = %+v", col)
	}
	if rr := s.do(t, "GET", "/hadiths/tirmidhi", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown collection: %d", rr.Code)
	}
	hits := decode[[]hadith.SearchResult](t, s.do(t, "GET", "/hadiths/search?q=Zakat", "", nil))
	if len(hits) != 1 || hits[0].CollectionID != "bukhari" {
		t.Errorf("hits = %+v", hits)
	}
	if hits := decode[[]hadith.SearchResult](t, s.do(t, "GET", "/hadiths/search", "", nil)); len(hits) != 0 {
		t.Errorf("empty query hits = %d", len(hits))
	}
}

func TestChatWebsocket(t *testing.T) {
	s := newTestServer(t, 30)
	tok := s.login(t, "amina")
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, map[string]string{"token": tok, "content": "primera"}); err != nil {
		t.Fatal(err)
	}
	var res chat.SendResult
	if err := wsjson.Read(ctx, conn, &res); err != nil {
		t.Fatal(err)
	}
	if res.AssistantMessage.Content != "Bismillah. primera" {
		t.Errorf("first answer = %+v", res)
	}

	if err := wsjson.Write(ctx, conn, map[string]string{"content": "  "}); err != nil {
		t.Fatal(err)
	}
	var errFrame map[string]string
	if err := wsjson.Read(ctx, conn, &errFrame); err != nil {
		t.Fatal(err)
	}
	if errFrame["error"] == "" {
		t.Errorf("blank message frame = %v", errFrame)
	}
}

func TestChatWebsocketRejectsBadToken(t *testing.T) {
	s := newTestServer(t, 30)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, map[string]string{"token": "nope", "content": "hola"}); err != nil {
		t.Fatal(err)
	}
	var frame map[string]string
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatal(err)
	}
	if frame["error"] != "invalid token" {
		t.Errorf("frame = %v", frame)
	}
	if err := wsjson.Read(ctx, conn, &frame); websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Errorf("close = %v", err)
	}
}

func TestOriginPatterns(t *testing.T) {
	got := OriginPatterns([]string{"http://localhost:3000", "https://app.deenly.es", "::bad"})
	if strings.Join(got, ",") != "localhost:3000,app.deenly.es" {
		t.Errorf("patterns = %v", got)
	}
	if got := OriginPatterns([]string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Errorf("wildcard = %v", got)
	}
}
