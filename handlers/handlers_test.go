package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tokenRepo "bunie/database/repository/token"
	"bunie/handlers"
	"bunie/models"
	"bunie/routes"
	"bunie/services/bridge"
	"bunie/services/notification"
	"bunie/services/push"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// testStack wires the whole core behind a gin router the way main does,
// with the in-memory token store and no Firebase.
type testStack struct {
	router  *gin.Engine
	gateway *push.HostGateway
	service *notification.DefaultNotificationService
	repo    *tokenRepo.MemoryTokenRepo
	scripts *bridge.ScriptQueue
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	repo := tokenRepo.NewMemoryTokenRepo()
	gateway := push.NewHostGateway(logger, push.NewFCMClient(nil))

	service := notification.NewDefaultNotificationService(
		logger, gateway, repo, gateway, gateway, gateway,
		models.PlatformAndroid, "1.0.0",
	)
	service.ReadinessMaxAttempts = 2
	service.ReadinessDelay = time.Millisecond
	service.InitTimeout = 100 * time.Millisecond
	service.RetryDelay = time.Millisecond

	scripts := bridge.NewScriptQueue()
	channel := bridge.NewContentChannel(logger, scripts, service, "https://bunnieandminnie.com/", time.Millisecond)
	service.SetURLOpenCallback(channel.OpenURL)

	router := gin.New()
	routes.RegisterHostRoutes(router, handlers.NewHostHandler(gateway))
	routes.RegisterNotificationRoutes(router, handlers.NewNotificationHandler(service, gateway))
	routes.RegisterBridgeRoutes(router, handlers.NewBridgeHandler(channel, scripts), "https://bunnieandminnie.com")

	return &testStack{router: router, gateway: gateway, service: service, repo: repo, scripts: scripts}
}

func (s *testStack) do(t *testing.T, method, path, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]json.RawMessage{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: invalid response body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, out
}

// reportAll primes the gateway the way a healthy shell would on startup.
func (s *testStack) reportAll(t *testing.T, token string) {
	t.Helper()
	s.do(t, http.MethodPost, "/api/host/ready", "")
	s.do(t, http.MethodPost, "/api/host/permission", `{"status":"authorized"}`)
	s.do(t, http.MethodPost, "/api/host/device", `{"deviceId":"device-1"}`)
	s.do(t, http.MethodPost, "/api/host/token", `{"token":"`+token+`"}`)
}

func TestInitializeOverHTTP(t *testing.T) {
	s := newTestStack(t)
	s.reportAll(t, "tok-123")

	code, body := s.do(t, http.MethodPost, "/api/notifications/initialize", `{"userId":"u1"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var initialized bool
	json.Unmarshal(body["initialized"], &initialized)
	if !initialized {
		t.Fatal("initialize should succeed with a fully reported host")
	}

	rec, err := s.repo.GetByDeviceID(t.Context(), "device-1")
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if rec.FCMToken != "tok-123" || rec.UserID != "u1" || !rec.IsActive {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestInitializeWithoutPermissionReport(t *testing.T) {
	s := newTestStack(t)
	s.do(t, http.MethodPost, "/api/host/ready", "")
	s.do(t, http.MethodPost, "/api/host/device", `{"deviceId":"device-1"}`)

	code, body := s.do(t, http.MethodPost, "/api/notifications/initialize", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var initialized bool
	json.Unmarshal(body["initialized"], &initialized)
	if initialized {
		t.Fatal("initialize must report false without a permission grant")
	}
}

func TestTokenRefreshOverHTTP(t *testing.T) {
	s := newTestStack(t)
	s.reportAll(t, "tok-123")
	s.do(t, http.MethodPost, "/api/notifications/initialize", "")

	code, _ := s.do(t, http.MethodPost, "/api/host/token", `{"token":"tok-456"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	if got := s.service.CachedToken(); got != "tok-456" {
		t.Fatalf("cached token = %q, want tok-456", got)
	}
	rec, _ := s.repo.GetByDeviceID(t.Context(), "device-1")
	if rec.FCMToken != "tok-456" {
		t.Fatalf("store not updated on refresh: %+v", rec)
	}
}

func TestForegroundPromptFlowOverHTTP(t *testing.T) {
	s := newTestStack(t)
	s.reportAll(t, "tok-123")
	s.do(t, http.MethodPost, "/api/notifications/initialize", "")

	code, _ := s.do(t, http.MethodPost, "/api/host/message",
		`{"state":"foreground","message":{"notification":{"title":"Sale","body":"20% off"},"data":{"url":"https://bunnieandminnie.com/collections/sale"}}}`)
	if code != http.StatusOK {
		t.Fatalf("deliver status = %d", code)
	}

	_, body := s.do(t, http.MethodGet, "/api/notifications/prompts", "")
	var prompts []push.PromptView
	json.Unmarshal(body["prompts"], &prompts)
	if len(prompts) != 1 || prompts[0].Title != "Sale" {
		t.Fatalf("prompts = %+v", prompts)
	}

	code, _ = s.do(t, http.MethodPost, "/api/notifications/prompts/"+prompts[0].ID+"/ack", "")
	if code != http.StatusOK {
		t.Fatalf("ack status = %d", code)
	}

	// Acknowledgement releases the URL dispatch into the content channel.
	_, body = s.do(t, http.MethodGet, "/api/bridge/state", "")
	var url string
	json.Unmarshal(body["url"], &url)
	if url != "https://bunnieandminnie.com/collections/sale" {
		t.Fatalf("bridge url = %q", url)
	}

	code, _ = s.do(t, http.MethodPost, "/api/notifications/prompts/"+prompts[0].ID+"/ack", "")
	if code != http.StatusNotFound {
		t.Fatalf("second ack status = %d, want 404", code)
	}
}

func TestHostMessageRejectsUnknownState(t *testing.T) {
	s := newTestStack(t)
	code, _ := s.do(t, http.MethodPost, "/api/host/message", `{"state":"dozing","message":{}}`)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
}

func TestBridgeLoginLogoutOverHTTP(t *testing.T) {
	s := newTestStack(t)
	s.reportAll(t, "tok-123")
	s.do(t, http.MethodPost, "/api/notifications/initialize", "")

	code, _ := s.do(t, http.MethodPost, "/api/bridge/message",
		`{"payload":"{\"type\":\"userLoggedIn\",\"userId\":\"u7\",\"email\":\"u7@example.com\"}"}`)
	if code != http.StatusOK {
		t.Fatalf("login status = %d", code)
	}
	rec, _ := s.repo.GetByDeviceID(t.Context(), "device-1")
	if rec.UserID != "u7" || rec.Email != "u7@example.com" {
		t.Fatalf("login not applied: %+v", rec)
	}

	code, _ = s.do(t, http.MethodPost, "/api/bridge/message",
		`{"payload":"{\"type\":\"userLoggedOut\"}"}`)
	if code != http.StatusOK {
		t.Fatalf("logout status = %d", code)
	}
	rec, _ = s.repo.GetByDeviceID(t.Context(), "device-1")
	if rec.IsActive {
		t.Fatal("logout must deactivate the record")
	}
	if s.service.CachedToken() != "" {
		t.Fatal("logout must clear the cached token")
	}
}

func TestBridgeTokenRequestOverHTTP(t *testing.T) {
	s := newTestStack(t)
	s.reportAll(t, "tok-123")
	s.do(t, http.MethodPost, "/api/notifications/initialize", "")
	s.scripts.Drain() // discard the page-load injection, if any

	code, _ := s.do(t, http.MethodPost, "/api/bridge/message",
		`{"payload":"{\"type\":\"requestFCMToken\"}"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	_, body := s.do(t, http.MethodGet, "/api/bridge/state", "")
	var scripts []string
	json.Unmarshal(body["scripts"], &scripts)
	if len(scripts) != 1 || !strings.Contains(scripts[0], "tok-123") {
		t.Fatalf("expected one token response script, got %v", scripts)
	}
}

func TestLoadCycleQueuesInjectionScript(t *testing.T) {
	s := newTestStack(t)
	s.reportAll(t, "tok-123")
	s.do(t, http.MethodPost, "/api/notifications/initialize", "")

	s.do(t, http.MethodPost, "/api/bridge/load-start", "")
	code, _ := s.do(t, http.MethodPost, "/api/bridge/load-end", "")
	if code != http.StatusOK {
		t.Fatalf("load-end status = %d", code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, body := s.do(t, http.MethodGet, "/api/bridge/state", "")
		var scripts []string
		json.Unmarshal(body["scripts"], &scripts)
		if len(scripts) > 0 {
			if !strings.Contains(scripts[0], "ReactNativeFCMToken") {
				t.Fatalf("unexpected script: %q", scripts[0])
			}
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("token injection script never queued")
}

func TestTopicSubscribeDegradedWithoutFCM(t *testing.T) {
	s := newTestStack(t)
	s.reportAll(t, "tok-123")
	s.do(t, http.MethodPost, "/api/notifications/initialize", "")

	code, body := s.do(t, http.MethodPost, "/api/notifications/topics/offers/subscribe", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var subscribed bool
	json.Unmarshal(body["subscribed"], &subscribed)
	if subscribed {
		t.Fatal("subscription must report false without an FCM client")
	}
}
