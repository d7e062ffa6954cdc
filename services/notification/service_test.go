package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tokenRepo "bunie/database/repository/token"
	"bunie/models"

	"go.uber.org/zap"
)

// --- fakes ---

type fakeProvider struct {
	mu sync.Mutex

	readyAfter int // Ready calls before reporting true; -1 = never
	readyCalls int
	readyErrs  []error

	permStatus PermissionStatus
	permErrs   []error
	permCalls  int

	token        string
	tokenErrs    []error
	tokenCalls   int
	registerErrs []error
	registered   int

	deleted   bool
	deleteErr error

	refreshFns []func(string)
	messageFns []func(models.NotificationPayload)
	openedFns  []func(models.NotificationPayload)
	initial    *models.NotificationPayload

	subscribed   []string
	unsubscribed []string
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeProvider) Ready(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++
	if err := popErr(&f.readyErrs); err != nil {
		return false, err
	}
	if f.readyAfter < 0 || f.readyCalls <= f.readyAfter {
		return false, ErrNotInitialized
	}
	return true, nil
}

func (f *fakeProvider) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permCalls++
	if err := popErr(&f.permErrs); err != nil {
		return PermissionDenied, err
	}
	return f.permStatus, nil
}

func (f *fakeProvider) RegisterDevice(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered++
	return popErr(&f.registerErrs)
}

func (f *fakeProvider) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if err := popErr(&f.tokenErrs); err != nil {
		return "", err
	}
	return f.token, nil
}

func (f *fakeProvider) DeleteToken(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = true
	return f.deleteErr
}

func (f *fakeProvider) OnTokenRefresh(fn func(string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshFns = append(f.refreshFns, fn)
	return func() {}
}

func (f *fakeProvider) OnMessage(fn func(models.NotificationPayload)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageFns = append(f.messageFns, fn)
	return func() {}
}

func (f *fakeProvider) InitialNotification(ctx context.Context) (*models.NotificationPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.initial
	f.initial = nil
	return msg, nil
}

func (f *fakeProvider) OnNotificationOpened(fn func(models.NotificationPayload)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openedFns = append(f.openedFns, fn)
	return func() {}
}

func (f *fakeProvider) SubscribeToTopic(ctx context.Context, token, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, topic)
	return nil
}

func (f *fakeProvider) UnsubscribeFromTopic(ctx context.Context, token, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

func (f *fakeProvider) fireRefresh(token string) {
	f.mu.Lock()
	fns := append([]func(string){}, f.refreshFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(token)
	}
}

type fakePermissions struct {
	granted bool
	err     error
}

func (f *fakePermissions) RequestPostNotifications(ctx context.Context) (bool, error) {
	return f.granted, f.err
}

type fakeDevice struct {
	id  string
	err error
}

func (f *fakeDevice) UniqueID(ctx context.Context) (string, error) {
	return f.id, f.err
}

// autoPrompt acknowledges every foreground prompt immediately.
type autoPrompt struct{}

func (autoPrompt) Show(title, body string, onConfirm func()) { onConfirm() }

// recordPrompt holds prompts until the test confirms them.
type recordPrompt struct {
	title   string
	body    string
	confirm func()
}

func (p *recordPrompt) Show(title, body string, onConfirm func()) {
	p.title, p.body, p.confirm = title, body, onConfirm
}

func newTestService(p *fakeProvider, repo tokenRepo.Repository) *DefaultNotificationService {
	s := NewDefaultNotificationService(
		zap.NewNop(), p, repo,
		&fakePermissions{granted: true},
		&fakeDevice{id: "device-1"},
		autoPrompt{},
		models.PlatformAndroid, "0.0.1",
	)
	s.ReadinessMaxAttempts = 3
	s.ReadinessDelay = time.Millisecond
	s.InitTimeout = 100 * time.Millisecond
	s.RetryDelay = time.Millisecond
	return s
}

// --- tests ---

func TestInitializeEndToEnd(t *testing.T) {
	repo := tokenRepo.NewMemoryTokenRepo()
	p := &fakeProvider{token: "tok-123"}
	s := newTestService(p, repo)
	ctx := context.Background()

	if !s.Initialize(ctx, models.UserInfo{}) {
		t.Fatal("initialize should succeed with permission granted and a token available")
	}

	rec, err := repo.GetByDeviceID(ctx, "device-1")
	if err != nil {
		t.Fatalf("expected a stored record: %v", err)
	}
	if rec.FCMToken != "tok-123" || !rec.IsActive {
		t.Fatalf("unexpected record after initialize: %+v", rec)
	}
	if rec.UserID != "" {
		t.Fatalf("userId must be absent before login, got %q", rec.UserID)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected exactly one record, got %d", repo.Len())
	}

	if !s.UpdateUserInfo(ctx, models.UserInfo{UserID: "u1"}) {
		t.Fatal("update user info should succeed with a cached token")
	}
	rec, _ = repo.GetByDeviceID(ctx, "device-1")
	if rec.UserID != "u1" || rec.FCMToken != "tok-123" {
		t.Fatalf("partial update must not touch the token: %+v", rec)
	}

	s.DeleteToken(ctx)
	rec, err = repo.GetByDeviceID(ctx, "device-1")
	if err != nil {
		t.Fatal("deactivation must not remove the record")
	}
	if rec.IsActive {
		t.Fatal("record must be inactive after delete")
	}
	if rec.FCMToken != "tok-123" {
		t.Fatalf("deactivation must leave the token untouched, got %q", rec.FCMToken)
	}
	if s.CachedToken() != "" {
		t.Fatal("cached token must be cleared after delete")
	}
	if !p.deleted {
		t.Fatal("provider-side token must be deleted")
	}
}

func TestInitializePermissionDenied(t *testing.T) {
	repo := tokenRepo.NewMemoryTokenRepo()
	p := &fakeProvider{token: "tok-123"}
	s := newTestService(p, repo)
	s.Permissions = &fakePermissions{granted: false}

	if s.Initialize(context.Background(), models.UserInfo{}) {
		t.Fatal("initialize must fail when permission is denied")
	}
	if repo.Len() != 0 {
		t.Fatal("nothing should be persisted without permission")
	}
}

func TestInitializeTokenFailureReturnsFalse(t *testing.T) {
	repo := tokenRepo.NewMemoryTokenRepo()
	p := &fakeProvider{tokenErrs: []error{errors.New("backend exploded")}}
	s := newTestService(p, repo)

	if s.Initialize(context.Background(), models.UserInfo{}) {
		t.Fatal("initialize must report false when the token fetch fails")
	}
	if repo.Len() != 0 {
		t.Fatal("no record should be written without a token")
	}
}

func TestInitializeResolvesInitialNotification(t *testing.T) {
	repo := tokenRepo.NewMemoryTokenRepo()
	p := &fakeProvider{
		token: "tok-123",
		initial: &models.NotificationPayload{
			Data: map[string]string{"url": "https://x"},
		},
	}
	s := newTestService(p, repo)

	var opened string
	s.SetURLOpenCallback(func(url string, data map[string]string) { opened = url })

	if !s.Initialize(context.Background(), models.UserInfo{}) {
		t.Fatal("initialize should succeed")
	}
	if opened != "https://x" {
		t.Fatalf("pending terminated-state message must dispatch during initialize, got %q", opened)
	}
}

func TestGetTokenReturnsCachedValue(t *testing.T) {
	p := &fakeProvider{token: "tok-1"}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())
	ctx := context.Background()

	if got := s.GetToken(ctx); got != "tok-1" {
		t.Fatalf("GetToken = %q, want tok-1", got)
	}
	p.token = "tok-2"
	if got := s.GetToken(ctx); got != "tok-1" {
		t.Fatalf("cached token must win, got %q", got)
	}
	if p.tokenCalls != 1 {
		t.Fatalf("provider fetched %d times, want 1", p.tokenCalls)
	}
}

func TestGetTokenRegistersAndRetriesOnce(t *testing.T) {
	p := &fakeProvider{token: "tok-1", tokenErrs: []error{ErrNotRegistered}}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())
	s.Platform = models.PlatformIOS

	if got := s.GetToken(context.Background()); got != "tok-1" {
		t.Fatalf("GetToken = %q, want tok-1 after registration retry", got)
	}
	if p.registered == 0 {
		t.Fatal("registration must run before the retry")
	}
}

func TestGetTokenRetriesOnceWhenNotInitialized(t *testing.T) {
	p := &fakeProvider{token: "tok-1", tokenErrs: []error{ErrNotInitialized}}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())

	if got := s.GetToken(context.Background()); got != "tok-1" {
		t.Fatalf("GetToken = %q, want tok-1 after readiness retry", got)
	}
	if p.tokenCalls != 2 {
		t.Fatalf("provider fetched %d times, want 2", p.tokenCalls)
	}
}

func TestGetTokenGivesUpOnUnknownError(t *testing.T) {
	p := &fakeProvider{tokenErrs: []error{errors.New("permanent")}}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())

	if got := s.GetToken(context.Background()); got != "" {
		t.Fatalf("GetToken = %q, want empty on unknown error", got)
	}
	if p.tokenCalls != 1 {
		t.Fatalf("unknown errors must not be retried, fetched %d times", p.tokenCalls)
	}
}

func TestRequestPermissionIOSRetriesWhenNotInitialized(t *testing.T) {
	p := &fakeProvider{
		token:      "tok-1",
		permStatus: PermissionProvisional,
		permErrs:   []error{ErrNotInitialized},
	}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())
	s.Platform = models.PlatformIOS

	if !s.requestPermission(context.Background()) {
		t.Fatal("provisional permission after one retry should count as granted")
	}
	if p.permCalls != 2 {
		t.Fatalf("permission requested %d times, want 2", p.permCalls)
	}
}

func TestRequestPermissionIOSFailsAfterSecondError(t *testing.T) {
	p := &fakeProvider{
		permStatus: PermissionAuthorized,
		permErrs:   []error{ErrNotInitialized, ErrNotInitialized},
	}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())
	s.Platform = models.PlatformIOS

	if s.requestPermission(context.Background()) {
		t.Fatal("a failing retry must return false, not raise")
	}
	if p.permCalls != 2 {
		t.Fatalf("exactly one retry allowed, got %d calls", p.permCalls)
	}
}

func TestRegisterDeviceTreatsAlreadyRegisteredAsSuccess(t *testing.T) {
	p := &fakeProvider{registerErrs: []error{ErrAlreadyRegistered}}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())
	s.Platform = models.PlatformIOS

	if !s.registerDeviceIfNeeded(context.Background()) {
		t.Fatal("already-registered must count as success")
	}
}

func TestRefreshPersistsBeforeFanout(t *testing.T) {
	repo := tokenRepo.NewMemoryTokenRepo()
	p := &fakeProvider{token: "tok-123"}
	s := newTestService(p, repo)
	ctx := context.Background()

	if !s.Initialize(ctx, models.UserInfo{}) {
		t.Fatal("initialize should succeed")
	}

	var observed string
	s.AddTokenRefreshCallback(func(newToken string) {
		// The persistence write must already be durable here.
		rec, err := repo.GetByDeviceID(ctx, "device-1")
		if err != nil {
			t.Errorf("record missing during refresh fan-out: %v", err)
			return
		}
		if rec.FCMToken != newToken {
			t.Errorf("callback observed token %q but store has %q", newToken, rec.FCMToken)
		}
		observed = newToken
	})

	p.fireRefresh("tok-456")

	if observed != "tok-456" {
		t.Fatalf("refresh callback saw %q, want tok-456", observed)
	}
	if s.CachedToken() != "tok-456" {
		t.Fatalf("cache = %q, want tok-456", s.CachedToken())
	}
}

func TestRefreshCallbackUnsubscribeByIdentity(t *testing.T) {
	repo := tokenRepo.NewMemoryTokenRepo()
	p := &fakeProvider{token: "tok-123"}
	s := newTestService(p, repo)

	if !s.Initialize(context.Background(), models.UserInfo{}) {
		t.Fatal("initialize should succeed")
	}

	var order []string
	unsubA := s.AddTokenRefreshCallback(func(string) { order = append(order, "a") })
	s.AddTokenRefreshCallback(func(string) { order = append(order, "b") })
	s.AddTokenRefreshCallback(func(string) { order = append(order, "c") })

	unsubA()
	unsubA() // repeat unsubscribe is a no-op
	p.fireRefresh("tok-456")

	if len(order) != 2 || order[0] != "b" || order[1] != "c" {
		t.Fatalf("fan-out order = %v, want [b c]", order)
	}
}

func TestUpdateUserInfoRequiresCachedToken(t *testing.T) {
	repo := tokenRepo.NewMemoryTokenRepo()
	s := newTestService(&fakeProvider{}, repo)

	if s.UpdateUserInfo(context.Background(), models.UserInfo{UserID: "u1"}) {
		t.Fatal("update must fail fast without a cached token")
	}
}

func TestDeviceIDFallsBackToPlatformTimestamp(t *testing.T) {
	s := newTestService(&fakeProvider{token: "tok-1"}, tokenRepo.NewMemoryTokenRepo())
	s.Device = &fakeDevice{err: errors.New("no hardware id")}

	s.initializeDeviceID(context.Background())

	id := s.currentDeviceID()
	if id == "" || id == "device-1" {
		t.Fatalf("expected a fallback device id, got %q", id)
	}
	if id[:len("android_")] != "android_" {
		t.Fatalf("fallback id must be platform-prefixed, got %q", id)
	}
}

func TestTopicSubscriptionNeedsToken(t *testing.T) {
	p := &fakeProvider{token: "tok-1"}
	s := newTestService(p, tokenRepo.NewMemoryTokenRepo())
	ctx := context.Background()

	if s.SubscribeToTopic(ctx, "offers") {
		t.Fatal("subscribe must fail without a cached token")
	}

	s.GetToken(ctx)
	if !s.SubscribeToTopic(ctx, "offers") {
		t.Fatal("subscribe should succeed with a token")
	}
	if !s.UnsubscribeFromTopic(ctx, "offers") {
		t.Fatal("unsubscribe should succeed with a token")
	}
	if len(p.subscribed) != 1 || p.subscribed[0] != "offers" {
		t.Fatalf("subscribed topics = %v", p.subscribed)
	}
}
