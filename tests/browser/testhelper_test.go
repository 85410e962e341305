package browser_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/adapters/connectivity"
	web "coachdesk/internal/adapters/http"
	"coachdesk/internal/adapters/storage"
	queueStore "coachdesk/internal/adapters/storage/queue"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/views"
	"coachdesk/internal/domain/access"
)

// fakeCRM is a scriptable stand-in for the remote CRM server.
type fakeCRM struct {
	server *httptest.Server

	mu       sync.Mutex
	down     bool
	conflict string // when set, POST /api/sessions answers 409 with this message
	sessions []map[string]any
	updates  []string // ids received on PUT /api/sessions/{id}
	nextID   int64
}

func newFakeCRM(t *testing.T) *fakeCRM {
	t.Helper()
	f := &fakeCRM{nextID: 100}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", f.guard(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("GET /api/sessions", f.guard(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := f.sessions
		if out == nil {
			out = []map[string]any{}
		}
		json.NewEncoder(w).Encode(out)
	}))
	mux.HandleFunc("POST /api/sessions", f.guard(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		if f.conflict != "" {
			msg := f.conflict
			f.mu.Unlock()
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}
		body["id"] = f.nextID
		f.nextID++
		f.sessions = append(f.sessions, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	}))
	mux.HandleFunc("PUT /api/sessions/{id}", f.guard(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.updates = append(f.updates, r.PathValue("id"))
		f.mu.Unlock()
		json.NewEncoder(w).Encode(body)
	}))
	mux.HandleFunc("GET /api/trainers", f.guard(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "name": "Jess"}, {"id": 2, "name": "Mike"}})
	}))
	mux.HandleFunc("GET /api/clients", f.guard(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"id": 10, "name": "Sam"}, {"id": 11, "name": "Ana"}})
	}))

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// guard drops the connection while the fake is "down", so the dashboard's
// HTTP client sees a transport failure rather than an HTTP error.
func (f *fakeCRM) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		down := f.down
		f.mu.Unlock()
		if down {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		next(w, r)
	}
}

// setDown toggles CRM reachability.
func (f *fakeCRM) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

// addSession seeds a session the CRM will return from GET /api/sessions.
func (f *fakeCRM) addSession(date, sessionType, status, notes string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, map[string]any{
		"id": f.nextID, "trainer_id": 1, "client_id": 10,
		"session_date": date, "duration": 60,
		"session_type": sessionType, "status": status, "notes": notes,
	})
	f.nextID++
}

// testApp holds the running dashboard server and Playwright handles.
type testApp struct {
	BaseURL string
	CRM     *fakeCRM
	Monitor *connectivity.Monitor
	Drainer *orchestrators.QueueDrainer
	Queue   queueStore.Store
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newTestApp wires a full dashboard over a fake CRM and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	crmFake := newFakeCRM(t)

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to initialize test DB: %v", err)
	}

	crm := api.New(crmFake.server.URL, "test-token")
	store := queueStore.NewSQLiteStore(db)
	drainer := orchestrators.NewQueueDrainer(store, orchestrators.CRMExecutors(crm), nil)
	monitor := connectivity.NewMonitor(crm, time.Hour)

	web.RateLimitPerSecond = 1000
	projectRoot := findProjectRoot(t)
	mux := web.NewMux(filepath.Join(projectRoot, "static"), &web.Deps{
		CRM:       crm,
		Stores:    &web.Stores{QueueStore: store},
		Monitor:   monitor,
		Drainer:   drainer,
		View:      views.NewCalendarView(time.Now(), time.Local),
		Lock:      &access.Lock{},
		Location:  time.Local,
		ActorRole: "trainer",
	}, make([]byte, 32), nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()
	baseURL := fmt.Sprintf("http://%s", listener.Addr().String())

	// Wait for server to be ready
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/api/status")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		CRM:     crmFake,
		Monitor: monitor,
		Drainer: drainer,
		Queue:   store,
		PW:      pw,
		Browser: browser,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// open loads the dashboard and waits for the calendar grid to render.
func (a *testApp) open(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/"); err != nil {
		t.Fatalf("failed to open dashboard: %v", err)
	}
	if err := page.Locator("#calendar-grid .cell").First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("calendar grid did not render: %v", err)
	}
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
