package web

import (
	"net/http"
	"time"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/adapters/connectivity"
	"coachdesk/internal/adapters/http/middleware"
	queueStore "coachdesk/internal/adapters/storage/queue"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/views"
	"coachdesk/internal/domain/access"
)

// Stores holds all storage dependencies.
type Stores struct {
	QueueStore queueStore.Store
}

// Deps holds everything the handlers need: the CRM client, local storage,
// the connectivity monitor, the queue drainer and the shared calendar view.
type Deps struct {
	CRM       *api.Client
	Stores    *Stores
	Monitor   *connectivity.Monitor
	Drainer   *orchestrators.QueueDrainer
	View      *views.CalendarView
	Lock      *access.Lock
	Location  *time.Location
	ActorRole string
}

// Global deps instance (set by NewMux)
var deps *Deps

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// NewMux wires HTTP handlers for the dashboard.
// PRE: d is fully populated; csrfKey is 32 bytes
// POST: Returns the handler with the full middleware chain applied
func NewMux(staticDir string, d *Deps, csrfKey []byte, trustedOrigins []string) http.Handler {
	deps = d
	sessions = middleware.NewSessionStore()

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Unlock -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, trustedOrigins),
		middleware.Unlock(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(),
	)
}
