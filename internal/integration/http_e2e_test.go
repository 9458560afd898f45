//go:build integration || !unit

package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "dormdesk/internal/adapters/http_server"
	redisad "dormdesk/internal/adapters/redis"
	"dormdesk/internal/app"
	mysqlrepo "dormdesk/internal/storage/mysql"
)

// ---------- helpers ----------
func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return res
}

func decode(t *testing.T, res *http.Response, dst any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// ---------- the test ----------
func TestHTTP_EndToEnd_BookingFlow(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=dormdesk",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "dormdesk")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	// Seed one private room with an export token
	tok := "0123456789abcdef0123456789abcdef"
	if _, err := db.Exec(`
INSERT INTO room_types
  (id, location, category, capacity_units, base_price, max_guests_per_unit, housekeeping, export_token)
VALUES ('priv-1', 'downtown', 'private', 1, 80.00, 2, 'clean', ?)`, tok); err != nil {
		t.Fatalf("seed room type: %v", err)
	}

	// Real wiring: mysql repo, miniredis-backed cache, full router
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	repo := mysqlrepo.New(db)
	cache := redisad.New(mr.Addr(), "", 0)

	h := &server.Handlers{
		Catalog:  app.NewCatalog(repo, cache, time.Minute),
		Avail:    app.NewAvailability(repo, repo),
		Grid:     app.NewGrid(repo, repo),
		Lanes:    app.NewLanes(repo),
		Bookings: app.NewBookings(repo, repo),
		Export:   app.NewExport(repo, repo, cache, time.Minute),
	}
	srv := server.New()
	srv.MountHandlers(h)
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// Create a booking
	res := postJSON(t, ts.URL+"/v1/bookings", map[string]any{
		"room_type_id": "priv-1",
		"location":     "downtown",
		"guest_name":   "Ana",
		"email":        "ana@example.com",
		"guests":       2,
		"check_in":     "2030-01-05T00:00:00Z",
		"check_out":    "2030-01-08T00:00:00Z",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", res.StatusCode)
	}
	var created []struct {
		ID         string
		GuestName  string
		Status     string
		TotalPrice float64
	}
	decode(t, res, &created)
	if len(created) != 1 || created[0].GuestName != "Ana" || created[0].Status != "pending" {
		t.Fatalf("unexpected create body: %+v", created)
	}
	if created[0].TotalPrice != 240 {
		t.Fatalf("3 nights at 80: got %v", created[0].TotalPrice)
	}

	// The room is now unavailable for an overlapping interval
	availRes, err := http.Get(ts.URL + "/v1/rooms/priv-1/availability?check_in=2030-01-06&check_out=2030-01-09")
	if err != nil {
		t.Fatalf("GET availability: %v", err)
	}
	var avail struct {
		Available bool `json:"available"`
	}
	decode(t, availRes, &avail)
	if avail.Available {
		t.Fatal("expected the booked interval to read unavailable")
	}

	// A second overlapping create is rejected with 409, problem+json
	res = postJSON(t, ts.URL+"/v1/bookings", map[string]any{
		"room_type_id": "priv-1",
		"location":     "downtown",
		"guest_name":   "Bob",
		"guests":       1,
		"check_in":     "2030-01-07T00:00:00Z",
		"check_out":    "2030-01-09T00:00:00Z",
	})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("overlapping create: status %d", res.StatusCode)
	}
	var prob struct {
		Title  string `json:"title"`
		Status int    `json:"status"`
	}
	decode(t, res, &prob)
	if prob.Status != http.StatusConflict {
		t.Fatalf("problem body: %+v", prob)
	}

	// Grid shows the occupant on a night of the stay
	gridRes, err := http.Get(ts.URL + "/v1/rooms/priv-1/grid?date=2030-01-06")
	if err != nil {
		t.Fatalf("GET grid: %v", err)
	}
	var units []struct {
		ID      int
		Status  string
		Booking *struct {
			ID string
		}
	}
	decode(t, gridRes, &units)
	if len(units) != 1 || units[0].Booking == nil || units[0].Booking.ID != created[0].ID {
		t.Fatalf("grid should show the booking: %+v", units)
	}

	// Calendar export by token carries the booking
	calRes, err := http.Get(ts.URL + "/ical/" + tok)
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	calBody := new(bytes.Buffer)
	if _, err := calBody.ReadFrom(calRes.Body); err != nil {
		t.Fatalf("read calendar: %v", err)
	}
	calRes.Body.Close()
	if calRes.StatusCode != http.StatusOK || !strings.Contains(calBody.String(), created[0].ID+"@dormdesk") {
		t.Fatalf("calendar export missing the booking (status %d):\n%s", calRes.StatusCode, calBody.String())
	}

	// Cancel frees the interval again
	res = postJSON(t, ts.URL+"/v1/bookings/"+created[0].ID+"/cancel", map[string]any{
		"reason": "guest no-show",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status %d", res.StatusCode)
	}
	res.Body.Close()

	availRes, err = http.Get(ts.URL + "/v1/rooms/priv-1/availability?check_in=2030-01-06&check_out=2030-01-09")
	if err != nil {
		t.Fatalf("GET availability: %v", err)
	}
	decode(t, availRes, &avail)
	if !avail.Available {
		t.Fatal("cancellation should free the room")
	}
}
