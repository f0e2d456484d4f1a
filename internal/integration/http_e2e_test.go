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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	httpserver "hotel_booking/internal/adapters/http_server"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Skipf("%s not set; export it (e.g. MIGRATIONS_DIR=$(pwd)/migrations)", k)
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

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

// ---------- the test ----------

func TestHTTP_EndToEnd_BookConfirmCancel(t *testing.T) {
	mustEnv(t, "MIGRATIONS_DIR")

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
			"MYSQL_DATABASE=hotel",
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
		"root", hostPort, "hotel")

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

	// Real wiring: MySQL store, Redis cache (in-process), chi server.
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	repo := mysqlrepo.New(db)
	b := app.NewBookingService(repo, domain.NewPaymentService(domain.DefaultRates()), cache)
	q := app.NewQueryService(repo.Reservations(), repo.Wallets(), cache, time.Minute)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{B: b, Q: q, Ping: db.PingContext})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	checkIn := time.Now().UTC().AddDate(0, 1, 0).Format(time.DateOnly)
	checkOut := time.Now().UTC().AddDate(0, 1, 4).Format(time.DateOnly)

	if res := post(t, ts.URL+"/v1/wallets", map[string]any{"customer_id": "e2e"}); res.StatusCode != http.StatusCreated {
		t.Fatalf("create wallet: %d", res.StatusCode)
	}
	if res := post(t, ts.URL+"/v1/wallets/e2e/funds", map[string]any{"amount": "200", "currency": "EUR"}); res.StatusCode != http.StatusOK {
		t.Fatalf("add funds: %d", res.StatusCode)
	}

	res := post(t, ts.URL+"/v1/reservations", map[string]any{
		"customer_id": "e2e", "room_ids": []string{"R1", "R2"},
		"check_in_date": checkIn, "check_out_date": checkOut, "total_price": "100",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create reservation: %d", res.StatusCode)
	}
	var rv domain.ReservationView
	if err := json.NewDecoder(res.Body).Decode(&rv); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if res := post(t, ts.URL+"/v1/reservations/"+rv.ID+"/confirm", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("confirm: %d", res.StatusCode)
	}
	if res := post(t, ts.URL+"/v1/reservations/"+rv.ID+"/cancel", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("cancel: %d", res.StatusCode)
	}

	get, err := http.Get(ts.URL + "/v1/wallets/e2e")
	if err != nil {
		t.Fatalf("GET wallet: %v", err)
	}
	defer get.Body.Close()
	var wv domain.WalletView
	if err := json.NewDecoder(get.Body).Decode(&wv); err != nil {
		t.Fatalf("decode wallet: %v", err)
	}
	if wv.Balance != "100.00 EUR" {
		t.Fatalf("cancel must not refund: balance %s", wv.Balance)
	}

	get2, err := http.Get(ts.URL + "/v1/reservations/" + rv.ID)
	if err != nil {
		t.Fatalf("GET reservation: %v", err)
	}
	defer get2.Body.Close()
	var final domain.ReservationView
	_ = json.NewDecoder(get2.Body).Decode(&final)
	if final.Status != "CANCELLED" || len(final.RoomIDs) != 2 {
		t.Fatalf("unexpected final reservation: %+v", final)
	}
}
