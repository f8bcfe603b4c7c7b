package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/api"
	"github.com/mgiulio/photo-market/api/background"
	"github.com/mgiulio/photo-market/config"
	"github.com/mgiulio/photo-market/core/claims"
	"github.com/mgiulio/photo-market/core/user"
	"github.com/mgiulio/photo-market/database"
	"github.com/mgiulio/photo-market/random"
	"github.com/mgiulio/photo-market/validate"
	"github.com/ory/dockertest/v3"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"
)

var dbHost string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to docker: %v\n", err)
		os.Exit(1)
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=postgres",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "starting postgres: %v\n", err)
		os.Exit(1)
	}

	dbHost = res.GetHostPort("5432/tcp")

	if err := pool.Retry(func() error {
		db, err := database.Open(dbConfig("postgres"))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	}); err != nil {
		fmt.Fprintf(os.Stderr, "waiting for postgres: %v\n", err)
		_ = pool.Purge(res)
		os.Exit(1)
	}

	code := m.Run()

	_ = pool.Purge(res)
	os.Exit(code)
}

func dbConfig(name string) config.DB {
	return config.DB{
		User:             "postgres",
		Password:         "postgres",
		Host:             dbHost,
		Name:             name,
		MaxOpenConns:     10,
		DisableTLS:       true,
		StatementTimeout: 5 * time.Second,
		LockTimeout:      2 * time.Second,
	}
}

type TestEnv struct {
	DB  *sqlx.DB
	URL string

	AdminName string
	AdminPass string
}

// NewTestEnv gives each test a fresh database and a running API server.
func NewTestEnv(t *testing.T, name string) *TestEnv {
	t.Helper()

	root, err := database.Open(dbConfig("postgres"))
	if err != nil {
		t.Fatalf("opening root db: %v", err)
	}
	if _, err := root.Exec("CREATE DATABASE " + name); err != nil {
		root.Close()
		t.Fatalf("creating test database: %v", err)
	}
	root.Close()

	db, err := database.Open(dbConfig(name))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	logger, _ := logtest.NewNullLogger()

	session := scs.New()
	session.Lifetime = time.Hour

	mux := api.APIMux(api.APIConfig{
		Log:             logger,
		DB:              db,
		Session:         session,
		Background:      background.New(logger),
		AuctionDuration: 7 * 24 * time.Hour,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})

	env := &TestEnv{
		DB:        db,
		URL:       srv.URL,
		AdminName: "admin-" + random.String(8),
		AdminPass: "admin-" + random.String(12),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(env.AdminPass), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing admin password: %v", err)
	}

	now := time.Now().UTC()
	adm := user.User{
		ID:           validate.GenerateID(),
		Name:         env.AdminName,
		PasswordHash: string(hash),
		Role:         claims.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Create(context.Background(), db, adm); err != nil {
		t.Fatalf("creating admin user: %v", err)
	}

	return env
}

// Signup registers a fresh user through the API and returns its
// credentials.
func (env *TestEnv) Signup(t *testing.T) (name string, pass string) {
	t.Helper()

	name = "user-" + random.String(8)
	pass = "pass-" + random.String(12)

	body := fmt.Sprintf(`{"name":%q,"password":%q}`, name, pass)
	resp, err := http.Post(env.URL+"/auth/signup", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("signing up: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signing up: status %s", resp.Status)
	}

	return name, pass
}

// Login returns a client whose cookie jar carries the user's session.
func (env *TestEnv) Login(t *testing.T, name string, pass string) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}

	body := fmt.Sprintf(`{"name":%q,"password":%q}`, name, pass)
	resp, err := client.Post(env.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logging in as %s: status %s", name, resp.Status)
	}

	return client
}

// do sends a JSON request and decodes the response when out is non-nil.
// It fails the test unless the response status matches want.
func do(t *testing.T, client *http.Client, method string, url string, body interface{}, want int, out interface{}) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer w.Body.Close()

	if w.StatusCode != want {
		b, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: status %s, expected %d (body: %s)", method, url, w.Status, want, b)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, url, err)
		}
	}
}
