// Package e2e drives the HTTP API through Gherkin scenarios. Each scenario
// gets a freshly wired application served over httptest.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trustrag/internal/app"
	docmodels "trustrag/internal/document/models"
	"trustrag/internal/identity"
	"trustrag/internal/platform/config"
)

// TestContext holds per-scenario state shared by all step packages.
type TestContext struct {
	cfg     config.Config
	docs    []docmodels.Document
	app     *app.App
	server  *httptest.Server
	client  *http.Client
	token   string
	dataDir string

	lastStatus int
	lastBody   []byte
}

func NewTestContext(docs []docmodels.Document) *TestContext {
	return &TestContext{docs: docs, client: &http.Client{Timeout: 10 * time.Second}}
}

// Reset discards the previous scenario's application and starts from the
// default configuration with a fresh data directory.
func (tc *TestContext) Reset() error {
	tc.Close()
	dir, err := os.MkdirTemp("", "trustrag-e2e-")
	if err != nil {
		return err
	}
	tc.dataDir = dir
	tc.cfg = config.Default()
	tc.cfg.Storage.DataDir = dir
	tc.cfg.Server.JWTSigningKey = "e2e-signing-key"
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	return nil
}

// Close stops the server and releases the application.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
	if tc.app != nil {
		_ = tc.app.Shutdown(context.Background())
		tc.app = nil
	}
	if tc.dataDir != "" {
		_ = os.RemoveAll(tc.dataDir)
		tc.dataDir = ""
	}
}

// Configure mutates the configuration. It must run before the first request.
func (tc *TestContext) Configure(fn func(*config.Config)) error {
	if tc.app != nil {
		return fmt.Errorf("configuration changed after the application started")
	}
	fn(&tc.cfg)
	return nil
}

func (tc *TestContext) start() error {
	if tc.app != nil {
		return nil
	}
	a, err := app.New(context.Background(), tc.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
		app.WithDocuments(tc.docs...),
		app.WithRegistry(prometheus.NewRegistry()),
	)
	if err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	tc.app = a
	tc.server = httptest.NewServer(a.Handler)
	return nil
}

// LoginAs mints a bearer token for the given department membership.
func (tc *TestContext) LoginAs(user, department, role string) error {
	if err := tc.start(); err != nil {
		return err
	}
	tok, err := tc.app.Tokens.Issue(identity.Subject{UserID: user, Department: department, DepartmentRole: role}, time.Hour)
	if err != nil {
		return err
	}
	tc.token = tok
	return nil
}

func (tc *TestContext) POST(path string, body interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(raw))
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	if err := tc.start(); err != nil {
		return err
	}
	req, err := http.NewRequest(method, tc.server.URL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GetLastResponseStatus() int  { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

// GetResponseField walks a dotted path ("violation.violation_type") through
// the last JSON response. Numeric segments index arrays.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var cur interface{}
	if err := json.Unmarshal(tc.lastBody, &cur); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			cur = v
		case []interface{}:
			var i int
			if _, err := fmt.Sscanf(part, "%d", &i); err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, field)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return cur, nil
}
