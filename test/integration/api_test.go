// Package integration provides end-to-end integration tests for the API.
// Tests run against both PostgreSQL and MySQL databases and skip when the
// database is not reachable.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sackofdump/pcompass/internal/app"
	authDTO "github.com/sackofdump/pcompass/internal/auth/http/dto"
	"github.com/sackofdump/pcompass/internal/config"
	"github.com/sackofdump/pcompass/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	client    *http.Client
	dbDriver  string
}

// makeRequest performs an HTTP request through the context's cookie-jar client
// and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ctx.client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// cookieValue returns the jar's value for the named cookie, or "" if absent.
func (ctx *integrationTestContext) cookieValue(t *testing.T, name string) string {
	t.Helper()

	u, err := url.Parse(ctx.server.URL)
	require.NoError(t, err)

	for _, cookie := range ctx.client.Jar.Cookies(u) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// setupIntegrationTest initializes all components for integration testing.
// Extra config mutators run after the defaults are applied.
func setupIntegrationTest(t *testing.T, dbDriver string, opts ...func(*config.Config)) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		ServerHost:           "localhost",
		ServerPort:           8080,
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		DBQueryTimeout:       3 * time.Second,
		LogLevel:             "error",
		AuthTokenSecret:      "integration-auth-secret",
		ProTokenSecret:       "integration-pro-secret",
		TokenMaxAge:          4 * time.Hour,
		TokenClockSkew:       5 * time.Minute,
		RateLimitRequests:    100,
		RateLimitWindow:      time.Minute,
		RateLimitRetention:   48 * time.Hour,
		// No prune goroutines during tests.
		RateLimitPruneProbability: 0,
		SignInBurstPerSec:         100,
		SignInBurst:               100,
		CookieSecure:              false,
		MetricsEnabled:            false,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer(context.Background())
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil")

	testServer := httptest.NewServer(handler)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err, "failed to create cookie jar")

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		client:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		err := ctx.container.Shutdown(context.Background())
		if err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}
}

// TestIntegration_Health_BasicChecks validates the health and readiness endpoints
// against both PostgreSQL and MySQL.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "healthy", response["status"])
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "ready", response["status"])
			})
		})
	}
}

// TestIntegration_Session_CompleteFlow tests the session lifecycle: sign-up,
// sign-in with cookie issuance, identity introspection, pro gating and
// sign-out with session revocation.
func TestIntegration_Session_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			const (
				email    = "flow@example.com"
				password = "correct-horse-battery"
			)

			// [1/7] Sign up a new account
			t.Run("01_SignUp", func(t *testing.T) {
				requestBody := authDTO.SignUpRequest{Email: email, Password: password}

				resp, body := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-up", requestBody)
				assert.Equal(t, http.StatusCreated, resp.StatusCode)

				var response authDTO.UserResponse
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, email, response.Email)
				assert.NotEmpty(t, response.ID)
			})

			// [2/7] Duplicate sign-up is rejected
			t.Run("02_SignUp_Duplicate", func(t *testing.T) {
				requestBody := authDTO.SignUpRequest{Email: email, Password: password}

				resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-up", requestBody)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			// [3/7] Sign in issues the auth cookie but not the pro cookie
			t.Run("03_SignIn", func(t *testing.T) {
				requestBody := authDTO.SignInRequest{Email: email, Password: password}

				resp, body := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-in", requestBody)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response authDTO.UserResponse
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, email, response.Email)

				assert.NotEmpty(t, ctx.cookieValue(t, "auth_token"), "auth cookie should be set")
				assert.Empty(t, ctx.cookieValue(t, "pro_token"), "pro cookie requires a license")
			})

			// [4/7] Authenticated identity introspection
			t.Run("04_Me", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/api/v1/me", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response authDTO.MeResponse
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, email, response.Email)
				assert.False(t, response.Pro)
			})

			// [5/7] Pro gate rejects without an entitlement
			t.Run("05_ProStatus_Forbidden", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/api/v1/pro/status", nil)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			})

			// [6/7] Sign out clears cookies and bumps the session version
			t.Run("06_SignOut", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-out", nil)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)
				assert.Empty(t, ctx.cookieValue(t, "auth_token"), "auth cookie should be cleared")
			})

			// [7/7] Requests without credentials are unauthorized
			t.Run("07_Me_AfterSignOut", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/api/v1/me", nil)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_Pro_Entitlement tests that sign-in issues the pro cookie for
// licensed accounts and that the pro gate admits them.
func TestIntegration_Pro_Entitlement(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			const (
				email    = "pro@example.com"
				password = "correct-horse-battery"
			)

			testutil.CreateTestProLicense(t, ctx.db, tc.dbDriver, email, true)

			// [1/4] Sign up the licensed account
			t.Run("01_SignUp", func(t *testing.T) {
				requestBody := authDTO.SignUpRequest{Email: email, Password: password}

				resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-up", requestBody)
				assert.Equal(t, http.StatusCreated, resp.StatusCode)
			})

			// [2/4] Sign in issues both cookies
			t.Run("02_SignIn_IssuesProCookie", func(t *testing.T) {
				requestBody := authDTO.SignInRequest{Email: email, Password: password}

				resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-in", requestBody)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				assert.NotEmpty(t, ctx.cookieValue(t, "auth_token"))
				assert.NotEmpty(t, ctx.cookieValue(t, "pro_token"))
			})

			// [3/4] Identity reports the entitlement
			t.Run("03_Me_Pro", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/api/v1/me", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response authDTO.MeResponse
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.True(t, response.Pro)
			})

			// [4/4] The pro gate admits the licensed caller
			t.Run("04_ProStatus_OK", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/api/v1/pro/status", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]bool
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.True(t, response["pro"])
			})
		})
	}
}

// TestIntegration_Account_Deletion tests that deleting an account removes the
// user, its license rows and revokes the session.
func TestIntegration_Account_Deletion(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			const (
				email    = "delete-me@example.com"
				password = "correct-horse-battery"
			)

			// [1/3] Create and sign in
			t.Run("01_SignUpAndSignIn", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-up",
					authDTO.SignUpRequest{Email: email, Password: password})
				require.Equal(t, http.StatusCreated, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-in",
					authDTO.SignInRequest{Email: email, Password: password})
				require.Equal(t, http.StatusOK, resp.StatusCode)
			})

			// [2/3] Delete the account
			t.Run("02_DeleteAccount", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodDelete, "/api/v1/account", nil)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)
			})

			// [3/3] Credentials no longer sign in
			t.Run("03_SignIn_AfterDeletion", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-in",
					authDTO.SignInRequest{Email: email, Password: password})
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_RateLimit_SlidingWindow tests that the shared SQL window
// denies requests over the configured budget with 429.
func TestIntegration_RateLimit_SlidingWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			const limit = 3

			ctx := setupIntegrationTest(t, tc.dbDriver, func(cfg *config.Config) {
				cfg.RateLimitRequests = limit
			})
			defer teardownIntegrationTest(t, ctx)

			const (
				email    = "limited@example.com"
				password = "correct-horse-battery"
			)

			resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-up",
				authDTO.SignUpRequest{Email: email, Password: password})
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			resp, _ = ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-in",
				authDTO.SignInRequest{Email: email, Password: password})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			// The budget keys on (email, endpoint), so sign-in's own events
			// do not count against /api/v1/me.
			for i := 0; i < limit; i++ {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/api/v1/me", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode, "request %d should be allowed", i+1)
			}

			resp, body := ctx.makeRequest(t, http.MethodGet, "/api/v1/me", nil)
			assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

			var response map[string]string
			err := json.Unmarshal(body, &response)
			require.NoError(t, err)
			assert.Equal(t, "rate_limit_exceeded", response["error"])
		})
	}
}

// TestIntegration_RateLimit_ConcurrentRequests verifies the budget holds when
// requests race each other: with a budget of 5 and 12 simultaneous requests,
// exactly 5 pass and the rest get 429.
func TestIntegration_RateLimit_ConcurrentRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			const (
				limit    = 5
				parallel = 12
			)

			ctx := setupIntegrationTest(t, tc.dbDriver, func(cfg *config.Config) {
				cfg.RateLimitRequests = limit
			})
			defer teardownIntegrationTest(t, ctx)

			const (
				email    = "racer@example.com"
				password = "correct-horse-battery"
			)

			resp, _ := ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-up",
				authDTO.SignUpRequest{Email: email, Password: password})
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			resp, _ = ctx.makeRequest(t, http.MethodPost, "/api/v1/auth/sign-in",
				authDTO.SignInRequest{Email: email, Password: password})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			statuses := make(chan int, parallel)
			var g errgroup.Group
			for i := 0; i < parallel; i++ {
				g.Go(func() error {
					req, err := http.NewRequest(http.MethodGet, ctx.server.URL+"/api/v1/me", nil)
					if err != nil {
						return err
					}
					resp, err := ctx.client.Do(req)
					if err != nil {
						return err
					}
					statuses <- resp.StatusCode
					return resp.Body.Close()
				})
			}
			require.NoError(t, g.Wait())
			close(statuses)

			var allowed, denied int
			for status := range statuses {
				switch status {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					denied++
				default:
					t.Fatalf("unexpected status %d", status)
				}
			}
			assert.Equal(t, limit, allowed, "exactly the budget may pass")
			assert.Equal(t, parallel-limit, denied)
		})
	}
}
