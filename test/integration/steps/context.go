// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/insights/config"
	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/infra/cache"
	"github.com/finance-tracker/insights/internal/infra/dependency"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/middleware"
	"github.com/finance-tracker/insights/internal/integration/persistence/model"
	"github.com/finance-tracker/insights/internal/integration/signal"
	"github.com/finance-tracker/insights/test/integration/mock"
)

// TestContext holds the test state for each scenario.
type TestContext struct {
	// HTTP
	server       *httptest.Server
	client       *http.Client
	response     *http.Response
	responseBody []byte

	// Request building
	requestHeaders map[string]string

	// Wiring
	db        *mock.Db
	redis     *redis.Client
	injector  *dependency.Injector
	publisher adapter.ChangePublisher
	stopWatch context.CancelFunc

	// Named fixtures
	users        map[string]uuid.UUID
	accounts     map[string]uuid.UUID
	categories   map[string]uuid.UUID
	groups       map[string]uuid.UUID
	transactions map[string]uuid.UUID
	sessionID    string
}

// contextKey is used to store TestContext in context.Context.
type contextKey struct{}

// GetTestContext retrieves the TestContext from context.
func GetTestContext(ctx context.Context) *TestContext {
	if tc, ok := ctx.Value(contextKey{}).(*TestContext); ok {
		return tc
	}
	return nil
}

// SetTestContext stores the TestContext in context.
func SetTestContext(ctx context.Context, tc *TestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

func testModels() map[string]any {
	models := make(map[string]any)
	for _, m := range model.All() {
		if t, ok := m.(interface{ TableName() string }); ok {
			models[t.TableName()] = m
		}
	}
	return models
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
		mock.NewDb(testModels())
		mock.NewRedis()
	})
}

// readySource reports when the registry has subscribed to the source, so
// scenarios never publish into an empty channel.
type readySource struct {
	adapter.ChangeSource
	ready chan struct{}
}

func (s *readySource) Changes(ctx context.Context, userID uuid.UUID) (<-chan adapter.LedgerChange, error) {
	changes, err := s.ChangeSource.Changes(ctx, userID)
	close(s.ready)
	return changes, err
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc := &TestContext{
			client:         &http.Client{Timeout: 10 * time.Second},
			requestHeaders: make(map[string]string),
			db:             mock.NewDb(testModels()),
			redis:          mock.NewRedis(),
			users:          make(map[string]uuid.UUID),
			accounts:       make(map[string]uuid.UUID),
			categories:     make(map[string]uuid.UUID),
			groups:         make(map[string]uuid.UUID),
			transactions:   make(map[string]uuid.UUID),
		}
		if err := tc.db.ClearDB(); err != nil {
			return ctx, err
		}
		if err := mock.ClearRedis(tc.redis); err != nil {
			return ctx, err
		}

		cfg := config.Load()
		tc.injector = dependency.NewInjector(cfg, tc.db.DbConn, dependency.Options{
			Location:            time.UTC,
			SignalHealthChecker: cache.HealthChecker(tc.redis),
		})

		// Every scenario gets its own channel so leftover subscribers stay quiet.
		channel := "ledger-changes-" + uuid.NewString()
		tc.publisher = signal.NewRedisChangePublisher(tc.redis, channel)
		source := &readySource{
			ChangeSource: signal.NewRedisChangeSource(tc.redis, channel),
			ready:        make(chan struct{}),
		}
		watchCtx, cancel := context.WithCancel(context.Background())
		tc.stopWatch = cancel
		go func() {
			_ = tc.injector.Registry.Watch(watchCtx, source)
		}()
		select {
		case <-source.ready:
		case <-time.After(5 * time.Second):
			cancel()
			return ctx, fmt.Errorf("ledger change subscription was not established")
		}

		tc.server = httptest.NewServer(tc.injector.Router.Setup("test"))

		return SetTestContext(ctx, tc), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc := GetTestContext(ctx)
		if tc == nil {
			return ctx, nil
		}
		if tc.stopWatch != nil {
			tc.stopWatch()
		}
		if tc.server != nil {
			tc.server.Close()
		}
		if tc.injector != nil {
			tc.injector.Registry.Close()
		}
		return ctx, nil
	})

	// Register step definitions
	registerAPISteps(ctx)
	registerResponseSteps(ctx)
	registerLedgerSteps(ctx)
	registerSessionSteps(ctx)
}

// registerAPISteps registers HTTP request steps.
func registerAPISteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the API server is running$`, theAPIServerIsRunning)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, iSendARequestTo)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, iSendARequestToWithBody)
	ctx.Step(`^I set header "([^"]*)" to "([^"]*)"$`, iSetHeaderTo)
	ctx.Step(`^I am "([^"]*)"$`, iAm)
}

// registerResponseSteps registers response validation steps.
func registerResponseSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the response status should be (\d+)$`, theResponseStatusShouldBe)
	ctx.Step(`^the response should be JSON$`, theResponseShouldBeJSON)
	ctx.Step(`^the response should contain "([^"]*)"$`, theResponseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, theResponseFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be approximately ([-0-9.]+)$`, theResponseFieldShouldBeApproximately)
	ctx.Step(`^the response field "([^"]*)" should exist$`, theResponseFieldShouldExist)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) items$`, theResponseFieldShouldHaveItems)
	ctx.Step(`^the db should contain (\d+) objects in the "([^"]*)" table$`, theDbShouldContainObjectsInTheTable)
}

// Step implementations

func theAPIServerIsRunning(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil || tc.server == nil {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func iSendARequestTo(ctx context.Context, method, endpoint string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	return ctx, tc.do(method, endpoint, "")
}

func iSendARequestToWithBody(ctx context.Context, method, endpoint string, body *godog.DocString) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	return ctx, tc.do(method, endpoint, body.Content)
}

func iSetHeaderTo(ctx context.Context, header, value string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	tc.requestHeaders[header] = tc.expand(value)
	return ctx, nil
}

func iAm(ctx context.Context, name string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	tc.requestHeaders[middleware.UserIDHeader] = tc.user(name).String()
	return ctx, nil
}

// do sends a request with the scenario headers and keeps the response.
func (tc *TestContext) do(method, endpoint, body string) error {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(tc.expand(body))
	}

	req, err := http.NewRequest(method, tc.server.URL+tc.expand(endpoint), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range tc.requestHeaders {
		req.Header.Set(key, value)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	tc.response = resp
	tc.responseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	tc.captureSessionID()
	return nil
}

// captureSessionID remembers the id of a created session.
func (tc *TestContext) captureSessionID() {
	if tc.response.StatusCode != http.StatusAccepted {
		return
	}
	var data map[string]any
	if err := json.Unmarshal(tc.responseBody, &data); err != nil {
		return
	}
	if id, ok := data["id"].(string); ok {
		tc.sessionID = id
	}
}

var placeholder = regexp.MustCompile(`\{\{(\w+)(?::([^}]+))?\}\}`)

// expand replaces {{account:Name}}, {{category:Name}}, {{group:Name}},
// {{user:Name}} and {{session_id}} with the matching identifiers.
func (tc *TestContext) expand(content string) string {
	return placeholder.ReplaceAllStringFunc(content, func(match string) string {
		parts := placeholder.FindStringSubmatch(match)
		kind, name := parts[1], parts[2]
		var ids map[string]uuid.UUID
		switch kind {
		case "session_id":
			return tc.sessionID
		case "user":
			return tc.user(name).String()
		case "account":
			ids = tc.accounts
		case "category":
			ids = tc.categories
		case "group":
			ids = tc.groups
		default:
			return match
		}
		if id, ok := ids[name]; ok {
			return id.String()
		}
		return match
	})
}

func theResponseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}
	if tc.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expectedStatus, tc.response.StatusCode, string(tc.responseBody))
	}
	return nil
}

func theResponseShouldBeJSON(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	var js json.RawMessage
	if err := json.Unmarshal(tc.responseBody, &js); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	return nil
}

func theResponseShouldContain(ctx context.Context, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if !strings.Contains(string(tc.responseBody), expected) {
		return fmt.Errorf("response does not contain '%s'. Body: %s", expected, string(tc.responseBody))
	}
	return nil
}

func theResponseFieldShouldBe(ctx context.Context, field, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	value, err := tc.field(field)
	if err != nil {
		return err
	}

	actual := fmt.Sprintf("%v", value)
	if value == nil {
		actual = "null"
	}
	if actual != tc.expand(expected) {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expected, actual)
	}
	return nil
}

func theResponseFieldShouldBeApproximately(ctx context.Context, field string, expected float64) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	value, err := tc.field(field)
	if err != nil {
		return err
	}
	actual, ok := value.(float64)
	if !ok {
		return fmt.Errorf("field '%s' is not a number: %v", field, value)
	}
	if math.Abs(actual-expected) > 0.01 {
		return fmt.Errorf("field '%s' expected about %v, got %v", field, expected, actual)
	}
	return nil
}

func theResponseFieldShouldExist(ctx context.Context, field string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	_, err := tc.field(field)
	return err
}

func theResponseFieldShouldHaveItems(ctx context.Context, field string, count int) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	value, err := tc.field(field)
	if err != nil {
		return err
	}
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("field '%s' is not an array: %v", field, value)
	}
	if len(items) != count {
		return fmt.Errorf("field '%s' expected %d items, got %d", field, count, len(items))
	}
	return nil
}

func theDbShouldContainObjectsInTheTable(ctx context.Context, quantity int, table string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	count, err := tc.db.Count(table)
	if err != nil {
		return err
	}
	if count != int64(quantity) {
		return fmt.Errorf("expected %d objects in '%s', got %d", quantity, table, count)
	}
	return nil
}

// field resolves a dotted path such as "data.rows.2.actual_percent" in the
// JSON response. Numeric segments index arrays.
func (tc *TestContext) field(path string) (any, error) {
	var current any
	if err := json.Unmarshal(tc.responseBody, &current); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found in response: %s", path, string(tc.responseBody))
			}
			current = value
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index '%s' of '%s' out of range", segment, path)
			}
			current = node[i]
		default:
			return nil, fmt.Errorf("field '%s' not found in response: %s", path, string(tc.responseBody))
		}
	}
	return current, nil
}
