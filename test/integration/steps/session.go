package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

const sessionWait = 5 * time.Second

// registerSessionSteps registers the recompute session steps.
func registerSessionSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^I wait until the session is "([^"]*)"$`, iWaitUntilTheSessionIs)
	ctx.Step(`^I wait until the session is "([^"]*)" at generation (\d+)$`, iWaitUntilTheSessionIsAtGeneration)
}

func iWaitUntilTheSessionIs(ctx context.Context, state string) error {
	return waitForSession(ctx, state, 0)
}

func iWaitUntilTheSessionIsAtGeneration(ctx context.Context, state string, generation int) error {
	return waitForSession(ctx, state, uint64(generation))
}

// waitForSession polls the session until it reports state, and generation
// when one is given. The last poll stays the current response.
func waitForSession(ctx context.Context, state string, generation uint64) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if tc.sessionID == "" {
		return fmt.Errorf("no session was created")
	}

	var last struct {
		State      string `json:"state"`
		Generation uint64 `json:"generation"`
	}
	deadline := time.Now().Add(sessionWait)
	for time.Now().Before(deadline) {
		if err := tc.do(http.MethodGet, "/api/v1/insights/sessions/{{session_id}}", ""); err != nil {
			return err
		}
		if tc.response.StatusCode != http.StatusOK {
			return fmt.Errorf("expected status 200 while polling, got %d. Body: %s", tc.response.StatusCode, string(tc.responseBody))
		}
		if err := json.Unmarshal(tc.responseBody, &last); err != nil {
			return fmt.Errorf("failed to parse session: %w", err)
		}
		if last.State == state && (generation == 0 || last.Generation == generation) {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("session stayed %q at generation %d, wanted %q at generation %d",
		last.State, last.Generation, state, generation)
}
