package sync_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"guild-sync/feature/guild/models"
	guildsync "guild-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupHandler(t *testing.T, gw *mockGateway) (*fiber.App, *guildsync.Orchestrator, func() []models.Guild) {
	repo, db := setupStore(t)
	orch := newOrchestrator(gw, repo)

	app := fiber.New()
	guildsync.NewHandler(orch, zap.NewNop()).RegisterRoutes(app)

	guilds := func() []models.Guild {
		var out []models.Guild
		require.NoError(t, db.Order("id").Find(&out).Error)
		return out
	}
	require.NoError(t, db.Create(&models.Guild{Name: "Stormwind Watch", Realm: "r1", Region: "us"}).Error)
	return app, orch, guilds
}

func TestHandleSyncGuild(t *testing.T) {
	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "stormwind-watch").Return(makeMeta(77), nil)
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "stormwind-watch").Return(makeRoster(77, member{"Boss", 0}), nil)
	app, _, guilds := setupHandler(t, gw)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/guilds/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, guilds()[0].MemberCount)

	resp, err = app.Test(httptest.NewRequest("POST", "/sync/guilds/99", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/sync/guilds/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleSyncCharacterNotFound(t *testing.T) {
	app, _, _ := setupHandler(t, new(mockGateway))

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/characters/5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleRunAndStatus(t *testing.T) {
	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "stormwind-watch").Return(makeMeta(77), nil)
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "stormwind-watch").Return(makeRoster(77), nil)
	app, orch, _ := setupHandler(t, gw)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/run", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return orch.State() == guildsync.Idle && orch.Status().FinishedAt != nil
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = app.Test(httptest.NewRequest("GET", "/sync/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var status guildsync.Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, "idle", status.State)
	assert.NotEmpty(t, status.RunID)
	assert.Equal(t, 1, status.Guilds.Synced)
}
