package handler

import (
	"net/http"
	"testing"

	"chat_scripts/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsAPI_UpdateAndReload(t *testing.T) {
	env := newTestEnv(t)
	admin := newTestUser(t)

	status, resp := env.doRequest(t, http.MethodGet, "/api/admin/settings", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var settings struct {
		Settings map[string]string `json:"settings"`
	}
	decodeData(t, resp, &settings)
	assert.Equal(t, "true", settings.Settings[service.FeatureChangeFeed])

	status, _ = env.doRequest(t, http.MethodPost, "/api/admin/settings/"+service.FeatureDefaultTemplates, admin.Token, map[string]string{
		"value": "false",
	})
	require.Equal(t, http.StatusOK, status)
	assert.False(t, env.Settings.IsFeatureEnabled(service.FeatureDefaultTemplates))

	// 默认模板关闭后新用户列表为空
	status, resp = env.doRequest(t, http.MethodGet, "/api/v1/templates", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Total int `json:"total"`
	}
	decodeData(t, resp, &list)
	assert.Zero(t, list.Total)

	status, _ = env.doRequest(t, http.MethodPost, "/api/admin/settings/"+service.FeatureDefaultTemplates, admin.Token, map[string]string{
		"value": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.doRequest(t, http.MethodPost, "/api/admin/settings/unknown_key", admin.Token, map[string]string{
		"value": "true",
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.doRequest(t, http.MethodPost, "/api/admin/settings/reload", admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, env.Settings.IsFeatureEnabled(service.FeatureDefaultTemplates))
}

func TestSettingsAPI_AdminList(t *testing.T) {
	adminID := uuid.New()
	env := newTestEnv(t, adminID)
	admin := tokenFor(t, adminID)
	other := newTestUser(t)

	status, _ := env.doRequest(t, http.MethodGet, "/api/admin/settings", other.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.doRequest(t, http.MethodGet, "/api/admin/settings", admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthAndLogout(t *testing.T) {
	env := newTestEnv(t)
	user := newTestUser(t)

	status, resp := env.doRequest(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, resp.Code)

	status, resp = env.doRequest(t, http.MethodPost, "/api/v1/logout", user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out", resp.Message)
}
