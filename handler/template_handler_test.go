package handler

import (
	"net/http"
	"testing"

	"chat_scripts/model"
	"chat_scripts/service"
	"chat_scripts/templating"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateAPI_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doRequest(t, http.MethodGet, "/api/v1/templates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	status, _ = env.doRequest(t, http.MethodGet, "/api/v1/templates", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTemplateAPI_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := newTestUser(t)

	// 新用户看到内置默认模板
	status, resp := env.doRequest(t, http.MethodGet, "/api/v1/templates", user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Templates []model.Template `json:"templates"`
		Total     int              `json:"total"`
	}
	decodeData(t, resp, &list)
	assert.Equal(t, 2, list.Total)

	// 创建
	status, resp = env.doRequest(t, http.MethodPost, "/api/v1/templates", user.Token, map[string]interface{}{
		"name":    "Shipping",
		"content": "Hi {{name}}, your order {{orderNumber}} shipped on {{shipDate}}",
	})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		Template model.Template `json:"template"`
		Local    bool           `json:"local"`
	}
	decodeData(t, resp, &created)
	assert.False(t, created.Local)
	assert.Equal(t, []string{"name", "orderNumber", "shipDate"}, created.Template.Placeholders)
	id := created.Template.ID

	// 详情附带表单描述
	status, resp = env.doRequest(t, http.MethodGet, "/api/v1/templates/"+id, user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var detail struct {
		Template model.Template     `json:"template"`
		Fields   []templating.Field `json:"fields"`
	}
	decodeData(t, resp, &detail)
	require.Len(t, detail.Fields, 3)
	assert.Equal(t, "Ship Date", detail.Fields[2].Label)
	assert.Equal(t, templating.FieldDate, detail.Fields[2].Type)

	// 更新
	status, resp = env.doRequest(t, http.MethodPost, "/api/v1/templates/"+id, user.Token, map[string]interface{}{
		"content": "Hello {{name}}, {{note}}",
	})
	require.Equal(t, http.StatusOK, status)
	var updated struct {
		Template model.Template `json:"template"`
		Local    bool           `json:"local"`
	}
	decodeData(t, resp, &updated)
	assert.Equal(t, []string{"name", "orderNumber", "shipDate", "note"}, updated.Template.Placeholders)

	// 个性化
	status, resp = env.doRequest(t, http.MethodPost, "/api/v1/templates/"+id+"/personalize", user.Token, map[string]interface{}{
		"values": map[string]string{"name": "Ana", "note": "Thanks!\nBye"},
	})
	require.Equal(t, http.StatusOK, status)
	var result service.PersonalizeResult
	decodeData(t, resp, &result)
	assert.Equal(t, "Hello Ana, Thanks!\nBye", result.Content)
	assert.Contains(t, result.Preview, "Thanks!<br>Bye")

	// 删除
	status, resp = env.doRequest(t, http.MethodDelete, "/api/v1/templates/"+id, user.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.doRequest(t, http.MethodGet, "/api/v1/templates/"+id, user.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTemplateAPI_LocalTemplates(t *testing.T) {
	env := newTestEnv(t)
	user := newTestUser(t)

	status, resp := env.doRequest(t, http.MethodPost, "/api/v1/templates/default-1", user.Token, map[string]interface{}{
		"name": "Renamed",
	})
	require.Equal(t, http.StatusOK, status)
	var updated struct {
		Local bool `json:"local"`
	}
	decodeData(t, resp, &updated)
	assert.True(t, updated.Local)

	status, resp = env.doRequest(t, http.MethodDelete, "/api/v1/templates/local-1700000000000", user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	decodeData(t, resp, &updated)
	assert.True(t, updated.Local)
}

func TestTemplateAPI_Validation(t *testing.T) {
	env := newTestEnv(t)
	user := newTestUser(t)

	status, _ := env.doRequest(t, http.MethodPost, "/api/v1/templates", user.Token, map[string]interface{}{
		"name": "Missing content",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.doRequest(t, http.MethodPost, "/api/v1/templates", user.Token, map[string]interface{}{
		"name":    "   ",
		"content": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = env.doRequest(t, http.MethodPost, "/api/v1/templates/00000000-0000-0000-0000-000000000000/personalize", user.Token, map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTemplateAPI_DetectAndPreview(t *testing.T) {
	env := newTestEnv(t)
	user := newTestUser(t)

	status, resp := env.doRequest(t, http.MethodPost, "/api/v1/templates/detect", user.Token, map[string]interface{}{
		"content":      "{{b}} {{a}} {{b}}",
		"placeholders": []string{"manual"},
	})
	require.Equal(t, http.StatusOK, status)
	var detected struct {
		Placeholders []string `json:"placeholders"`
	}
	decodeData(t, resp, &detected)
	assert.Equal(t, []string{"manual", "b", "a"}, detected.Placeholders)

	status, resp = env.doRequest(t, http.MethodPost, "/api/v1/templates/preview", user.Token, map[string]interface{}{
		"content":      "Hi {{name}} <b>{{secret}}</b>",
		"placeholders": []string{"name"},
		"values":       map[string]string{"name": "<script>x</script>"},
	})
	require.Equal(t, http.StatusOK, status)
	var result service.PersonalizeResult
	decodeData(t, resp, &result)
	assert.Equal(t, "Hi <script>x</script> <b>{{secret}}</b>", result.Content)
	assert.NotContains(t, result.Preview, "<script>")
	assert.NotContains(t, result.Preview, "<b>")
	assert.Equal(t, []string{"secret"}, result.Undeclared)
}

func TestTemplateAPI_BulkDeleteAndSearch(t *testing.T) {
	env := newTestEnv(t)
	user := newTestUser(t)

	var ids []string
	for _, name := range []string{"Zeta refund", "alpha", "Beta refund"} {
		status, resp := env.doRequest(t, http.MethodPost, "/api/v1/templates", user.Token, map[string]interface{}{
			"name":    name,
			"content": "body",
		})
		require.Equal(t, http.StatusCreated, status)
		var created struct {
			Template model.Template `json:"template"`
		}
		decodeData(t, resp, &created)
		ids = append(ids, created.Template.ID)
	}

	status, resp := env.doRequest(t, http.MethodGet, "/api/v1/templates?q=REFUND&sort=alphabetical", user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Templates []model.Template `json:"templates"`
	}
	decodeData(t, resp, &list)
	require.Len(t, list.Templates, 2)
	assert.Equal(t, "Beta refund", list.Templates[0].Name)
	assert.Equal(t, "Zeta refund", list.Templates[1].Name)

	status, resp = env.doRequest(t, http.MethodPost, "/api/v1/templates/bulk-delete", user.Token, map[string]interface{}{
		"ids": []string{ids[0], ids[2], "default-1"},
	})
	require.Equal(t, http.StatusOK, status)
	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	decodeData(t, resp, &deleted)
	assert.Equal(t, int64(2), deleted.Deleted)
}

func TestTemplateAPI_IsolatedPerUser(t *testing.T) {
	env := newTestEnv(t)
	owner := newTestUser(t)
	stranger := newTestUser(t)

	status, resp := env.doRequest(t, http.MethodPost, "/api/v1/templates", owner.Token, map[string]interface{}{
		"name":    "Private",
		"content": "secret",
	})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		Template model.Template `json:"template"`
	}
	decodeData(t, resp, &created)

	status, _ = env.doRequest(t, http.MethodGet, "/api/v1/templates/"+created.Template.ID, stranger.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.doRequest(t, http.MethodDelete, "/api/v1/templates/"+created.Template.ID, stranger.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
