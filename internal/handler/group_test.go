package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "murmur.chat.web/pkg/errors"
)

func TestGroupHandler_Create_InvalidParams(t *testing.T) {
	h := NewGroupHandler(nil, nil)
	router := setupTestRouter()
	router.POST("/groups", h.Create)

	testCases := []struct {
		name string
		body string
	}{
		{"空请求体", `{}`},
		{"无效的JSON", `{invalid}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := doJSON(t, router, http.MethodPost, "/groups", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, appErrors.CodeInvalidParams, resp.Code)
		})
	}
}

func TestGroupHandler_AddMember_InvalidGroupID(t *testing.T) {
	h := NewGroupHandler(nil, nil)
	router := setupTestRouter()
	router.POST("/groups/:id/members", h.AddMember)

	w, resp := doJSON(t, router, http.MethodPost, "/groups/abc/members", `{"userId": 2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.CodeInvalidParams, resp.Code)
}

func TestGroupHandler_ApproveJoin_InvalidUserID(t *testing.T) {
	h := NewGroupHandler(nil, nil)
	router := setupTestRouter()
	router.POST("/groups/:id/requests/:userId/approve", h.ApproveJoin)

	w, resp := doJSON(t, router, http.MethodPost, "/groups/1/requests/zero/approve", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.CodeInvalidParams, resp.Code)
}
