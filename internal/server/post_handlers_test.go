package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// doMultipart posts form fields as multipart form data.
func doMultipart(t *testing.T, app *fiber.App, path, token string, fields map[string]string) testResponse {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	decoded := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return testResponse{status: resp.StatusCode, body: decoded}
}

func validPostForm() map[string]string {
	return map[string]string{
		"post_type":     "lost",
		"title":         "Lost: gray hoodie",
		"content":       "left it on a bench",
		"item_date":     "2026-08-28",
		"location":      "Central Plaza",
		"category_main": "clothing",
		"category_sub":  "jacket",
	}
}

func TestCreatePost(t *testing.T) {
	s, app, _ := newTestServer(t)
	_, token := signupTestUser(t, s, "20236001", "hoodieless")

	t.Run("Success", func(t *testing.T) {
		resp := doMultipart(t, app, "/api/posts", token, validPostForm())
		assert.Equal(t, http.StatusCreated, resp.status)
		assert.Equal(t, "Lost: gray hoodie", resp.body["title"])
		assert.Equal(t, "stored", resp.body["status"])
	})

	t.Run("RequiresAuth", func(t *testing.T) {
		resp := doMultipart(t, app, "/api/posts", "", validPostForm())
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	})

	t.Run("BadDate", func(t *testing.T) {
		form := validPostForm()
		form["item_date"] = "yesterday"
		resp := doMultipart(t, app, "/api/posts", token, form)
		assert.Equal(t, http.StatusBadRequest, resp.status)
	})

	t.Run("BadType", func(t *testing.T) {
		form := validPostForm()
		form["post_type"] = "borrowed"
		resp := doMultipart(t, app, "/api/posts", token, form)
		assert.Equal(t, http.StatusBadRequest, resp.status)
	})
}

func TestListAndGetPosts(t *testing.T) {
	s, app, _ := newTestServer(t)
	_, token := signupTestUser(t, s, "20236010", "catalog")

	form := validPostForm()
	created := doMultipart(t, app, "/api/posts", token, form)
	assert.Equal(t, http.StatusCreated, created.status)

	foundForm := validPostForm()
	foundForm["post_type"] = "found"
	foundForm["title"] = "Found: calculator"
	assert.Equal(t, http.StatusCreated, doMultipart(t, app, "/api/posts", token, foundForm).status)

	t.Run("ListIsPublic", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts", "", nil)
		assert.Equal(t, http.StatusOK, resp.status)
		assert.Equal(t, float64(2), resp.body["total"])
	})

	t.Run("TypeFilter", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?type=found", "", nil)
		assert.Equal(t, http.StatusOK, resp.status)
		assert.Equal(t, float64(1), resp.body["total"])
	})

	t.Run("TextSearch", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?q=calculator", "", nil)
		assert.Equal(t, http.StatusOK, resp.status)
		assert.Equal(t, float64(1), resp.body["total"])
	})

	t.Run("InvalidFilter", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?type=imaginary", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.status)
	})

	t.Run("DetailIsPublic", func(t *testing.T) {
		id := uint(created.body["id"].(float64))
		resp := doJSON(t, app, http.MethodGet, "/api/posts/"+itoa(id), "", nil)
		assert.Equal(t, http.StatusOK, resp.status)
		assert.Equal(t, "Lost: gray hoodie", resp.body["title"])
	})

	t.Run("DetailMissing", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts/9999", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.status)
	})

	t.Run("MyPosts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts/my", token, nil)
		assert.Equal(t, http.StatusOK, resp.status)
		assert.Len(t, resp.body["posts"], 2)
	})
}

func TestUpdateAndDeletePost(t *testing.T) {
	s, app, _ := newTestServer(t)
	_, authorToken := signupTestUser(t, s, "20236020", "owner20")
	_, otherToken := signupTestUser(t, s, "20236021", "other21")

	created := doMultipart(t, app, "/api/posts", authorToken, validPostForm())
	assert.Equal(t, http.StatusCreated, created.status)
	id := itoa(uint(created.body["id"].(float64)))

	t.Run("NonAuthorCannotUpdate", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch, "/api/posts/"+id, otherToken, map[string]string{
			"title": "mine now",
		})
		assert.Equal(t, http.StatusForbidden, resp.status)
	})

	t.Run("AuthorUpdatesStatus", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch, "/api/posts/"+id, authorToken, map[string]string{
			"status": "in_contact",
		})
		assert.Equal(t, http.StatusOK, resp.status)
		assert.Equal(t, "in_contact", resp.body["status"])
	})

	t.Run("NonAuthorCannotDelete", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, "/api/posts/"+id, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.status)
	})

	t.Run("AuthorDeletes", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, "/api/posts/"+id, authorToken, nil)
		assert.Equal(t, http.StatusNoContent, resp.status)

		gone := doJSON(t, app, http.MethodGet, "/api/posts/"+id, "", nil)
		assert.Equal(t, http.StatusNotFound, gone.status)
	})
}
