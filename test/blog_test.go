//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/2beens/bloglist/internal/blog"
	"github.com/2beens/bloglist/pkg"
)

var initialBlogs = []blog.Blog{
	{
		Title:  "React patterns",
		Author: "Michael Chan",
		URL:    "https://reactpatterns.com/",
		Likes:  7,
	},
	{
		Title:  "Canonical string reduction",
		Author: "Edsger W. Dijkstra",
		URL:    "http://www.cs.utexas.edu/~EWD/transcriptions/EWD08xx/EWD808.html",
		Likes:  12,
	},
}

func newTestBlogPayload() map[string]any {
	return map[string]any{
		"title":  "Go To Statement Considered Harmful",
		"author": "Edsger W. Dijkstra",
		"url":    "http://www.u.arizona.edu/~rubinson/copyright_violations/Go_To_Considered_Harmful.html",
		"likes":  5,
	}
}

func (s *IntegrationTestSuite) blogsCollection() *mongo.Collection {
	return s.mongoClient.Database(testDBName).Collection(blog.CollectionName)
}

func (s *IntegrationTestSuite) seedInitialBlogs(ctx context.Context) {
	repo := blog.NewRepo(s.mongoClient.Database(testDBName))
	for i := range initialBlogs {
		_, err := repo.Add(ctx, &initialBlogs[i])
		s.Require().NoError(err)
	}
}

func (s *IntegrationTestSuite) doRequest(method, path string, body any) *http.Response {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(s.T(), err)
	}

	req, err := http.NewRequestWithContext(
		context.Background(),
		method, fmt.Sprintf("%s%s", serverEndpoint, path),
		bytes.NewReader(payload),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", pkg.ContentType.JSON)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	return resp
}

func (s *IntegrationTestSuite) getAllBlogs() []blog.Blog {
	resp := s.doRequest("GET", "/api/blogs", nil)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var blogs []blog.Blog
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&blogs))
	return blogs
}

func (s *IntegrationTestSuite) createBlog(payload map[string]any) blog.Blog {
	resp := s.doRequest("POST", "/api/blogs", payload)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var created blog.Blog
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func (s *IntegrationTestSuite) TestBlogs_ReturnedAsJSON() {
	resp := s.doRequest("GET", "/api/blogs", nil)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.True(s.T(), strings.Contains(resp.Header.Get("Content-Type"), "application/json"))
}

func (s *IntegrationTestSuite) TestBlogs_HaveIDs() {
	blogs := s.getAllBlogs()
	require.Len(s.T(), blogs, len(initialBlogs))

	ids := make(map[string]bool)
	for _, b := range blogs {
		require.NotEmpty(s.T(), b.ID)
		ids[b.ID] = true
	}
	assert.Len(s.T(), ids, len(initialBlogs))

	// internal fields never leak
	resp := s.doRequest("GET", "/api/blogs", nil)
	defer resp.Body.Close()
	var raw []map[string]any
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&raw))
	for _, r := range raw {
		assert.NotContains(s.T(), r, "_id")
		assert.NotContains(s.T(), r, "__v")
	}
}

func (s *IntegrationTestSuite) TestBlogs_Create() {
	before := s.getAllBlogs()
	created := s.createBlog(newTestBlogPayload())
	after := s.getAllBlogs()

	assert.Len(s.T(), after, len(before)+1)
	assert.Contains(s.T(), after, created)
}

func (s *IntegrationTestSuite) TestBlogs_CreateWithoutLikes() {
	payload := newTestBlogPayload()
	delete(payload, "likes")

	created := s.createBlog(payload)
	assert.Equal(s.T(), 0, created.Likes)
}

func (s *IntegrationTestSuite) TestBlogs_CreateMissingTitleOrURL() {
	for _, field := range []string{"title", "url"} {
		payload := newTestBlogPayload()
		delete(payload, field)

		resp := s.doRequest("POST", "/api/blogs", payload)
		_ = resp.Body.Close()
		assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode, field)
	}

	assert.Len(s.T(), s.getAllBlogs(), len(initialBlogs))
}

func (s *IntegrationTestSuite) TestBlogs_CreateAndDelete() {
	created := s.createBlog(newTestBlogPayload())
	before := s.getAllBlogs()

	resp := s.doRequest("DELETE", "/api/blogs/"+created.ID, nil)
	_ = resp.Body.Close()
	require.Equal(s.T(), http.StatusNoContent, resp.StatusCode)

	after := s.getAllBlogs()
	assert.Len(s.T(), after, len(before)-1)
	assert.NotContains(s.T(), after, created)
}

func (s *IntegrationTestSuite) TestBlogs_CreateAndUpdate() {
	created := s.createBlog(newTestBlogPayload())
	created.Likes = 11

	resp := s.doRequest("PUT", "/api/blogs/"+created.ID, map[string]any{
		"title":  created.Title,
		"author": created.Author,
		"url":    created.URL,
		"likes":  created.Likes,
	})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var updated blog.Blog
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(s.T(), created, updated)
}

func (s *IntegrationTestSuite) TestBlogs_GetOne() {
	created := s.createBlog(newTestBlogPayload())

	resp := s.doRequest("GET", "/api/blogs/"+created.ID, nil)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var found blog.Blog
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&found))
	assert.Equal(s.T(), created, found)
}

func (s *IntegrationTestSuite) TestBlogs_UnknownAndMalformedIDs() {
	resp := s.doRequest("GET", "/api/blogs/5a422a851b54a676234d17f7", nil)
	_ = resp.Body.Close()
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)

	resp = s.doRequest("PUT", "/api/blogs/5a422a851b54a676234d17f7", newTestBlogPayload())
	_ = resp.Body.Close()
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)

	resp = s.doRequest("DELETE", "/api/blogs/5a422a851b54a676234d17f7", nil)
	_ = resp.Body.Close()
	assert.Equal(s.T(), http.StatusNoContent, resp.StatusCode)

	resp = s.doRequest("GET", "/api/blogs/not-an-object-id", nil)
	_ = resp.Body.Close()
	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestHealth() {
	resp := s.doRequest("GET", "/health", nil)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(s.T(), "ok", health["status"])
	assert.Equal(s.T(), float64(len(initialBlogs)), health["blogs"])
}
