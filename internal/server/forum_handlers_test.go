package server

import (
	"fmt"
	"net/http"
	"testing"

	"kfarm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForumPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	author, authorSid := env.createUser(t, "Author", "author@example.com", false)

	resp := env.doJSON(t, http.MethodPost, "/api/forum/posts", map[string]string{
		"category": models.ForumCategoryCropFarming,
		"title":    "Best maize spacing?",
		"content":  "What spacing works for short rains?",
	}, authorSid)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post models.ForumPost
	decodeBody(t, resp, &post)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Empty(t, post.Likes)
	assert.Empty(t, post.Comments)

	resp = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/forum/posts/%d", post.ID), map[string]string{
		"title": "Best maize spacing for short rains?",
	}, authorSid)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.ForumPost
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Best maize spacing for short rains?", updated.Title)
	assert.Equal(t, post.Content, updated.Content)

	resp = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/forum/posts/%d", post.ID), nil, authorSid)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/forum/posts/%d", post.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestForumLikeToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.createUser(t, "Author", "author@example.com", false)
	liker, likerSid := env.createUser(t, "Liker", "liker@example.com", false)

	post := &models.ForumPost{
		Category: models.ForumCategoryPestControl, AuthorID: author.ID,
		Title: "Aphids on kale", Content: "Any organic options?",
	}
	require.NoError(t, env.db.Create(post).Error)

	likeURL := fmt.Sprintf("/api/forum/posts/%d/like", post.ID)

	resp := env.doJSON(t, http.MethodPost, likeURL, nil, likerSid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Liked bool   `json:"liked"`
		Likes []uint `json:"likes"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Liked)
	assert.Equal(t, []uint{liker.ID}, body.Likes)

	// Toggling again removes the like; the set returns to its prior state.
	resp = env.doJSON(t, http.MethodPost, likeURL, nil, likerSid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.False(t, body.Liked)
	assert.Empty(t, body.Likes)
}

func TestAnyAuthenticatedUserCanComment(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.createUser(t, "Author", "author@example.com", false)
	commenter, commenterSid := env.createUser(t, "Commenter", "commenter@example.com", false)

	post := &models.ForumPost{
		Category: models.ForumCategoryMarketTrends, AuthorID: author.ID,
		Title: "Tomato prices", Content: "Rising in Nairobi",
	}
	require.NoError(t, env.db.Create(post).Error)

	resp := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/forum/posts/%d/comments", post.ID),
		map[string]string{"content": "Same in Nakuru"}, commenterSid)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var comment models.ForumComment
	decodeBody(t, resp, &comment)
	assert.Equal(t, commenter.ID, comment.AuthorID)
	assert.Equal(t, commenter.Name, comment.Author.Name)

	// The comment shows up on the post, oldest first.
	resp = env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/forum/posts/%d", post.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.ForumPost
	decodeBody(t, resp, &fetched)
	require.Len(t, fetched.Comments, 1)
	assert.Equal(t, "Same in Nakuru", fetched.Comments[0].Content)
}

func TestNonAuthorCannotEditForumPost(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.createUser(t, "Author", "author@example.com", false)
	_, otherSid := env.createUser(t, "Other", "other@example.com", false)

	post := &models.ForumPost{
		Category: models.ForumCategoryCropFarming, AuthorID: author.ID,
		Title: "Original", Content: "Original content",
	}
	require.NoError(t, env.db.Create(post).Error)

	resp := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/forum/posts/%d", post.ID),
		map[string]string{"title": "Hijacked"}, otherSid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/forum/posts/%d", post.ID), nil, otherSid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPostOwnerCanDeleteComments(t *testing.T) {
	env := newTestEnv(t)
	author, authorSid := env.createUser(t, "Author", "author@example.com", false)
	commenter, commenterSid := env.createUser(t, "Commenter", "commenter@example.com", false)

	post := &models.ForumPost{
		Category: models.ForumCategoryCropFarming, AuthorID: author.ID,
		Title: "Post", Content: "Content",
	}
	require.NoError(t, env.db.Create(post).Error)
	comment := &models.ForumComment{PostID: post.ID, AuthorID: commenter.ID, Content: "rude remark"}
	require.NoError(t, env.db.Create(comment).Error)

	url := fmt.Sprintf("/api/forum/posts/%d/comments/%d", post.ID, comment.ID)

	// The comment's own author cannot remove it; moderation belongs to the
	// post owner.
	resp := env.doJSON(t, http.MethodDelete, url, nil, commenterSid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.doJSON(t, http.MethodDelete, url, nil, authorSid)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	env.db.Model(&models.ForumComment{}).Count(&count)
	assert.Zero(t, count)
}

func TestForumCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.createUser(t, "Author", "author@example.com", false)

	for _, cat := range []string{
		models.ForumCategoryCropFarming,
		models.ForumCategoryCropFarming,
		models.ForumCategoryMarketTrends,
	} {
		require.NoError(t, env.db.Create(&models.ForumPost{
			Category: cat, AuthorID: author.ID, Title: "t", Content: "c",
		}).Error)
	}

	resp := env.doJSON(t, http.MethodGet, "/api/forum/posts?category=crop+farming", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []models.ForumPost
	decodeBody(t, resp, &posts)
	assert.Len(t, posts, 2)

	resp = env.doJSON(t, http.MethodGet, "/api/forum/posts?category=all", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &posts)
	assert.Len(t, posts, 3)

	resp = env.doJSON(t, http.MethodGet, "/api/forum/posts?category=gossip", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
