package server

import (
	"fmt"
	"net/http"
	"testing"

	"kfarm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteOwnAccountCascadesAndEndsSession(t *testing.T) {
	env := newTestEnv(t)
	user, sid := env.createUser(t, "Leaver", "leaver@example.com", false)
	other, _ := env.createUser(t, "Stayer", "stayer@example.com", false)

	require.NoError(t, env.db.Create(&models.Product{
		Name: "Maize", Price: 50, FarmerID: user.ID, City: "Eldoret",
		Quantity: 10, Unit: "kg", Available: true,
	}).Error)
	require.NoError(t, env.db.Create(&models.FarmingGuide{
		Crop: "maize", Title: "Guide", Content: "...", UserID: user.ID,
	}).Error)
	post := &models.ForumPost{
		Category: models.ForumCategoryCropFarming, AuthorID: user.ID,
		Title: "Mine", Content: "...",
	}
	require.NoError(t, env.db.Create(post).Error)
	require.NoError(t, env.db.Create(&models.ForumComment{
		PostID: post.ID, AuthorID: other.ID, Content: "on the leaver's post",
	}).Error)

	resp := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", user.ID), nil, sid)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	env.db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
	env.db.Model(&models.Product{}).Count(&count)
	assert.Zero(t, count)
	env.db.Model(&models.FarmingGuide{}).Count(&count)
	assert.Zero(t, count)
	env.db.Model(&models.ForumPost{}).Count(&count)
	assert.Zero(t, count)
	env.db.Model(&models.ForumComment{}).Count(&count)
	assert.Zero(t, count, "comments on deleted posts go with them")

	// The other account is untouched.
	env.db.Model(&models.User{}).Where("id = ?", other.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	// The session died with the account.
	resp = env.doJSON(t, http.MethodGet, "/api/auth/me", nil, sid)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCannotDeleteSomeoneElsesAccount(t *testing.T) {
	env := newTestEnv(t)
	victim, _ := env.createUser(t, "Victim", "victim@example.com", false)
	_, attackerSid := env.createUser(t, "Attacker", "attacker@example.com", false)

	resp := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", victim.ID), nil, attackerSid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	env.db.Model(&models.User{}).Where("id = ?", victim.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestAdminCanDeleteAnyAccount(t *testing.T) {
	env := newTestEnv(t)
	victim, _ := env.createUser(t, "Victim", "victim@example.com", false)
	_, adminSid := env.createUser(t, "Admin", "admin@example.com", true)

	resp := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", victim.ID), nil, adminSid)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	env.db.Model(&models.User{}).Where("id = ?", victim.ID).Count(&count)
	assert.Zero(t, count)
}
