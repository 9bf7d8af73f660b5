package server

import (
	"fmt"
	"net/http"
	"testing"

	"kfarm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFarmInputWithSpecifications(t *testing.T) {
	env := newTestEnv(t)
	seller, sid := env.createUser(t, "Seller", "seller@example.com", false)

	resp := env.doForm(t, http.MethodPost, "/api/farminputs", map[string]string{
		"name":           "DAP Fertilizer",
		"price":          "3400",
		"category":       models.FarmInputCategoryFertilizers,
		"quantity":       "25",
		"unit":           "bag",
		"specifications": `{"brand":"Minjingu","manufacturer":"Minjingu Mines","application_method":"Broadcast at planting"}`,
	}, sid)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.FarmInput
	decodeBody(t, resp, &created)
	assert.Equal(t, seller.ID, created.SellerID)
	assert.Equal(t, "Minjingu", created.Specifications.Brand)
	assert.Equal(t, "Broadcast at planting", created.Specifications.ApplicationMethod)
}

func TestCreateFarmInputRejectsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	_, sid := env.createUser(t, "Seller", "seller@example.com", false)

	resp := env.doForm(t, http.MethodPost, "/api/farminputs", map[string]string{
		"name":     "Mystery Item",
		"price":    "100",
		"category": "Gadgets",
		"quantity": "1",
		"unit":     "piece",
	}, sid)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFarmInputCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	seller, _ := env.createUser(t, "Seller", "seller@example.com", false)

	for _, cat := range []string{
		models.FarmInputCategorySeeds,
		models.FarmInputCategorySeeds,
		models.FarmInputCategoryTools,
	} {
		require.NoError(t, env.db.Create(&models.FarmInput{
			Name: "Item", Price: 10, SellerID: seller.ID,
			Category: cat, Quantity: 5, Unit: "piece", Available: true,
		}).Error)
	}

	resp := env.doJSON(t, http.MethodGet, "/api/farminputs?category=Seeds", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inputs []models.FarmInput
	decodeBody(t, resp, &inputs)
	assert.Len(t, inputs, 2)

	resp = env.doJSON(t, http.MethodGet, "/api/farminputs", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &inputs)
	assert.Len(t, inputs, 3)
}

func TestFarmInputDiscountFields(t *testing.T) {
	env := newTestEnv(t)
	_, sid := env.createUser(t, "Seller", "seller@example.com", false)

	resp := env.doForm(t, http.MethodPost, "/api/farminputs", map[string]string{
		"name":                "Hybrid Seed",
		"price":               "500",
		"category":            models.FarmInputCategorySeeds,
		"quantity":            "100",
		"unit":                "kg",
		"discount_eligible":   "true",
		"discount_threshold":  "20",
		"discount_percentage": "10",
	}, sid)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.FarmInput
	decodeBody(t, resp, &created)
	assert.True(t, created.DiscountEligible)
	require.NotNil(t, created.DiscountThreshold)
	assert.Equal(t, 20, *created.DiscountThreshold)
	require.NotNil(t, created.DiscountPercentage)
	assert.Equal(t, float64(10), *created.DiscountPercentage)
}

func TestNonOwnerCannotDeleteFarmInput(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createUser(t, "Owner", "owner@example.com", false)
	_, otherSid := env.createUser(t, "Other", "other@example.com", false)

	input := &models.FarmInput{
		Name: "Sprayer", Price: 2000, SellerID: owner.ID,
		Category: models.FarmInputCategoryTools, Quantity: 2, Unit: "piece", Available: true,
	}
	require.NoError(t, env.db.Create(input).Error)

	resp := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/farminputs/%d", input.ID), nil, otherSid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	env.db.Model(&models.FarmInput{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
