package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venueflow/venueflow/pkg/config"
)

func TestConfigSections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("rooms come from the stored catalog", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/config/rooms", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Room Alpha")
	})

	t.Run("settings sections fall back to empty defaults", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/config/hil-mode", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"hil_all_llm_replies": false}`, w.Body.String())

		w = env.do(t, http.MethodGet, "/api/v1/config/pre-filter", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"pre_filter": true}`, w.Body.String())
	})

	t.Run("unknown section is a 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/config/launch-codes", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("hil mode round trip", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/config/hil-mode", gin.H{
			"hil_all_llm_replies": true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		settings, err := env.store.GetSettings(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, settings.HILAllReplies)

		w = env.do(t, http.MethodGet, "/api/v1/config/hil-mode", nil)
		assert.JSONEq(t, `{"hil_all_llm_replies": true}`, w.Body.String())
	})

	t.Run("email format rejects unknown values", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/config/email-format", gin.H{
			"email_format": "pigeon",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("deposit policy update preserves other settings", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/config/global-deposit", gin.H{
			"required": true, "percentage": 25, "deadline_days": 10,
		})
		require.Equal(t, http.StatusOK, w.Code)

		settings, err := env.store.GetSettings(ctx, "t1")
		require.NoError(t, err)
		assert.InDelta(t, 25, settings.Deposit.Percentage, 0.001)
		assert.True(t, settings.HILAllReplies, "the earlier hil-mode write survives")
	})

	t.Run("products replace only the products", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/config/products", gin.H{
			"products": []gin.H{{"id": "p9", "name": "Welcome Drink", "kind": "beverage",
				"unit": "per person", "unit_price": 6.5}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		cat, err := env.store.GetCatalog(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, cat.Products, 1)
		assert.Equal(t, "Welcome Drink", cat.Products[0].Name)
		assert.Len(t, cat.Rooms, 1, "rooms untouched")
	})
}

func TestPromptLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post := func(value string) {
		w := env.do(t, http.MethodPost, "/api/v1/config/prompts", gin.H{
			"key": "offer_intro", "value": value, "author": "manager",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}
	post("Warm and personal.")
	post("Short and formal.")
	post("Playful but precise.")

	t.Run("history keeps prior values", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/prompts/history/offer_intro", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var out struct {
			Key     string                 `json:"key"`
			Value   string                 `json:"value"`
			History []config.PromptVersion `json:"history"`
		}
		decode(t, w, &out)
		assert.Equal(t, "Playful but precise.", out.Value)
		require.Len(t, out.History, 2)
		assert.Equal(t, "Warm and personal.", out.History[0].Value)
		assert.Equal(t, "Short and formal.", out.History[1].Value)
	})

	t.Run("revert restores an old version and logs the current one", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/prompts/revert/offer_intro/0", nil)
		require.Equal(t, http.StatusOK, w.Code)

		prompts, err := env.store.GetPrompts(ctx, "t1")
		require.NoError(t, err)
		prompt := prompts["offer_intro"]
		require.NotNil(t, prompt)
		assert.Equal(t, "Warm and personal.", prompt.Value)
		assert.Equal(t, "Playful but precise.", prompt.History[len(prompt.History)-1].Value)
	})

	t.Run("unknown key is a 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/prompts/history/no-such-key", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("out-of-range index is a 400", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/prompts/revert/offer_intro/99", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
