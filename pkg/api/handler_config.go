package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/store"
)

// GetConfigSection handles GET /api/v1/config/:section.
func (s *Server) GetConfigSection(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := tenantID(c)
	section := c.Param("section")

	switch section {
	case "catalog", "products", "menus", "rooms":
		cat, err := s.loadCatalog(c)
		if err != nil {
			return
		}
		switch section {
		case "products":
			c.JSON(http.StatusOK, gin.H{"products": cat.Products})
		case "menus":
			c.JSON(http.StatusOK, gin.H{"menus": cat.Menus})
		case "rooms":
			c.JSON(http.StatusOK, gin.H{"rooms": cat.Rooms})
		default:
			c.JSON(http.StatusOK, cat)
		}
		return

	case "prompts":
		prompts, err := s.store.GetPrompts(ctx, tenant)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"prompts": prompts})
		return
	}

	settings, err := s.loadSettings(c)
	if err != nil {
		return
	}

	switch section {
	case "global-deposit":
		c.JSON(http.StatusOK, settings.Deposit)
	case "hil-mode":
		c.JSON(http.StatusOK, gin.H{"hil_all_llm_replies": settings.HILAllReplies})
	case "email-format":
		c.JSON(http.StatusOK, gin.H{"email_format": settings.EmailFormat})
	case "llm-provider":
		c.JSON(http.StatusOK, gin.H{"llm_provider": settings.LLMProvider})
	case "pre-filter":
		c.JSON(http.StatusOK, gin.H{"pre_filter": settings.PrefilterEnabled()})
	case "detection-mode":
		c.JSON(http.StatusOK, gin.H{"detection_mode": settings.Mode()})
	case "venue":
		c.JSON(http.StatusOK, settings.Venue)
	case "site-visit":
		c.JSON(http.StatusOK, settings.SiteVisit)
	case "managers":
		c.JSON(http.StatusOK, gin.H{"managers": settings.Managers})
	case "faq":
		c.JSON(http.StatusOK, gin.H{"faq": settings.FAQ})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown config section"})
	}
}

// SetConfigSection handles POST /api/v1/config/:section.
func (s *Server) SetConfigSection(c *gin.Context) {
	tenant := tenantID(c)
	section := c.Param("section")

	switch section {
	case "catalog", "products", "menus":
		s.setCatalogSection(c, section)
		return
	case "prompts":
		s.setPrompt(c)
		return
	}

	settings, err := s.loadSettings(c)
	if err != nil {
		return
	}
	updated := *settings

	switch section {
	case "global-deposit":
		if !bindInto(c, &updated.Deposit) {
			return
		}
	case "hil-mode":
		var body struct {
			HILAllReplies bool `json:"hil_all_llm_replies"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.HILAllReplies = body.HILAllReplies
	case "email-format":
		var body struct {
			EmailFormat string `json:"email_format" binding:"required,oneof=text html"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.EmailFormat = body.EmailFormat
	case "llm-provider":
		var body struct {
			LLMProvider string `json:"llm_provider" binding:"required"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.LLMProvider = body.LLMProvider
	case "pre-filter":
		var body struct {
			PreFilter bool `json:"pre_filter"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.PrefilterOn = &body.PreFilter
	case "detection-mode":
		var body struct {
			DetectionMode config.DetectionMode `json:"detection_mode" binding:"required,oneof=unified legacy"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.DetectionMode = body.DetectionMode
	case "venue":
		if !bindInto(c, &updated.Venue) {
			return
		}
	case "site-visit":
		if !bindInto(c, &updated.SiteVisit) {
			return
		}
	case "managers":
		var body struct {
			Managers []string `json:"managers"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.Managers = body.Managers
	case "faq":
		var body struct {
			FAQ []config.FAQEntry `json:"faq"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.FAQ = body.FAQ
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown config section"})
		return
	}

	if err := s.store.PutSettings(c.Request.Context(), tenant, &updated); err != nil {
		abortWithError(c, err)
		return
	}
	s.router.InvalidateSettings(tenant)
	c.JSON(http.StatusOK, gin.H{"updated": section})
}

// setCatalogSection replaces the catalog, or just its products or menus.
func (s *Server) setCatalogSection(c *gin.Context, section string) {
	tenant := tenantID(c)
	cat, err := s.loadCatalog(c)
	if err != nil {
		return
	}
	updated := *cat

	switch section {
	case "catalog":
		var body catalog.Catalog
		if !bindInto(c, &body) {
			return
		}
		updated = body
	case "products":
		var body struct {
			Products []catalog.Product `json:"products"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.Products = body.Products
	case "menus":
		var body struct {
			Menus []catalog.Product `json:"menus"`
		}
		if !bindInto(c, &body) {
			return
		}
		updated.Menus = body.Menus
	}

	if err := s.store.PutCatalog(c.Request.Context(), tenant, &updated); err != nil {
		abortWithError(c, err)
		return
	}
	s.router.InvalidateCatalog(tenant)
	c.JSON(http.StatusOK, gin.H{"updated": section})
}

// setPrompt saves a prompt override, pushing the previous value into the
// version history (latest MaxPromptHistory kept).
func (s *Server) setPrompt(c *gin.Context) {
	var req SetPromptRequest
	if !bindInto(c, &req) {
		return
	}
	ctx := c.Request.Context()
	tenant := tenantID(c)

	prompts, err := s.store.GetPrompts(ctx, tenant)
	if err != nil {
		abortWithError(c, err)
		return
	}

	prompt, ok := prompts[req.Key]
	if !ok {
		prompt = &config.PromptOverride{Key: req.Key}
	}
	if prompt.Value != "" {
		prompt.History = append(prompt.History, config.PromptVersion{
			Value:   prompt.Value,
			SavedAt: time.Now().UTC(),
			Author:  req.Author,
		})
		if n := len(prompt.History); n > config.MaxPromptHistory {
			prompt.History = prompt.History[n-config.MaxPromptHistory:]
		}
	}
	prompt.Value = req.Value

	if err := s.store.PutPrompt(ctx, tenant, prompt); err != nil {
		abortWithError(c, err)
		return
	}
	s.router.InvalidateSettings(tenant)
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "versions": len(prompt.History)})
}

// GetPromptHistory handles GET /api/v1/prompts/history/:key.
func (s *Server) GetPromptHistory(c *gin.Context) {
	prompts, err := s.store.GetPrompts(c.Request.Context(), tenantID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	prompt, ok := prompts[c.Param("key")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown prompt key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": prompt.Key, "value": prompt.Value, "history": prompt.History})
}

// RevertPrompt handles POST /api/v1/prompts/revert/:key/:idx.
func (s *Server) RevertPrompt(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := tenantID(c)

	prompts, err := s.store.GetPrompts(ctx, tenant)
	if err != nil {
		abortWithError(c, err)
		return
	}
	prompt, ok := prompts[c.Param("key")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown prompt key"})
		return
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 || idx >= len(prompt.History) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid history index"})
		return
	}

	prompt.History = append(prompt.History, config.PromptVersion{
		Value:   prompt.Value,
		SavedAt: time.Now().UTC(),
	})
	prompt.Value = prompt.History[idx].Value

	if err := s.store.PutPrompt(ctx, tenant, prompt); err != nil {
		abortWithError(c, err)
		return
	}
	s.router.InvalidateSettings(tenant)
	c.JSON(http.StatusOK, gin.H{"key": prompt.Key, "value": prompt.Value})
}

// loadSettings fetches the tenant settings, writing the HTTP error itself
// on failure. Missing settings fall back to an empty record.
func (s *Server) loadSettings(c *gin.Context) (*config.TenantSettings, error) {
	settings, err := s.store.GetSettings(c.Request.Context(), tenantID(c))
	if errors.Is(err, store.ErrNotFound) {
		return &config.TenantSettings{}, nil
	}
	if err != nil {
		abortWithError(c, err)
		return nil, err
	}
	return settings, nil
}

func (s *Server) loadCatalog(c *gin.Context) (*catalog.Catalog, error) {
	cat, err := s.store.GetCatalog(c.Request.Context(), tenantID(c))
	if errors.Is(err, store.ErrNotFound) {
		return &catalog.Catalog{}, nil
	}
	if err != nil {
		abortWithError(c, err)
		return nil, err
	}
	return cat, nil
}

// bindInto binds the JSON body, writing the 400 itself on failure.
func bindInto(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
