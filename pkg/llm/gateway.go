// Package llm models the LLM provider as a capability with two operations,
// complete and structured, threaded through the request context. Providers
// are registered by name and chosen per tenant and operation.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/venueflow/venueflow/pkg/config"
)

// Operation names the call sites so providers can be picked per operation.
type Operation string

const (
	OpIntent    Operation = "intent"
	OpEntity    Operation = "entity"
	OpUnified   Operation = "unified"
	OpVerbalize Operation = "verbalize"
)

// Provider is one backing LLM. Implementations wrap an SDK or a dev stub.
type Provider interface {
	// Complete returns free text for a prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Structured returns a JSON object for a prompt. The gateway validates
	// it against the supplied schema.
	Structured(ctx context.Context, prompt string) (json.RawMessage, error)
}

// Gateway fronts all providers with timeout, bounded retry, and schema
// validation. One gateway serves all tenants; the provider name comes from
// tenant settings.
type Gateway struct {
	cfg       *config.LLMConfig
	providers map[string]Provider
}

// NewGateway creates a gateway with no providers registered.
func NewGateway(cfg *config.LLMConfig) *Gateway {
	if cfg == nil {
		panic("NewGateway: cfg must not be nil")
	}
	return &Gateway{cfg: cfg, providers: make(map[string]Provider)}
}

// Register adds a named provider.
func (g *Gateway) Register(name string, p Provider) {
	g.providers[name] = p
}

func (g *Gateway) provider(name string) (Provider, error) {
	if name == "" {
		name = g.cfg.DefaultProvider
	}
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm provider %q not registered", name)
	}
	return p, nil
}

// Complete runs a free-text completion with timeout and single retry.
func (g *Gateway) Complete(ctx context.Context, providerName string, op Operation, prompt string) (string, error) {
	p, err := g.provider(providerName)
	if err != nil {
		return "", err
	}
	var out string
	err = g.withRetry(ctx, op, func(callCtx context.Context) error {
		var callErr error
		out, callErr = p.Complete(callCtx, prompt)
		return callErr
	})
	return out, err
}

// Structured runs a structured completion, validating the returned object
// against schema. A malformed or invalid response counts as a failed
// attempt and is retried once.
func (g *Gateway) Structured(ctx context.Context, providerName string, op Operation, prompt string, schema *jsonschema.Schema) (json.RawMessage, error) {
	p, err := g.provider(providerName)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = g.withRetry(ctx, op, func(callCtx context.Context) error {
		raw, callErr := p.Structured(callCtx, prompt)
		if callErr != nil {
			return callErr
		}
		if schema != nil {
			var v any
			if callErr := json.Unmarshal(raw, &v); callErr != nil {
				return fmt.Errorf("malformed JSON from provider: %w", callErr)
			}
			if callErr := schema.Validate(v); callErr != nil {
				return fmt.Errorf("provider response failed schema validation: %w", callErr)
			}
		}
		out = raw
		return nil
	})
	return out, err
}

// withRetry applies the hard timeout per attempt and retries transient
// failures up to cfg.MaxRetries additional times.
func (g *Gateway) withRetry(ctx context.Context, op Operation, fn func(ctx context.Context) error) error {
	attempts := g.cfg.MaxRetries + 1
	delay := 250 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("LLM call failed",
			"operation", string(op), "attempt", attempt, "error", err)

		if attempt < attempts {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// MustCompileSchema compiles an embedded JSON schema; invalid schemas are a
// programming error.
func MustCompileSchema(name, schemaJSON string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, jsonReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("llm: invalid schema %s: %v", name, err))
	}
	return c.MustCompile(name)
}
