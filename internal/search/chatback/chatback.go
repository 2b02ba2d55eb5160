// Package chatback implements C11 ChatBack Generator: translates a
// ResponsePlan into one localized assistant sentence, enforcing a strict
// forbidden-phrase behavioral contract with a bounded retry.
package chatback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/metrics"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// Timeout bounds a single ChatBack LLM call.
const Timeout = 3 * time.Second

// Temperature is the sampling temperature ("≈ 0.7").
const Temperature = 0.7

// Mode is the generated message's register.
type Mode string

const (
	ModeNormal   Mode = "NORMAL"
	ModeRecovery Mode = "RECOVERY"
)

// Generator runs the ChatBack LLM call and enforces the forbidden-phrase
// retry-then-template safety net.
type Generator struct {
	llm    llmclient.Client
	schema llmclient.Schema
}

// New constructs a Generator, failing fast on schema self-check error.
func New(llm llmclient.Client) (*Generator, error) {
	schema, err := buildSchema()
	if err != nil {
		return nil, fmt.Errorf("chatback generator: %w", err)
	}
	return &Generator{llm: llm, schema: schema}, nil
}

type wireMessage struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// Result is the finalized message plus the hash to remember in the
// session's variation window.
type Result struct {
	Message      string
	Mode         Mode
	Hash         string
	UsedTemplate bool
}

// Generate produces the ≤200-char localized message for plan, consulting
// memory to vary wording across turns. It never returns an error: LLM
// failure, transport timeout, and a second forbidden-phrase violation all
// degrade to the deterministic i18n template, per its three-layer net.
func (g *Generator) Generate(ctx context.Context, plan models.ResponsePlan, lang models.Language, memory *models.ChatBackMemoryWindow, templateArgs ...any) Result {
	systemPrompt := buildSystemPrompt(plan, lang, false)
	msg, mode, ok := g.attempt(ctx, systemPrompt, plan)

	if ok {
		if hit := ForbiddenHit(msg, lang); hit != "" {
			logger.Log.Warn("chatback message hit forbidden phrase, retrying with stricter prompt", zap.String("phrase", hit))
			metrics.ChatBackForbiddenRetryTotal.WithLabelValues("retry").Inc()
			strictPrompt := buildSystemPrompt(plan, lang, true)
			msg, mode, ok = g.attempt(ctx, strictPrompt, plan)
		}
	}

	if ok {
		if hit := ForbiddenHit(msg, lang); hit != "" {
			logger.Log.Warn("chatback message hit forbidden phrase twice, falling back to template", zap.String("phrase", hit))
			metrics.ChatBackForbiddenRetryTotal.WithLabelValues("template_fallback").Inc()
			ok = false
		}
	}

	var usedTemplate bool
	if !ok {
		msg = Render(lang, plan.Scenario, templateArgs...)
		mode = string(ModeNormal)
		usedTemplate = true
		metrics.LLMCallTotal.WithLabelValues("chatback", "fallback").Inc()
	} else {
		metrics.LLMCallTotal.WithLabelValues("chatback", "ok").Inc()
	}

	if memory != nil && memory.Contains(hashMessage(msg)) && !usedTemplate {
		// Same message sent recently; nudge toward the template variant so
		// wording actually varies across turns rather than repeating.
		msg = Render(lang, plan.Scenario, templateArgs...)
		usedTemplate = true
	}

	hash := hashMessage(msg)
	if memory != nil {
		memory.Add(hash)
	}

	return Result{Message: truncate(msg, 200), Mode: Mode(mode), Hash: hash, UsedTemplate: usedTemplate}
}

func (g *Generator) attempt(ctx context.Context, systemPrompt string, plan models.ResponsePlan) (message, mode string, ok bool) {
	callCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	userPrompt, err := json.Marshal(plan)
	if err != nil {
		return "", "", false
	}

	resp, err := g.llm.Generate(callCtx, llmclient.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   string(userPrompt),
		Schema:       g.schema,
		Temperature:  Temperature,
		Timeout:      Timeout,
	})
	if err != nil {
		return "", "", false
	}

	var wire wireMessage
	if err := json.Unmarshal(resp.RawJSON, &wire); err != nil {
		return "", "", false
	}
	return wire.Message, wire.Mode, true
}

func buildSystemPrompt(plan models.ResponsePlan, lang models.Language, strict bool) string {
	base := fmt.Sprintf(
		"You are the ChatBack generator for a multilingual food-discovery assistant. "+
			"Write exactly one sentence in %s, at most 200 characters. "+
			"Reference concrete counts when present. Never mention hours, kosher status, "+
			"or parking unless given. Never use the words: no results, nothing found, "+
			"try again, confidence, API, data unavailable (or their equivalent in %s).",
		lang, lang,
	)
	if strict {
		base += " Your previous attempt violated this rule; rewrite it without any forbidden wording."
	}
	return base
}

func hashMessage(msg string) string {
	sum := sha256.Sum256([]byte(msg))
	return hex.EncodeToString(sum[:8])
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
