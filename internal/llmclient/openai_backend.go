package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"continuum/internal/domain"
)

// OpenAIBackend is the remote analysis backend, grounded on the same
// responses.New + strict json_schema structured-output contract the
// summarizer tooling in the corpus uses: the model is forced to emit
// exactly the shape affectSchema/summarySchema describe, so there is no
// free-text parsing to get wrong on the happy path.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAIBackend(apiKey, baseURL, model string, timeout time.Duration) *OpenAIBackend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, option.WithRequestTimeout(timeout))
	client := openai.NewClient(opts...)
	return &OpenAIBackend{client: &client, model: model}
}

func (b *OpenAIBackend) Name() string { return "openai:" + b.model }

type affectResponse struct {
	Pleasure   float64  `json:"pleasure" jsonschema:"minimum=-1,maximum=1"`
	Arousal    float64  `json:"arousal" jsonschema:"minimum=-1,maximum=1"`
	Dominance  float64  `json:"dominance" jsonschema:"minimum=-1,maximum=1"`
	PrimaryTag string   `json:"primary_tag"`
	Secondary  []string `json:"secondary"`
	Confidence float64  `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

var (
	affectSchema  = generateSchema[affectResponse]()
	summarySchema = generateSchema[summaryResponse]()
)

const affectInstructions = `You are an affective-analysis backend for a persistent memory system.
Given a short window of conversation turns, estimate a pleasure-arousal-dominance
vector for the final message, a primary emotion tag, up to 3 secondary tags, and
your confidence. Return only the JSON object matching the schema.`

const summaryInstructions = `You condense a batch of memory entries into one short,
third-person narrative paragraph capturing what happened and why it mattered.
Return only the JSON object matching the schema.`

func (b *OpenAIBackend) ScoreAffect(ctx context.Context, window []domain.Message) (domain.RawAffect, error) {
	input := renderWindow(window)
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "AffectAssessment",
			Schema:      affectSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("PAD affect assessment"),
			Type:        "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model:        b.model,
		Instructions: openai.String(affectInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{Format: format},
	}

	resp, err := b.client.Responses.New(ctx, params)
	if err != nil {
		return domain.RawAffect{}, &Unavailable{Backend: b.Name(), Err: err}
	}

	var parsed affectResponse
	if err := decodeModelJSON(resp.OutputText(), &parsed); err != nil {
		return domain.RawAffect{}, fmt.Errorf("llmclient: decode affect response: %w", err)
	}
	return domain.RawAffect{
		Pleasure:   parsed.Pleasure,
		Arousal:    parsed.Arousal,
		Dominance:  parsed.Dominance,
		PrimaryTag: parsed.PrimaryTag,
		Secondary:  parsed.Secondary,
		Confidence: parsed.Confidence,
	}, nil
}

func (b *OpenAIBackend) Summarize(ctx context.Context, entries []domain.MemoryEntry) (string, error) {
	input := renderEntries(entries)
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "EntrySummary",
			Schema:      summarySchema,
			Strict:      openai.Bool(true),
			Description: openai.String("narrative summary"),
			Type:        "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model:        b.model,
		Instructions: openai.String(summaryInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{Format: format},
	}

	resp, err := b.client.Responses.New(ctx, params)
	if err != nil {
		return "", &Unavailable{Backend: b.Name(), Err: err}
	}

	var parsed summaryResponse
	if err := decodeModelJSON(resp.OutputText(), &parsed); err != nil {
		return "", fmt.Errorf("llmclient: decode summary response: %w", err)
	}
	return strings.TrimSpace(parsed.Summary), nil
}

func renderWindow(window []domain.Message) string {
	var sb strings.Builder
	for _, m := range window {
		fmt.Fprintf(&sb, "%s: %s\n", m.Speaker, m.Content)
	}
	return sb.String()
}

func renderEntries(entries []domain.MemoryEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "- [%s] %s\n", e.Kind, e.Content)
	}
	return sb.String()
}

// decodeModelJSON tolerates models that wrap JSON in prose or markdown
// fences despite the strict schema contract, following the same
// fence-stripping + brace-scanning fallback the corpus's summarizer
// tooling uses for non-strict providers.
func decodeModelJSON(raw string, v any) error {
	cleaned := cleanFences(raw)
	if json.Valid([]byte(cleaned)) {
		return json.Unmarshal([]byte(cleaned), v)
	}

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(cleaned))
	}
	candidate := cleaned[start : end+1]

	if !gjson.Valid(candidate) {
		return fmt.Errorf("extracted candidate is not valid JSON")
	}
	normalized, err := sjson.SetRaw("{}", "payload", candidate)
	if err != nil {
		return fmt.Errorf("normalize candidate: %w", err)
	}
	return json.Unmarshal([]byte(gjson.Get(normalized, "payload").Raw), v)
}

func cleanFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "﻿")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: false,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}
