package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"accueil/internal/provider"
	"accueil/internal/registration/models"
	"accueil/pkg/requestcontext"
)

const (
	ProviderID = "gemini"

	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 60 * time.Second
)

// GeminiClient calls the Gemini generateContent endpoint with a response
// schema that pins the answer to the form's labels.
type GeminiClient struct {
	http    *resty.Client
	apiKey  string
	baseURL string
	model   string
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

type Option func(*GeminiClient)

func WithBaseURL(u string) Option {
	return func(c *GeminiClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithModel(model string) Option {
	return func(c *GeminiClient) {
		c.model = model
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *GeminiClient) {
		c.http.SetTimeout(d)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *GeminiClient) {
		c.metrics = m
	}
}

// NewGemini creates a client authenticated with apiKey.
func NewGemini(apiKey string, opts ...Option) *GeminiClient {
	c := &GeminiClient{
		http:    resty.New().SetTimeout(DefaultTimeout),
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		logger:  slog.Default(),
		tracer:  otel.Tracer("accueil/extraction"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
	ResponseSchema   schema `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
}

// Extract sends img to the model and returns the first form it reports.
func (c *GeminiClient) Extract(ctx context.Context, img Image) (models.FieldMap, error) {
	ctx, span := c.tracer.Start(ctx, "extraction.generate_content", trace.WithAttributes(
		attribute.String("gen_ai.request.model", c.model),
		attribute.Int("image.bytes", len(img.Data)),
	))
	defer span.End()

	start := time.Now()
	fields, err := c.extract(ctx, img)
	outcome := "ok"
	if err != nil {
		outcome = string(provider.GetCategory(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	c.metrics.observe(outcome, start)
	c.logger.InfoContext(ctx, "form extraction finished",
		"model", c.model,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return fields, err
}

func (c *GeminiClient) extract(ctx context.Context, img Image) (models.FieldMap, error) {
	if len(img.Data) == 0 {
		return nil, provider.NewError(provider.ErrorBadData, ProviderID, "image is empty", nil)
	}
	mime := img.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: Prompt},
				{InlineData: &inlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(img.Data)}},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}

	var resp generateResponse
	rr, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(body).
		SetResult(&resp).
		Post(c.endpoint())
	if err != nil {
		return nil, provider.FromTransport(ProviderID, err)
	}
	if rr.IsError() {
		return nil, provider.FromStatus(ProviderID, rr.StatusCode(), rr.String())
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	forms, err := parseForms(text)
	if err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, provider.NewError(provider.ErrorNoFormDetected, ProviderID, "model returned no form", ErrNoFormDetected)
	}
	if len(forms) > 1 {
		c.logger.WarnContext(ctx, "model returned several forms, using the first",
			"forms", len(forms),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return forms[0].Normalize(), nil
}

func responseText(resp generateResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", provider.NewError(provider.ErrorBadData, ProviderID,
			"request blocked: "+resp.PromptFeedback.BlockReason, nil)
	}
	if len(resp.Candidates) == 0 {
		return "", provider.NewError(provider.ErrorBadData, ProviderID, "response has no candidates", nil)
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		reason := resp.Candidates[0].FinishReason
		return "", provider.NewError(provider.ErrorBadData, ProviderID, "candidate has no text (finish reason "+reason+")", nil)
	}
	return text, nil
}

// parseForms decodes the model's JSON answer. A bare object is accepted as
// a single form.
func parseForms(text string) ([]models.FieldMap, error) {
	var raw []map[string]any
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		var one map[string]any
		if err := decodeJSON(trimmed, &one); err != nil {
			return nil, provider.NewError(provider.ErrorBadData, ProviderID, "malformed model output", err)
		}
		raw = []map[string]any{one}
	} else if err := decodeJSON(trimmed, &raw); err != nil {
		return nil, provider.NewError(provider.ErrorBadData, ProviderID, "malformed model output", err)
	}

	forms := make([]models.FieldMap, 0, len(raw))
	for _, obj := range raw {
		fm := make(models.FieldMap, len(obj))
		for k, v := range obj {
			fm[k] = stringify(v)
		}
		forms = append(forms, fm)
	}
	return forms, nil
}

func decodeJSON(text string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	return dec.Decode(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
