// Package enrich asks an Anthropic model for current, best-effort facts
// about a single POI. Enrichment is strictly additive: every field of the
// result is optional and a failure never degrades the stored POI.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/trailbeacon/sheltermap/internal/poi"
	"github.com/trailbeacon/sheltermap/internal/resilience"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// recordVersion is bumped whenever the Enrichment schema changes shape.
const recordVersion = 1

// Messenger is the single model operation the enricher depends on.
type Messenger interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is our own request type for CreateMessage.
type MessageRequest struct {
	Model     string
	MaxTokens int64
	System    string
	Messages  []Message
}

// Message represents a single conversational message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// MessageResponse is our own response type from CreateMessage.
type MessageResponse struct {
	ID         string
	Model      string
	Content    []ContentBlock
	StopReason string
	Usage      TokenUsage
}

// ContentBlock represents a block of content in a response.
type ContentBlock struct {
	Type string
	Text string
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// sdkClient implements Messenger using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a Messenger backed by the SDK.
func NewClient(apiKey string) Messenger {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
	}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: create message")
	}
	return fromSDKMessage(msg), nil
}

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	blocks := make([]ContentBlock, 0, len(msg.Content))
	for _, b := range msg.Content {
		blocks = append(blocks, ContentBlock{Type: b.Type, Text: b.Text})
	}
	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Content:    blocks,
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}

// Enrichment is one versioned, all-optional record about a POI. Pointer
// fields distinguish "unknown" from an explicit false or empty answer.
type Enrichment struct {
	Version     int         `json:"version"`
	POIID       string      `json:"poi_id"`
	Signal      *poi.Signal `json:"signal,omitempty"`
	Open        *bool       `json:"open,omitempty"`
	HasWater    *bool       `json:"has_water,omitempty"`
	Note        string      `json:"note,omitempty"`
	Link        string      `json:"link,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
}

const systemPrompt = `You report current conditions at alpine shelters and water sources.
Answer with a single JSON object and nothing else. Schema:
{"signal":"none|poor|fair|good"|null,"open":true|false|null,"has_water":true|false|null,"note":"short free text or empty","link":"one reference URL or empty"}
Use null for anything you do not know. Never guess.`

// Config tunes the enricher.
type Config struct {
	Model     string
	MaxTokens int64
	// Timeout bounds one Enrich call including retries. 0 means no bound
	// beyond the caller's context.
	Timeout time.Duration
	Retry   resilience.RetryConfig
}

// Enricher produces Enrichment records via a Messenger.
type Enricher struct {
	client Messenger
	cfg    Config
	log    *zap.Logger
}

// NewEnricher creates an enricher. Zero-value config fields get defaults.
func NewEnricher(client Messenger, cfg Config) *Enricher {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return &Enricher{
		client: client,
		cfg:    cfg,
		log:    zap.L().With(zap.String("component", "enrich")),
	}
}

// Enrich asks the model about one POI and parses the reply. Transient
// failures are retried; any terminal failure is returned to the caller,
// which treats it as "no enrichment available".
func (e *Enricher) Enrich(ctx context.Context, p poi.POI) (*Enrichment, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(
		"POI: %s (%s) at lat %.5f lon %.5f, altitude %dm. What are the current conditions?",
		p.Name, p.Type, p.Latitude, p.Longitude, p.Altitude,
	)

	resp, err := resilience.DoVal(ctx, e.cfg.Retry, func(ctx context.Context) (*MessageResponse, error) {
		return e.client.CreateMessage(ctx, MessageRequest{
			Model:     e.cfg.Model,
			MaxTokens: e.cfg.MaxTokens,
			System:    systemPrompt,
			Messages:  []Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		e.log.Warn("enrichment request failed",
			zap.String("poi_id", p.ID),
			zap.Error(err),
		)
		return nil, eris.Wrap(err, "enrich: request")
	}

	rec, err := parseReply(resp)
	if err != nil {
		e.log.Warn("enrichment reply unparseable",
			zap.String("poi_id", p.ID),
			zap.Error(err),
		)
		return nil, err
	}

	rec.Version = recordVersion
	rec.POIID = p.ID
	rec.GeneratedAt = time.Now().UTC()

	e.log.Debug("poi enriched",
		zap.String("poi_id", p.ID),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return rec, nil
}

// replyBody mirrors the JSON schema the model is instructed to emit.
type replyBody struct {
	Signal   *string `json:"signal"`
	Open     *bool   `json:"open"`
	HasWater *bool   `json:"has_water"`
	Note     string  `json:"note"`
	Link     string  `json:"link"`
}

func parseReply(resp *MessageResponse) (*Enrichment, error) {
	var text string
	for _, b := range resp.Content {
		if b.Type == "text" {
			text = b.Text
			break
		}
	}
	if text == "" {
		return nil, eris.New("enrich: reply has no text content")
	}

	var body replyBody
	if err := json.Unmarshal([]byte(stripFences(text)), &body); err != nil {
		return nil, eris.Wrap(err, "enrich: parse reply")
	}

	rec := &Enrichment{
		Open:     body.Open,
		HasWater: body.HasWater,
		Note:     strings.TrimSpace(body.Note),
		Link:     strings.TrimSpace(body.Link),
	}
	if body.Signal != nil {
		sig := poi.Signal(strings.ToLower(strings.TrimSpace(*body.Signal)))
		switch sig {
		case poi.SignalNone, poi.SignalPoor, poi.SignalFair, poi.SignalGood:
			rec.Signal = &sig
		default:
			return nil, eris.Errorf("enrich: invalid signal value %q", *body.Signal)
		}
	}
	return rec, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
