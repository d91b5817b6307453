package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-billy/v6"
	"github.com/ollama/ollama/api"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/geometry"
	"github.com/lewtec/demarcador/internal/imagemeta"
)

// DefaultOllamaPrompt asks for every visible object
const DefaultOllamaPrompt = `Detect the objects in this image.
Answer only with JSON of the form {"objects": [{"label": "...", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}]}
where box is the top-left corner and size of each object as fractions of the image width and height.`

const defaultOllamaTimeout = 300 * time.Second

// Ollama asks a vision model served by Ollama for bounding boxes
type Ollama struct {
	client *api.Client
	fs     billy.Filesystem
	dims   imagemeta.Provider
	Model  string
	Prompt string
	// Classes restricts the labels the model is told about
	Classes []string
}

// NewOllama creates a detector talking to the Ollama server at rawURL.
// Images are read from fs and their sizes come from dims.
func NewOllama(rawURL, model string, fs billy.Filesystem, dims imagemeta.Provider) (*Ollama, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid ollama URL %q: scheme and host are required", rawURL)
	}
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	return &Ollama{
		client: api.NewClient(baseURL, http.DefaultClient),
		fs:     fs,
		dims:   dims,
		Model:  model,
		Prompt: DefaultOllamaPrompt,
	}, nil
}

type ollamaBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type ollamaObject struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        ollamaBox `json:"box"`
}

type ollamaAnswer struct {
	Objects []ollamaObject `json:"objects"`
}

func (o *Ollama) prompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(o.Prompt)
	if req.Prompt != "" {
		fmt.Fprintf(&sb, "\nFocus on: %s", req.Prompt)
	}
	if req.AntiPrompt != "" {
		fmt.Fprintf(&sb, "\nIgnore: %s", req.AntiPrompt)
	}
	if req.ClassFilter != "" {
		fmt.Fprintf(&sb, "\nOnly report objects labelled %q.", req.ClassFilter)
	} else if len(o.Classes) > 0 {
		fmt.Fprintf(&sb, "\nUse only these labels: %s.", strings.Join(o.Classes, ", "))
	}
	return sb.String()
}

// Predict implements Detector
func (o *Ollama) Predict(ctx context.Context, req Request) ([]domain.Detection, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultOllamaTimeout)
		defer cancel()
	}

	f, err := o.fs.Open(req.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("while opening image: %w", err)
	}
	imgBytes, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("while reading image: %w", err)
	}

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model: o.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: o.prompt(req),
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: map[string]any{"temperature": 0},
	}

	var responseContent string
	err = o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if strings.TrimSpace(responseContent) == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	answer, err := parseAnswer(responseContent)
	if err != nil {
		return nil, err
	}
	w, h := o.dims.Dimensions(req.ImagePath)
	dets := make([]domain.Detection, 0, len(answer.Objects))
	for _, obj := range answer.Objects {
		if obj.Label == "" {
			continue
		}
		box := geometry.ClampToImage(domain.BBox{
			X1: int(obj.Box.X * float64(w)),
			Y1: int(obj.Box.Y * float64(h)),
			X2: int((obj.Box.X + obj.Box.W) * float64(w)),
			Y2: int((obj.Box.Y + obj.Box.H) * float64(h)),
		}, w, h)
		if box.Width() == 0 || box.Height() == 0 {
			continue
		}
		dets = append(dets, domain.Detection{
			ClassName:  obj.Label,
			BBox:       box,
			Confidence: min(max(obj.Confidence, 0), 1),
		})
	}
	log.Printf("detector: %s suggested %d objects for %s", o.Model, len(dets), req.ImagePath)
	return Filter(dets, req.ConfidenceThreshold, req.ClassFilter), nil
}

func parseAnswer(raw string) (*ollamaAnswer, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model answered without JSON: %.80q", raw)
	}
	var answer ollamaAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("while parsing model answer: %w", err)
	}
	return &answer, nil
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments and trailing commas
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")
	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// keep only the outermost object
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
