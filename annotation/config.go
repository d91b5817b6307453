package annotation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

const (
	FormatLines = "lines"
	FormatJSON  = "json"

	DetectorPlaceholder = "placeholder"
	DetectorOllama      = "ollama"
)

// ErrUnknownFormat is returned for an unsupported storage format
var ErrUnknownFormat = errors.New("unknown storage format")

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Config struct {
	Meta struct {
		Description string `yaml:"description"`
	} `yaml:"meta"`
	Classes  []string       `yaml:"classes"`
	Palette  []string       `yaml:"palette"`
	Editor   ConfigEditor   `yaml:"editor"`
	Images   ConfigImages   `yaml:"images"`
	Storage  ConfigStorage  `yaml:"storage"`
	Detector ConfigDetector `yaml:"detector"`
}

type ConfigEditor struct {
	MinBoxSize      int     `yaml:"min_box_size"`
	PasteOffset     int     `yaml:"paste_offset"`
	HandleTolerance float64 `yaml:"handle_tolerance"`
	MaxHistory      int     `yaml:"max_history"`
	MinDrawSize     int     `yaml:"min_draw_size"`
}

type ConfigImages struct {
	FallbackWidth  int `yaml:"fallback_width"`
	FallbackHeight int `yaml:"fallback_height"`
}

type ConfigStorage struct {
	Format          string `yaml:"format"`
	AnnotationsFile string `yaml:"annotations_file"`
	AnnotationsDir  string `yaml:"annotations_dir"`
	Database        string `yaml:"database"`
}

type ConfigDetector struct {
	Kind                 string  `yaml:"kind"`
	URL                  string  `yaml:"url"`
	Model                string  `yaml:"model"`
	Prompt               string  `yaml:"prompt"`
	ConfidenceThreshold  float64 `yaml:"confidence_threshold"`
	AutoApproveThreshold float64 `yaml:"auto_approve_threshold"`
	Jobs                 int     `yaml:"jobs"`
}

// DefaultConfig returns a configuration with every default filled in
func DefaultConfig() *Config {
	var ret Config
	ret.applyDefaults()
	return &ret
}

func (c *Config) applyDefaults() {
	if len(c.Palette) == 0 {
		c.Palette = []string{"#ff4444", "#44ff44", "#4444ff", "#ffff44", "#ff44ff", "#44ffff"}
	}
	if c.Editor.MinBoxSize == 0 {
		c.Editor.MinBoxSize = 10
	}
	if c.Editor.PasteOffset == 0 {
		c.Editor.PasteOffset = 20
	}
	if c.Editor.HandleTolerance == 0 {
		c.Editor.HandleTolerance = 8
	}
	if c.Editor.MaxHistory == 0 {
		c.Editor.MaxHistory = 50
	}
	if c.Editor.MinDrawSize == 0 {
		c.Editor.MinDrawSize = 5
	}
	if c.Images.FallbackWidth == 0 {
		c.Images.FallbackWidth = 640
	}
	if c.Images.FallbackHeight == 0 {
		c.Images.FallbackHeight = 480
	}
	if c.Storage.Format == "" {
		c.Storage.Format = FormatLines
	}
	if c.Storage.AnnotationsFile == "" {
		c.Storage.AnnotationsFile = "annotations.txt"
	}
	if c.Storage.AnnotationsDir == "" {
		c.Storage.AnnotationsDir = "annotations"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "annotations.db"
	}
	if c.Detector.Kind == "" {
		c.Detector.Kind = DetectorPlaceholder
	}
	if c.Detector.URL == "" {
		c.Detector.URL = "http://localhost:11434"
	}
	if c.Detector.ConfidenceThreshold == 0 {
		c.Detector.ConfidenceThreshold = 0.5
	}
	if c.Detector.AutoApproveThreshold == 0 {
		c.Detector.AutoApproveThreshold = 0.9
	}
	if c.Detector.Jobs == 0 {
		c.Detector.Jobs = 2
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	for i, class := range c.Classes {
		if class == "" {
			return fmt.Errorf("class %d has an empty name", i)
		}
	}
	for _, color := range c.Palette {
		if !colorPattern.MatchString(color) {
			return fmt.Errorf("palette color %q is not in #rrggbb form", color)
		}
	}
	if c.Editor.MinBoxSize < 0 || c.Editor.PasteOffset < 0 || c.Editor.HandleTolerance < 0 ||
		c.Editor.MaxHistory < 0 || c.Editor.MinDrawSize < 0 {
		return fmt.Errorf("editor settings must not be negative")
	}
	if c.Images.FallbackWidth < 0 || c.Images.FallbackHeight < 0 {
		return fmt.Errorf("fallback image size must not be negative")
	}
	switch c.Storage.Format {
	case FormatLines, FormatJSON:
	default:
		return fmt.Errorf("storage format %q: %w", c.Storage.Format, ErrUnknownFormat)
	}
	switch c.Detector.Kind {
	case DetectorPlaceholder:
	case DetectorOllama:
		if c.Detector.Model == "" {
			return fmt.Errorf("detector kind ollama requires a model")
		}
	default:
		return fmt.Errorf("unknown detector kind %q", c.Detector.Kind)
	}
	for name, v := range map[string]float64{
		"confidence_threshold":   c.Detector.ConfidenceThreshold,
		"auto_approve_threshold": c.Detector.AutoApproveThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("detector %s must be between 0 and 1, got %v", name, v)
		}
	}
	if c.Detector.Jobs < 0 {
		return fmt.Errorf("detector jobs must not be negative")
	}
	return nil
}

// DefaultClass is the class given to newly drawn boxes
func (c *Config) DefaultClass() string {
	if len(c.Classes) == 0 {
		return "object"
	}
	return c.Classes[0]
}

// ParseConfig decodes a YAML configuration, fills defaults and validates it
func ParseConfig(data []byte) (*Config, error) {
	var ret Config
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("while parsing config: %w", err)
	}
	ret.applyDefaults()
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}

func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// SampleConfig is written by `init` for new projects
const SampleConfig = `# demarcador project configuration

meta:
  description: |
    Sample annotation project.
    Edit this description to explain what you're annotating.

# Classes offered for new boxes. The first one is the default.
classes:
  - person
  - car
  - dog

# Colors handed out to new boxes, in order
palette: ["#ff4444", "#44ff44", "#4444ff", "#ffff44", "#ff44ff", "#44ffff"]

editor:
  min_box_size: 10      # smallest width and height kept while editing
  paste_offset: 20      # shift applied to pasted boxes
  handle_tolerance: 8   # resize handle hit radius, in screen pixels
  max_history: 50       # undo steps kept per image
  min_draw_size: 5      # drags smaller than this don't create a box

# Size assumed for images whose header can't be read
images:
  fallback_width: 640
  fallback_height: 480

storage:
  format: lines                 # lines (annotations.txt) or json (one file per image)
  annotations_file: annotations.txt
  annotations_dir: annotations
  database: annotations.db

detector:
  kind: placeholder             # placeholder or ollama
  # url: http://localhost:11434
  # model: llava
  confidence_threshold: 0.5
  auto_approve_threshold: 0.9
  jobs: 2
`

// WriteSampleConfig creates filename with SampleConfig
func WriteSampleConfig(filename string) error {
	return os.WriteFile(filename, []byte(SampleConfig), 0644)
}
