package annotation

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/russross/blackfriday/v2"
)

// ClassCount is the number of annotations of one class
type ClassCount struct {
	Class string
	Count int
}

// Report summarizes the annotation progress of a project
type Report struct {
	Description      string
	TotalImages      int
	AnnotatedImages  int
	CompletedImages  int
	TotalAnnotations int
	PerClass         []ClassCount
	Pending          []string
}

// CompletionRate is the fraction of images marked complete
func (r Report) CompletionRate() float64 {
	if r.TotalImages == 0 {
		return 0
	}
	return float64(r.CompletedImages) / float64(r.TotalImages)
}

// BuildReport computes statistics over the committed annotations of images
func BuildReport(config *Config, store *domain.Store, images []string) Report {
	ret := Report{TotalImages: len(images)}
	if config != nil {
		ret.Description = config.Meta.Description
	}
	perClass := map[string]int{}
	for _, imageID := range images {
		list, ok := store.Get(imageID)
		if !ok {
			ret.Pending = append(ret.Pending, imageID)
			continue
		}
		ret.AnnotatedImages++
		if store.IsComplete(imageID) {
			ret.CompletedImages++
		}
		for _, ann := range list {
			perClass[ann.ClassName]++
			ret.TotalAnnotations++
		}
	}
	for class, count := range perClass {
		ret.PerClass = append(ret.PerClass, ClassCount{Class: class, Count: count})
	}
	sort.Slice(ret.PerClass, func(i, j int) bool {
		if ret.PerClass[i].Count != ret.PerClass[j].Count {
			return ret.PerClass[i].Count > ret.PerClass[j].Count
		}
		return ret.PerClass[i].Class < ret.PerClass[j].Class
	})
	return ret
}

// Markdown renders the report
func (r Report) Markdown() string {
	var markdownBuilder strings.Builder
	fmt.Fprintf(&markdownBuilder, "# Annotation report\n\n")
	if r.Description != "" {
		fmt.Fprintf(&markdownBuilder, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(r.Description), "\n", "\n> "))
	}
	fmt.Fprintf(&markdownBuilder, "## Progress\n\n")
	fmt.Fprintf(&markdownBuilder, "- **Images:** %d\n", r.TotalImages)
	fmt.Fprintf(&markdownBuilder, "- **Annotated:** %d\n", r.AnnotatedImages)
	fmt.Fprintf(&markdownBuilder, "- **Complete:** %d (%.1f%%)\n", r.CompletedImages, r.CompletionRate()*100)
	fmt.Fprintf(&markdownBuilder, "- **Annotations:** %d\n\n", r.TotalAnnotations)
	if len(r.PerClass) > 0 {
		fmt.Fprintf(&markdownBuilder, "## Classes\n\n")
		fmt.Fprintf(&markdownBuilder, "| Class | Annotations |\n|---|---|\n")
		for _, c := range r.PerClass {
			fmt.Fprintf(&markdownBuilder, "| %s | %d |\n", escapeMarkdown(c.Class), c.Count)
		}
		fmt.Fprintf(&markdownBuilder, "\n")
	}
	if len(r.Pending) > 0 {
		fmt.Fprintf(&markdownBuilder, "## Without annotations\n\n")
		for _, imageID := range r.Pending {
			fmt.Fprintf(&markdownBuilder, "- [%s](/image/%s)\n", escapeMarkdown(imageID), url.PathEscape(imageID))
		}
	}
	return markdownBuilder.String()
}

// HTML renders the Markdown report as an HTML fragment
func (r Report) HTML() []byte {
	return renderMarkdown(r.Markdown())
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"(", `\(`, ")", `\)`, "#", `\#`, "|", `\|`, "<", `\<`, ">", `\>`,
	"&", `\&`, "!", `\!`, "~", `\~`,
)

// escapeMarkdown makes user supplied text render literally
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// renderMarkdown converts Markdown to HTML dropping any raw HTML in the input
func renderMarkdown(text string) []byte {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML,
	})
	return blackfriday.Run([]byte(text), blackfriday.WithRenderer(renderer))
}
