package annotation

import (
	"html/template"
	"io"
)

var (
	// TemplateFuncMap contains custom template functions available to pages
	TemplateFuncMap = template.FuncMap{
		"markdown": func(text string) template.HTML {
			return template.HTML(renderMarkdown(text))
		},
	}

	pageTemplate = template.Must(template.New("page").Funcs(TemplateFuncMap).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - demarcador</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; padding: 0 1em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.2em 0.6em; }
</style>
</head>
<body>
{{markdown .Content}}
</body>
</html>
`))
)

// TemplateContent is the data of a rendered page
type TemplateContent struct {
	Title   string
	Content string
}

// ExecTemplate renders a Markdown page
func ExecTemplate(w io.Writer, content TemplateContent) error {
	return pageTemplate.Execute(w, content)
}
