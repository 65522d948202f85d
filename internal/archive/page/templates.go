package page

import (
	"bytes"
	"fmt"
	"html/template"
)

var archiveTemplate = template.Must(template.New("archive").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Conference archive {{.Year}}</title>
{{.Head}}</head>
<body class="archive archive-{{.Mode}}">
<nav class="archive-banner">
<span>You are viewing the {{.Year}} conference archive.</span>
<a href="/">Return to the current conference site</a>
</nav>
{{if eq .Mode "iframe"}}<iframe class="archive-frame" src="{{.LegacyURL}}" title="Conference archive {{.Year}}" style="border:0;width:100%;height:calc(100vh - 3rem)"></iframe>
{{else}}<main class="archive-content">
{{.Body}}
</main>
{{end}}</body>
</html>
`))

type view struct {
	Year      string
	Mode      string
	Head      template.HTML
	Body      template.HTML
	LegacyURL string
}

// renderRewritten embeds rewritten legacy markup. The markup is trusted:
// it comes from the legacy origin, not from users.
func renderRewritten(year, head, body string) ([]byte, error) {
	return render(view{
		Year: year,
		Mode: "rewritten",
		Head: template.HTML(head), //nolint:gosec // trusted legacy origin
		Body: template.HTML(body), //nolint:gosec // trusted legacy origin
	})
}

func renderIframe(year, legacyURL string) ([]byte, error) {
	return render(view{
		Year:      year,
		Mode:      "iframe",
		LegacyURL: legacyURL,
	})
}

func render(v view) ([]byte, error) {
	var buf bytes.Buffer
	if err := archiveTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render archive page: %w", err)
	}
	return buf.Bytes(), nil
}
