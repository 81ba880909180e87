package api

import (
	"bytes"
	"html/template"
	"net/http"
)

var scalarPage = template.Must(template.New("scalar").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>{{.Title}} - API Reference</title>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<style>body { margin: 0; padding: 0; }</style>
</head>
<body>
	<script id="api-reference" data-url="{{.SpecURL}}"></script>
	<script>
		var configuration = {
			theme: 'default',
			layout: 'modern',
			showSidebar: true,
			hideDownloadButton: false,
			metaData: {
				title: {{.Title}},
				description: {{.Description}}
			},
			servers: [{ url: window.location.origin, description: 'Current server' }]
		}
		document.getElementById('api-reference').dataset.configuration = JSON.stringify(configuration)
	</script>
	<script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`))

// ScalarHandler serves the Scalar API reference for the OpenAPI document at specURL.
func ScalarHandler(specURL, title, description string) http.Handler {
	var buf bytes.Buffer
	_ = scalarPage.Execute(&buf, struct {
		SpecURL     string
		Title       string
		Description string
	}{specURL, title, description})
	page := buf.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	})
}
