package swagger

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
)

const (
	DocsPath     = "/docs"
	SpecYAMLPath = "/docs/openapi.yml"
	SpecJSONPath = "/docs/openapi.json"

	uiVersion = "5.29.3"
)

// Register serves the Swagger UI for doc along with the contract in YAML
// and JSON form.
func Register(r chi.Router, doc *openapi3.T) error {
	specJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}

	title := "API docs"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}
	page := []byte(uiPage(title, SpecYAMLPath))

	r.Get(DocsPath, serveBytes("text/html; charset=utf-8", page))
	r.Get(SpecYAMLPath, serveBytes("application/yaml", apicontract.GetSpecBytes()))
	r.Get(SpecJSONPath, serveBytes("application/json", specJSON))

	return nil
}

func serveBytes(contentType string, b []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		w.Write(b)
	}
}

func uiPage(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>%[1]s</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@%[3]s/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@%[3]s/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '%[2]s',
      dom_id: '#swagger-ui',
      deepLinking: true,
      displayRequestDuration: true,
    });
  };
</script>
</body>
</html>
`, html.EscapeString(title), specPath, uiVersion)
}
