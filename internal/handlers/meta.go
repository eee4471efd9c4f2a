package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/config"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/docs"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/pdf"
)

// MetaHandler serves the service-level endpoints: health, version and the
// API documentation in its various forms.
type MetaHandler struct{}

// NewMetaHandler constructs a MetaHandler.
func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

// MetaRouter registers the unversioned endpoints on the root router.
func MetaRouter(r chi.Router) {
	handler := NewMetaHandler()

	r.Get("/", handler.Root)
	r.Get("/favicon.ico", handler.Favicon)
	r.Get("/api/version", handler.Version)
	r.Get("/api/docs", handler.Docs)
	r.Get("/api/docs/openapi.json", handler.OpenAPI)
}

// SystemRouter registers the versioned system endpoints.
func SystemRouter(r chi.Router) {
	handler := NewMetaHandler()

	r.Get("/health", handler.Health)
	r.Get("/swagger-doc", handler.SwaggerDoc)
}

// Root redirects browsers to the interactive documentation.
func (h *MetaHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/api/docs", http.StatusFound)
}

// Favicon serves the embedded site icon.
func (h *MetaHandler) Favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/x-icon")
	_, _ = w.Write(docs.Favicon())
}

// Version reports the API version as plain text.
func (h *MetaHandler) Version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(config.Version))
}

// Health answers liveness probes.
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Docs serves the Swagger UI page.
func (h *MetaHandler) Docs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(docs.SwaggerHTML())
}

// OpenAPI serves the raw OpenAPI document.
func (h *MetaHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(docs.OpenAPI())
}

// SwaggerDoc renders a printable endpoint reference, as an HTML page by
// default or as a PDF with ?format=pdf.
func (h *MetaHandler) SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	title, version, endpoints, err := docs.Endpoints()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "No s'ha pogut llegir la documentació.")
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "html":
		h.writeGuideHTML(w, title, version, endpoints)
	case "pdf":
		h.writeGuidePDF(w, title, version, endpoints)
	default:
		writeError(w, http.StatusUnprocessableEntity, "Només s'admeten els formats html i pdf.")
	}
}

func (h *MetaHandler) writeGuideHTML(w http.ResponseWriter, title, version string, endpoints []docs.Endpoint) {
	page := guidePage{Title: title, Version: version}
	for _, endpoint := range endpoints {
		if len(page.Sections) == 0 || page.Sections[len(page.Sections)-1].Tag != endpoint.Tag {
			page.Sections = append(page.Sections, guideSection{Tag: endpoint.Tag})
		}
		last := &page.Sections[len(page.Sections)-1]
		last.Endpoints = append(last.Endpoints, endpoint)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := guideTemplate.Execute(w, page); err != nil {
		writeError(w, http.StatusInternalServerError, "No s'ha pogut generar la documentació.")
	}
}

func (h *MetaHandler) writeGuidePDF(w http.ResponseWriter, title, version string, endpoints []docs.Endpoint) {
	guideEndpoints := make([]pdf.EndpointDoc, 0, len(endpoints))
	for _, endpoint := range endpoints {
		guideEndpoints = append(guideEndpoints, pdf.EndpointDoc{
			Method:  endpoint.Method,
			Path:    endpoint.Path,
			Summary: endpoint.Summary,
			Tag:     endpoint.Tag,
		})
	}

	content, err := pdf.RenderAPIGuide(title, version, guideEndpoints)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "No s'ha pogut generar la documentació.")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="api_guide.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

type guidePage struct {
	Title    string
	Version  string
	Sections []guideSection
}

type guideSection struct {
	Tag       string
	Endpoints []docs.Endpoint
}

var guideTemplate = template.Must(template.New("guide").Parse(`<!DOCTYPE html>
<html lang="ca">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; padding: 0 1rem; color: #1a1a2e; }
h1 { border-bottom: 3px solid #2850a0; padding-bottom: .3rem; }
h2 { color: #2850a0; margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #d0d4e0; padding: .4rem .6rem; text-align: left; vertical-align: top; }
th { background: #eef1f8; }
td.method { font-family: ui-monospace, monospace; font-weight: 600; white-space: nowrap; }
td.path { font-family: ui-monospace, monospace; white-space: nowrap; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Versió {{.Version}}</p>
{{range .Sections}}
<h2>{{.Tag}}</h2>
<table>
<tr><th>Mètode</th><th>Ruta</th><th>Descripció</th></tr>
{{range .Endpoints}}<tr><td class="method">{{.Method}}</td><td class="path">{{.Path}}</td><td>{{.Summary}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))
