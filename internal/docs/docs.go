// Package docs embeds and serves the API documentation: the OpenAPI
// document, the Swagger UI page and the favicon.
package docs

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed openapi.json swagger.html favicon.ico
var content embed.FS

// OpenAPI returns the raw OpenAPI 3 document.
func OpenAPI() []byte {
	return mustRead("openapi.json")
}

// SwaggerHTML returns the interactive documentation page.
func SwaggerHTML() []byte {
	return mustRead("swagger.html")
}

// Favicon returns the site icon.
func Favicon() []byte {
	return mustRead("favicon.ico")
}

func mustRead(name string) []byte {
	data, err := content.ReadFile(name)
	if err != nil {
		// The files are compiled in; a failure here is a build defect.
		panic(fmt.Sprintf("docs: missing embedded file %s: %v", name, err))
	}
	return data
}

// Endpoint is one operation of the API surface, extracted from the embedded
// document for the condensed guide views.
type Endpoint struct {
	Method  string
	Path    string
	Summary string
	Tag     string
}

type openAPIDoc struct {
	Info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Paths map[string]map[string]struct {
		Summary string   `json:"summary"`
		Tags    []string `json:"tags"`
	} `json:"paths"`
}

var methodOrder = map[string]int{"get": 0, "post": 1, "put": 2, "patch": 3, "delete": 4}

// Endpoints flattens the embedded document into an ordered operation list:
// tags in declaration order, paths alphabetically inside a tag, methods in
// REST order inside a path.
func Endpoints() (title, version string, endpoints []Endpoint, err error) {
	var doc openAPIDoc
	if err := json.Unmarshal(OpenAPI(), &doc); err != nil {
		return "", "", nil, fmt.Errorf("parse openapi document: %w", err)
	}
	tagRank := make(map[string]int, len(doc.Tags))
	for i, tag := range doc.Tags {
		tagRank[tag.Name] = i
	}
	for path, operations := range doc.Paths {
		for method, operation := range operations {
			if _, known := methodOrder[method]; !known {
				continue
			}
			tag := ""
			if len(operation.Tags) > 0 {
				tag = operation.Tags[0]
			}
			endpoints = append(endpoints, Endpoint{
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: operation.Summary,
				Tag:     tag,
			})
		}
	}
	sort.Slice(endpoints, func(i, j int) bool {
		ti, tj := tagRank[endpoints[i].Tag], tagRank[endpoints[j].Tag]
		if ti != tj {
			return ti < tj
		}
		if endpoints[i].Path != endpoints[j].Path {
			return endpoints[i].Path < endpoints[j].Path
		}
		return methodOrder[strings.ToLower(endpoints[i].Method)] < methodOrder[strings.ToLower(endpoints[j].Method)]
	})
	return doc.Info.Title, doc.Info.Version, endpoints, nil
}
