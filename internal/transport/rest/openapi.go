package rest

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIDocument is the parsed and validated API description. The raw
// bytes are served as-is so the Swagger UI sees exactly what was shipped.
type OpenAPIDocument struct {
	raw []byte
	doc *openapi3.T
}

func LoadOpenAPIDocument(ctx context.Context, data []byte) (*OpenAPIDocument, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return &OpenAPIDocument{raw: data, doc: doc}, nil
}

// Operations lists "METHOD /path" for every documented operation, sorted.
func (d *OpenAPIDocument) Operations() []string {
	var ops []string
	for path, item := range d.doc.Paths.Map() {
		for method := range item.Operations() {
			ops = append(ops, method+" "+path)
		}
	}
	sort.Strings(ops)
	return ops
}

func (d *OpenAPIDocument) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(d.raw)
}
