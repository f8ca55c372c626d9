package api

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

// GetSwagger は埋め込まれたOpenAPI定義を読み込んで検証する
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("OpenAPI定義の読み込みに失敗: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("OpenAPI定義が不正です: %w", err)
	}
	return doc, nil
}

// SpecYAML は埋め込まれたOpenAPI定義を返す
func SpecYAML() []byte {
	return specYAML
}
