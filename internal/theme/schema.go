package theme

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaNotRegistered は指定テーマIDのスキーマが未登録であることを示す。
var ErrSchemaNotRegistered = errors.New("theme schema not registered")

// Validator はテーマIDごとに登録されたJSONスキーマでtheme_dataを検証する。
// スキーマは起動時に1回コンパイルされ、以後は並行読み取りのみ。
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator は組み込みテーマのスキーマをコンパイルしたValidatorを生成する。
// 組み込みスキーマのコンパイル失敗はエラーとして返す。
func NewValidator() (*Validator, error) {
	schemas := make(map[string]*jsonschema.Schema, len(themeSchemas))
	for id, src := range themeSchemas {
		schema, err := jsonschema.CompileString(id+".schema.json", src)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for theme %q: %w", id, err)
		}
		schemas[id] = schema
	}
	return &Validator{schemas: schemas}, nil
}

// Validate はtheme_dataドキュメントをテーマのスキーマで検証し、
// 検証済みドキュメントを返す。入力は変更しない。
// config_versionは検証前に必ず "v1" で注入・上書きされる。
// スキーマ未登録のテーマIDにはErrSchemaNotRegisteredを返す。
func (v *Validator) Validate(themeID string, doc map[string]any) (map[string]any, error) {
	schema, ok := v.schemas[themeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotRegistered, themeID)
	}

	normalized := make(map[string]any, len(doc)+1)
	for k, val := range doc {
		normalized[k] = val
	}
	normalized["config_version"] = "v1"

	// jsonschemaはJSONデコード済みの値（数値はfloat64等）を要求するため、
	// 一度JSONを経由して正規化する。
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal theme data: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal theme data: %w", err)
	}

	if err := schema.Validate(decoded); err != nil {
		return nil, err
	}

	validated, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("theme data is not an object")
	}
	return validated, nil
}

// ValidationReason は検証エラーからユーザー提示用の理由文字列を抽出する。
func ValidationReason(err error) string {
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		leaf := verr
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		if leaf.InstanceLocation != "" {
			return fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Message)
		}
		return leaf.Message
	}
	return err.Error()
}

// themeSchemas は組み込みテーマのtheme_dataスキーマ定義。
// すべてのスキーマはconfig_version="v1"を必須とする。
var themeSchemas = map[string]string{
	"quickpitch": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["config_version", "headline"],
		"properties": {
			"config_version": {"const": "v1"},
			"headline": {"type": "string", "minLength": 1, "maxLength": 120},
			"subhead": {"type": "string", "maxLength": 200},
			"ctaLabel": {"type": "string", "maxLength": 40}
		}
	}`,

	"linkstack": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["config_version"],
		"properties": {
			"config_version": {"const": "v1"},
			"buttonStyle": {"enum": ["rounded", "square", "pill"]},
			"showIcons": {"type": "boolean"}
		}
	}`,

	"portfolio-grid": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["config_version"],
		"properties": {
			"config_version": {"const": "v1"},
			"columns": {"type": "integer", "minimum": 1, "maximum": 4},
			"projects": {
				"type": "array",
				"maxItems": 24,
				"items": {
					"type": "object",
					"required": ["title"],
					"properties": {
						"title": {"type": "string", "minLength": 1, "maxLength": 80},
						"imageUrl": {"type": "string"},
						"link": {"type": "string"}
					}
				}
			}
		}
	}`,

	"neonbio": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["config_version"],
		"properties": {
			"config_version": {"const": "v1"},
			"accentColor": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"},
			"glow": {"type": "boolean"}
		}
	}`,
}
