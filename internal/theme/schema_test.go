package theme

import (
	"errors"
	"testing"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator returned error: %v", err)
	}
	return v
}

func TestValidator_ValidDocument_Passes(t *testing.T) {
	v := newTestValidator(t)

	validated, err := v.Validate("quickpitch", map[string]any{
		"headline": "フリーランスのデザイナーです",
		"subhead":  "ロゴとWebを作ります",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if validated["config_version"] != "v1" {
		t.Errorf("config_version = %v, want %q", validated["config_version"], "v1")
	}
	if validated["headline"] != "フリーランスのデザイナーです" {
		t.Errorf("headline = %v, want original value", validated["headline"])
	}
}

// TestValidator_InjectsConfigVersion は呼び出し側が指定しなくても
// config_versionが注入されることを検証する。
func TestValidator_InjectsConfigVersion(t *testing.T) {
	v := newTestValidator(t)

	validated, err := v.Validate("linkstack", map[string]any{})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if validated["config_version"] != "v1" {
		t.Errorf("config_version = %v, want %q", validated["config_version"], "v1")
	}
}

// TestValidator_OverwritesWrongConfigVersion は入力に誤ったconfig_versionがあっても
// 上書きされて検証が通ることを検証する。
func TestValidator_OverwritesWrongConfigVersion(t *testing.T) {
	v := newTestValidator(t)

	validated, err := v.Validate("linkstack", map[string]any{
		"config_version": "v999",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if validated["config_version"] != "v1" {
		t.Errorf("config_version = %v, want %q", validated["config_version"], "v1")
	}
}

func TestValidator_DoesNotMutateInput(t *testing.T) {
	v := newTestValidator(t)

	input := map[string]any{"headline": "見出し"}
	if _, err := v.Validate("quickpitch", input); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if _, ok := input["config_version"]; ok {
		t.Error("Validate must not mutate the input document")
	}
}

func TestValidator_MissingRequiredField_Fails(t *testing.T) {
	v := newTestValidator(t)

	// quickpitchはheadlineが必須
	_, err := v.Validate("quickpitch", map[string]any{
		"subhead": "見出しなし",
	})
	if err == nil {
		t.Fatal("expected validation error for missing headline")
	}

	reason := ValidationReason(err)
	if reason == "" {
		t.Error("expected non-empty validation reason")
	}
}

func TestValidator_WrongFieldType_Fails(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate("portfolio-grid", map[string]any{
		"columns": "three",
	})
	if err == nil {
		t.Fatal("expected validation error for non-integer columns")
	}
}

func TestValidator_EnumViolation_Fails(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate("linkstack", map[string]any{
		"buttonStyle": "hexagon",
	})
	if err == nil {
		t.Fatal("expected validation error for unknown buttonStyle")
	}
}

// TestValidator_UnknownTheme_ReturnsErrSchemaNotRegistered は
// スキーマ未登録テーマがErrSchemaNotRegisteredを返すことを検証する。
func TestValidator_UnknownTheme_ReturnsErrSchemaNotRegistered(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate("retro-blast", map[string]any{})
	if err == nil {
		t.Fatal("expected error for unregistered theme")
	}
	if !errors.Is(err, ErrSchemaNotRegistered) {
		t.Errorf("expected ErrSchemaNotRegistered, got %v", err)
	}
}

func TestValidator_NestedValidation_Projects(t *testing.T) {
	v := newTestValidator(t)

	// 正常なネスト構造
	_, err := v.Validate("portfolio-grid", map[string]any{
		"columns": 2,
		"projects": []map[string]any{
			{"title": "作品A", "imageUrl": "https://example.com/a.png"},
		},
	})
	if err != nil {
		t.Fatalf("Validate returned error for valid projects: %v", err)
	}

	// titleを欠いたプロジェクトは失敗する
	_, err = v.Validate("portfolio-grid", map[string]any{
		"projects": []map[string]any{
			{"imageUrl": "https://example.com/a.png"},
		},
	})
	if err == nil {
		t.Fatal("expected validation error for project without title")
	}
}

func TestValidationReason_NonValidationError(t *testing.T) {
	reason := ValidationReason(errors.New("plain error"))
	if reason != "plain error" {
		t.Errorf("ValidationReason = %q, want %q", reason, "plain error")
	}
}
