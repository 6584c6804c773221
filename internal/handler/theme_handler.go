package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/biolink/internal/theme"
)

// ThemeHandler はテーマカタログのHTTPハンドラー。
type ThemeHandler struct {
	registry *theme.Registry
}

// NewThemeHandler はThemeHandlerを生成する。
func NewThemeHandler(registry *theme.Registry) *ThemeHandler {
	return &ThemeHandler{registry: registry}
}

// themeResponse はテーマ1件のAPIレスポンス。
type themeResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	BestFor     []string `json:"bestFor"`
}

// ListThemes はテーマカタログを返す。
// GET /api/themes?q=検索語
// qは名前またはカテゴリへの部分一致（大文字小文字無視）。空の場合は全件。
func (h *ThemeHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	descriptors := h.registry.Filter(query)

	themes := make([]themeResponse, 0, len(descriptors))
	for _, d := range descriptors {
		themes = append(themes, themeResponse{
			ID:          d.ID,
			Name:        d.Name,
			Category:    d.Category,
			Description: d.Description,
			BestFor:     d.BestFor,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"themes": themes,
	})
}
