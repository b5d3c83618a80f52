package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/linkshelf/internal/middleware"
	"github.com/hitoshi/linkshelf/internal/model"
	"github.com/hitoshi/linkshelf/internal/urlutil"
)

// MetadataFetcher はメタデータハンドラーが必要とする取得インターフェース。
type MetadataFetcher interface {
	// FetchAndExtract はURLを取得してメタデータを抽出する。
	FetchAndExtract(ctx context.Context, rawURL string) (model.MetadataRecord, error)
}

// MetadataHandler はメタデータ抽出APIのHTTPハンドラー。
type MetadataHandler struct {
	fetcher MetadataFetcher
	logger  *slog.Logger
}

// NewMetadataHandler はMetadataHandlerを生成する。
func NewMetadataHandler(fetcher MetadataFetcher, logger *slog.Logger) *MetadataHandler {
	return &MetadataHandler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// metadataResponse はメタデータ抽出成功時のレスポンス。
type metadataResponse struct {
	Success bool                 `json:"success"`
	Data    model.MetadataRecord `json:"data"`
	URL     string               `json:"url"`
}

// ExtractMetadata はクエリパラメータのURLからメタデータを抽出して返す。
// GET /api/extract-metadata?url=xxx
//
// urlパラメータは文章でもよく、最初のURLを取り出して使用する。
// 取得に失敗した場合は空のメタデータとして扱い、タイトルも説明もなければ404を返す。
func (h *MetadataHandler) ExtractMetadata(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingURLError())
		return
	}

	target := raw
	if first, ok := urlutil.ExtractFirstURL(raw); ok {
		target = first
	}

	if !urlutil.IsValidURL(target) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError(target))
		return
	}

	record, err := h.fetcher.FetchAndExtract(r.Context(), target)
	if err != nil {
		switch model.KindOf(err) {
		case model.KindValidation:
			if model.CodeOf(err) == model.CodeBlockedURL {
				middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewBlockedURLError(target))
			} else {
				middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError(target))
			}
			return
		case model.KindNetwork:
			// 取得失敗は空のメタデータとして扱う
			record = model.EmptyMetadata()
		default:
			h.logger.Error("メタデータの抽出に失敗しました",
				slog.String("url", target),
				slog.String("op", model.OpOf(err)),
				slog.String("kind", model.KindOf(err).String()),
				slog.String("error", err.Error()),
			)
			middleware.WriteInternalServerError(w)
			return
		}
	}

	if !record.HasTitleOrDescription() {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewMetadataNotFoundError(target))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metadataResponse{
		Success: true,
		Data:    record,
		URL:     target,
	})
}
