package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/pipeline"
)

const (
	// StageHeader は最終画像を作成したステージを返すレスポンスヘッダーです。
	StageHeader = "X-Tryon-Stage"

	formOverheadBytes = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type productRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleTryOn(w http.ResponseWriter, r *http.Request) {
	// ユーザー画像と商品画像の2ファイル分に加え、テキスト項目の余裕を持たせる
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.maxUploadBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	userImage, err := s.readUpload(r, "userImage")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	productImage, err := s.readUpload(r, "productImage")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := pipeline.Request{
		UserImage:       userImage,
		ProductImage:    productImage,
		ProductImageURL: strings.TrimSpace(r.FormValue("productImageUrl")),
		Product: domain.ProductDescriptor{
			Title:    strings.TrimSpace(r.FormValue("title")),
			Price:    strings.TrimSpace(r.FormValue("price")),
			Category: strings.TrimSpace(r.FormValue("category")),
		},
	}

	outcome, err := s.runner.Run(r.Context(), req)
	if err != nil {
		status := domain.StatusCode(err)
		slog.ErrorContext(r.Context(), "試着リクエストに失敗しました", "status", status, "error", err)
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set(StageHeader, string(outcome.Stage))
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	writeJSON(w, http.StatusOK, outcome.Result)
}

// readUpload はファイル項目を読み込みます。項目が無い場合は nil を返します。
func (s *Server) readUpload(r *http.Request, field string) (*pipeline.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	defer file.Close()

	if header.Size > s.maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, s.maxUploadBytes)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &pipeline.Upload{Data: data, ContentType: header.Header.Get("Content-Type")}, nil
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, formOverheadBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	meta, err := s.resolver.Resolve(r.Context(), body.URL)
	if err != nil {
		var invalid *domain.InvalidURLError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, "Invalid URL")
			return
		}
		slog.ErrorContext(r.Context(), "商品情報の解決に失敗しました", "url", body.URL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSONレスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
