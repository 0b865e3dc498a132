package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// MissingInputError は必須入力（ユーザー画像）が欠けている場合のエラーです。
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return e.Field + " file is required"
}

// InvalidURLError は取り込み対象の URL が不正、または許可されていない場合のエラーです。
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid URL: %q", e.URL)
	}
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// FetchError はリモート画像の取得に失敗した場合のエラーです。
// StatusCode は通信自体が失敗した場合 0 になります。
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch product image (%d)", e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch product image: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ModelInvocationError はモデル呼び出しの失敗です。ステージ内で吸収されます。
type ModelInvocationError struct {
	Model string
	Err   error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model %s invocation failed: %v", e.Model, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// ModelParseError はモデル応答の解釈に失敗した場合のエラーです。ステージ内で吸収されます。
type ModelParseError struct {
	Reason string
	Err    error
}

func (e *ModelParseError) Error() string {
	if e.Err == nil {
		return "model response parse failed: " + e.Reason
	}
	return fmt.Sprintf("model response parse failed: %s: %v", e.Reason, e.Err)
}

func (e *ModelParseError) Unwrap() error { return e.Err }

// TimeoutError はリクエスト全体の期限を超過した場合のエラーです。
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return "request timed out" }

func (e *TimeoutError) Unwrap() error { return e.Err }

// StatusCode は呼び出し元へ返す HTTP ステータスを決定します。
// 入力検証エラーのみ 400 で、それ以外はすべて 500 です。
func StatusCode(err error) int {
	var missing *MissingInputError
	var invalid *InvalidURLError
	if errors.As(err, &missing) || errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
