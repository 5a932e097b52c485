package api

// SuccessResponse は成功レスポンスの統一フォーマット
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ErrorResponse はエラーレスポンスの統一フォーマット
// Error の文言はそのままクライアントに表示される
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Success はデータを成功エンベロープで包む
func Success(data interface{}) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}
