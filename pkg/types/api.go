package types

// ProcessRequest asks the server to remove the background of an image.
type ProcessRequest struct {
	// Base64 encoded PNG, JPEG or WebP image (a data: URI is accepted too).
	// example: iVBORw0KGgoAAAANSUhEUgAA...
	Image string `json:"image" example:"iVBORw0KGgoAAAANSUhEUgAA..."`
	// Optional model id. If empty, the currently selected model is used.
	// example: model_fp16.onnx
	Model string `json:"model,omitempty" example:"model_fp16.onnx"`
}

// ProcessResponse is returned by POST /process once the cycle has started.
type ProcessResponse struct {
	// Identifier of the started cycle.
	// example: 3
	Cycle uint64 `json:"cycle" example:"3"`
	// Model the cycle runs with.
	// example: model_fp16.onnx
	Model string `json:"model" example:"model_fp16.onnx"`
}

// SelectModelRequest is the body of PUT /models/selected.
type SelectModelRequest struct {
	// example: model_quantized.onnx
	ID string `json:"id" example:"model_quantized.onnx"`
}

// ModelStatus is a catalog entry plus its local availability.
type ModelStatus struct {
	Model
	// Whether the model file is present in the models directory.
	// example: false
	Downloaded bool `json:"downloaded" example:"false"`
	// Whether this model is the current selection.
	// example: true
	Selected bool `json:"selected" example:"true"`
}

// ModelsResponse wraps the catalog returned by GET /models.
type ModelsResponse struct {
	Models []ModelStatus `json:"models"`
}

// HistoryItem is one retained result.
type HistoryItem struct {
	// example: 2b1f4a9e-2c1d-4c8e-9f57-0b7a0f4f2a11
	ID string `json:"id"`
	// Base64 payload of the submitted image.
	OriginalImage string `json:"originalImage"`
	// Base64 payload of the processed image.
	ResultImage string `json:"resultImage"`
	// Renderable form of OriginalImage.
	OriginalImageURL string `json:"originalImageUrl"`
	// Renderable form of ResultImage.
	ResultImageURL string `json:"resultImageUrl"`
	// Creation time in unix milliseconds.
	// example: 1700000000000
	Timestamp int64 `json:"timestamp" example:"1700000000000"`
}

// HistoryResponse wraps GET /history.
type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}

// DownloadProgress is returned by GET /download.
type DownloadProgress struct {
	// example: 104857600
	Downloaded int64 `json:"downloaded" example:"104857600"`
	// Zero while the size is unknown.
	// example: 537919488
	Total int64 `json:"total" example:"537919488"`
}

// SessionResponse is the view of the session returned by GET /session and
// streamed by GET /events. Derived fields are computed per response.
type SessionResponse struct {
	// One of idle, loading, processing, done, error.
	// example: processing
	State string `json:"state" example:"processing"`
	// example: Running inference...
	StatusMessage string `json:"statusMessage" example:"Running inference..."`
	// Present only in the error state.
	Error *string `json:"error"`
	// Percentage; not clamped.
	// example: 50
	Progress int `json:"progress" example:"50"`
	// Cycle the session is currently on.
	// example: 3
	Cycle uint64 `json:"cycle" example:"3"`

	IsIdle       bool `json:"isIdle"`
	IsLoading    bool `json:"isLoading"`
	IsProcessing bool `json:"isProcessing"`
	IsDone       bool `json:"isDone"`
	IsError      bool `json:"isError"`
	HasImage     bool `json:"hasImage"`
	HasResult    bool `json:"hasResult"`

	OriginalImageURL *string `json:"originalImageUrl"`
	ResultImageURL   *string `json:"resultImageUrl"`

	// example: model_fp16.onnx
	SelectedModel    string           `json:"selectedModel" example:"model_fp16.onnx"`
	DownloadProgress DownloadProgress `json:"downloadProgress"`
	HistoryLen       int              `json:"historyLen" example:"2"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// VersionResponse is returned by GET /version.
type VersionResponse struct {
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
}
