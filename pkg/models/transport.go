package models

// ScanRequest asks for a remote image to be scanned
type ScanRequest struct {
	URL string `json:"url" binding:"required,url"`
	ScanOptions
}

// ScanOptions narrows or extends a single scan. Empty Formats means the
// server's configured formats.
type ScanOptions struct {
	Formats      []string `json:"formats,omitempty" form:"formats"`
	TryHarder    bool     `json:"try_harder,omitempty" form:"try_harder"`
	ExpectedText string   `json:"expected_text,omitempty" form:"expected_text"`
	Caption      bool     `json:"caption,omitempty" form:"caption"`
}

// BatchScanRequest asks for several remote images to be scanned concurrently
type BatchScanRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,max=50,dive,url"`
	ScanOptions
}

// BatchScanResponse carries every completed scan plus per-URL failures
type BatchScanResponse struct {
	Results []*ScanResult  `json:"results"`
	Failed  []BatchFailure `json:"failed,omitempty"`
	Decoded int            `json:"decoded"`
}

// BatchFailure is an image that could not be fetched or scanned
type BatchFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// HistoryResponse lists stored scans, newest first
type HistoryResponse struct {
	Scans []*ScanResult `json:"scans"`
	Count int           `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
