package validation

// QualityThresholds defines configurable thresholds for frame quality checks
type QualityThresholds struct {
	// Sharpness
	MinLaplacianVariance float64

	// Exposure, on the 0-255 luminance scale
	MinMeanLuminance float64
	MaxMeanLuminance float64

	// Share of pixels clipped near black or white
	MaxClippedRatio float64

	// Contrast, as luminance standard deviation
	MinStdDev float64

	// Smallest frame worth scanning
	MinWidth  int
	MinHeight int
}

// DefaultQualityThresholds returns the default quality thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 100.0,
		MinMeanLuminance:     50.0,
		MaxMeanLuminance:     220.0,
		MaxClippedRatio:      0.6,
		MinStdDev:            20.0,
		MinWidth:             64,
		MinHeight:            64,
	}
}

// QualityValidator explains why a frame may not have decoded
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// Issue types
const (
	IssueBlurry        = "blurriness"
	IssueTooDark       = "too_dark"
	IssueTooBright     = "too_bright"
	IssueLowContrast   = "low_contrast"
	IssueLowResolution = "low_resolution"
)

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// FrameQualityMetrics are the luminance measurements of one frame
type FrameQualityMetrics struct {
	Width         int
	Height        int
	MeanLuminance float64
	StdDev        float64
	LaplacianVar  float64
	DarkRatio     float64
	BrightRatio   float64
}

// ValidateFrame returns the issues found in a frame, most severe first
func (qv *QualityValidator) ValidateFrame(m FrameQualityMetrics) []QualityIssue {
	var issues []QualityIssue
	t := qv.thresholds

	if m.Width < t.MinWidth || m.Height < t.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        IssueLowResolution,
			Message:     "Frame is too small to hold a readable code. Move closer or raise the resolution.",
			Severity:    "error",
			ActualValue: float64(min(m.Width, m.Height)),
			Threshold:   float64(min(t.MinWidth, t.MinHeight)),
		})
	}

	if m.MeanLuminance < t.MinMeanLuminance || m.DarkRatio > t.MaxClippedRatio {
		issues = append(issues, QualityIssue{
			Type:        IssueTooDark,
			Message:     "Frame is too dark. Add light or avoid shadows on the code.",
			Severity:    "error",
			ActualValue: m.MeanLuminance,
			Threshold:   t.MinMeanLuminance,
		})
	} else if m.MeanLuminance > t.MaxMeanLuminance || m.BrightRatio > t.MaxClippedRatio {
		issues = append(issues, QualityIssue{
			Type:        IssueTooBright,
			Message:     "Frame is washed out. Avoid glare and direct light on the code.",
			Severity:    "error",
			ActualValue: m.MeanLuminance,
			Threshold:   t.MaxMeanLuminance,
		})
	}

	if m.StdDev < t.MinStdDev {
		issues = append(issues, QualityIssue{
			Type:        IssueLowContrast,
			Message:     "Frame has little contrast. The code may be missing or faded.",
			Severity:    "warning",
			ActualValue: m.StdDev,
			Threshold:   t.MinStdDev,
		})
	}

	if m.LaplacianVar < t.MinLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        IssueBlurry,
			Message:     "Frame is blurry. Hold the camera steady and let it focus.",
			Severity:    "warning",
			ActualValue: m.LaplacianVar,
			Threshold:   t.MinLaplacianVariance,
		})
	}

	return issues
}

// HasIssue reports whether issues contains one of the given type
func HasIssue(issues []QualityIssue, issueType string) bool {
	for _, issue := range issues {
		if issue.Type == issueType {
			return true
		}
	}
	return false
}

// ConvertIssuesToMessages converts quality issues to plain messages
func (qv *QualityValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
