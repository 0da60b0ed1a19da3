package transport

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/frame-scanner-go/internal/config"
	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	apperrors "github.com/anime-shed/frame-scanner-go/internal/errors"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
	"github.com/anime-shed/frame-scanner-go/internal/service"
	"github.com/anime-shed/frame-scanner-go/pkg/models"
)

const (
	defaultRenderSize   = 256
	defaultHistoryLimit = 50
)

// MetricsProvider exposes scan counters
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

// StreamServer serves live scan events over a websocket
type StreamServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// NewHandler builds the HTTP API
func NewHandler(svc service.ScanService, metrics MetricsProvider, stream StreamServer, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	v1.POST("/scan", scanURL(svc, cfg))
	v1.POST("/scan/upload", scanUpload(svc, cfg))
	v1.POST("/scan/batch", scanBatch(svc, cfg))
	v1.GET("/scans", listScans(svc))
	v1.GET("/scans/:id", getScan(svc))
	v1.GET("/render", renderSymbol(svc))
	v1.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	})
	v1.GET("/stream", func(c *gin.Context) {
		if err := stream.ServeWS(c.Writer, c.Request); err != nil {
			// The upgrader has already written the failure response
			logger.WithError(err).WithField("ip", c.ClientIP()).Warn("Stream upgrade failed")
		}
	})

	return r
}

func scanURL(svc service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		result, err := svc.ScanURL(ctx, req)
		if err != nil {
			respondAppError(c, "scan failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"outcome":            result.Outcome,
			"processing_time_ms": int64(result.ProcessingTimeSec * 1000),
		}).Info("Scan completed")

		c.JSON(http.StatusOK, result)
	}
}

func scanUpload(svc service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		header, err := c.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "image too large", err)
				return
			}
			respondError(c, http.StatusBadRequest, "multipart field \"image\" is required", err)
			return
		}

		var opts models.ScanOptions
		if err := c.ShouldBind(&opts); err != nil {
			respondError(c, http.StatusBadRequest, "invalid scan options", err)
			return
		}

		file, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read upload", err)
			return
		}
		defer file.Close()

		img, format, err := image.Decode(file)
		if err != nil {
			respondAppError(c, "scan failed", apperrors.NewUnsupportedMediaError("failed to decode image", err))
			return
		}

		logger.WithFields(logrus.Fields{
			"filename": header.Filename,
			"format":   format,
			"size":     header.Size,
		}).Debug("Decoded upload")

		result, err := svc.ScanImage(ctx, img, "upload:"+header.Filename, opts)
		if err != nil {
			respondAppError(c, "scan failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func scanBatch(svc service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.BatchScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := svc.ScanBatch(ctx, req)
		if err != nil {
			respondAppError(c, "batch scan failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func listScans(svc service.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultHistoryLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondError(c, http.StatusBadRequest, "invalid limit", fmt.Errorf("limit must be a non-negative integer, got %q", raw))
				return
			}
			limit = n
		}

		scans, err := svc.History(c.Request.Context(), limit)
		if err != nil {
			respondAppError(c, "failed to list scans", err)
			return
		}
		c.JSON(http.StatusOK, models.HistoryResponse{Scans: scans, Count: len(scans)})
	}
}

func getScan(svc service.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.GetScan(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondAppError(c, "failed to get scan", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func renderSymbol(svc service.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		format, err := decoder.ParseFormat(c.DefaultQuery("format", string(decoder.FormatQRCode)))
		if err != nil {
			respondAppError(c, "render failed", apperrors.NewValidationError("invalid format", err))
			return
		}

		size := defaultRenderSize
		if raw := c.Query("size"); raw != "" {
			if size, err = strconv.Atoi(raw); err != nil {
				respondAppError(c, "render failed", apperrors.NewValidationError("invalid size", err))
				return
			}
		}

		data, err := svc.RenderSymbol(c.Query("text"), format, size)
		if err != nil {
			respondAppError(c, "render failed", err)
			return
		}
		c.Data(http.StatusOK, "image/png", data)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request completed")
			return
		}
		entry.Info("Request completed")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondAppError(c *gin.Context, message string, err error) {
	respondError(c, determineStatusCode(err), message, err)
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	if appErr, ok := apperrors.As(err); ok {
		resp.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		resp.Details = appErr.Details
	}
	c.AbortWithStatusJSON(code, resp)
}
