package api

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/callguard/internal/analysis"
	"github.com/tphakala/callguard/internal/errors"
)

// VoiceDetectionRequest is the JSON form of a detection request.
type VoiceDetectionRequest struct {
	AudioBase64 string `json:"audioBase64"`
	AudioFormat string `json:"audioFormat"`
	Language    string `json:"language,omitempty"`
	Robustness  bool   `json:"robustness,omitempty"`
}

// Client input failures
var (
	ErrNoFile            = errors.NewStd("No file provided")
	ErrEmptyFilename     = errors.NewStd("Empty filename")
	ErrMissingAudio      = errors.NewStd("audioBase64 is required")
	ErrUnsupportedFormat = errors.NewStd("Unsupported audio format")
	ErrInvalidRobustness = errors.NewStd("robustness must be a boolean")
)

// DetectVoice handles POST /api/v1/voice-detection
func (c *Controller) DetectVoice(ctx echo.Context) error {
	req, err := c.parseDetectionRequest(ctx)
	if err != nil {
		return c.HandleError(ctx, err, clientMessage(err), http.StatusBadRequest)
	}

	runCtx := ctx.Request().Context()
	if c.analysisTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.analysisTimeout)
		defer cancel()
	}

	report, err := c.analyzer.Analyze(runCtx, req)
	if err != nil {
		return c.handleAnalysisError(ctx, err)
	}

	if c.dispatcher != nil {
		c.dispatcher.Dispatch(report)
	}

	return ctx.JSON(http.StatusOK, report)
}

// parseDetectionRequest reads either a multipart upload or a JSON body.
func (c *Controller) parseDetectionRequest(ctx echo.Context) (analysis.Request, error) {
	contentType := ctx.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return c.parseMultipart(ctx)
	}
	return c.parseJSON(ctx)
}

func (c *Controller) parseMultipart(ctx echo.Context) (analysis.Request, error) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return analysis.Request{}, inputError(ErrNoFile, "parse_multipart")
		}
		return analysis.Request{}, inputError(err, "parse_multipart")
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		return analysis.Request{}, inputError(ErrEmptyFilename, "parse_multipart")
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	if format != "" && !c.formatAllowed(format) {
		return analysis.Request{}, inputError(ErrUnsupportedFormat, "parse_multipart")
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		return analysis.Request{}, inputError(err, "read_upload")
	}

	robustness, err := parseOptionalBool(ctx.FormValue("robustness"))
	if err != nil {
		return analysis.Request{}, inputError(ErrInvalidRobustness, "parse_multipart")
	}

	return analysis.Request{
		Data:       data,
		FormatHint: format,
		Robustness: robustness,
		Language:   strings.TrimSpace(ctx.FormValue("language")),
	}, nil
}

func (c *Controller) parseJSON(ctx echo.Context) (analysis.Request, error) {
	var body VoiceDetectionRequest
	if err := ctx.Bind(&body); err != nil {
		return analysis.Request{}, inputError(errors.Join(errors.NewStd("malformed request body"), err), "bind")
	}
	if strings.TrimSpace(body.AudioBase64) == "" {
		return analysis.Request{}, inputError(ErrMissingAudio, "bind")
	}

	format := strings.ToLower(strings.TrimSpace(body.AudioFormat))
	if !c.formatAllowed(format) {
		return analysis.Request{}, inputError(ErrUnsupportedFormat, "bind")
	}

	data, err := DecodeAudioBase64(body.AudioBase64)
	if err != nil {
		return analysis.Request{}, err
	}

	return analysis.Request{
		Data:       data,
		FormatHint: format,
		Robustness: body.Robustness,
		Language:   strings.TrimSpace(body.Language),
	}, nil
}

func (c *Controller) formatAllowed(format string) bool {
	return slices.Contains(c.allowedFormats, format)
}

// handleAnalysisError maps pipeline errors onto HTTP status codes.
func (c *Controller) handleAnalysisError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return c.HandleError(ctx, err, "Analysis timed out", http.StatusGatewayTimeout)
	case errors.Is(err, analysis.ErrAnalysisCanceled), errors.Is(err, context.Canceled):
		return c.HandleError(ctx, err, "Analysis canceled", http.StatusServiceUnavailable)
	case errors.IsCategory(err, errors.CategoryValidation):
		return c.HandleError(ctx, err, "Invalid or unsupported audio", http.StatusBadRequest)
	default:
		return c.HandleError(ctx, err, "Internal audio processing error", http.StatusInternalServerError)
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func parseOptionalBool(v string) (bool, error) {
	if strings.TrimSpace(v) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

func inputError(err error, operation string) error {
	return errors.New(err).
		Component("api").
		Category(errors.CategoryValidation).
		Context("operation", operation).
		Build()
}

// clientMessage picks the user-facing message for a request parsing error.
func clientMessage(err error) string {
	for _, known := range []error{ErrNoFile, ErrEmptyFilename, ErrMissingAudio, ErrUnsupportedFormat, ErrInvalidRobustness, ErrInvalidBase64} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "Invalid or malformed request"
}
