package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Aashish23092/ocr-marksheet-verification/config"
	"github.com/Aashish23092/ocr-marksheet-verification/dto"
	"github.com/Aashish23092/ocr-marksheet-verification/logger"
	"github.com/Aashish23092/ocr-marksheet-verification/service"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

type MarksheetHandler struct {
	marksheetService *service.MarksheetService
	cfg              *config.Config
}

func NewMarksheetHandler(marksheetService *service.MarksheetService, cfg *config.Config) *MarksheetHandler {
	return &MarksheetHandler{
		marksheetService: marksheetService,
		cfg:              cfg,
	}
}

// Register mounts the marksheet endpoints on r.
func (h *MarksheetHandler) Register(r gin.IRouter) {
	marksheet := r.Group("/marksheet")
	{
		marksheet.POST("/text", h.ExtractText)
		marksheet.POST("/parse", h.ParseMarksheet)
		marksheet.POST("/verify", h.VerifyMarksheet)
	}
}

// RequestID tags every request with an X-Request-ID, reusing the caller's.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// ExtractText handles POST /marksheet/text. With debug=true the full
// acquisition report is returned instead of the text.
func (h *MarksheetHandler) ExtractText(c *gin.Context) {
	doc, opts, ok := h.readUpload(c)
	if !ok {
		return
	}

	res := h.marksheetService.ExtractTextWithDiagnostics(c.Request.Context(), doc, opts)
	logger.Info("text extracted",
		zap.String(requestIDKey, c.GetString(requestIDKey)),
		zap.String("decided_method", string(res.DecidedMethod)),
		zap.String("diagnostic", string(res.Diagnostic)),
	)

	if debug, _ := strconv.ParseBool(param(c, "debug")); debug {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusOK, dto.TextResponse{
		Text:   res.DisplayText(),
		Method: opts.Method,
		DPI:    opts.DPI,
	})
}

// ParseMarksheet handles POST /marksheet/parse. Extraction failures are
// reported inside fields with a 200 status.
func (h *MarksheetHandler) ParseMarksheet(c *gin.Context) {
	doc, opts, ok := h.readUpload(c)
	if !ok {
		return
	}

	fields, err := h.marksheetService.ExtractMarksheetFields(c.Request.Context(), doc, opts)
	resp := dto.MarksheetParseResponse{Method: opts.Method, DPI: opts.DPI}
	if err != nil {
		logger.Warn("marksheet extraction failed",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Error(err),
		)
		resp.Fields = dto.FieldsOrError{Error: err.Error()}
	} else {
		resp.Fields = dto.FieldsOrError{ExtractedFields: fields}
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyMarksheet handles POST /marksheet/verify.
func (h *MarksheetHandler) VerifyMarksheet(c *gin.Context) {
	req := dto.VerifyRequest{
		Stage:        param(c, "stage"),
		EnteredValue: param(c, "entered_value"),
		Tolerance:    param(c, "tolerance"),
	}
	in, err := req.Parse(h.cfg.Tolerance)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid verification request", err)
		return
	}

	doc, opts, ok := h.readUpload(c)
	if !ok {
		return
	}

	out := h.marksheetService.VerifyAcademicRecord(c.Request.Context(), in.Stage, in.EnteredValue, doc, opts, in.Tolerance)
	logger.Info("verification completed",
		zap.String(requestIDKey, c.GetString(requestIDKey)),
		zap.String("stage", string(in.Stage)),
		zap.Bool("verified", out.Verified),
		zap.Int("attempts", out.Attempts),
		zap.String("source", string(out.ComparisonSource)),
	)
	c.JSON(http.StatusOK, out)
}

// readUpload validates the multipart upload and its options. It writes the
// error response itself and reports false when the request is rejected.
func (h *MarksheetHandler) readUpload(c *gin.Context) (dto.RawDocument, service.AcquireOptions, bool) {
	fileHeader, _ := c.FormFile("file")

	req := dto.MarksheetRequest{
		File:     fileHeader,
		Method:   param(c, "method"),
		DPI:      param(c, "dpi"),
		Language: param(c, "lang"),
	}
	if err := req.Validate(h.cfg.MaxFileSize); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid upload", err)
		return dto.RawDocument{}, service.AcquireOptions{}, false
	}

	method, err := dto.ParseMethod(req.Method)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid method", err)
		return dto.RawDocument{}, service.AcquireOptions{}, false
	}
	dpi, err := dto.ParseDPI(req.DPI, h.cfg.DefaultDPI, h.cfg.MinDPI, h.cfg.MaxDPI)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid DPI", err)
		return dto.RawDocument{}, service.AcquireOptions{}, false
	}

	data, err := readFile(fileHeader)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to read upload", err)
		return dto.RawDocument{}, service.AcquireOptions{}, false
	}

	doc := dto.RawDocument{Data: data, MediaType: mediaType(fileHeader, data)}
	logger.Debug("upload accepted",
		zap.String(requestIDKey, c.GetString(requestIDKey)),
		zap.String("filename", fileHeader.Filename),
		zap.String("media_type", doc.MediaType),
		zap.Int("bytes", len(data)),
	)
	return doc, service.AcquireOptions{Method: method, DPI: dpi, Language: req.Language}, true
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fh.Filename, err)
	}
	return data, nil
}

// mediaType takes the declared part type, then sniffs the content, then
// falls back to the file extension.
func mediaType(fh *multipart.FileHeader, data []byte) string {
	declared := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(data) > 0 {
		if mt := mimetype.Detect(data); !mt.Is("application/octet-stream") && !mt.Is("text/plain") {
			return mt.String()
		}
	}
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/pdf"
}

// param reads a value from the query string, then from the form body.
func param(c *gin.Context, key string) string {
	if v, ok := c.GetQuery(key); ok {
		return v
	}
	return c.PostForm(key)
}

// sendError sends a structured error response
func (h *MarksheetHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		logger.Warn(message,
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}

	code := "INVALID_REQUEST"
	if statusCode >= http.StatusInternalServerError {
		code = "PROCESSING_FAILED"
	}
	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: errorMsg,
		Code:    statusCode,
	})
}
