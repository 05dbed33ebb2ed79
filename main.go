package main

import (
	"net/http"

	"github.com/Aashish23092/ocr-marksheet-verification/client"
	"github.com/Aashish23092/ocr-marksheet-verification/config"
	"github.com/Aashish23092/ocr-marksheet-verification/handler"
	"github.com/Aashish23092/ocr-marksheet-verification/logger"
	"github.com/Aashish23092/ocr-marksheet-verification/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger.Init()
	defer logger.Sync()

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.L().Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize Tesseract client
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	defer tesseractClient.Close()
	if err := tesseractClient.Available(cfg.DefaultLanguage); err != nil {
		logger.Warn("OCR unavailable, scanned documents will be reported as such", zap.Error(err))
	}

	// Initialize service layer
	marksheetService := service.NewMarksheetServiceFromConfig(cfg, tesseractClient)

	// Initialize handler layer
	marksheetHandler := handler.NewMarksheetHandler(marksheetService, cfg)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestID())

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "OCR Marksheet Verification",
			"tesseract": tesseractClient.Version(),
		})
	})

	// API routes
	api := router.Group("/api/v1")
	marksheetHandler.Register(api)

	// Start server
	logger.Info("starting OCR Marksheet Verification Service",
		zap.String("port", cfg.ServerPort),
		zap.Int("ocr_workers", cfg.OCRWorkers),
		zap.Bool("adaptive_threshold", cfg.AdaptiveThreshold),
	)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		logger.L().Fatal("failed to start server", zap.Error(err))
	}
}
