package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appsvc "maindata/internal/app"
	"maindata/internal/bootstrap"
	"maindata/internal/cache"
	"maindata/internal/repository"
	"maindata/internal/transport/http/handler"
	"maindata/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS())

	sessionRepo := repository.NewSessionRepository(app.Postgres)
	messageRepo := repository.NewMessageRepository(app.Postgres)
	datasetRepo := repository.NewDatasetRepository(app.Postgres)
	refQueryRepo := repository.NewReferenceQueryRepository(app.Postgres)
	historyCache := cache.NewHistoryCache(app.Redis, time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second)

	memoryService := appsvc.NewMemoryService(sessionRepo, messageRepo, historyCache)
	retrievalService := appsvc.NewRetrievalService(
		app.AI,
		datasetRepo,
		refQueryRepo,
		app.Config.RAG.DatasetTopK,
		app.Config.RAG.QueryTopK,
		app.Logger.With("component", "retrieval"),
	)
	promptAssembler := appsvc.NewPromptAssembler(app.Config.App.PublicBaseURL)
	generationEngine := appsvc.NewGenerationEngine(app.AI, app.Logger.With("component", "generation"))
	sqlService := appsvc.NewSQLService(memoryService, retrievalService, promptAssembler, generationEngine)
	catalogService := appsvc.NewCatalogService(datasetRepo)

	healthHandler := handler.NewHealthHandler(app)
	generateHandler := handler.NewGenerateHandler(sqlService)
	sessionHandler := handler.NewSessionHandler(memoryService)
	datasetHandler := handler.NewDatasetHandler(catalogService, &http.Client{Timeout: 60 * time.Second})

	router.GET("/healthz", healthHandler.Check)
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "online", "message": app.Config.App.Name + " is running"})
	})

	router.POST("/generate-sql", generateHandler.GenerateSQL)
	router.POST("/generate-sql-stream", generateHandler.GenerateSQLStream)

	router.GET("/dataset", datasetHandler.List)
	router.GET("/dataset/:slug", datasetHandler.Download)

	router.POST("/start-session", sessionHandler.StartSession)
	router.GET("/session/:id", sessionHandler.GetSession)
	router.POST("/session/:id", sessionHandler.SaveMessage)
	router.DELETE("/session/:id", sessionHandler.DeleteSession)

	return router
}
