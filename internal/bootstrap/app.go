package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/zhouBoom/M-server-node-003/internal/handler/http"
	wsHandler "github.com/zhouBoom/M-server-node-003/internal/handler/websocket"
	"github.com/zhouBoom/M-server-node-003/internal/hub"
	filestore "github.com/zhouBoom/M-server-node-003/internal/infra/persistence/file"
	gormpersistence "github.com/zhouBoom/M-server-node-003/internal/infra/persistence/gorm"
	"github.com/zhouBoom/M-server-node-003/internal/infra/setup"
	"github.com/zhouBoom/M-server-node-003/internal/merge"
	"github.com/zhouBoom/M-server-node-003/internal/middleware"
	"github.com/zhouBoom/M-server-node-003/internal/service"
	"github.com/zhouBoom/M-server-node-003/internal/state"
	"github.com/zhouBoom/M-server-node-003/internal/worker"
)

// Config 存储从环境变量加载的应用配置
type Config struct {
	ServerPort      string
	LogLevel        string
	AppEnv          string // development / production
	JWTSecret       string
	JWTExpiryHours  int
	RateLimitMax    int
	RateLimitWindow time.Duration
	DataDir         string // 平面记录文件（合并日志、投票、项目目录）的目录
}

// LoadConfig 从环境变量加载配置，优先读取 .env 文件。
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env 不存在时直接使用环境变量

	cfg := &Config{
		ServerPort: os.Getenv("SERVER_PORT"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		AppEnv:     os.Getenv("APP_ENV"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		DataDir:    os.Getenv("DATA_DIR"),
		// 默认值
		JWTExpiryHours:  24,
		RateLimitMax:    100,
		RateLimitWindow: 1 * time.Second,
	}

	if hours, err := strconv.Atoi(os.Getenv("JWT_EXPIRY_HOURS")); err == nil && hours > 0 {
		cfg.JWTExpiryHours = hours
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// App 包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	logrus.SetLevel(logLevel) // 包级 logger 与 App logger 保持同级
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.NewMySQL()
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	redisClient, err := setup.NewRedis()
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     setup.RedisAddr(),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Infrastructure initialized successfully")

	// 4. 初始化 Repositories
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", cfg.DataDir, err)
	}
	userRepo := gormpersistence.NewGormUserRepository(db)
	actionRepo := gormpersistence.NewGormActionRepository(db)
	mergeLogRepo, err := filestore.NewMergeLogStore(filepath.Join(cfg.DataDir, "merge_log.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to open merge log store: %w", err)
	}
	voteRepo, err := filestore.NewVoteStore(filepath.Join(cfg.DataDir, "votes.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to open vote store: %w", err)
	}
	projectRepo, err := filestore.NewProjectStore(filepath.Join(cfg.DataDir, "projects.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to open project catalog: %w", err)
	}
	log.Info("Repositories initialized")

	// 5. 初始化 Services
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	voteService := service.NewVoteService(voteRepo, projectRepo)
	catalogService := service.NewCatalogService(projectRepo)
	log.Info("Services initialized")

	// 6. 初始化协作核心：会话注册表、房间存储、合并引擎、Hub
	registry := state.NewRegistry()
	roomStore := state.NewStore()
	mergeEngine := merge.NewEngine(mergeLogRepo)
	archiver := worker.NewAsynqArchiver(asynqClient)
	hubInstance := hub.NewHub(registry, roomStore, mergeEngine, archiver)
	log.Info("Hub initialized")

	// 7. 初始化 Handlers
	authHandler := httpHandler.NewAuthHandler(authService)
	catalogHandler := httpHandler.NewCatalogHandler(catalogService)
	voteHandler := httpHandler.NewVoteHandler(voteService)
	activityHandler := httpHandler.NewActivityHandler(mergeEngine, mergeLogRepo)
	websocketHandler := wsHandler.NewWebSocketHandler(hubInstance)

	// 8. 初始化 Worker Server
	workerServer := worker.NewWorkerServer(redisClientOpt, actionRepo, log)
	log.Info("Worker server initialized")

	// 9. 初始化 Gin Engine 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	projectRoutes := api.Group("/projects")
	{
		projectRoutes.GET("", catalogHandler.ListProjects)
		projectRoutes.GET("/:id", catalogHandler.GetProject)
		projectRoutes.GET("/:id/document", activityHandler.GetDocument)
		projectRoutes.GET("/:id/activity", activityHandler.GetActivity)
		projectRoutes.GET("/:id/merges", activityHandler.GetMerges)
	}
	voteRoutes := api.Group("/votes")
	{
		// 查询开放给访客，创建和提交需要登录署名
		voteRoutes.GET("", voteHandler.ListVotes)
		voteRoutes.GET("/:id", voteHandler.GetVote)
		voteRoutes.POST("", middleware.Auth(cfg.JWTSecret), voteHandler.CreateVote)
		voteRoutes.POST("/:id/submit", middleware.Auth(cfg.JWTSecret), voteHandler.SubmitVote)
	}
	// WebSocket 连接是匿名的，加入房间通过消息完成
	router.GET("/ws", websocketHandler.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 10. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		AsynqServer: workerServer,
		Hub:         hubInstance,
		HttpServer:  httpServer,
	}, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Hub.Run()
	go a.AsynqServer.Start()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用：先停接入层，再停 Hub 和 worker，最后收尾连接。
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// corsMiddleware 设置跨域响应头，允许来源从环境变量读取。
func corsMiddleware() gin.HandlerFunc {
	allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
