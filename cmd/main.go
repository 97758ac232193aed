package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"magiops_v1_202608/internal/controller"
	"magiops_v1_202608/internal/middleware"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/internal/router"
	"magiops_v1_202608/internal/service"
	"magiops_v1_202608/internal/task"
	"magiops_v1_202608/pkg/adsapi"
	"magiops_v1_202608/pkg/adspy"
	"magiops_v1_202608/pkg/crypto"
	"magiops_v1_202608/pkg/database"
	"magiops_v1_202608/pkg/dnsapi"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	taskManager := initTasks(deps)
	defer taskManager.Stop()

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers, &router.Config{
		CronSecret: getEnv("CRON_SECRET", ""),
	})

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	AdsClient   service.AdsClient
}

// Repositories 仓库集合
type Repositories struct {
	Connection repository.ConnectionRepository
	Account    repository.AdAccountRepository
	Snapshot   repository.SnapshotRepository
	Identity   repository.IdentityRepository
	Request    repository.RequestRepository
	Team       repository.TeamMemberRepository
	Domain     repository.DomainRepository
}

// Services 服务集合
type Services struct {
	Token      *service.TokenService
	Connect    *service.ConnectService
	Connection *service.ConnectionService
	Account    *service.AccountService
	Metrics    *service.MetricsService
	Identity   *service.IdentityService
	Request    *service.RequestService
	Team       *service.TeamService
	Domain     *service.DomainService
	AdSpy      *service.AdSpyService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=magiops password=magiops dbname=magiops port=5432 sslmode=disable")

	return database.InitDB(dsn, getEnv("DB_LOG_SQL", "") == "true",
		// 授权与账户
		&model.Connection{}, &model.AdAccount{}, &model.DailySnapshot{},
		// 运营资产
		&model.Identity{}, &model.Domain{},
		// 协作
		&model.OpsRequest{}, &model.TeamMember{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 凭证加密 --------
	cipher, err := crypto.NewTokenCipher(getEnv("TOKEN_CIPHER_SECRET", ""))
	if err != nil {
		log.Fatalf("凭证加密初始化失败（请设置 TOKEN_CIPHER_SECRET）: %v", err)
	}

	// -------- JWT --------
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		cfg := middleware.DefaultJWTConfig()
		cfg.SecretKey = secret
		middleware.SetJWTConfig(cfg)
	}

	// -------- 外部客户端 --------
	adsClient := adsapi.NewClient(&adsapi.Config{
		BaseURL:      getEnv("ADS_API_BASE_URL", "https://ads.example.com/api/v2"),
		TokenURL:     getEnv("ADS_TOKEN_URL", ""),
		ClientID:     getEnv("ADS_CLIENT_ID", ""),
		ClientSecret: getEnv("ADS_CLIENT_SECRET", ""),
	})
	dnsClient := initDNSClient()
	spyClient := adspy.NewClient(
		getEnv("ADSPY_BASE_URL", "https://adspy.example.com"),
		getEnv("ADSPY_API_KEY", ""),
	)

	// -------- 业务服务 --------
	services := &Services{}
	services.Token = service.NewTokenService(repos.Connection, adsClient, cipher, service.DefaultRetryPolicy())
	services.Connect = service.NewConnectService(repos.Connection, cipher, service.ConnectConfig{
		AuthURL:     getEnv("ADS_AUTH_URL", "https://ads.example.com/oauth/authorize"),
		TokenURL:    getEnv("ADS_TOKEN_URL", "https://ads.example.com/oauth/token"),
		ClientID:    getEnv("ADS_CLIENT_ID", ""),
		CallbackURL: getEnv("ADS_CALLBACK_URL", "http://localhost:8080/api/connections/callback"),
		Scopes:      getEnv("ADS_SCOPES", "ads_read ads_report"),
	})
	services.Connection = service.NewConnectionService(repos.Connection, cipher)
	services.Account = service.NewAccountService(repos.Account, repos.Snapshot)
	services.Metrics = service.NewMetricsService(repos.Account, services.Token, adsClient)
	services.Identity = service.NewIdentityService(repos.Identity, cipher)
	services.Request = service.NewRequestService(repos.Request, repos.Account)
	services.Team = service.NewTeamService(repos.Team)
	services.Domain = service.NewDomainService(repos.Domain, repos.Account, dnsClient)
	services.AdSpy = service.NewAdSpyService(spyClient)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: nil, // 由 initControllers 填充
		AdsClient:   adsClient,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Connection: repository.NewConnectionRepository(db),
		Account:    repository.NewAdAccountRepository(db),
		Snapshot:   repository.NewSnapshotRepository(db),
		Identity:   repository.NewIdentityRepository(db),
		Request:    repository.NewRequestRepository(db),
		Team:       repository.NewTeamMemberRepository(db),
		Domain:     repository.NewDomainRepository(db),
	}
}

// initDNSClient 初始化 DNS 托管客户端
func initDNSClient() service.DNSClient {
	return dnsapi.NewClient(
		getEnv("DNS_API_BASE_URL", "https://api.cloudflare.com/client/v4"),
		getEnv("DNS_API_TOKEN", ""),
	)
}

// initControllers 初始化所有控制器
func initControllers(svc *Services, taskManager *task.TaskManager) *router.Controllers {
	return &router.Controllers{
		Connection: controller.NewConnectionController(svc.Connection, svc.Connect),
		Account:    controller.NewAccountController(svc.Account, svc.Metrics),
		Sync:       controller.NewSyncController(taskManager),
		Identity:   controller.NewIdentityController(svc.Identity),
		Request:    controller.NewRequestController(svc.Request),
		Team:       controller.NewTeamController(svc.Team),
		Domain:     controller.NewDomainController(svc.Domain),
		AdSpy:      controller.NewAdSpyController(svc.AdSpy),
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化后台任务并填充控制器
func initTasks(deps *Dependencies) *task.TaskManager {
	cfg := task.DefaultConfig()
	cfg.TokenEnabled = getEnv("TASK_TOKEN_ENABLED", "true") == "true"
	cfg.SyncEnabled = getEnv("TASK_SYNC_ENABLED", "true") == "true"
	cfg.DomainEnabled = getEnv("TASK_DOMAIN_ENABLED", "true") == "true"

	taskManager := task.NewTaskManager(&task.TaskManagerDeps{
		AccountRepo:   deps.Repos.Account,
		ConnRepo:      deps.Repos.Connection,
		SnapshotRepo:  deps.Repos.Snapshot,
		TokenService:  deps.Services.Token,
		DomainService: deps.Services.Domain,
		AdsClient:     deps.AdsClient,
	}, cfg)
	taskManager.Start()

	// SyncController 依赖 TaskManager，这里统一补齐控制器
	deps.Controllers = initControllers(deps.Services, taskManager)

	return taskManager
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
