package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"magiops_v1_202608/internal/controller"
	"magiops_v1_202608/internal/middleware"
	"magiops_v1_202608/internal/model"

	_ "magiops_v1_202608/docs"
)

// Controllers 控制器集合
type Controllers struct {
	Connection *controller.ConnectionController
	Account    *controller.AccountController
	Sync       *controller.SyncController
	Identity   *controller.IdentityController
	Request    *controller.RequestController
	Team       *controller.TeamController
	Domain     *controller.DomainController
	AdSpy      *controller.AdSpyController
}

// Config 路由配置
type Config struct {
	// CronSecret 定时触发接口的共享密钥，空值时接口返回 503
	CronSecret string
}

// SetupRouter 注册所有路由
func SetupRouter(ctls *Controllers, cfg *Config) *gin.Engine {
	r := gin.Default()

	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. 开放路由（无需登录）
	api := r.Group("/api")
	{
		// 成员登录
		api.POST("/team/login", ctls.Team.Login)

		// 广告平台 OAuth 回调，由平台侧跳转进来
		api.GET("/connections/callback", ctls.Connection.Callback)

		// 定时触发入口，X-Cron-Secret 鉴权
		sync := api.Group("/sync", middleware.CronSecret(cfg.CronSecret))
		{
			// POST /api/sync/run
			sync.POST("/run",
				middleware.GlobalSyncRateLimit(middleware.SyncTypeMetrics, middleware.GetInterval(middleware.SyncTypeMetrics)),
				ctls.Sync.RunBatchSync)
			sync.GET("/status", ctls.Sync.Status)
		}
	}

	// 3. 业务路由（JWT 登录态）
	authed := r.Group("/api", middleware.JWTAuth())
	{
		// connection 授权连接
		connections := authed.Group("/connections")
		{
			// GET /api/connections
			connections.GET("", ctls.Connection.ListConnections)
			connections.GET("/:id", ctls.Connection.GetConnection)
			connections.POST("", ctls.Connection.CreateConnection)
			connections.PUT("/:id", ctls.Connection.UpdateConnection)
			connections.DELETE("/:id", ctls.Connection.Disconnect)

			// GET /api/connections/login 生成平台授权跳转地址
			connections.GET("/login", ctls.Connection.Login)
		}

		// account 广告账户
		accounts := authed.Group("/accounts")
		{
			accounts.GET("", ctls.Account.ListAccounts)
			accounts.GET("/:id", ctls.Account.GetAccount)
			accounts.POST("", ctls.Account.CreateAccount)
			accounts.PUT("/:id", ctls.Account.UpdateAccount)
			accounts.DELETE("/:id", ctls.Account.ArchiveAccount)

			// 历史快照
			accounts.GET("/:id/snapshots", ctls.Account.ListSnapshots)

			// 实时读取（带缓存回退），穿透平台 API 的读做按账户限流
			listingLimit := middleware.SyncRateLimit(middleware.SyncTypeListing, middleware.GetInterval(middleware.SyncTypeListing))
			accounts.GET("/:id/metrics", listingLimit, ctls.Account.GetMetrics)
			accounts.GET("/:id/campaigns", listingLimit, ctls.Account.GetCampaigns)
			accounts.GET("/:id/ad_groups", listingLimit, ctls.Account.GetAdGroups)
			accounts.GET("/:id/keywords", listingLimit, ctls.Account.GetKeywords)
		}

		// identity 浏览器身份
		identities := authed.Group("/identities")
		{
			identities.GET("", ctls.Identity.ListIdentities)
			identities.GET("/:id", ctls.Identity.GetIdentity)
			identities.POST("", ctls.Identity.CreateIdentity)
			identities.PUT("/:id", ctls.Identity.UpdateIdentity)
			identities.DELETE("/:id", ctls.Identity.DeleteIdentity)
		}

		// request 运营工单
		requests := authed.Group("/requests")
		{
			requests.GET("", ctls.Request.ListRequests)
			requests.GET("/stats", ctls.Request.Stats)
			requests.GET("/:id", ctls.Request.GetRequest)
			requests.POST("", ctls.Request.CreateRequest)
			requests.PUT("/:id", ctls.Request.UpdateRequest)

			// 审批/驳回/完结仅限管理员与运营
			requests.POST("/:id/resolve",
				middleware.RequireRole(model.RoleAdmin, model.RoleOperator),
				ctls.Request.ResolveRequest)
		}

		// team 团队成员
		team := authed.Group("/team")
		{
			team.GET("", ctls.Team.ListMembers)
			team.GET("/:id", ctls.Team.GetMember)

			// 成员管理仅限管理员
			team.POST("", middleware.RequireRole(model.RoleAdmin), ctls.Team.CreateMember)
			team.PUT("/:id", middleware.RequireRole(model.RoleAdmin), ctls.Team.UpdateMember)
		}

		// domain 落地页域名
		domains := authed.Group("/domains")
		{
			domains.GET("", ctls.Domain.ListDomains)
			domains.GET("/:id", ctls.Domain.GetDomain)
			domains.POST("", ctls.Domain.CreateDomain)
			domains.DELETE("/:id", ctls.Domain.DeleteDomain)

			// 手动验证做按域名限流，DNS 查询不宜过频
			domains.POST("/:id/verify",
				middleware.SyncRateLimit(middleware.SyncTypeDomain, middleware.GetInterval(middleware.SyncTypeDomain)),
				ctls.Domain.VerifyDomain)
		}

		// adspy 竞品调研
		adspy := authed.Group("/adspy")
		{
			adspy.GET("/search", ctls.AdSpy.Search)
			adspy.GET("/health", ctls.AdSpy.Health)
		}
	}

	return r
}
