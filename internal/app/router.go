package app

import (
	"jumpahead_backend/docs"
	"jumpahead_backend/internal/config"
	"jumpahead_backend/internal/middleware"
	"jumpahead_backend/internal/model"
	"jumpahead_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.auth.UpdateProfile)
		authGroup.GET("/dashboard", c.dashboard.Get)

		// 课程
		authGroup.GET("/courses", c.course.List)
		authGroup.GET("/courses/:id", c.course.Get)
		authGroup.GET("/courses/:id/modules", c.module.ListByCourse)

		// 学习会话（学生）
		sessions := authGroup.Group("/sessions")
		sessions.Use(middleware.RoleMiddleware(model.Student))
		{
			sessions.POST("/upload-image", c.session.UploadImage)
			sessions.POST("/:moduleId", c.session.Load)
			sessions.POST("/:moduleId/turns", c.session.Turn)
			sessions.POST("/:moduleId/evaluate", c.session.Evaluate)
			sessions.POST("/:moduleId/save", c.session.Save)
			sessions.GET("/:moduleId/evaluation", c.session.GetEvaluation)
		}

		// 选课（学生）
		authGroup.POST("/courses/enroll", middleware.RoleMiddleware(model.Student), c.course.Enroll)

		// 模块查看（双角色）
		authGroup.GET("/modules/:id", c.module.Get)

		// 自由问答
		authGroup.POST("/chat/ask", c.chat.Ask)

		// 教学管理（教师）
		teacher := authGroup.Group("")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacher.POST("/courses", c.course.Create)
			teacher.PUT("/courses/:id", c.course.Update)
			teacher.POST("/modules", c.module.Create)
			teacher.PUT("/modules/:id", c.module.Update)
			teacher.POST("/modules/:id/knowledge-sources", c.module.UploadKnowledgeSource)
			teacher.POST("/modules/author/chat", c.module.AuthorChat)
			teacher.POST("/modules/author/summary", c.module.AuthorSummary)
			teacher.POST("/modules/author/report", c.module.AuthorReport)
		}
	}
}
