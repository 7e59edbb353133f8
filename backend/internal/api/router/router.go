package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"plantao/backend/config"
	"plantao/backend/internal/api/handler"
	"plantao/backend/internal/api/middleware"
	"plantao/backend/pkg/jwt"
	"plantao/backend/pkg/redis"
)

const (
	maxJSONBody   = 1 << 20 // 1 MiB
	maxUploadBody = 2 << 20 // .ics import
)

// Setup builds the gin engine. rdb may be nil: rate limiting and the token blacklist are then off.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// ── public: the confirmation code is the credential ──
		public := v1.Group("/public")
		public.Use(
			middleware.BodyLimit(maxJSONBody),
			middleware.RateLimit(rdb, cfg.Substitution.ConfirmRateLimit, cfg.Substitution.ConfirmRateWindow, logger),
		)
		{
			public.POST("/postings/:id/confirm", h.Posting.ConfirmSubstitution)
			public.POST("/webhooks/whatsapp", h.Posting.ReplyWebhook)
		}

		// ── authenticated ──
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			postings := authorized.Group("/postings", middleware.BodyLimit(maxJSONBody))
			{
				postings.GET("", h.Posting.ListPostings)
				postings.GET("/:id", h.Posting.GetPosting)
				postings.POST("", middleware.RoleAuth(jwt.RoleClinic, jwt.RoleProfessional), h.Posting.CreatePosting)
				postings.POST("/:id/publish", h.Posting.PublishPosting)
				postings.POST("/:id/cancel", h.Posting.CancelPosting)
				postings.GET("/:id/applications", h.Posting.ListApplications)
				postings.POST("/:id/choose", h.Posting.ChooseCandidate)
				postings.POST("/:id/applications", middleware.RoleAuth(jwt.RoleProfessional), h.Application.Apply)
				postings.POST("/:id/attendance", middleware.RoleAuth(jwt.RoleClinic, jwt.RoleProfessional), h.Attendance.ValidateAttendance)
			}

			applications := authorized.Group("/applications", middleware.RoleAuth(jwt.RoleProfessional))
			{
				applications.GET("/me", h.Application.ListMine)
				applications.DELETE("/:id", h.Application.Withdraw)
			}

			authorized.POST("/attendance/:id/justify", middleware.RoleAuth(jwt.RoleModerator, jwt.RoleAdmin), h.Attendance.JustifyAttendance)

			availability := authorized.Group("/availability", middleware.RoleAuth(jwt.RoleProfessional), middleware.BodyLimit(maxJSONBody))
			{
				availability.GET("", h.Availability.GetStatus)
				availability.POST("/activate", h.Availability.Activate)
				availability.POST("/deactivate", h.Availability.Deactivate)
			}

			calendar := authorized.Group("/calendar", middleware.RoleAuth(jwt.RoleProfessional))
			{
				calendar.GET("/blocks", h.Calendar.ListBlocks)
				calendar.POST("/blocks", middleware.BodyLimit(maxJSONBody), h.Calendar.AddBlock)
				calendar.DELETE("/blocks/:id", h.Calendar.DeleteBlock)
				calendar.GET("/feed.ics", h.Calendar.ExportFeed)
				calendar.POST("/import", middleware.BodyLimit(maxUploadBody), h.Calendar.ImportFeed)
			}

			authorized.GET("/clinics/:id/attendance/export", middleware.RoleAuth(jwt.RoleClinic), h.Export.ExportAttendance)
		}
	}

	return r
}
