package http

import (
	"EduForge/internal/delivery/http/controllers"
	"EduForge/internal/delivery/http/controllers/answer"
	"EduForge/internal/delivery/http/controllers/auth"
	"EduForge/internal/delivery/http/controllers/block"
	"EduForge/internal/delivery/http/controllers/class"
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/search"
	"EduForge/internal/delivery/http/controllers/study"
	"EduForge/internal/delivery/http/controllers/suggest"
	"EduForge/internal/delivery/http/controllers/tree"
	"EduForge/internal/models"
	"EduForge/internal/service"
	"EduForge/pkg/logger"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// media uploads are streamed to object storage; keep at most this much in memory
const maxMultipartMemory = 8 << 20

type Options struct {
	CORSOrigins []string
	Checks      map[string]controllers.Check
}

func InitRoutes(l logger.Log, u service.Collection, opts Options) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery(), middleware.RequestIDMiddleware())

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	metrics := middleware.NewMetrics()
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	statusController := controllers.NewStatusHandler(u.Features, opts.Checks)
	authMiddleware := middleware.NewAuthMiddlewareProvider(l, u.AuthService)
	authController := auth.NewAuthHandler(l, u.AuthService)
	classController := class.NewClassHandler(l, u.ClassService)
	treeController := tree.NewTreeHandler(l, u.TreeService)
	blockController := block.NewBlockHandler(l, u.AuthoringService)
	answerController := answer.NewAnswerHandler(l, u.AnswerService)
	suggestController := suggest.NewSuggestHandler(l, u.SuggestService)
	studyController := study.NewStudyHandler(l, u.StudyService)
	searchController := search.NewSearchHandler(l, u.SearchService)

	v1 := r.Group("/v1", metrics.Middleware(), middleware.LoggingMiddleware(l))
	{
		v1.GET("/status", statusController.Status)
		v1.GET("/blocks/types", blockController.BlockTypes)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authController.Login)
			authGroup.POST("/register", authController.Register)
			authGroup.POST("/refresh", authController.Refresh)
		}

		private := v1.Group("", authMiddleware.AuthMiddleware)
		private.GET("/me", authController.Me)
		private.GET("/search", searchController.Search)

		classes := private.Group("/classes")
		{
			classes.GET("", classController.ListClasses)
			classes.POST("", middleware.RequireRoles(models.TeacherRole), classController.CreateClass)
			classes.POST("/join", middleware.RequireRoles(models.StudentRole), classController.Join)
			classes.GET("/:class_id", classController.GetClass)
			classes.POST("/:class_id/members", classController.AddMember)
			classes.DELETE("/:class_id/members/:user_id", classController.RemoveMember)
			classes.POST("/:class_id/join-code", classController.RegenerateJoinCode)
		}

		subjects := private.Group("/subjects")
		{
			subjects.GET("", treeController.ListSubjects)
			subjects.POST("", middleware.RequireRoles(models.TeacherRole), treeController.CreateSubject)
		}
		subject := subjects.Group("/:subject_id")
		{
			subject.GET("", treeController.GetSubject)
			subject.PUT("", treeController.UpdateSubject)
			subject.DELETE("", treeController.DeleteSubject)
			subject.GET("/chapters", treeController.ListChapters)
			subject.POST("/chapters", treeController.CreateChapter)
		}
		chapter := subject.Group("/chapters/:chapter_id")
		{
			chapter.GET("", treeController.GetChapter)
			chapter.PUT("", treeController.UpdateChapter)
			chapter.DELETE("", treeController.DeleteChapter)
			chapter.POST("/summary", studyController.Summarize)
			chapter.POST("/study/:kind", studyController.Generate)
			chapter.GET("/paragraphs", treeController.ListParagraphs)
			chapter.POST("/paragraphs", treeController.CreateParagraph)
		}
		paragraph := chapter.Group("/paragraphs/:paragraph_id")
		{
			paragraph.GET("", treeController.GetParagraph)
			paragraph.PUT("", treeController.UpdateParagraph)
			paragraph.DELETE("", treeController.DeleteParagraph)
			paragraph.POST("/study/:kind", studyController.Generate)
			paragraph.GET("/assignments", treeController.ListAssignments)
			paragraph.POST("/assignments", treeController.CreateAssignment)
		}
		assignment := paragraph.Group("/assignments/:assignment_id")
		{
			assignment.GET("", treeController.GetAssignment)
			assignment.PUT("", treeController.UpdateAssignment)
			assignment.DELETE("", treeController.DeleteAssignment)
			assignment.GET("/view", answerController.View)
			assignment.GET("/answers", answerController.List)
			assignment.POST("/answers", answerController.Submit)
			assignment.POST("/suggestions", suggestController.Suggest)

			assignment.GET("/blocks", blockController.ListBlocks)
			assignment.POST("/blocks", blockController.CreateBlock)
			assignment.PUT("/blocks", blockController.SaveBlocks)
			assignment.PATCH("/blocks/order", blockController.ReorderBlocks)
			assignment.GET("/blocks/:block_id", blockController.GetBlock)
			assignment.PUT("/blocks/:block_id", blockController.UpdateBlock)
			assignment.DELETE("/blocks/:block_id", blockController.DeleteBlock)
			assignment.POST("/blocks/:block_id/media", blockController.UploadMedia)
		}
	}
	return r
}
