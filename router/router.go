package router

import (
	"rag-chatbot-backend/controller"
	"rag-chatbot-backend/middleware"

	"github.com/gin-gonic/gin"
)

func Register() *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		public := api.Group("/user")
		{
			public.POST("/register", controller.UserRegister)
			public.POST("/login", controller.UserLogin)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/session", controller.CreateSession)
			protected.GET("/sessions", controller.GetSessions)
			protected.DELETE("/session/:id", controller.DeleteSession)
			protected.GET("/session/:id/messages", controller.GetSessionMessages)
			protected.PUT("/session/:id/title", controller.UpdateSessionTitle)
			protected.PUT("/session/:id/folder", controller.UpdateSessionFolder)

			protected.POST("/chat", controller.Chat)

			protected.POST("/folder", controller.CreateFolder)
			protected.GET("/folders", controller.GetFolders)
			protected.GET("/folder/:id", controller.GetFolder)
			protected.PUT("/folder/:id", controller.UpdateFolder)
			protected.POST("/folder/:id/archive", controller.ArchiveFolder)
			protected.POST("/folder/:id/unarchive", controller.UnarchiveFolder)
			protected.DELETE("/folder/:id", controller.DeleteFolder)

			protected.POST("/document", controller.UploadDocument)
			protected.GET("/documents", controller.GetDocuments)
			protected.DELETE("/document/:id", controller.DeleteDocument)
			protected.PUT("/document/:id/folder", controller.MoveDocument)
			protected.GET("/document/:id/download-link", controller.GetDownloadLink)
		}
	}

	return r
}
