package routes

import (
	"os"
	"strings"

	"fieldservice-backend/config"
	"fieldservice-backend/controllers"
	"fieldservice-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func allowedOrigins() []string {
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		return strings.Split(env, ",")
	}
	return []string{"http://localhost:3000"}
}

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := allowedOrigins()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
		}

		jobs := api.Group("/jobs")
		{
			jobs.POST("", controllers.CreateJob)
			jobs.GET("", controllers.GetJobs)
			jobs.GET("/:id", controllers.GetJob)
			jobs.PUT("/:id", controllers.UpdateJob)
			jobs.DELETE("/:id", controllers.DeleteJob)
		}

		products := api.Group("/products")
		{
			products.POST("", controllers.CreateProduct)
			products.GET("", controllers.GetProducts)
			products.GET("/:id", controllers.GetProduct)
			products.PUT("/:id", controllers.UpdateProduct)
			products.DELETE("/:id", controllers.DeleteProduct)
		}

		documents := api.Group("/documents")
		{
			documents.POST("", controllers.CreateDocument)
			documents.GET("", controllers.GetDocuments)
			documents.GET("/:id", controllers.GetDocument)
			documents.PUT("/:id", controllers.UpdateDocument)
			documents.DELETE("/:id", controllers.DeleteDocument)
			documents.POST("/:id/convert", controllers.ConvertDocument)
			documents.POST("/:id/payments", controllers.CreatePayment)
			documents.GET("/:id/payments", controllers.GetPayments)
		}

		builder := api.Group("/builder")
		{
			builder.POST("", controllers.StartBuilderSession)
			builder.GET("/:sid", controllers.GetBuilderSession)
			builder.POST("/:sid/items", controllers.AddBuilderItem)
			builder.PUT("/:sid/items/:itemId", controllers.UpdateBuilderItem)
			builder.DELETE("/:sid/items/:itemId", controllers.RemoveBuilderItem)
			builder.POST("/:sid/warranties", controllers.AddBuilderWarranty)
			builder.DELETE("/:sid/warranties/:productId", controllers.RemoveBuilderWarranty)
			builder.POST("/:sid/next", controllers.BuilderNext)
			builder.POST("/:sid/back", controllers.BuilderBack)
			builder.POST("/:sid/send", controllers.BuilderSend)
			builder.DELETE("/:sid", controllers.CloseBuilderSession)
		}

		api.GET("/dashboard", controllers.GetDashboardOverview)
		api.GET("/reports/revenue", controllers.GetRevenueReport)

		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("", controllers.UpdateProfile)
			profile.PUT("/billing", controllers.UpdateBillingSettings)
			profile.PUT("/notifications", controllers.UpdateNotificationSettings)
		}
	}

	return r
}
