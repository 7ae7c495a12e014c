package main

import (
	"fmt"
	"log"
	"os"

	"fieldservice-backend/config"
	"fieldservice-backend/models"
	"fieldservice-backend/routes"
	"fieldservice-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.SetupLogging()
	config.LoadSettings()
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Client{},
		&models.Job{},
		&models.Product{},
		&models.Document{},
		&models.DocumentItem{},
		&models.Payment{},
		&models.NumberSequence{},
		&models.ReminderLog{},
	)
}

func main() {
	services.NewDispatchService(config.DB).StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
