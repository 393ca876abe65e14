package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"microblog/api/middleware"
	"microblog/api/routes"
	"microblog/config"
	"microblog/db"
	"microblog/services"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}
	if err := db.CreateFeedIndexes(db.ORM); err != nil {
		panic("Failed to create indexes: " + err.Error())
	}

	conf := config.AppConfig
	tokenTTL := time.Duration(conf.Auth.TokenTTLMinutes) * time.Minute
	if err := services.InitTokenService(conf.Auth.JWTSecret, tokenTTL); err != nil {
		panic("Failed to init token service: " + err.Error())
	}
	if err := services.InitUploader(conf.Uploads.Dir, conf.Uploads.BaseURL); err != nil {
		panic("Failed to init uploader: " + err.Error())
	}

	// Redis и RabbitMQ опциональны: без них сервер работает, но без
	// кеша страниц и live-уведомлений
	if err := services.InitRedis(); err != nil {
		log.Printf("Warning: Redis unavailable, feed cache disabled: %v", err)
	}
	ctx := context.Background()
	if err := services.InitRabbitMQ(); err != nil {
		log.Printf("Warning: RabbitMQ unavailable, direct WS push only: %v", err)
	} else if err := services.StartNotificationConsumer(ctx, "notification_push"); err != nil {
		log.Printf("Warning: failed to start notification consumer: %v", err)
	}

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("microblog"))
	router.Static("/uploads", conf.Uploads.Dir)

	routes.PublicApi(router)

	addr := fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port)
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
