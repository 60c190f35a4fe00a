package main

import (
	"log"

	"famhealth-backend/chat"
	"famhealth-backend/conn"
	"famhealth-backend/login"
	"famhealth-backend/members"
	"famhealth-backend/migrations"
	"famhealth-backend/openai"
	"famhealth-backend/quota"
	"famhealth-backend/records"
	"famhealth-backend/subscriptions"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	db, err := conn.NewMySQL()
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	migrations.Init(db)
	if err := migrations.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := migrations.SeedDefaultPlans(); err != nil {
		log.Fatalf("plan seeding failed: %v", err)
	}

	subsRepo := subscriptions.NewRepository(db)
	quotaValidator := quota.NewValidator(subsRepo)
	quota.RegisterUserResolver(func(email string) *quota.UserLite {
		if u := migrations.GetUserByEmail(email); u != nil {
			return &quota.UserLite{ID: u.ID, Email: u.Email}
		}
		return nil
	})

	memberRepo := members.NewRepository(db)
	recordRepo := records.NewRepository(db)
	historyRepo := chat.NewHistoryRepository(db)
	aiClient := openai.NewClient()
	stripeSvc := subscriptions.NewStripeFromEnv(subsRepo)

	r := gin.Default()

	r.POST("/login", login.Handler)
	r.POST("/register", login.RegisterHandler)
	r.POST("/logout", login.LogoutHandler)
	r.GET("/session", login.SessionHandler)
	r.POST("/change-password", login.ChangePasswordHandler)

	members.NewHandler(memberRepo, quotaValidator).RegisterRoutes(r)
	records.NewHandler(recordRepo, memberRepo, quotaValidator).RegisterRoutes(r)
	chat.NewHandler(aiClient, recordRepo, historyRepo, memberRepo, quotaValidator).RegisterRoutes(r)
	subscriptions.NewHandler(subsRepo, stripeSvc).RegisterRoutes(r)

	if err := r.Run(":8080"); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
