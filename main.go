package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kriya/internal/handlers"
	"kriya/internal/middleware"
	"kriya/internal/models"
	"kriya/internal/repositories"
	"kriya/internal/services"
	"kriya/pkg/payments"
	"kriya/pkg/rabbitmq"
)

func configure() {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "file:kriya.db?cache=shared")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("STRIPE_API_KEY", "")
	viper.SetDefault("CURRENCY", "inr")
	viper.SetDefault("TAX_RATE", services.DefaultTaxRate)
	viper.SetDefault("SHIPPING_FLAT_RATE", 0.0)
	viper.AutomaticEnv() // Load environment variables
}

func openDatabase() (*gorm.DB, error) {
	dsn := viper.GetString("DATABASE_DSN")
	switch driver := viper.GetString("DB_DRIVER"); driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}
}

// NewApp assembles the Fiber application: database, repositories, services,
// and routes. The RabbitMQ and Stripe clients are optional — when their config
// is absent (as in tests) the app runs without event publishing and with no
// live processor.
func NewApp() (*fiber.App, *services.AuthService, error) {
	configure()

	db, err := openDatabase()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// --- Optional collaborators ---
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		events = mqClient
	} else {
		log.Println("RABBITMQ_URL not set; order events will not be published.")
	}

	var processor services.PaymentProcessor
	if key := viper.GetString("STRIPE_API_KEY"); key != "" {
		stripeClient, err := payments.NewStripeClient(payments.Config{APIKey: key})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Stripe client: %w", err)
		}
		processor = stripeClient
	} else {
		log.Println("STRIPE_API_KEY not set; processor-based payments are disabled.")
	}

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, events, services.OrderConfig{
		TaxRate:      viper.GetFloat64("TAX_RATE"),
		ShippingFlat: viper.GetFloat64("SHIPPING_FLAT_RATE"),
	})
	paymentService := services.NewPaymentService(orderRepo, productRepo, processor, events, viper.GetString("CURRENCY"))
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	app.Use(logger.New()) // Request logger

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Processor callback (public: verified server-side, not by JWT)
	paymentHandler.RegisterWebhookRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)
	paymentHandler.RegisterRoutes(protectedRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start RabbitMQ Consumer in a Goroutine ---
	// Listens for order lifecycle events. A real deployment would add
	// reconnection logic here.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received order event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	return app, authService, nil
}

func main() {
	app, _, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
