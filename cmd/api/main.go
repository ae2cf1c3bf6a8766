package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/appointments"
	"github.com/mauli-interior/go-storefront/internal/auth"
	storeaws "github.com/mauli-interior/go-storefront/internal/aws"
	"github.com/mauli-interior/go-storefront/internal/cart"
	"github.com/mauli-interior/go-storefront/internal/checkout"
	"github.com/mauli-interior/go-storefront/internal/config"
	"github.com/mauli-interior/go-storefront/internal/contacts"
	"github.com/mauli-interior/go-storefront/internal/email"
	"github.com/mauli-interior/go-storefront/internal/handlers"
	"github.com/mauli-interior/go-storefront/internal/logger"
	"github.com/mauli-interior/go-storefront/internal/orders"
	"github.com/mauli-interior/go-storefront/internal/payment"
	"github.com/mauli-interior/go-storefront/internal/products"
	"github.com/mauli-interior/go-storefront/internal/reviews"
	"github.com/mauli-interior/go-storefront/internal/users"
	"github.com/mauli-interior/go-storefront/internal/wishlist"
)

func main() {
	cfg := config.Load()

	logg, err := logger.New()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logg.Sync()

	clients, err := storeaws.NewAWSClients(context.Background(), cfg.AWSRegion)
	if err != nil {
		logg.Fatal("failed to init aws clients", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, 0)

	carts := cart.NewService(
		cart.NewRedisStore(redisClient, 0),
		cart.NewMirrorStore(clients.DynamoDB, cfg.CartsTable),
		logg,
		cfg.CartSaveDebounce,
	)

	ordersStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
	sessions := checkout.NewSessionStore(clients.DynamoDB, cfg.CheckoutTable, cfg.CheckoutTTL)
	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, "")
	publisher := storeaws.NewPublisher(clients.SQS, cfg.OrdersQueueURL)
	metrics := storeaws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)

	workflow := checkout.NewWorkflow(carts, ordersStore, sessions, gateway, publisher, metrics, logg)
	mailer := email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailSender, "Mauli Interior")

	router := handlers.NewRouter(handlers.Config{
		Log:          logg,
		Issuer:       issuer,
		Users:        users.NewService(users.NewStore(clients.DynamoDB, cfg.UsersTable), issuer, mailer),
		Products:     products.NewStore(clients.DynamoDB, cfg.ProductsTable),
		Reviews:      reviews.NewStore(clients.DynamoDB, cfg.ReviewsTable),
		Wishlist:     wishlist.NewStore(clients.DynamoDB, cfg.WishlistsTable),
		Contacts:     contacts.NewStore(clients.DynamoDB, cfg.ContactsTable),
		Appointments: appointments.NewStore(clients.DynamoDB, cfg.AppointmentsTable),
		Carts:        carts,
		Orders:       ordersStore,
		Checkout:     workflow,
	})

	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logg.Info("running local server", zap.String("addr", addr))
		if err := router.Run(addr); err != nil {
			logg.Fatal("local server failed", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(router)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
