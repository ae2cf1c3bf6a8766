package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	storeaws "github.com/mauli-interior/go-storefront/internal/aws"
	"github.com/mauli-interior/go-storefront/internal/config"
	"github.com/mauli-interior/go-storefront/internal/email"
	"github.com/mauli-interior/go-storefront/internal/logger"
	"github.com/mauli-interior/go-storefront/internal/orders"
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

	processor := NewProcessor(
		orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailSender, "Mauli Interior"),
		storeaws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		logg,
	)

	// RUN_LOCAL=true feeds one simulated SQS record instead of starting the
	// Lambda runtime.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1","user_id":"local-user-1"}`
		}
		event := events.SQSEvent{Records: []events.SQSMessage{{Body: body}}}
		if err := processor.HandleEvent(context.Background(), event); err != nil {
			logg.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(processor.HandleEvent)
}
