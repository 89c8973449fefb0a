package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamo "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/campus-fest/event-checkin/api"
	"github.com/campus-fest/event-checkin/dynamo"
	"github.com/campus-fest/event-checkin/ticket"
	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine in deployed environments; config comes from
	// real env vars there.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	settings := getServerSettingsFromEnv()

	codec, err := ticket.NewCodec(settings.TicketKey)
	if err != nil {
		log.Fatalf("Invalid ticket key: %s", err)
	}

	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %s", err)
	}

	dynamoClient := awsdynamo.NewFromConfig(awsCfg, func(o *awsdynamo.Options) {
		if settings.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.DynamoEndpoint)
		}
	})
	db := dynamo.NewDB(dynamoClient, settings.TableName)

	guard := api.NewGuard(settings.JWTSecret, 24*time.Hour)
	a := api.NewAPI(db, logger, settings.Env, guard, ticket.NewIssuer(codec), ticket.NewService(codec, db, logger))

	s := &http.Server{
		Handler:           a.Routes(),
		Addr:              net.JoinHostPort(settings.Host, settings.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", "addr", s.Addr, "env", settings.Env)
	log.Fatal(s.ListenAndServe())
}

type ServerSettings struct {
	Host           string
	Port           string
	Env            api.Environment
	TableName      string
	DynamoEndpoint string
	TicketKey      []byte
	JWTSecret      []byte
}

func getServerSettingsFromEnv() ServerSettings {
	env := api.LOCAL
	if getEnvOrDefault("ENV", "local") == "prod" {
		env = api.PROD
	}

	return ServerSettings{
		Host:           getEnvOrDefault("HOST", "0.0.0.0"),
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            env,
		TableName:      getEnvOrDefault("TABLE_NAME", "EventCheckin"),
		DynamoEndpoint: os.Getenv("DYNAMO_ENDPOINT"),
		TicketKey:      mustTicketKey(),
		JWTSecret:      []byte(mustEnv("JWT_SECRET")),
	}
}

// mustTicketKey refuses to start without a usable encryption key. A
// server falling back to some default key would mint tickets that any
// other instance of this code could forge.
func mustTicketKey() []byte {
	raw := mustEnv("TICKET_SECRET")

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		log.Fatalf("TICKET_SECRET must be base64: %s", err)
	}
	if len(key) != ticket.KeySize {
		log.Fatalf("TICKET_SECRET must decode to %d bytes, got %d", ticket.KeySize, len(key))
	}

	return key
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatal(fmt.Sprintf("%s must be set", key))
	}

	return v
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return defaultVal
}
