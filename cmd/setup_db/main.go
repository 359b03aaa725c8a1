package main

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/joho/godotenv"
	appconfig "github.com/kuticlicker/backend/config"
	"github.com/kuticlicker/backend/db"
	"github.com/kuticlicker/backend/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init("info", true)

	// Load .env from the backend root when run from cmd/setup_db
	if err := godotenv.Load("../../.env"); err != nil {
		log.Debug().Msg("no .env file found in ../../, checking current dir")
		if err := godotenv.Load(".env"); err != nil {
			log.Warn().Msg("no .env file found")
		}
	}
	appCfg := appconfig.FromEnv()
	if !needsProvisioning(appCfg) {
		log.Info().Msg("mock mode is on, the in-memory store needs no setup")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(appCfg.AWSRegion))
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	svc := dynamodb.NewFromConfig(cfg)

	recreateTableSessions(ctx, svc)
	log.Info().Msg("database setup complete")
}

// needsProvisioning reports whether the real table should be (re)created. It
// follows the server's own USE_MOCKS default.
func needsProvisioning(cfg *appconfig.Config) bool {
	return !cfg.UseMocks
}

func deleteTableIfExists(ctx context.Context, svc *dynamodb.Client, tableName string) {
	log.Info().Str("table", tableName).Msg("deleting old table if it exists")
	_, err := svc.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		// ResourceNotFoundException lands here too
		log.Info().Err(err).Str("table", tableName).Msg("delete skipped")
		return
	}

	waiter := dynamodb.NewTableNotExistsWaiter(svc)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, 2*time.Minute); err != nil {
		log.Fatal().Err(err).Str("table", tableName).Msg("table was not deleted in time")
	}
	log.Info().Str("table", tableName).Msg("table deleted")
}

func recreateTableSessions(ctx context.Context, svc *dynamodb.Client) {
	tableName := db.TableSessions
	deleteTableIfExists(ctx, svc, tableName)
	log.Info().Str("table", tableName).Msg("creating table")

	_, err := svc.CreateTable(ctx, &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("SessionID"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("Kind"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("ClosedAt"),
				AttributeType: types.ScalarAttributeTypeN,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("SessionID"),
				KeyType:       types.KeyTypeHash,
			},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(db.RecentIndex),
				KeySchema: []types.KeySchemaElement{
					{
						AttributeName: aws.String("Kind"),
						KeyType:       types.KeyTypeHash,
					},
					{
						AttributeName: aws.String("ClosedAt"),
						KeyType:       types.KeyTypeRange,
					},
				},
				Projection: &types.Projection{
					ProjectionType: types.ProjectionTypeAll,
				},
			},
		},
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		log.Error().Err(err).Str("table", tableName).Msg("could not create table")
		return
	}
	log.Info().Str("table", tableName).Msg("table created successfully")
}
