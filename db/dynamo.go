package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	TableSessions = "KutiRoomSessions"
	RecentIndex   = "RecentIndex"

	// every item shares one partition in RecentIndex so it can be read by ClosedAt
	sessionKind = "room"
)

// Model: RoomSession
type RoomSession struct {
	SessionID  string   `json:"sessionId" dynamodbav:"SessionID"`
	Kind       string   `json:"-" dynamodbav:"Kind"`
	RoomCode   string   `json:"roomCode" dynamodbav:"RoomCode"`
	Capacity   int      `json:"capacity" dynamodbav:"Capacity"`
	Players    []string `json:"players" dynamodbav:"Players"`
	PeakScore  int64    `json:"peakScore" dynamodbav:"PeakScore"`
	FinalScore int64    `json:"finalScore" dynamodbav:"FinalScore"`
	Clicks     int      `json:"clicks" dynamodbav:"Clicks"`
	Purchases  int      `json:"purchases" dynamodbav:"Purchases"`
	EventsWon  int      `json:"eventsWon" dynamodbav:"EventsWon"`
	EventsLost int      `json:"eventsLost" dynamodbav:"EventsLost"`
	CreatedAt  int64    `json:"createdAt" dynamodbav:"CreatedAt"`
	ClosedAt   int64    `json:"closedAt" dynamodbav:"ClosedAt"` // Sort Key for RecentIndex
}

// dynamoAPI is the subset of the DynamoDB client the store uses.
type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore archives finished rooms in DynamoDB.
type DynamoStore struct {
	api dynamoAPI
	log zerolog.Logger
}

// NewDynamoStore loads the default AWS config for region and logs which
// identity and tables it can see.
func NewDynamoStore(ctx context.Context, region string) (*DynamoStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg)
	store := &DynamoStore{api: client, log: log.With().Str("component", "db").Logger()}
	store.log.Info().Str("region", cfg.Region).Msg("DynamoDB session initialized")

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		store.log.Warn().Err(err).Msg("could not get AWS identity")
	} else {
		store.log.Info().Str("account", aws.ToString(identity.Account)).Str("arn", aws.ToString(identity.Arn)).
			Msg("operating as")
	}

	// ListTables may not be permitted; it is diagnostic only.
	tables, err := client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		store.log.Debug().Err(err).Msg("could not list tables")
	} else {
		store.log.Info().Strs("tables", tables.TableNames).Msg("found tables")
	}
	return store, nil
}

func (s *DynamoStore) SaveSession(ctx context.Context, session RoomSession) error {
	session.Kind = sessionKind
	av, err := attributevalue.MarshalMap(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TableSessions),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put session %s: %w", session.SessionID, err)
	}
	s.log.Debug().Str("room", session.RoomCode).Int64("peakScore", session.PeakScore).Msg("saved room session")
	return nil
}

// RecentSessions returns up to limit sessions, newest close first.
func (s *DynamoStore) RecentSessions(ctx context.Context, limit int) ([]RoomSession, error) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableSessions),
		IndexName:              aws.String(RecentIndex),
		KeyConditionExpression: aws.String("Kind = :k"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k": &types.AttributeValueMemberS{Value: sessionKind},
		},
		ScanIndexForward: aws.Bool(false), // Descending ClosedAt
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}

	sessions := make([]RoomSession, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	return sessions, nil
}
