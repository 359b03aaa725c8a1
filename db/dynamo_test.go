package db

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDynamo struct {
	mock.Mock
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}

func (m *mockDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func newTestStore(api dynamoAPI) *DynamoStore {
	return &DynamoStore{api: api, log: zerolog.Nop()}
}

func TestSaveSessionMarshalsItem(t *testing.T) {
	api := &mockDynamo{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		var got RoomSession
		if err := attributevalue.UnmarshalMap(in.Item, &got); err != nil {
			return false
		}
		return aws.ToString(in.TableName) == TableSessions &&
			got.Kind == sessionKind && got.RoomCode == "ABC123" && got.PeakScore == 900
	})).Return(nil).Once()

	err := newTestStore(api).SaveSession(context.Background(), RoomSession{
		SessionID: "s1", RoomCode: "ABC123", PeakScore: 900, Players: []string{"Player1"},
	})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestSaveSessionWrapsError(t *testing.T) {
	api := &mockDynamo{}
	boom := errors.New("throttled")
	api.On("PutItem", mock.Anything, mock.Anything).Return(boom)

	err := newTestStore(api).SaveSession(context.Background(), RoomSession{SessionID: "s1"})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s1")
}

func TestRecentSessionsQueriesIndexDescending(t *testing.T) {
	item, err := attributevalue.MarshalMap(RoomSession{SessionID: "s9", Kind: sessionKind, RoomCode: "XYZ789", ClosedAt: 42})
	require.NoError(t, err)

	api := &mockDynamo{}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		k, ok := in.ExpressionAttributeValues[":k"].(*types.AttributeValueMemberS)
		return aws.ToString(in.IndexName) == RecentIndex &&
			!aws.ToBool(in.ScanIndexForward) &&
			aws.ToInt32(in.Limit) == 3 &&
			ok && k.Value == sessionKind
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil)

	sessions, err := newTestStore(api).RecentSessions(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "XYZ789", sessions[0].RoomCode)
	assert.Equal(t, int64(42), sessions[0].ClosedAt)
}

func TestMockStoreRoundTrip(t *testing.T) {
	store, err := NewSessionStore(context.Background(), true, "")
	require.NoError(t, err)

	require.NoError(t, store.SaveSession(context.Background(), RoomSession{
		SessionID: "fresh", RoomCode: "NEW001", ClosedAt: 1 << 40,
	}))
	sessions, err := store.RecentSessions(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "NEW001", sessions[0].RoomCode)
}
