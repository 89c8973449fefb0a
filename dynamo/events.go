package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campus-fest/event-checkin/events"
	"github.com/campus-fest/event-checkin/slices"
	"github.com/google/uuid"
)

var _ events.Repository = &DB{}

type eventDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string

	ID                    string
	Version               int
	Name                  string
	Description           string
	Venue                 string
	StartTime             time.Time
	RegistrationCloseTime time.Time
	FeeAmount             int64
	FeeCurrency           string
	Status                events.Status
}

const (
	eventEntityName = "EVENT"
)

func eventPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", eventEntityName, id)
}

func eventSK(id uuid.UUID) string {
	return eventPK(id)
}

func newEventDynamo(event events.Event) eventDynamo {
	fee := event.Fee
	if fee == nil {
		fee = money.New(0, money.INR)
	}

	return eventDynamo{
		PK:                    eventPK(event.ID),
		SK:                    eventSK(event.ID),
		GSI1PK:                eventEntityName,
		GSI1SK:                fmt.Sprintf("%s#%s#%s", eventEntityName, event.StartTime.UTC().Format(time.RFC3339), event.ID),
		ID:                    event.ID.String(),
		Version:               event.Version,
		Name:                  event.Name,
		Description:           event.Description,
		Venue:                 event.Venue,
		StartTime:             event.StartTime,
		RegistrationCloseTime: event.RegistrationCloseTime,
		FeeAmount:             fee.Amount(),
		FeeCurrency:           fee.Currency().Code,
		Status:                event.Status,
	}
}

func eventFromEventDynamo(event eventDynamo) events.Event {
	return events.Event{
		ID:                    uuid.MustParse(event.ID),
		Version:               event.Version,
		Name:                  event.Name,
		Description:           event.Description,
		Venue:                 event.Venue,
		StartTime:             event.StartTime,
		RegistrationCloseTime: event.RegistrationCloseTime,
		Fee:                   money.New(event.FeeAmount, event.FeeCurrency),
		Status:                event.Status,
	}
}

func (d *DB) CreateEvent(ctx context.Context, event events.Event) error {
	dynamoEvent := newEventDynamo(event)

	item, err := attributevalue.MarshalMap(dynamoEvent)
	if err != nil {
		return events.NewFailedToTranslateToDBModelError("Failed to translate event to dynamo model", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityConditional()))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return events.NewEventAlreadyExistsError(fmt.Sprintf("Event with ID %q already exists", event.ID), err)
		}
		return events.NewFailedToWriteError("Failed PutItem call", err)
	}

	return nil
}

func (d *DB) UpdateEvent(ctx context.Context, event events.Event) error {
	dynamoEvent := newEventDynamo(event)

	item, err := attributevalue.MarshalMap(dynamoEvent)
	if err != nil {
		return events.NewFailedToTranslateToDBModelError("Failed to translate event to dynamo model", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(existingEntityVersionConditional(event.Version)))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return events.NewVersionConflictError(fmt.Sprintf("Event %q does not exist at version %d", event.ID, event.Version-1), err)
		}
		return events.NewFailedToWriteError("Failed PutItem call", err)
	}

	return nil
}

func (d *DB) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: eventPK(id)},
			"SK": &types.AttributeValueMemberS{Value: eventSK(id)},
		},
	})
	if err != nil {
		return events.Event{}, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch event with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return events.Event{}, events.NewEventDoesNotExistError(fmt.Sprintf("Event with ID %q not found", id), nil)
	}

	var dynamoEvent eventDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dynamoEvent)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal event from dynamo: %s", err))
	}

	return eventFromEventDynamo(dynamoEvent), nil
}

func (d *DB) GetEvents(ctx context.Context, limit int32, cursor *string) (events.GetEventsResponse, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(eventEntityName))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	var startKey map[string]types.AttributeValue
	if cursor != nil {
		startKey, err = cursorToLastEval(*cursor)
		if err != nil {
			return events.GetEventsResponse{}, events.NewInvalidCursorError("Invalid cursor", err)
		}
	}

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		// Fetch 1 more than limit to check if there is another page or not
		Limit:             aws.Int32(limit + 1),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return events.GetEventsResponse{}, events.NewFailedToFetchError("Failed to fetch events from dynamo", err)
	}

	var dynamoItems []eventDynamo
	err = attributevalue.UnmarshalListOfMaps(result.Items, &dynamoItems)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal dynamo events: %s", err))
	}

	hasNextPage := len(dynamoItems) > int(limit)

	var newCursor *string
	if hasNextPage && len(result.LastEvaluatedKey) > 0 {
		// Can't use LastEvalKey directly because we grabbed an extra item to check for next page
		lastItemGivenToUser := result.Items[len(result.Items)-2]
		lastItemKey := getKeyFromItem(result.LastEvaluatedKey, lastItemGivenToUser)
		c, err := lastEvalKeyToCursor(lastItemKey)
		if err != nil {
			panic(fmt.Sprintf("failed to make cursor from lastEvalKey: %s", err))
		}
		newCursor = &c
	}

	return events.GetEventsResponse{
		Data: slices.Map(dynamoItems, func(v eventDynamo) events.Event {
			return eventFromEventDynamo(v)
		})[:min(int(limit), len(dynamoItems))],
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}
