package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campus-fest/event-checkin/registration"
	"github.com/campus-fest/event-checkin/slices"
	"github.com/google/uuid"
)

var _ registration.Repository = &DB{}

type registrationDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string
	GSI2PK string
	GSI2SK string

	ID            uuid.UUID
	EventID       uuid.UUID
	HolderID      uuid.UUID
	Status        registration.Status
	Redeemed      bool
	RedeemedAt    *time.Time
	RegisteredAt  time.Time
	PaymentRef    string
	TransactionID string
	Profile       registration.HolderProfile
}

const (
	registrationEntityName = "REGISTRATION"
	holderGuardEntityName  = "HOLDER"
)

func registrationPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", registrationEntityName, id)
}

func registrationSK(id uuid.UUID) string {
	return registrationPK(id)
}

// The guard item occupies (event, holder) so a second registration for
// the same pair fails the transact-write condition.
func holderGuardPK(eventId uuid.UUID) string {
	return eventPK(eventId)
}

func holderGuardSK(holderId uuid.UUID) string {
	return fmt.Sprintf("%s#%s", holderGuardEntityName, holderId)
}

func registrationToDynamo(reg registration.Registration) registrationDynamo {
	return registrationDynamo{
		PK:            registrationPK(reg.ID),
		SK:            registrationSK(reg.ID),
		GSI1PK:        eventPK(reg.EventID),
		GSI1SK:        fmt.Sprintf("%s#%s#%s", registrationEntityName, reg.RegisteredAt.UTC().Format(time.RFC3339), reg.ID),
		GSI2PK:        fmt.Sprintf("%s#%s", holderGuardEntityName, reg.HolderID),
		GSI2SK:        registrationSK(reg.ID),
		ID:            reg.ID,
		EventID:       reg.EventID,
		HolderID:      reg.HolderID,
		Status:        reg.Status,
		Redeemed:      reg.Redeemed,
		RedeemedAt:    reg.RedeemedAt,
		RegisteredAt:  reg.RegisteredAt,
		PaymentRef:    reg.PaymentRef,
		TransactionID: reg.TransactionID,
		Profile:       reg.Profile,
	}
}

func dynamoToRegistration(dynReg registrationDynamo) registration.Registration {
	return registration.Registration{
		ID:            dynReg.ID,
		EventID:       dynReg.EventID,
		HolderID:      dynReg.HolderID,
		Status:        dynReg.Status,
		Redeemed:      dynReg.Redeemed,
		RedeemedAt:    dynReg.RedeemedAt,
		RegisteredAt:  dynReg.RegisteredAt,
		PaymentRef:    dynReg.PaymentRef,
		TransactionID: dynReg.TransactionID,
		Profile:       dynReg.Profile,
	}
}

func (d *DB) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	dynamoReg := registrationToDynamo(reg)

	regItem, err := attributevalue.MarshalMap(dynamoReg)
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate registration to dynamo model", err)
	}

	guardItem, err := attributevalue.MarshalMap(map[string]string{
		"PK":             holderGuardPK(reg.EventID),
		"SK":             holderGuardSK(reg.HolderID),
		"RegistrationID": reg.ID.String(),
	})
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate holder guard to dynamo model", err)
	}

	newExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityConditional()))

	_, err = d.dynamoClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:                 aws.String(d.tableName),
					Item:                      regItem,
					ConditionExpression:       newExpr.Condition(),
					ExpressionAttributeNames:  newExpr.Names(),
					ExpressionAttributeValues: newExpr.Values(),
				},
			},
			{
				Put: &types.Put{
					TableName:                 aws.String(d.tableName),
					Item:                      guardItem,
					ConditionExpression:       newExpr.Condition(),
					ExpressionAttributeNames:  newExpr.Names(),
					ExpressionAttributeValues: newExpr.Values(),
				},
			},
		},
	})
	if err != nil {
		var transactionFailedErr *types.TransactionCanceledException
		if errors.As(err, &transactionFailedErr) {
			for _, reason := range transactionFailedErr.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return registration.NewRegistrationAlreadyExistsError(
						fmt.Sprintf("Holder %q is already registered for event %q", reg.HolderID, reg.EventID), err)
				}
			}
		}
		return registration.NewFailedToWriteError("Failed TransactWriteItems call", err)
	}

	return nil
}

func (d *DB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: registrationPK(id)},
			"SK": &types.AttributeValueMemberS{Value: registrationSK(id)},
		},
	})
	if err != nil {
		return registration.Registration{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registration with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return registration.Registration{}, registration.NewRegistrationDoesNotExistError(fmt.Sprintf("Registration with ID %q not found", id), nil)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), nil
}

func (d *DB) SetApprovalStatus(ctx context.Context, id uuid.UUID, newStatus registration.Status) (registration.Registration, error) {
	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists().
			And(expression.Name("Status").Equal(expression.Value(registration.PENDING)))).
		WithUpdate(expression.Set(expression.Name("Status"), expression.Value(newStatus))))

	resp, err := d.dynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: registrationPK(id)},
			"SK": &types.AttributeValueMemberS{Value: registrationSK(id)},
		},
		ConditionExpression:                 expr.Condition(),
		UpdateExpression:                    expr.Update(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			if len(conditionErr.Item) == 0 {
				return registration.Registration{}, registration.NewRegistrationDoesNotExistError(fmt.Sprintf("Registration with ID %q not found", id), err)
			}
			return registration.Registration{}, registration.NewInvalidTransitionError(fmt.Sprintf("Registration %q is no longer PENDING", id), err)
		}
		return registration.Registration{}, registration.NewFailedToWriteError("Failed UpdateItem call", err)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Attributes, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), nil
}

// TryRedeem is the compare-and-set the whole check-in flow hangs on. The
// condition requires Redeemed to still be false inside the update itself,
// so out of any number of concurrent attempts exactly one write applies.
func (d *DB) TryRedeem(ctx context.Context, id uuid.UUID, at time.Time) (registration.TryRedeemResult, error) {
	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists().
			And(expression.Name("Redeemed").Equal(expression.Value(false)))).
		WithUpdate(expression.
			Set(expression.Name("Redeemed"), expression.Value(true)).
			Set(expression.Name("RedeemedAt"), expression.Value(at))))

	resp, err := d.dynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: registrationPK(id)},
			"SK": &types.AttributeValueMemberS{Value: registrationSK(id)},
		},
		ConditionExpression:                 expr.Condition(),
		UpdateExpression:                    expr.Update(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			if len(conditionErr.Item) == 0 {
				return registration.TryRedeemResult{}, registration.NewRegistrationDoesNotExistError(fmt.Sprintf("Registration with ID %q not found", id), err)
			}

			// Another scan already redeemed it. The failed-condition item
			// carries the winner's RedeemedAt.
			var dynReg registrationDynamo
			err = attributevalue.UnmarshalMap(conditionErr.Item, &dynReg)
			if err != nil {
				panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
			}

			return registration.TryRedeemResult{Applied: false, Current: dynamoToRegistration(dynReg)}, nil
		}
		return registration.TryRedeemResult{}, registration.NewFailedToWriteError("Failed UpdateItem call", err)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Attributes, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return registration.TryRedeemResult{Applied: true, Current: dynamoToRegistration(dynReg)}, nil
}

func (d *DB) GetRegistrationsForEvent(ctx context.Context, eventId uuid.UUID, limit int32, cursor *string) (registration.GetRegistrationsResponse, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(eventPK(eventId))).
		And(expression.Key("GSI1SK").BeginsWith(registrationEntityName))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	var startKey map[string]types.AttributeValue
	if cursor != nil {
		startKey, err = cursorToLastEval(*cursor)
		if err != nil {
			return registration.GetRegistrationsResponse{}, registration.NewInvalidCursorError("Invalid cursor", err)
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
		return registration.GetRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to fetch registrations from dynamo", err)
	}

	var dynamoItems []registrationDynamo
	err = attributevalue.UnmarshalListOfMaps(result.Items, &dynamoItems)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal dynamo registrations: %s", err))
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

	return registration.GetRegistrationsResponse{
		Data: slices.Map(dynamoItems, func(v registrationDynamo) registration.Registration {
			return dynamoToRegistration(v)
		})[:min(int(limit), len(dynamoItems))],
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}

func (d *DB) GetRegistrationsForHolder(ctx context.Context, holderId uuid.UUID) ([]registration.Registration, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(fmt.Sprintf("%s#%s", holderGuardEntityName, holderId)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		IndexName:                 aws.String(gsi2),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, registration.NewFailedToFetchError("Failed to fetch registrations from dynamo", err)
	}

	var dynamoItems []registrationDynamo
	err = attributevalue.UnmarshalListOfMaps(result.Items, &dynamoItems)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal dynamo registrations: %s", err))
	}

	return slices.Map(dynamoItems, func(v registrationDynamo) registration.Registration {
		return dynamoToRegistration(v)
	}), nil
}
