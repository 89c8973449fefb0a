package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campus-fest/event-checkin/holders"
	"github.com/google/uuid"
)

var _ holders.Repository = &DB{}

type holderDynamo struct {
	PK string
	SK string

	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash []byte
	Role         holders.Role
	CreatedAt    time.Time
}

const (
	holderEntityName      = "ACCOUNT"
	holderEmailEntityName = "ACCOUNTEMAIL"
)

func holderPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", holderEntityName, id)
}

// Emails are stored lowercased, so lookups normalize the same way.
func holderEmailPK(email string) string {
	return fmt.Sprintf("%s#%s", holderEmailEntityName, strings.ToLower(email))
}

func holderToDynamo(holder holders.Holder) holderDynamo {
	return holderDynamo{
		PK:           holderPK(holder.ID),
		SK:           holderPK(holder.ID),
		ID:           holder.ID,
		Name:         holder.Name,
		Email:        holder.Email,
		PasswordHash: holder.PasswordHash,
		Role:         holder.Role,
		CreatedAt:    holder.CreatedAt,
	}
}

func dynamoToHolder(dyn holderDynamo) holders.Holder {
	return holders.Holder{
		ID:           dyn.ID,
		Name:         dyn.Name,
		Email:        dyn.Email,
		PasswordHash: dyn.PasswordHash,
		Role:         dyn.Role,
		CreatedAt:    dyn.CreatedAt,
	}
}

// CreateHolder writes the account item and an email guard item in one
// transaction so emails stay unique.
func (d *DB) CreateHolder(ctx context.Context, holder holders.Holder) error {
	item, err := attributevalue.MarshalMap(holderToDynamo(holder))
	if err != nil {
		return holders.NewFailedToTranslateToDBModelError("Failed to translate holder to dynamo model", err)
	}

	guardItem, err := attributevalue.MarshalMap(map[string]string{
		"PK":       holderEmailPK(holder.Email),
		"SK":       holderEmailPK(holder.Email),
		"HolderID": holder.ID.String(),
	})
	if err != nil {
		return holders.NewFailedToTranslateToDBModelError("Failed to translate email guard to dynamo model", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityConditional()))

	_, err = d.dynamoClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:                 aws.String(d.tableName),
					Item:                      item,
					ConditionExpression:       expr.Condition(),
					ExpressionAttributeNames:  expr.Names(),
					ExpressionAttributeValues: expr.Values(),
				},
			},
			{
				Put: &types.Put{
					TableName:                 aws.String(d.tableName),
					Item:                      guardItem,
					ConditionExpression:       expr.Condition(),
					ExpressionAttributeNames:  expr.Names(),
					ExpressionAttributeValues: expr.Values(),
				},
			},
		},
	})
	if err != nil {
		var transactionFailedErr *types.TransactionCanceledException
		if errors.As(err, &transactionFailedErr) {
			for _, reason := range transactionFailedErr.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return holders.NewHolderAlreadyExistsError(fmt.Sprintf("An account already exists for %q", holder.Email), err)
				}
			}
		}
		return holders.NewFailedToWriteError("Failed TransactWriteItems call", err)
	}

	return nil
}

func (d *DB) GetHolder(ctx context.Context, id uuid.UUID) (holders.Holder, error) {
	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: holderPK(id)},
			"SK": &types.AttributeValueMemberS{Value: holderPK(id)},
		},
	})
	if err != nil {
		return holders.Holder{}, holders.NewFailedToFetchError(fmt.Sprintf("Failed to fetch holder with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return holders.Holder{}, holders.NewHolderDoesNotExistError(fmt.Sprintf("Holder with ID %q not found", id), nil)
	}

	var dyn holderDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dyn)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal holder from dynamo: %s", err))
	}

	return dynamoToHolder(dyn), nil
}

func (d *DB) GetHolderByEmail(ctx context.Context, email string) (holders.Holder, error) {
	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: holderEmailPK(email)},
			"SK": &types.AttributeValueMemberS{Value: holderEmailPK(email)},
		},
	})
	if err != nil {
		return holders.Holder{}, holders.NewFailedToFetchError(fmt.Sprintf("Failed to fetch holder by email %q", email), err)
	}

	if len(resp.Item) == 0 {
		return holders.Holder{}, holders.NewHolderDoesNotExistError(fmt.Sprintf("No holder with email %q", email), nil)
	}

	var guard struct {
		HolderID string
	}
	err = attributevalue.UnmarshalMap(resp.Item, &guard)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal email guard from dynamo: %s", err))
	}

	id, err := uuid.Parse(guard.HolderID)
	if err != nil {
		panic(fmt.Sprintf("email guard holds a malformed holder id: %s", err))
	}

	return d.GetHolder(ctx, id)
}
