package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
)

type ProductRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewProductRepository(client *dynamodb.Client, tableName string) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
	}
}

func productKey(productID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("PRODUCT#%s", productID)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func (r *ProductRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            productKey(productID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrProductNotFound
	}

	var product domain.Product
	if err := attributevalue.UnmarshalMap(out.Item, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock applies a clamped decrement: quantity drops by qty when
// enough stock remains, otherwise the row is zeroed. Both paths are single
// conditional writes, so concurrent decrements for the same product cannot
// drive the quantity negative.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID string, qty int) (*domain.StockAdjustment, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 productKey(productID),
		UpdateExpression:    aws.String("SET quantity = quantity - :q, sold = sold + :q, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK) AND quantity >= :q"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":   &types.AttributeValueMemberN{Value: strconv.Itoa(qty)},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err == nil {
		var after domain.Product
		if err := attributevalue.UnmarshalMap(out.Attributes, &after); err != nil {
			return nil, err
		}
		if after.Quantity == 0 {
			r.markUnavailable(ctx, productID)
		}
		return &domain.StockAdjustment{
			ProductID: productID,
			Before:    after.Quantity + qty,
			After:     after.Quantity,
		}, nil
	}

	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return nil, fmt.Errorf("failed to decrement stock for product %s: %w", productID, err)
	}

	// Not enough stock left: clamp to zero rather than reject. The remaining
	// units still count as sold.
	out, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 productKey(productID),
		UpdateExpression:    aws.String("SET sold = sold + quantity, quantity = :zero, available = :f, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":f":    &types.AttributeValueMemberBOOL{Value: false},
			":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		if errors.As(err, &ccf) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to clamp stock for product %s: %w", productID, err)
	}

	var before domain.Product
	if err := attributevalue.UnmarshalMap(out.Attributes, &before); err != nil {
		return nil, err
	}
	return &domain.StockAdjustment{
		ProductID: productID,
		Before:    before.Quantity,
		After:     0,
		Clamped:   true,
	}, nil
}

func (r *ProductRepository) markUnavailable(ctx context.Context, productID string) {
	// Follow-up flag flip after the atomic decrement; losing it only leaves a
	// sold-out product marked available until the next inventory check.
	_, _ = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 productKey(productID),
		UpdateExpression:    aws.String("SET available = :f"),
		ConditionExpression: aws.String("attribute_exists(PK) AND quantity = :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f":    &types.AttributeValueMemberBOOL{Value: false},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})
}
