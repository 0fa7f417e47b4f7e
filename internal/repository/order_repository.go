package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
)

type OrderRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewOrderRepository(client *dynamodb.Client, tableName string) *OrderRepository {
	return &OrderRepository{
		client:    client,
		tableName: tableName,
	}
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", orderID)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// Create writes a new order. The external order id is the key, so a repeated
// create for the same id fails instead of silently overwriting.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	av, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	av["PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", order.OrderID)}
	av["SK"] = &types.AttributeValueMemberS{Value: "METADATA"}
	av["GSI1PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("TENANT#%s", order.TenantID)}
	av["GSI1SK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", order.CreatedAt.Format(time.RFC3339))}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("order %s already exists", order.OrderID)
		}
		return fmt.Errorf("failed to put order: %w", err)
	}

	return nil
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            orderKey(orderID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrOrderNotFound
	}

	var order domain.Order
	if err := attributevalue.UnmarshalMap(out.Item, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ConditionalUpdateStatus performs the state-machine transition in a single
// conditional write: status moves from -> to only if it currently equals
// from. The bool reports whether this call made the transition; when it is
// false the returned order is the current (already transitioned) row. This is
// what makes finalization race-free across webhook, poll, and manual cleanup.
func (r *OrderRepository) ConditionalUpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, paymentStatus string) (bool, *domain.Order, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 orderKey(orderID),
		UpdateExpression:    aws.String("SET #status = :to, payment_status = :ps, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK) AND #status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: string(from)},
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":ps":   &types.AttributeValueMemberS{Value: paymentStatus},
			":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Another finalizer won, or the order does not exist.
			current, getErr := r.Get(ctx, orderID)
			if getErr != nil {
				return false, nil, getErr
			}
			return false, current, nil
		}
		return false, nil, fmt.Errorf("failed to update order status: %w", err)
	}

	var order domain.Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &order); err != nil {
		return false, nil, err
	}
	return true, &order, nil
}

// AttachPayment records the provider transaction back-reference.
func (r *OrderRepository) AttachPayment(ctx context.Context, orderID, transactionID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 orderKey(orderID),
		UpdateExpression:    aws.String("SET transaction_id = :txn, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":txn": &types.AttributeValueMemberS{Value: transactionID},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("failed to attach payment to order: %w", err)
	}
	return nil
}
