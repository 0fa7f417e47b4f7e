package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
)

type PaymentRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewPaymentRepository(client *dynamodb.Client, tableName string) *PaymentRepository {
	return &PaymentRepository{
		client:    client,
		tableName: tableName,
	}
}

func paymentKey(transactionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("PAYMENT#%s", transactionID)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// CreateIfAbsent writes the payment record keyed by provider transaction id.
// Returns false when a record for the transaction already exists; a provider
// retry or duplicate webhook lands here harmlessly.
func (r *PaymentRepository) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	av, err := attributevalue.MarshalMap(payment)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payment: %w", err)
	}

	av["PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("PAYMENT#%s", payment.TransactionID)}
	av["SK"] = &types.AttributeValueMemberS{Value: "METADATA"}
	av["GSI1PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", payment.OrderID)}
	av["GSI1SK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("PAYMENT#%s", payment.TransactionID)}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("failed to put payment: %w", err)
	}

	return true, nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            paymentKey(transactionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrPaymentNotFound
	}

	var payment domain.Payment
	if err := attributevalue.UnmarshalMap(out.Item, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
