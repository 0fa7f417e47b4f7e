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

// DefaultTaxRate applies to tenants that have never configured one.
const DefaultTaxRate = 0.0

type ConfigRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewConfigRepository(client *dynamodb.Client, tableName string) *ConfigRepository {
	return &ConfigRepository{
		client:    client,
		tableName: tableName,
	}
}

func configKey(tenantID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONFIG#%s", tenantID)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// GetOrCreate returns the tenant's configuration, creating the default
// document on first touch.
func (r *ConfigRepository) GetOrCreate(ctx context.Context, tenantID string) (*domain.Configuration, error) {
	cfg, err := r.get(ctx, tenantID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, domain.ErrConfigNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	fresh := &domain.Configuration{
		TenantID:  tenantID,
		TaxRate:   DefaultTaxRate,
		Terminals: []domain.Terminal{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	av, err := attributevalue.MarshalMap(fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}
	av["PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("CONFIG#%s", tenantID)}
	av["SK"] = &types.AttributeValueMemberS{Value: "METADATA"}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Lost the create race; the other writer's document wins.
			return r.get(ctx, tenantID)
		}
		return nil, fmt.Errorf("failed to create configuration: %w", err)
	}
	return fresh, nil
}

func (r *ConfigRepository) get(ctx context.Context, tenantID string) (*domain.Configuration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            configKey(tenantID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrConfigNotFound
	}

	var cfg domain.Configuration
	if err := attributevalue.UnmarshalMap(out.Item, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateTaxRate sets the tenant's tax rate, lazily creating the document.
func (r *ConfigRepository) UpdateTaxRate(ctx context.Context, tenantID string, rate float64) (*domain.Configuration, error) {
	if _, err := r.GetOrCreate(ctx, tenantID); err != nil {
		return nil, err
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              configKey(tenantID),
		UpdateExpression: aws.String("SET tax_rate = :rate, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rate": &types.AttributeValueMemberN{Value: fmt.Sprintf("%g", rate)},
			":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update tax rate: %w", err)
	}

	var cfg domain.Configuration
	if err := attributevalue.UnmarshalMap(out.Attributes, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AssignTerminal binds a registered terminal to a stall. The relation is 1:1
// in both directions, checked here at write time: a terminal already bound to
// another stall and a stall already holding another terminal both reject.
func (r *ConfigRepository) AssignTerminal(ctx context.Context, tenantID, terminalID, stallID string) (*domain.Configuration, error) {
	cfg, err := r.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	readAt := cfg.UpdatedAt

	idx := -1
	for i := range cfg.Terminals {
		t := &cfg.Terminals[i]
		if t.TerminalID == terminalID {
			idx = i
			continue
		}
		if stallID != "" && t.StallID == stallID {
			return nil, domain.ErrStallTaken
		}
	}
	if idx < 0 {
		return nil, domain.ErrTerminalNotFound
	}
	if cur := cfg.Terminals[idx].StallID; cur != "" && stallID != "" && cur != stallID {
		return nil, domain.ErrTerminalTaken
	}

	cfg.Terminals[idx].StallID = stallID
	cfg.UpdatedAt = time.Now().UTC()
	return cfg, r.putTerminals(ctx, cfg, readAt)
}

// UpsertTerminal registers or refreshes a terminal record for the tenant. A
// stall binding in the record is subject to the same two-direction 1:1 check
// as AssignTerminal; re-registration without a stall preserves the existing
// binding.
func (r *ConfigRepository) UpsertTerminal(ctx context.Context, tenantID string, terminal domain.Terminal) (*domain.Configuration, error) {
	cfg, err := r.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	readAt := cfg.UpdatedAt

	idx := -1
	for i := range cfg.Terminals {
		t := &cfg.Terminals[i]
		if t.TerminalID == terminal.TerminalID {
			idx = i
			continue
		}
		if terminal.StallID != "" && t.StallID == terminal.StallID {
			return nil, domain.ErrStallTaken
		}
	}
	if idx >= 0 {
		if terminal.StallID == "" {
			terminal.StallID = cfg.Terminals[idx].StallID
		} else if cur := cfg.Terminals[idx].StallID; cur != "" && cur != terminal.StallID {
			return nil, domain.ErrTerminalTaken
		}
		cfg.Terminals[idx] = terminal
	} else {
		cfg.Terminals = append(cfg.Terminals, terminal)
	}
	cfg.UpdatedAt = time.Now().UTC()
	return cfg, r.putTerminals(ctx, cfg, readAt)
}

// RemoveTerminal drops a terminal from the registry.
func (r *ConfigRepository) RemoveTerminal(ctx context.Context, tenantID, terminalID string) (*domain.Configuration, error) {
	cfg, err := r.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	readAt := cfg.UpdatedAt

	kept := cfg.Terminals[:0]
	found := false
	for _, t := range cfg.Terminals {
		if t.TerminalID == terminalID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return nil, domain.ErrTerminalNotFound
	}
	cfg.Terminals = kept
	cfg.UpdatedAt = time.Now().UTC()
	return cfg, r.putTerminals(ctx, cfg, readAt)
}

// putTerminals writes the terminal list conditioned on the document not
// having moved since it was read, so two concurrent writers cannot both pass
// the 1:1 scan and overwrite each other. The loser gets ErrConfigConflict
// and retries from a fresh read.
func (r *ConfigRepository) putTerminals(ctx context.Context, cfg *domain.Configuration, readAt time.Time) error {
	av, err := attributevalue.MarshalList(cfg.Terminals)
	if err != nil {
		return fmt.Errorf("failed to marshal terminals: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 configKey(cfg.TenantID),
		UpdateExpression:    aws.String("SET terminals = :terms, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK) AND updated_at = :read"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":terms": &types.AttributeValueMemberL{Value: av},
			":now":   &types.AttributeValueMemberS{Value: cfg.UpdatedAt.Format(time.RFC3339Nano)},
			":read":  &types.AttributeValueMemberS{Value: readAt.Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.ErrConfigConflict
		}
		return fmt.Errorf("failed to save terminals: %w", err)
	}
	return nil
}
