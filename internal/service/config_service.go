package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
)

// ConfigService exposes the per-tenant settings the cashier flows depend on.
// The tenant id always resolves to the owning admin account before this layer
// (linked cashier tokens carry their admin's tenant id), so a linked user
// reads the admin's tax rate without special handling here.
type ConfigService struct {
	configs ConfigStore
	logger  *zap.Logger
}

func NewConfigService(configs ConfigStore, logger *zap.Logger) *ConfigService {
	return &ConfigService{
		configs: configs,
		logger:  logger,
	}
}

// GetConfiguration returns the tenant's settings, creating the default
// document on first touch.
func (s *ConfigService) GetConfiguration(ctx context.Context, tenantID string) (*domain.Configuration, error) {
	return s.configs.GetOrCreate(ctx, tenantID)
}

func (s *ConfigService) UpdateTaxRate(ctx context.Context, tenantID string, rate float64) (*domain.Configuration, error) {
	if rate < 0 || rate > 100 {
		return nil, domain.Validationf("tax rate must be between 0 and 100, got %g", rate)
	}
	cfg, err := s.configs.UpdateTaxRate(ctx, tenantID, rate)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Tax rate updated",
		zap.String("tenant_id", tenantID),
		zap.Float64("tax_rate", rate))
	return cfg, nil
}

// AssignTerminal binds a terminal to a stall; the repository rejects both
// directions of a duplicate binding.
func (s *ConfigService) AssignTerminal(ctx context.Context, tenantID, terminalID, stallID string) (*domain.Configuration, error) {
	if terminalID == "" {
		return nil, domain.Validationf("terminal id is required")
	}
	cfg, err := s.configs.AssignTerminal(ctx, tenantID, terminalID, stallID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Terminal assignment updated",
		zap.String("tenant_id", tenantID),
		zap.String("terminal_id", terminalID),
		zap.String("stall_id", stallID))
	return cfg, nil
}

func (s *ConfigService) RegisterTerminal(ctx context.Context, tenantID string, terminal domain.Terminal) (*domain.Configuration, error) {
	if terminal.TerminalID == "" {
		return nil, domain.Validationf("terminal id is required")
	}
	return s.configs.UpsertTerminal(ctx, tenantID, terminal)
}

func (s *ConfigService) RemoveTerminal(ctx context.Context, tenantID, terminalID string) (*domain.Configuration, error) {
	if terminalID == "" {
		return nil, domain.Validationf("terminal id is required")
	}
	return s.configs.RemoveTerminal(ctx, tenantID, terminalID)
}
