package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
)

func newConfigService() (*ConfigService, *fakeConfigStore) {
	store := newFakeConfigStore()
	return NewConfigService(store, zap.NewNop()), store
}

func TestUpdateTaxRate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newConfigService()

	cfg, err := svc.UpdateTaxRate(ctx, testTenant, 8.5)
	require.NoError(t, err)
	assert.Equal(t, 8.5, cfg.TaxRate)

	cfg, err = svc.GetConfiguration(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 8.5, cfg.TaxRate)

	for _, rate := range []float64{-1, 100.5} {
		_, err := svc.UpdateTaxRate(ctx, testTenant, rate)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr, "rate %g", rate)
	}
}

func TestTerminalLifecycle(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *ConfigService, id string) {
		t.Helper()
		_, err := svc.RegisterTerminal(ctx, testTenant, domain.Terminal{
			TerminalID: id,
			Label:      "counter " + id,
		})
		require.NoError(t, err)
	}

	t.Run("register assign and remove", func(t *testing.T) {
		svc, _ := newConfigService()
		register(t, svc, "tmr_a")

		cfg, err := svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-1")
		require.NoError(t, err)
		terminal, ok := cfg.TerminalForStall("stall-1")
		require.True(t, ok)
		assert.Equal(t, "tmr_a", terminal.TerminalID)

		cfg, err = svc.RemoveTerminal(ctx, testTenant, "tmr_a")
		require.NoError(t, err)
		assert.Empty(t, cfg.Terminals)
	})

	t.Run("stall can hold only one terminal", func(t *testing.T) {
		svc, _ := newConfigService()
		register(t, svc, "tmr_a")
		register(t, svc, "tmr_b")

		_, err := svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-1")
		require.NoError(t, err)

		_, err = svc.AssignTerminal(ctx, testTenant, "tmr_b", "stall-1")
		assert.ErrorIs(t, err, domain.ErrStallTaken)
	})

	t.Run("terminal bound elsewhere cannot be reassigned silently", func(t *testing.T) {
		svc, _ := newConfigService()
		register(t, svc, "tmr_a")

		_, err := svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-1")
		require.NoError(t, err)

		_, err = svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-2")
		assert.ErrorIs(t, err, domain.ErrTerminalTaken)
	})

	t.Run("registration cannot double-book a stall", func(t *testing.T) {
		svc, _ := newConfigService()
		_, err := svc.RegisterTerminal(ctx, testTenant, domain.Terminal{
			TerminalID: "tmr_a",
			StallID:    "stall-1",
		})
		require.NoError(t, err)

		_, err = svc.RegisterTerminal(ctx, testTenant, domain.Terminal{
			TerminalID: "tmr_b",
			StallID:    "stall-1",
		})
		assert.ErrorIs(t, err, domain.ErrStallTaken)
	})

	t.Run("re-registration cannot rebind a bound terminal", func(t *testing.T) {
		svc, _ := newConfigService()
		register(t, svc, "tmr_a")
		_, err := svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-1")
		require.NoError(t, err)

		_, err = svc.RegisterTerminal(ctx, testTenant, domain.Terminal{
			TerminalID: "tmr_a",
			StallID:    "stall-2",
		})
		assert.ErrorIs(t, err, domain.ErrTerminalTaken)
	})

	t.Run("re-registration without a stall preserves the binding", func(t *testing.T) {
		svc, _ := newConfigService()
		register(t, svc, "tmr_a")
		_, err := svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-1")
		require.NoError(t, err)

		cfg, err := svc.RegisterTerminal(ctx, testTenant, domain.Terminal{
			TerminalID: "tmr_a",
			Label:      "relabeled",
		})
		require.NoError(t, err)
		terminal, ok := cfg.TerminalByID("tmr_a")
		require.True(t, ok)
		assert.Equal(t, "stall-1", terminal.StallID)
		assert.Equal(t, "relabeled", terminal.Label)
	})

	t.Run("re-registration with the same stall is idempotent", func(t *testing.T) {
		svc, _ := newConfigService()
		_, err := svc.RegisterTerminal(ctx, testTenant, domain.Terminal{
			TerminalID: "tmr_a",
			StallID:    "stall-1",
		})
		require.NoError(t, err)

		cfg, err := svc.RegisterTerminal(ctx, testTenant, domain.Terminal{
			TerminalID: "tmr_a",
			StallID:    "stall-1",
		})
		require.NoError(t, err)
		assert.Len(t, cfg.Terminals, 1)
	})

	t.Run("re-assigning the same binding is idempotent", func(t *testing.T) {
		svc, _ := newConfigService()
		register(t, svc, "tmr_a")

		_, err := svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-1")
		require.NoError(t, err)
		_, err = svc.AssignTerminal(ctx, testTenant, "tmr_a", "stall-1")
		assert.NoError(t, err)
	})

	t.Run("unknown terminal", func(t *testing.T) {
		svc, _ := newConfigService()
		_, err := svc.AssignTerminal(ctx, testTenant, "tmr_ghost", "stall-1")
		assert.ErrorIs(t, err, domain.ErrTerminalNotFound)

		_, err = svc.RemoveTerminal(ctx, testTenant, "tmr_ghost")
		assert.ErrorIs(t, err, domain.ErrTerminalNotFound)
	})

	t.Run("blank ids rejected", func(t *testing.T) {
		svc, _ := newConfigService()
		var vErr *domain.ValidationError

		_, err := svc.AssignTerminal(ctx, testTenant, "", "stall-1")
		assert.ErrorAs(t, err, &vErr)
		_, err = svc.RegisterTerminal(ctx, testTenant, domain.Terminal{})
		assert.ErrorAs(t, err, &vErr)
		_, err = svc.RemoveTerminal(ctx, testTenant, "")
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestGetConfigurationCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newConfigService()

	cfg, err := svc.GetConfiguration(ctx, "fresh-tenant")
	require.NoError(t, err)
	assert.Equal(t, "fresh-tenant", cfg.TenantID)
	assert.Equal(t, 0.0, cfg.TaxRate)
	assert.Empty(t, cfg.Terminals)
}
