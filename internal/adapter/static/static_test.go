package static

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
)

const fixture = `{
	"configuration": {"payee_id": "from-file", "auto_capture": false},
	"orders": {
		"1001": {
			"order": {"currency": "NOK", "amount": 5000, "vat_amount": 1000},
			"urls": {"complete_url": "https://shop.example/complete"},
			"payee": {"payee_name": "Fixture shop"},
			"risk": {"deliveryTimeFrameIndicator": "01"}
		}
	}
}`

func loadFixture(t *testing.T, merchant map[string]any, buf *bytes.Buffer) *Adapter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := Load(path, merchant, logger)
	require.NoError(t, err)
	return a
}

func TestAdapter_ServesFixtures(t *testing.T) {
	var buf bytes.Buffer
	a := loadFixture(t, map[string]any{"payee_id": "from-env"}, &buf)
	ctx := context.Background()

	cfg, err := a.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg["payee_id"])
	assert.Equal(t, false, cfg["auto_capture"])

	order, err := a.GetOrderData(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "NOK", order["currency"])

	urls, err := a.GetPlatformUrls(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/complete", urls["complete_url"])

	payee, err := a.GetPayeeInfo(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Fixture shop", payee["payee_name"])

	risk, err := a.GetRiskIndicator(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "01", risk["deliveryTimeFrameIndicator"])
}

func TestAdapter_UnknownOrderIsNotFound(t *testing.T) {
	var buf bytes.Buffer
	a := loadFixture(t, nil, &buf)

	_, err := a.GetOrderData(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = a.GetPayeeInfo(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAdapter_LogsThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	a := loadFixture(t, nil, &buf)

	a.Log(context.Background(), logging.LevelError, "capture failed", map[string]any{"order_id": "1001"})

	assert.Contains(t, buf.String(), "capture failed")
	assert.Contains(t, buf.String(), "order_id=1001")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil, nil)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = Load(bad, nil, nil)
	require.Error(t, err)
}
