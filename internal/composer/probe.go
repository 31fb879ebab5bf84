package composer

import (
	"context"
	"errors"
	"net/http"

	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
)

// probe sends a deliberately incomplete Test operation. The gateway answers
// 400 when the credentials and contract are fine; any other answer, a
// successful one included, fails the probe.
func (b *base) probe(ctx context.Context, envelope string) error {
	_, err := b.call(ctx, string(model.OperationTest), func(ctx context.Context) (*model.Response, error) {
		payment := &model.Payment{
			Operation: model.OperationTest,
			PayeeInfo: &model.PayeeInfo{PayeeID: b.cfg().PayeeID, PayeeName: b.cfg().PayeeName},
		}
		var payload any = &model.PaymentRequest{Payment: payment}
		if envelope == envelopePaymentOrder {
			payload = &model.PaymentOrderRequest{PaymentOrder: &model.PaymentOrder{
				Operation: model.OperationTest,
				PayeeInfo: payment.PayeeInfo,
			}}
		}
		req := b.paymentRequest(payload, "", model.OperationTest, "", "", 0)

		resp, err := b.deps.Sender.Send(ctx, req)
		result := probeResult(resp, err)
		if result == nil {
			probesTotal.WithLabelValues(string(b.instrument), "ok").Inc()
			return resp, nil
		}
		probesTotal.WithLabelValues(string(b.instrument), result.Code).Inc()
		b.deps.Logger.Log(ctx, logging.LevelDebug, string(b.instrument)+"::CheckCredentials: "+result.Message, map[string]any{
			"status_code": result.StatusCode,
		})
		return nil, result
	})
	return err
}

func probeResult(resp *model.Response, err error) *model.Exception {
	if err == nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return model.NewProbeFailedError(status, nil)
	}

	var exc *model.Exception
	if !errors.As(err, &exc) || !errors.Is(err, model.ErrGateway) {
		return model.NewProbeFailedError(0, err)
	}
	switch exc.StatusCode {
	case http.StatusBadRequest:
		return nil
	case http.StatusUnauthorized:
		return model.NewCredentialsError(err)
	case http.StatusForbidden:
		return model.NewContractError(err)
	default:
		return model.NewProbeFailedError(exc.StatusCode, err)
	}
}
