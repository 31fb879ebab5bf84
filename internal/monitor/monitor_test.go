package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultMonitor(t *testing.T) *ContractMonitor {
	t.Helper()
	cm, err := Default()
	require.NoError(t, err)
	return cm
}

func TestDefault_LoadsEveryContract(t *testing.T) {
	cm := defaultMonitor(t)
	assert.Equal(t, []string{
		ContractAbort, ContractConsumer, ContractPayment, ContractPaymentOrder, ContractTransaction,
	}, cm.Contracts())
}

func TestNewContractMonitor_InvalidSchema(t *testing.T) {
	_, err := NewContractMonitor(map[string][]byte{"broken": []byte("{invalid_json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading or compiling schema broken")
}

func TestValidate_Payment(t *testing.T) {
	cm := defaultMonitor(t)

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{
			name: "card purchase",
			body: `{"payment":{"operation":"Purchase","intent":"Authorization","currency":"SEK",
				"prices":[{"type":"CreditCard","amount":10000,"vatAmount":2000}],
				"payeeInfo":{"payeeId":"p","payeeReference":"1"},
				"cardholder":{"billingAddress":{"streetAddress":"a, b","coAddress":"","city":"c","zipCode":"1","countryCode":"SE"}},
				"metadata":{"order_id":"1"}},
				"creditCard":{"rejectCreditCards":false,"rejectDebitCards":false,"rejectConsumerCards":false,"rejectCorporateCards":false}}`,
			valid: true,
		},
		{
			name: "negative amount",
			body: `{"payment":{"operation":"Purchase","currency":"SEK",
				"prices":[{"type":"CreditCard","amount":-1,"vatAmount":0}],
				"payeeInfo":{"payeeReference":"1"},"metadata":{"order_id":"1"}}}`,
		},
		{
			name: "both tokens",
			body: `{"payment":{"operation":"Recur","currency":"SEK","amount":1,"vatAmount":0,
				"paymentToken":"a","recurrenceToken":"b",
				"payeeInfo":{"payeeReference":"1"},"metadata":{"order_id":"1"}}}`,
		},
		{
			name: "missing metadata",
			body: `{"payment":{"operation":"Purchase","currency":"SEK","payeeInfo":{"payeeReference":"1"}}}`,
		},
		{
			name: "lowercase currency",
			body: `{"payment":{"operation":"Purchase","currency":"sek","payeeInfo":{"payeeReference":"1"},"metadata":{"order_id":"1"}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, violations, err := cm.Validate(ContractPayment, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, valid, FormatErrors(violations))
			if !tt.valid {
				assert.NotEmpty(t, violations)
			}
		})
	}
}

func TestValidate_TransactionAndAbort(t *testing.T) {
	cm := defaultMonitor(t)

	valid, _, err := cm.Validate(ContractTransaction, []byte(`{"transaction":{"amount":100,"vatAmount":25,"payeeReference":"abc"}}`))
	require.NoError(t, err)
	assert.True(t, valid)

	valid, _, err = cm.Validate(ContractTransaction, []byte(`{"transaction":{"amount":100}}`))
	require.NoError(t, err)
	assert.False(t, valid)

	valid, _, err = cm.Validate(ContractAbort, []byte(`{"payment":{"operation":"Abort","abortReason":"CancelledByConsumer"}}`))
	require.NoError(t, err)
	assert.True(t, valid)

	valid, _, err = cm.Validate(ContractAbort, []byte(`{"payment":{"operation":"Abort","abortReason":"Bored"}}`))
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidate_Errors(t *testing.T) {
	cm := defaultMonitor(t)

	_, _, err := cm.Validate("refund-v9", []byte(`{}`))
	require.Error(t, err)

	_, _, err = cm.Validate(ContractPayment, []byte(`{not json`))
	require.Error(t, err)
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "", FormatErrors(nil))
	assert.Equal(t, "Validation errors: a; b", FormatErrors([]string{"a", "b"}))
}
