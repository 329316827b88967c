package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) Document {
	t.Helper()
	doc, err := Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestParse_Invalid(t *testing.T) {
	for _, raw := range []string{``, `not json`, `null`, `[1,2]`} {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestLookupText(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "top level", raw: `{"subscriptionId":"sub-1"}`, want: "sub-1", wantOK: true},
		{name: "alias", raw: `{"subscription_code":"sub-2"}`, want: "sub-2", wantOK: true},
		{name: "number", raw: `{"subscriptionId":12345678901}`, want: "12345678901", wantOK: true},
		{name: "nested in data", raw: `{"data":{"subscriptionReferenceCode":"sub-3"}}`, want: "sub-3", wantOK: true},
		{name: "deeply nested", raw: `{"event":{"data":{"subscription":{"subscriptionId":"sub-4"}}}}`, want: "sub-4", wantOK: true},
		{name: "current level first", raw: `{"subscriptionId":"outer","data":{"subscriptionId":"inner"}}`, want: "outer", wantOK: true},
		{name: "empty string skipped", raw: `{"subscriptionId":"","data":{"subscriptionId":"inner"}}`, want: "inner", wantOK: true},
		{name: "object value skipped", raw: `{"subscriptionId":{"x":1}}`, wantOK: false},
		{name: "missing", raw: `{"other":"x"}`, wantOK: false},
		{name: "unknown container ignored", raw: `{"meta":{"subscriptionId":"x"}}`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupText(mustParse(t, tt.raw), SubscriptionIDFields...)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupEnvelopeText(t *testing.T) {
	doc := mustParse(t, `{"data":{"eventId":"evt-1","eventType":"payment.failed"},"payment":{"id":"nope"}}`)

	id, ok := LookupEnvelopeText(doc, ProviderEventFields...)
	require.True(t, ok)
	assert.Equal(t, "evt-1", id)

	typ, ok := LookupEnvelopeText(doc, EventTypeFields...)
	require.True(t, ok)
	assert.Equal(t, "payment.failed", typ)

	_, ok = LookupEnvelopeText(mustParse(t, `{"payment":{"id":"p-1"}}`), ProviderEventFields...)
	assert.False(t, ok)
}

func TestLookupBool(t *testing.T) {
	tests := []struct {
		raw    string
		want   bool
		wantOK bool
	}{
		{raw: `{"cancelAtPeriodEnd":false}`, want: false, wantOK: true},
		{raw: `{"cancel_at_period_end":"TRUE"}`, want: true, wantOK: true},
		{raw: `{"data":{"cancelAtPeriodEnd":"false"}}`, want: false, wantOK: true},
		{raw: `{"cancelAtPeriodEnd":"maybe"}`, wantOK: false},
		{raw: `{"cancelAtPeriodEnd":1}`, wantOK: false},
		{raw: `{}`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := LookupBool(mustParse(t, tt.raw), CancelAtEndFields...)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupInstant(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		raw    string
		wantOK bool
	}{
		{name: "rfc3339", raw: `{"periodStart":"2024-05-01T10:30:00Z"}`, wantOK: true},
		{name: "rfc3339 offset", raw: `{"startDate":"2024-05-01T13:30:00+03:00"}`, wantOK: true},
		{name: "epoch seconds", raw: `{"currentPeriodStart":1714559400}`, wantOK: true},
		{name: "epoch millis string", raw: `{"data":{"periodStart":"1714559400000"}}`, wantOK: true},
		{name: "garbage", raw: `{"periodStart":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupInstant(mustParse(t, tt.raw), PeriodStartFields...)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, want.Equal(got), "got %s", got)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}
