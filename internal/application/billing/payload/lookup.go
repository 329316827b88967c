// Package payload reads gateway webhook bodies whose field names and nesting
// vary between event types and API versions.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document is a decoded JSON object. Numbers are kept as json.Number.
type Document map[string]any

// Containers searched, in order, when a field is absent at the current level.
var defaultContainers = []string{"data", "subscription", "invoice", "payment", "event"}

// Envelope fields only ever nest under data.
var envelopeContainers = []string{"data"}

var (
	SubscriptionIDFields = []string{"subscriptionId", "subscriptionReferenceCode", "subscription_code"}
	InvoiceIDFields      = []string{"invoiceId", "invoiceReferenceCode", "invoice_code"}
	PeriodStartFields    = []string{"currentPeriodStart", "periodStart", "startDate"}
	PeriodEndFields      = []string{"currentPeriodEnd", "periodEnd", "endDate"}
	CancelAtEndFields    = []string{"cancelAtPeriodEnd", "cancel_at_period_end"}
	ProviderEventFields  = []string{"provider_event_id", "eventId", "event_id", "id"}
	EventTypeFields      = []string{"eventType", "type", "event"}
)

// Parse decodes raw into a Document. The top level must be an object.
func Parse(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("invalid JSON payload: not an object")
	}
	return Document(doc), nil
}

// LookupText returns the first non-empty string or number among fields,
// searching nested containers when the current level has none.
func LookupText(doc Document, fields ...string) (string, bool) {
	return lookup(doc, defaultContainers, fields, asText)
}

// LookupEnvelopeText is LookupText restricted to the top level and data.
func LookupEnvelopeText(doc Document, fields ...string) (string, bool) {
	return lookup(doc, envelopeContainers, fields, asText)
}

// LookupBool accepts JSON booleans and "true"/"false" strings.
func LookupBool(doc Document, fields ...string) (bool, bool) {
	return lookup(doc, defaultContainers, fields, asBool)
}

// LookupInstant accepts RFC3339 text or integer epoch seconds (up to ten
// digits) or milliseconds. Results are UTC.
func LookupInstant(doc Document, fields ...string) (time.Time, bool) {
	text, ok := LookupText(doc, fields...)
	if !ok {
		return time.Time{}, false
	}
	return parseInstant(text)
}

func lookup[T any](node map[string]any, containers, fields []string, conv func(any) (T, bool)) (T, bool) {
	for _, field := range fields {
		if raw, present := node[field]; present {
			if v, ok := conv(raw); ok {
				return v, true
			}
		}
	}

	for _, name := range containers {
		child, ok := node[name].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := lookup(child, containers, fields, conv); ok {
			return v, true
		}
	}

	var zero T
	return zero, false
}

func asText(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(t) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func parseInstant(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}

	epoch, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	if len(s) <= 10 {
		return time.Unix(epoch, 0).UTC(), true
	}
	return time.UnixMilli(epoch).UTC(), true
}
