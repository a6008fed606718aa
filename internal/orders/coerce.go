package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field coercion for the raw JSON shapes the two source systems emit.
// Upstream payloads are not contractually stable, so every helper degrades
// to nil/zero instead of returning an error. One function per concept;
// each is unit-testable on its own.

// pick returns the first present, non-nil value among the given keys.
// Source systems disagree on snake_case vs camelCase for the same concept,
// so callers list every spelling they have seen.
func pick(raw map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func pickString(raw map[string]any, keys ...string) string {
	v, ok := pick(raw, keys...)
	if !ok {
		return ""
	}
	return coerceString(v)
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// coerceMoney accepts the string, numeric, and json.Number shapes both
// systems use for money fields and returns a finite decimal, else nil.
func coerceMoney(v any) *decimal.Decimal {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "$"))
		if s == "" {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		return &d
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return nil
		}
		return &d
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		d := decimal.NewFromFloat(t)
		return &d
	case int:
		d := decimal.NewFromInt(int64(t))
		return &d
	case int64:
		d := decimal.NewFromInt(t)
		return &d
	}
	return nil
}

func pickMoney(raw map[string]any, keys ...string) *decimal.Decimal {
	v, ok := pick(raw, keys...)
	if !ok {
		return nil
	}
	return coerceMoney(v)
}

// nonNegative clamps a parsed money field; totals are invariantly >= 0.
func nonNegative(d *decimal.Decimal) *decimal.Decimal {
	if d == nil || d.IsNegative() {
		return nil
	}
	return d
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05", // Woo date_created / date_created_gmt
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// coerceTime parses ISO-8601 or the external system's local/gmt variants.
// First layout that parses wins.
func coerceTime(v any) *time.Time {
	s := coerceString(v)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

func pickTime(raw map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			if ts := coerceTime(v); ts != nil {
				return ts
			}
		}
	}
	return nil
}

func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func pickInt(raw map[string]any, keys ...string) (int, bool) {
	v, ok := pick(raw, keys...)
	if !ok {
		return 0, false
	}
	return coerceInt(v)
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes"
	case float64:
		return t != 0
	}
	return false
}

func pickBool(raw map[string]any, keys ...string) bool {
	v, ok := pick(raw, keys...)
	if !ok {
		return false
	}
	return coerceBool(v)
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func pickMap(raw map[string]any, keys ...string) map[string]any {
	v, ok := pick(raw, keys...)
	if !ok {
		return nil
	}
	return asMap(v)
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}

// coerceAddress accepts either first_name/last_name pairs or a combined
// name, combining first/last when no combined name is given. Returns nil
// unless at least one of street line, city, state, or postal code is set.
func coerceAddress(raw map[string]any) *Address {
	if raw == nil {
		return nil
	}
	addr := Address{
		Name:       pickString(raw, "name", "fullName", "full_name"),
		FirstName:  pickString(raw, "firstName", "first_name"),
		LastName:   pickString(raw, "lastName", "last_name"),
		Line1:      pickString(raw, "line1", "address1", "address_1", "street", "addressLine1"),
		Line2:      pickString(raw, "line2", "address2", "address_2", "addressLine2"),
		City:       pickString(raw, "city"),
		State:      pickString(raw, "state", "province"),
		PostalCode: pickString(raw, "postalCode", "postal_code", "postcode", "zip"),
		Country:    pickString(raw, "country"),
		Phone:      pickString(raw, "phone"),
		Email:      pickString(raw, "email"),
	}
	if addr.Name == "" {
		addr.Name = strings.TrimSpace(addr.FirstName + " " + addr.LastName)
	}
	if addr.Line1 == "" && addr.City == "" && addr.State == "" && addr.PostalCode == "" {
		return nil
	}
	return &addr
}
