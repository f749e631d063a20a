package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseGranularity parses a user-provided granularity string.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("invalid granularity: %q (expected daily, weekly or monthly)", s)
	}
}

// knownDimension reports whether name is a scoreable dimension.
func knownDimension(name string) bool {
	for _, d := range Dimensions {
		if string(d) == name {
			return true
		}
	}
	return false
}

// knownCapKey reports whether name is a recognized cap name.
func knownCapKey(name string) bool {
	for _, k := range CapKeys {
		if string(k) == name {
			return true
		}
	}
	return false
}

// ParseWeights parses a weights JSON object into exact decimals. Unknown
// dimension names and non-numeric values are skipped; rule validation at save
// time is responsible for rejecting them outright.
func ParseWeights(raw []byte) (map[Dimension]decimal.Decimal, error) {
	numbers, err := decodeNumberObject(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid weights JSON: %w", err)
	}
	weights := make(map[Dimension]decimal.Decimal, len(numbers))
	for name, num := range numbers {
		if !knownDimension(name) {
			continue
		}
		d, err := decimal.NewFromString(num.String())
		if err != nil {
			continue
		}
		weights[Dimension(name)] = d
	}
	return weights, nil
}

// ParseCaps parses a caps JSON object. Unknown cap names are skipped.
func ParseCaps(raw []byte) (map[CapKey]float64, error) {
	numbers, err := decodeNumberObject(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid caps JSON: %w", err)
	}
	caps := make(map[CapKey]float64, len(numbers))
	for name, num := range numbers {
		if !knownCapKey(name) {
			continue
		}
		f, err := num.Float64()
		if err != nil {
			continue
		}
		caps[CapKey(name)] = f
	}
	return caps, nil
}

// decodeNumberObject decodes a JSON object of numeric values without losing
// precision to float64 round-trips. A null or empty document decodes to an
// empty map.
func decodeNumberObject(raw []byte) (map[string]json.Number, error) {
	if len(raw) == 0 {
		return map[string]json.Number{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var parsed map[string]json.Number
	if err := dec.Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed == nil {
		parsed = map[string]json.Number{}
	}
	return parsed, nil
}

// ValidateRuleJSON strictly validates weights and caps JSON for rule-save
// paths: every key must belong to the closed dimension/cap enums and every
// value must be a non-negative number. This keeps typoed dimension names from
// being silently ignored at scoring time.
func ValidateRuleJSON(weightsRaw, capsRaw []byte) error {
	weights, err := decodeNumberObject(weightsRaw)
	if err != nil {
		return fmt.Errorf("invalid weights JSON: %w", err)
	}
	for name, num := range weights {
		if !knownDimension(name) {
			return fmt.Errorf("unknown weight dimension: %q", name)
		}
		d, err := decimal.NewFromString(num.String())
		if err != nil {
			return fmt.Errorf("weight %s is not numeric: %w", name, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("weight %s must not be negative", name)
		}
	}

	caps, err := decodeNumberObject(capsRaw)
	if err != nil {
		return fmt.Errorf("invalid caps JSON: %w", err)
	}
	for name, num := range caps {
		if !knownCapKey(name) {
			return fmt.Errorf("unknown cap name: %q", name)
		}
		f, err := num.Float64()
		if err != nil {
			return fmt.Errorf("cap %s is not numeric: %w", name, err)
		}
		if f < 0 {
			return fmt.Errorf("cap %s must not be negative", name)
		}
	}
	return nil
}
