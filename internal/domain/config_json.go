package domain

// config_json.go — JSON codec for the tagged-variant config fields.
// The variants carry a "method" discriminator so persisted reports
// round-trip through the report store.

import (
	"encoding/json"
	"fmt"
)

type sizingJSON struct {
	Method   string  `json:"method"`
	Shares   float64 `json:"shares,omitempty"`
	Fraction float64 `json:"fraction,omitempty"`
}

type spotAdjustJSON struct {
	Method     string  `json:"method"`
	Value      float64 `json:"value,omitempty"`
	Window     int     `json:"window,omitempty"`
	HalfLifeMS int64   `json:"half_life_ms,omitempty"`
}

func encodeSizing(m SizingMode) *sizingJSON {
	switch s := m.(type) {
	case FixedShares:
		return &sizingJSON{Method: "fixed", Shares: s.Shares}
	case BankrollFraction:
		return &sizingJSON{Method: "bankroll", Fraction: s.Fraction}
	default:
		return nil
	}
}

func (j *sizingJSON) decode() (SizingMode, error) {
	if j == nil {
		return nil, nil
	}
	switch j.Method {
	case "fixed":
		return FixedShares{Shares: j.Shares}, nil
	case "bankroll":
		return BankrollFraction{Fraction: j.Fraction}, nil
	default:
		return nil, fmt.Errorf("unknown sizing method %q", j.Method)
	}
}

func encodeSpotAdjust(m SpotAdjust) *spotAdjustJSON {
	switch a := m.(type) {
	case StaticAdjust:
		return &spotAdjustJSON{Method: "static", Value: a.Value}
	case RollingMeanAdjust:
		return &spotAdjustJSON{Method: "rolling-mean", Window: a.Window}
	case EMAAdjust:
		return &spotAdjustJSON{Method: "ema", HalfLifeMS: a.HalfLifeMS}
	case MedianAdjust:
		return &spotAdjustJSON{Method: "median", Window: a.Window}
	default:
		return nil
	}
}

func (j *spotAdjustJSON) decode() (SpotAdjust, error) {
	if j == nil {
		return nil, nil
	}
	switch j.Method {
	case "static":
		return StaticAdjust{Value: j.Value}, nil
	case "rolling-mean":
		return RollingMeanAdjust{Window: j.Window}, nil
	case "ema":
		return EMAAdjust{HalfLifeMS: j.HalfLifeMS}, nil
	case "median":
		return MedianAdjust{Window: j.Window}, nil
	default:
		return nil, fmt.Errorf("unknown spot-adjust method %q", j.Method)
	}
}

// simConfigAlias sidesteps the custom marshaler on recursion.
type simConfigAlias SimConfig

type simConfigJSON struct {
	simConfigAlias
	Sizing     *sizingJSON     `json:"sizing,omitempty"`
	SpotAdjust *spotAdjustJSON `json:"spot_adjust,omitempty"`
}

func (c SimConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(simConfigJSON{
		simConfigAlias: simConfigAlias(c),
		Sizing:         encodeSizing(c.Sizing),
		SpotAdjust:     encodeSpotAdjust(c.SpotAdjust),
	})
}

func (c *SimConfig) UnmarshalJSON(data []byte) error {
	var aux simConfigJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	sizing, err := aux.Sizing.decode()
	if err != nil {
		return fmt.Errorf("SimConfig: %w", err)
	}
	adjust, err := aux.SpotAdjust.decode()
	if err != nil {
		return fmt.Errorf("SimConfig: %w", err)
	}

	*c = SimConfig(aux.simConfigAlias)
	c.Sizing = sizing
	c.SpotAdjust = adjust
	return nil
}
