package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Coordinates is a WGS84 point serialized as {"lat":..,"lng":..}.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the point is unset.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Valid reports whether the point lies within WGS84 bounds.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// ParseCoordinates decodes the JSON object sent by booking forms. Blank input yields nil.
func ParseCoordinates(raw string) (*Coordinates, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var c Coordinates
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("coordinates: %w", err)
	}
	if !c.Valid() {
		return nil, fmt.Errorf("coordinates out of range: %v,%v", c.Lat, c.Lng)
	}
	return &c, nil
}

// Value stores the point as JSON text (jsonb in Postgres).
func (c Coordinates) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan accepts JSON text or bytes.
func (c *Coordinates) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = Coordinates{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), c)
	case []byte:
		return json.Unmarshal(v, c)
	default:
		return fmt.Errorf("coordinates: unsupported scan type %T", value)
	}
}
