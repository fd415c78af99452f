// Package models - Wire unit types with fixed precision
package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// USD is a monetary amount serialized as a decimal string with cent precision
type USD float64

// MarshalJSON renders the amount as a quoted decimal string, e.g. "1234.56"
func (u USD) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", fmt.Sprintf("%.2f", float64(u)))), nil
}

// UnmarshalJSON accepts both quoted decimal strings and plain numbers
func (u *USD) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid monetary value %s: %w", s, err)
	}
	*u = USD(v)
	return nil
}

// Round returns the amount rounded to the cent
func (u USD) Round() USD {
	return USD(math.Round(float64(u)*100) / 100)
}

// NauticalMiles is a distance serialized with two decimal places
type NauticalMiles float64

// MarshalJSON renders the distance with two decimals
func (n NauticalMiles) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(math.Round(float64(n)*100)/100, 'f', 2, 64)), nil
}

// UnmarshalJSON parses a plain number
func (n *NauticalMiles) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(strings.Trim(string(data), `"`), 64)
	if err != nil {
		return fmt.Errorf("invalid distance %s: %w", data, err)
	}
	*n = NauticalMiles(v)
	return nil
}

// Hours is a duration in hours serialized with one decimal place
type Hours float64

// MarshalJSON renders the duration with one decimal
func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(math.Round(float64(h)*10)/10, 'f', 1, 64)), nil
}

// UnmarshalJSON parses a plain number
func (h *Hours) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(strings.Trim(string(data), `"`), 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", data, err)
	}
	*h = Hours(v)
	return nil
}

// Degrees is a compass bearing serialized with one decimal place
type Degrees float64

// MarshalJSON renders the bearing with one decimal
func (d Degrees) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(math.Round(float64(d)*10)/10, 'f', 1, 64)), nil
}

// UnmarshalJSON parses a plain number
func (d *Degrees) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(strings.Trim(string(data), `"`), 64)
	if err != nil {
		return fmt.Errorf("invalid bearing %s: %w", data, err)
	}
	*d = Degrees(v)
	return nil
}
