package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RawRecord is one entry of a structured MAC table getter response
type RawRecord struct {
	Mac       string `json:"mac"`
	Interface string `json:"interface"`
	Vlan      any    `json:"vlan"`
	Static    *bool  `json:"static,omitempty"`
	Active    *bool  `json:"active,omitempty"`
}

// IsActive reports the active flag, defaulting to true when absent
func (r RawRecord) IsActive() bool {
	return r.Active == nil || *r.Active
}

// IsStatic reports the static flag, defaulting to false when absent
func (r RawRecord) IsStatic() bool {
	return r.Static != nil && *r.Static
}

// VlanString renders the VLAN field as text, "1" when absent
func (r RawRecord) VlanString() string {
	switch v := r.Vlan.(type) {
	case nil:
		return "1"
	case string:
		if v == "" {
			return "1"
		}
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint16:
		return strconv.Itoa(int(v))
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// InterfaceName returns the interface field, "unknown" when absent
func (r RawRecord) InterfaceName() string {
	if r.Interface == "" {
		return "unknown"
	}
	return r.Interface
}

// Bool returns a pointer to b, handy for building records
func Bool(b bool) *bool {
	return &b
}
