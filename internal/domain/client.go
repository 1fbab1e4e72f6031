package domain

import (
	"fmt"
	"strings"
)

// ClientType is the closed set of client categories a project can target.
type ClientType string

const (
	ClientStartup    ClientType = "startup"
	ClientSME        ClientType = "sme"
	ClientCorporate  ClientType = "corporate"
	ClientNGO        ClientType = "ngo"
	ClientGovernment ClientType = "government"
)

// ClientRegion is the closed set of market regions.
type ClientRegion string

const (
	RegionCambodia      ClientRegion = "cambodia"
	RegionSoutheastAsia ClientRegion = "southeast_asia"
	RegionGlobal        ClientRegion = "global"
)

var clientTypeMultipliers = map[ClientType]float64{
	ClientStartup:    0.9,
	ClientSME:        1.0,
	ClientCorporate:  1.2,
	ClientNGO:        0.85,
	ClientGovernment: 1.1,
}

var regionMultipliers = map[ClientRegion]float64{
	RegionCambodia:      1.0,
	RegionSoutheastAsia: 1.15,
	RegionGlobal:        1.3,
}

// ClientContext pairs a client type with a region and produces a
// multiplicative context multiplier for rate adjustment.
type ClientContext struct {
	Type   ClientType   `json:"client_type"`
	Region ClientRegion `json:"client_region"`
}

// NewClientContext validates the raw strings against the closed enums.
func NewClientContext(clientType, region string) (ClientContext, error) {
	t := ClientType(strings.ToLower(strings.TrimSpace(clientType)))
	if _, ok := clientTypeMultipliers[t]; !ok {
		return ClientContext{}, &ErrValidation{
			Field:   "client_type",
			Message: fmt.Sprintf("must be one of: startup, sme, corporate, ngo, government (got %q)", clientType),
		}
	}
	r := ClientRegion(strings.ToLower(strings.TrimSpace(region)))
	if _, ok := regionMultipliers[r]; !ok {
		return ClientContext{}, &ErrValidation{
			Field:   "client_region",
			Message: fmt.Sprintf("must be one of: cambodia, southeast_asia, global (got %q)", region),
		}
	}
	return ClientContext{Type: t, Region: r}, nil
}

// Multiplier composes the type and region multipliers multiplicatively.
func (c ClientContext) Multiplier() float64 {
	return clientTypeMultipliers[c.Type] * regionMultipliers[c.Region]
}
