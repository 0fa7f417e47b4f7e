package domain

import "time"

// Terminal is a physical payment reader registered with the provider and
// optionally assigned to exactly one stall.
type Terminal struct {
	TerminalID   string `json:"terminal_id" dynamodbav:"terminal_id"`
	Label        string `json:"label" dynamodbav:"label"`
	DeviceType   string `json:"device_type,omitempty" dynamodbav:"device_type,omitempty"`
	Status       string `json:"status,omitempty" dynamodbav:"status,omitempty"`
	StallID      string `json:"stall_id,omitempty" dynamodbav:"stall_id,omitempty"`
	SerialNumber string `json:"serial_number,omitempty" dynamodbav:"serial_number,omitempty"`
	IPAddress    string `json:"ip_address,omitempty" dynamodbav:"ip_address,omitempty"`
}

// Configuration is the per-tenant settings document. It is created lazily on
// first read or write for a tenant.
type Configuration struct {
	TenantID        string     `json:"tenant_id" dynamodbav:"tenant_id"`
	TaxRate         float64    `json:"tax_rate" dynamodbav:"tax_rate"`                   // percent, 0-100
	PlatformFeeRate float64    `json:"platform_fee_rate" dynamodbav:"platform_fee_rate"` // percent, reporting only
	Terminals       []Terminal `json:"terminals" dynamodbav:"terminals"`
	LinkedUsers     []string   `json:"linked_users,omitempty" dynamodbav:"linked_users,omitempty"`
	CreatedAt       time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// TerminalForStall returns the terminal assigned to the given stall.
func (c *Configuration) TerminalForStall(stallID string) (*Terminal, bool) {
	if stallID == "" {
		return nil, false
	}
	for i := range c.Terminals {
		if c.Terminals[i].StallID == stallID {
			return &c.Terminals[i], true
		}
	}
	return nil, false
}

// TerminalByID returns the registered terminal with the given provider id.
func (c *Configuration) TerminalByID(terminalID string) (*Terminal, bool) {
	for i := range c.Terminals {
		if c.Terminals[i].TerminalID == terminalID {
			return &c.Terminals[i], true
		}
	}
	return nil, false
}
