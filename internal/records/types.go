// Package records holds the per-user settings, brokers and trades kept on
// the remote backend. Reads degrade to nil or an empty slice and log a
// warning; writes log and return the backend's error unchanged.
package records

import "github.com/ziadkadry99/tradebook/internal/schema"

// Settings are a user's fee and tax parameters.
type Settings struct {
	UserID     string  `json:"userId"`
	FeeRatePct float64 `json:"feeRatePct"`
	TaxRatePct float64 `json:"taxRatePct"`
	LotSize    int     `json:"lotSize"`
}

// Defaults for a user's first settings record.
const (
	DefaultFeeRatePct = 0.1425
	DefaultTaxRatePct = 0.30
	DefaultLotSize    = 1000
)

// DefaultSettings returns the settings created for a new user.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:     userID,
		FeeRatePct: DefaultFeeRatePct,
		TaxRatePct: DefaultTaxRatePct,
		LotSize:    DefaultLotSize,
	}
}

// Broker is a brokerage with its fee discount.
type Broker struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DiscountPercent float64 `json:"discountPercent"`
}

// Trade is one buy or sell fill.
type Trade struct {
	ID         string  `json:"id,omitempty"`
	BrokerName string  `json:"brokerName"`
	Date       string  `json:"date"`
	Side       string  `json:"side"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Lots       int     `json:"lots"`
	Shares     int     `json:"shares"`
	CostNoFee  float64 `json:"costNoFee"`
	Fee        float64 `json:"fee"`
	Tax        float64 `json:"tax"`
	TotalCost  float64 `json:"totalCost"`
}

// Remote tables.
const (
	TableSettings = "settings"
	TableBrokers  = "brokers"
	TableTrades   = "trades"
)

var settingsMapping = schema.Mapping{
	Table: TableSettings,
	Fields: []schema.Field{
		{App: "userId", Remote: "user_id"},
		{App: "feeRatePct", Remote: "fee_rate_pct", Coerce: schema.Numeric},
		{App: "taxRatePct", Remote: "tax_rate_pct", Coerce: schema.Numeric},
		{App: "lotSize", Remote: "lot_size", Coerce: schema.Integer},
	},
}

var brokerMapping = schema.Mapping{
	Table: TableBrokers,
	Fields: []schema.Field{
		{App: "id", Remote: "id", ReadOnly: true},
		{App: "name", Remote: "name"},
		{App: "discountPercent", Remote: "discount_percent", Coerce: schema.Numeric},
	},
}

var tradeMapping = schema.Mapping{
	Table: TableTrades,
	Fields: []schema.Field{
		{App: "id", Remote: "id", ReadOnly: true},
		{App: "brokerName", Remote: "broker_name"},
		{App: "date", Remote: "date"},
		{App: "side", Remote: "side"},
		{App: "code", Remote: "code"},
		{App: "name", Remote: "name"},
		{App: "price", Remote: "price", Coerce: schema.Numeric},
		{App: "lots", Remote: "lots", Coerce: schema.Integer},
		{App: "shares", Remote: "shares", Coerce: schema.Integer},
		{App: "costNoFee", Remote: "cost_no_fee", Coerce: schema.Numeric},
		{App: "fee", Remote: "fee", Coerce: schema.Numeric},
		{App: "tax", Remote: "tax", Coerce: schema.Numeric},
		{App: "totalCost", Remote: "total_cost", Coerce: schema.Numeric},
	},
}
