package config

import "time"

// Brokerages holds per-driver settings. Only the driver the job names is used.
type Brokerages struct {
	Sim       SimBroker       `yaml:"sim"`
	Websocket WebsocketBroker `yaml:"websocket"`
	Solana    SolanaBroker    `yaml:"solana"`
}

// SimBroker seeds the in-memory driver.
type SimBroker struct {
	Cash     []SimCash         `yaml:"cash"`
	Orders   []SimOrder        `yaml:"orders"`
	Holdings []SimHolding      `yaml:"holdings"`
	Failures map[string]string `yaml:"failures"`
	Latency  time.Duration     `yaml:"latency"`
}

// SimCash is one seeded balance.
type SimCash struct {
	Currency       string  `yaml:"currency"`
	Amount         float64 `yaml:"amount"`
	ConversionRate float64 `yaml:"conversion_rate"`
}

// SimOrder is one seeded open order; Quantity is signed when Side is blank.
type SimOrder struct {
	ID       string  `yaml:"id"`
	Symbol   string  `yaml:"symbol"`
	Side     string  `yaml:"side"`
	Quantity float64 `yaml:"quantity"`
	Price    float64 `yaml:"price"`
}

// SimHolding is one seeded position.
type SimHolding struct {
	Symbol       string  `yaml:"symbol"`
	Type         string  `yaml:"type"`
	AveragePrice float64 `yaml:"average_price"`
	Quantity     float64 `yaml:"quantity"`
}

// WebsocketBroker points the websocket driver at an endpoint.
type WebsocketBroker struct {
	URL              string        `yaml:"url"`
	Token            string        `yaml:"token"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
}

// SolanaBroker points the wallet driver at an RPC node.
type SolanaBroker struct {
	RPCURL         string        `yaml:"rpc_url"`
	Owner          string        `yaml:"owner"`
	Commitment     string        `yaml:"commitment"` // processed|confirmed|finalized
	SOLRate        float64       `yaml:"sol_rate"`
	HealthInterval time.Duration `yaml:"health_interval"`
}
