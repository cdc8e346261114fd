package config

const (
	DefaultInitialBalance   = "10"
	DefaultQuorumTimeoutMs  = 10000
	DefaultRequestTimeoutMs = 5000
	DefaultConfirmTimeoutMs = 10000
	DefaultLogMaxSizeMB     = 100
	DefaultLogMaxAgeDays    = 7
)

// ini section names
const (
	sectionLedger = "ledger"
	sectionClient = "client"
	sectionLog    = "log"
	sectionRPC    = "rpc"
)
