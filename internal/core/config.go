package core

import "time"

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetPersonaPath() string
	GetPlansPath() string
}

type ProviderConfig interface {
	GetProvider() string
	GetAPIKey() string
	GetBaseURL() string
	GetReferer() string
	GetTitle() string
	GetCandidates() Candidates
}

type GatewayConfig interface {
	GetAttemptTimeout() time.Duration
	GetMemorySessions() int
}

type TelegramConfig interface {
	GetTelegramToken() string
}
