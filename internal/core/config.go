package core

import "time"

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetHTTPAddr() string
	GetWindowSize() int
	GetRequestTimeout() time.Duration
}

type RetrievalConfig interface {
	IsEnabled() bool
	GetMaxResults() int
	GetMinScore() float64
	IsRerankEnabled() bool
	GetSnippetLimit() int
}
