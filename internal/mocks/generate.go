package mocks

// Mock generation directives. Run `make mocks` or `go generate ./internal/mocks/` to regenerate.

//go:generate go run go.uber.org/mock/mockgen -destination=mock_metrics.go -package=mocks github.com/quasiuslikecautious/lockrs-sub000/internal/core MetricsStore
//go:generate go run go.uber.org/mock/mockgen -destination=mock_session.go -package=mocks github.com/quasiuslikecautious/lockrs-sub000/internal/core SessionRepository,SessionTokenRepository
