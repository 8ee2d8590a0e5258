// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `go generate ./test/mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/persistence.go -destination=persistence_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/inventory_service.go -destination=service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/workers/tasks.go -destination=enqueuer_mock.go -package=mocks
