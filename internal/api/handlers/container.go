package handlers

import (
	"ledger-api/internal/infrastructure/messaging"
	"ledger-api/internal/ledger"
	"ledger-api/internal/ledger/bookguard"
	"ledger-api/internal/ledger/ports"
)

// HandlerDependencies is the seam that breaks the circular dependency
// between handlers and components: handlers depend on this interface,
// components.Container implements it.
type HandlerDependencies interface {
	GetEngine() *ledger.Engine
	GetStore() ports.Store
	GetBookGuard() *bookguard.Registry
	GetEventPublisher() messaging.EventPublisher
}
