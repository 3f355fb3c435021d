package dispatch

import "errors"

// Ошибки диспетчеризации.
var (
	// ErrJobNotFound — job не найден в коллекции менеджера.
	ErrJobNotFound = errors.New("job not found")

	// ErrRegistryList — реестр не отдал снапшот флота.
	ErrRegistryList = errors.New("failed to list executors")

	// ErrRegistryAssign — реестр отклонил назначение job исполнителю.
	// Job остаётся PENDING и будет подобран следующим проходом.
	ErrRegistryAssign = errors.New("failed to assign job in registry")
)
