package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики диспетчера. Регистрируются в default registry, сервисы
// отдают их через promhttp.Handler() на /metrics.
var (
	// OrdersReceived — принятые orders (после валидации).
	OrdersReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_orders_received_total",
		Help: "Total orders accepted by the dispatcher",
	})

	// OrdersRejected — отброшенные orders: неизвестный keyword,
	// неизвестная локация, неверное число аргументов.
	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_orders_rejected_total",
		Help: "Total orders rejected during validation",
	})

	// JobsCompleted — завершённые jobs по терминальному статусу.
	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flotilla_jobs_completed_total",
		Help: "Total jobs finished, by terminal status",
	}, []string{"status"})

	// AllocationPasses — проходы аллокатора по очереди PENDING jobs.
	AllocationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_allocation_passes_total",
		Help: "Total allocation passes over the pending queue",
	})

	// AllocationAssignments — успешные назначения job -> MEx.
	AllocationAssignments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_allocation_assignments_total",
		Help: "Total successful job to executor assignments",
	})

	// JobsPending — текущая длина очереди PENDING jobs.
	JobsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flotilla_jobs_pending",
		Help: "Current number of jobs waiting for an executor",
	})
)
