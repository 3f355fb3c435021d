package api

import (
	"net/http"
	"sort"

	"github.com/shaiso/Flotilla/internal/domain"
)

// ListJobs возвращает список jobs с фильтрацией по статусу.
// GET /api/v1/jobs?status=...
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.manager.Jobs()

	status := domain.JobStatus(r.URL.Query().Get("status"))

	result := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		if status != "" && job.Status() != status {
			continue
		}
		result = append(result, JobFromDomain(job))
	}

	// Коллекция jobs — map; фиксируем порядок ответа.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	List(w, result, len(result))
}

// GetJob возвращает job по ID.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.manager.Job(r.PathValue("id"))
	if !ok {
		NotFound(w, "job not found")
		return
	}

	Success(w, JobFromDomain(job))
}
