package sentinel

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Flotilla/internal/api"
	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/mq"
)

// RegisterMExRequest — тело запроса регистрации исполнителя.
type RegisterMExRequest struct {
	ID   string      `json:"id"`
	Pose domain.Pose `json:"pose"`
}

// AssignRequest — тело запроса назначения job.
type AssignRequest struct {
	JobID string `json:"job_id"`
}

// ChangeStatusRequest — тело запроса смены статуса.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePoseRequest — тело запроса обновления позы.
type UpdatePoseRequest struct {
	Pose domain.Pose `json:"pose"`
}

// RegisterRoutes регистрирует маршруты реестра флота.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	chain := api.Chain(
		api.Recovery(s.logger),
		api.Logging(s.logger),
	)

	mux.Handle("GET /api/v1/mexs", chain(http.HandlerFunc(s.ListMExs)))
	mux.Handle("POST /api/v1/mexs", chain(http.HandlerFunc(s.RegisterMEx)))
	mux.Handle("GET /api/v1/mexs/{id}", chain(http.HandlerFunc(s.GetMEx)))
	mux.Handle("POST /api/v1/mexs/{id}/assign", chain(http.HandlerFunc(s.AssignJob)))
	mux.Handle("PUT /api/v1/mexs/{id}/status", chain(http.HandlerFunc(s.ChangeStatus)))
	mux.Handle("PUT /api/v1/mexs/{id}/pose", chain(http.HandlerFunc(s.UpdatePose)))
	mux.Handle("DELETE /api/v1/mexs/{id}", chain(http.HandlerFunc(s.DeleteMEx)))
}

// ListMExs обрабатывает GET /api/v1/mexs.
func (s *Service) ListMExs(w http.ResponseWriter, r *http.Request) {
	fleet, err := s.mexRepo.List(r.Context())
	if err != nil {
		api.InternalError(w, s.logger, err)
		return
	}

	api.List(w, fleet, len(fleet))
}

// RegisterMEx обрабатывает POST /api/v1/mexs.
//
// Регистрация идемпотентна: повторный POST с тем же id сбрасывает
// исполнителя в STANDBY (агент перезапустился — прежнее назначение
// потеряно).
func (s *Service) RegisterMEx(w http.ResponseWriter, r *http.Request) {
	var req RegisterMExRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		api.BadRequest(w, "id is required")
		return
	}

	now := time.Now().UTC()
	mex := &domain.MobileExecutor{
		ID:           req.ID,
		Status:       domain.MExStatusStandby,
		Pose:         req.Pose,
		RegisteredAt: now,
		UpdatedAt:    now,
	}

	if err := s.mexRepo.Register(r.Context(), mex); err != nil {
		api.InternalError(w, s.logger, err)
		return
	}

	s.logger.Info("executor registered", "mex_id", mex.ID)
	s.publishFleetUpdated(r, mex.ID, domain.MExStatusStandby)

	api.Created(w, mex)
}

// GetMEx обрабатывает GET /api/v1/mexs/{id}.
func (s *Service) GetMEx(w http.ResponseWriter, r *http.Request) {
	mex, err := s.mexRepo.GetByID(r.Context(), r.PathValue("id"))
	if api.HandleRepoError(w, s.logger, err, "executor not found") {
		return
	}

	api.Success(w, mex)
}

// AssignJob обрабатывает POST /api/v1/mexs/{id}/assign.
//
// Назначение атомарно: если исполнитель не в STANDBY, возвращается
// 422, и диспетчер считает попытку промахом.
func (s *Service) AssignJob(w http.ResponseWriter, r *http.Request) {
	mexID := r.PathValue("id")

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.JobID == "" {
		api.BadRequest(w, "job_id is required")
		return
	}

	err := s.mexRepo.Assign(r.Context(), mexID, req.JobID)
	if api.HandleRepoError(w, s.logger, err, "executor not found") {
		return
	}

	s.logger.Info("job assigned", "mex_id", mexID, "job_id", req.JobID)
	s.publishFleetUpdated(r, mexID, domain.MExStatusAssigned)

	mex, err := s.mexRepo.GetByID(r.Context(), mexID)
	if api.HandleRepoError(w, s.logger, err, "executor not found") {
		return
	}

	api.Success(w, mex)
}

// ChangeStatus обрабатывает PUT /api/v1/mexs/{id}/status.
func (s *Service) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	mexID := r.PathValue("id")

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !domain.ValidMExStatus(status) {
		api.BadRequest(w, "unknown status: "+req.Status)
		return
	}

	err := s.mexRepo.ChangeStatus(r.Context(), mexID, domain.MExStatus(status))
	if api.HandleRepoError(w, s.logger, err, "executor not found") {
		return
	}

	s.publishFleetUpdated(r, mexID, domain.MExStatus(status))

	mex, err := s.mexRepo.GetByID(r.Context(), mexID)
	if api.HandleRepoError(w, s.logger, err, "executor not found") {
		return
	}

	api.Success(w, mex)
}

// UpdatePose обрабатывает PUT /api/v1/mexs/{id}/pose.
//
// Поза обновляется тихо: события fleet.updated нет, доступность
// исполнителя от координат не зависит.
func (s *Service) UpdatePose(w http.ResponseWriter, r *http.Request) {
	mexID := r.PathValue("id")

	var req UpdatePoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	err := s.mexRepo.UpdatePose(r.Context(), mexID, req.Pose)
	if api.HandleRepoError(w, s.logger, err, "executor not found") {
		return
	}

	api.NoContent(w)
}

// DeleteMEx обрабатывает DELETE /api/v1/mexs/{id}.
func (s *Service) DeleteMEx(w http.ResponseWriter, r *http.Request) {
	mexID := r.PathValue("id")

	err := s.mexRepo.Delete(r.Context(), mexID)
	if api.HandleRepoError(w, s.logger, err, "executor not found") {
		return
	}

	s.logger.Info("executor deleted", "mex_id", mexID)
	api.NoContent(w)
}

// publishFleetUpdated уведомляет диспетчера об изменении флота.
// Сбой публикации не ломает HTTP-ответ: состояние в БД уже изменено,
// диспетчер увидит его фоновым проходом аллокации.
func (s *Service) publishFleetUpdated(r *http.Request, mexID string, status domain.MExStatus) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishFleetUpdated(r.Context(), mq.FleetUpdatedPayload{
		MExID:  mexID,
		Status: status,
	})
	if err != nil {
		s.logger.Warn("failed to publish fleet.updated", "mex_id", mexID, "error", err)
	}
}
