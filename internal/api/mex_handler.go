package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Flotilla/internal/mq"
)

// PostLoadInput публикует ввод о погрузке для исполнителя.
// POST /api/v1/mexs/{id}/load-input
//
// Ввод уходит в очередь load.input; его заберёт задача AwaitLoad,
// ожидающая погрузку на этом исполнителе.
func (h *Handler) PostLoadInput(w http.ResponseWriter, r *http.Request) {
	mexID := r.PathValue("id")
	if mexID == "" {
		BadRequest(w, "missing mex id")
		return
	}

	var req LoadInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	payload := mq.LoadInputPayload{MExID: mexID, Code: req.Code}
	if err := h.publisher.PublishLoadInput(r.Context(), payload); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, payload)
}
