package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/order"
)

// CreateOrder принимает заказ и создаёт job.
// POST /api/v1/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	var o domain.Order
	if req.Text != "" {
		parsed, err := order.ParseText(req.Text)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		o = parsed
	} else {
		o = domain.Order{
			Keyword:  domain.OrderKeyword(strings.ToUpper(req.Keyword)),
			Priority: domain.JobPriority(strings.ToUpper(req.Priority)),
			Args:     req.Args,
		}
	}
	if req.MExID != "" {
		o.MExID = req.MExID
	}

	job, err := h.manager.SubmitOrder(r.Context(), o)
	if err != nil {
		if errors.Is(err, order.ErrUnsupportedKeyword) {
			InvalidState(w, err.Error())
			return
		}
		if errors.Is(err, order.ErrUnknownKeyword) ||
			errors.Is(err, order.ErrBadArgCount) ||
			errors.Is(err, order.ErrUnknownLocation) {
			BadRequest(w, err.Error())
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, JobFromDomain(job))
}

// ListLocations возвращает таблицу именованных локаций.
// GET /api/v1/locations
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations := order.Locations()
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].Name < locations[j].Name
	})

	result := make([]LocationResponse, len(locations))
	for i, loc := range locations {
		result[i] = LocationResponse{
			Name:  loc.Name,
			X:     loc.Pose.X,
			Y:     loc.Pose.Y,
			Theta: loc.Pose.Theta,
		}
	}

	List(w, result, len(result))
}
