package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api, CLI не импортирует internal/api) ---

// JobResponse — job из API диспетчера.
type JobResponse struct {
	ID          string `json:"id"`
	Keyword     string `json:"keyword"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	MExID       string `json:"mex_id,omitempty"`
	Tasks       int    `json:"tasks"`
	CurrentTask *int   `json:"current_task,omitempty"`
}

// LocationResponse — именованная локация с позой.
type LocationResponse struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// Pose — поза исполнителя.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// MExResponse — исполнитель из реестра флота.
type MExResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	JobID        string `json:"job_id,omitempty"`
	Pose         Pose   `json:"pose"`
	RegisteredAt string `json:"registered_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ScheduleResponse — schedule из API диспетчера.
type ScheduleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Keyword     string   `json:"keyword"`
	Args        []string `json:"args"`
	Priority    string   `json:"priority"`
	MExID       string   `json:"mex_id,omitempty"`
	CronExpr    string   `json:"cron_expr,omitempty"`
	IntervalSec int      `json:"interval_sec,omitempty"`
	Timezone    string   `json:"timezone"`
	Enabled     bool     `json:"enabled"`
	NextDueAt   string   `json:"next_due_at,omitempty"`
	LastOrderAt string   `json:"last_order_at,omitempty"`
	LastOrderID string   `json:"last_order_id,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// --- Request types ---

// CreateOrderRequest — подача заказа.
type CreateOrderRequest struct {
	Text     string   `json:"text,omitempty"`
	Keyword  string   `json:"keyword,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Args     []string `json:"args,omitempty"`
	MExID    string   `json:"mex_id,omitempty"`
}

// LoadInputRequest — ввод о погрузке.
type LoadInputRequest struct {
	Code int `json:"code"`
}

// RegisterMExRequest — регистрация исполнителя.
type RegisterMExRequest struct {
	ID   string `json:"id"`
	Pose Pose   `json:"pose"`
}

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name        string   `json:"name"`
	Keyword     string   `json:"keyword"`
	Args        []string `json:"args"`
	Priority    string   `json:"priority,omitempty"`
	MExID       string   `json:"mex_id,omitempty"`
	CronExpr    string   `json:"cron_expr,omitempty"`
	IntervalSec int      `json:"interval_sec,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// UpdateScheduleRequest — обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string   `json:"name,omitempty"`
	Keyword     *string   `json:"keyword,omitempty"`
	Args        *[]string `json:"args,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	MExID       *string   `json:"mex_id,omitempty"`
	CronExpr    *string   `json:"cron_expr,omitempty"`
	IntervalSec *int      `json:"interval_sec,omitempty"`
	Timezone    *string   `json:"timezone,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Flotilla.
//
// apiURL указывает на диспетчера, registryURL — на sentinel.
type Client struct {
	apiURL      string
	registryURL string
	httpClient  *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(apiURL, registryURL string) *Client {
	return &Client{
		apiURL:      apiURL,
		registryURL: registryURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Orders ---

// SubmitOrder подаёт заказ диспетчеру.
func (c *Client) SubmitOrder(req CreateOrderRequest) (*JobResponse, error) {
	var job JobResponse
	err := c.post(c.apiURL, "/api/v1/orders", req, &job)
	return &job, err
}

// ListLocations возвращает известные локации карты.
func (c *Client) ListLocations() ([]LocationResponse, error) {
	var locations []LocationResponse
	err := c.list(c.apiURL, "/api/v1/locations", nil, &locations)
	return locations, err
}

// --- Jobs ---

// ListJobs возвращает jobs. Если status не пустой — фильтрует.
func (c *Client) ListJobs(status string) ([]JobResponse, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}

	var jobs []JobResponse
	err := c.list(c.apiURL, "/api/v1/jobs", params, &jobs)
	return jobs, err
}

// GetJob возвращает job по ID.
func (c *Client) GetJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.get(c.apiURL, "/api/v1/jobs/"+id, &job)
	return &job, err
}

// --- Load input ---

// PostLoadInput отправляет ввод о погрузке исполнителя.
func (c *Client) PostLoadInput(mexID string, code int) error {
	req := LoadInputRequest{Code: code}
	return c.post(c.apiURL, "/api/v1/mexs/"+mexID+"/load-input", req, nil)
}

// --- Fleet (sentinel) ---

// ListMExs возвращает флот.
func (c *Client) ListMExs() ([]MExResponse, error) {
	var fleet []MExResponse
	err := c.list(c.registryURL, "/api/v1/mexs", nil, &fleet)
	return fleet, err
}

// GetMEx возвращает исполнителя по ID.
func (c *Client) GetMEx(id string) (*MExResponse, error) {
	var mex MExResponse
	err := c.get(c.registryURL, "/api/v1/mexs/"+id, &mex)
	return &mex, err
}

// RegisterMEx регистрирует исполнителя в реестре.
func (c *Client) RegisterMEx(req RegisterMExRequest) (*MExResponse, error) {
	var mex MExResponse
	err := c.post(c.registryURL, "/api/v1/mexs", req, &mex)
	return &mex, err
}

// ChangeMExStatus меняет статус исполнителя.
func (c *Client) ChangeMExStatus(id, status string) (*MExResponse, error) {
	body := map[string]string{"status": status}
	var mex MExResponse
	err := c.put(c.registryURL, "/api/v1/mexs/"+id+"/status", body, &mex)
	return &mex, err
}

// DeleteMEx снимает исполнителя с учёта.
func (c *Client) DeleteMEx(id string) error {
	return c.delete(c.registryURL, "/api/v1/mexs/"+id)
}

// --- Schedules ---

// ListSchedules возвращает schedules. enabled: "", "true" или "false".
func (c *Client) ListSchedules(enabled string) ([]ScheduleResponse, error) {
	params := url.Values{}
	if enabled != "" {
		params.Set("enabled", enabled)
	}

	var schedules []ScheduleResponse
	err := c.list(c.apiURL, "/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule.
func (c *Client) CreateSchedule(req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post(c.apiURL, "/api/v1/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get(c.apiURL, "/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// UpdateSchedule обновляет schedule.
func (c *Client) UpdateSchedule(id string, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.put(c.apiURL, "/api/v1/schedules/"+id, req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete(c.apiURL, "/api/v1/schedules/"+id)
}

// EnableSchedule включает schedule.
func (c *Client) EnableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": true}
	err := c.put(c.apiURL, "/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// DisableSchedule выключает schedule.
func (c *Client) DisableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": false}
	err := c.put(c.apiURL, "/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) get(base, path string, result any) error {
	return c.doData(http.MethodGet, base, path, nil, result)
}

func (c *Client) post(base, path string, body any, result any) error {
	return c.doData(http.MethodPost, base, path, body, result)
}

func (c *Client) put(base, path string, body any, result any) error {
	return c.doData(http.MethodPut, base, path, body, result)
}

func (c *Client) delete(base, path string) error {
	resp, err := c.do(http.MethodDelete, base, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(base, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, base, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, base, path string, body any, result any) error {
	resp, err := c.do(method, base, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, base, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, base+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}

func formatInterval(sec int) string {
	if sec <= 0 {
		return ""
	}
	return strconv.Itoa(sec) + "s"
}
