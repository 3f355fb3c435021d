package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaiso/Flotilla/internal/domain"
)

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

// Client — HTTP-клиент реестра флота. Реализует dispatch.Registry:
// диспетчер ходит в sentinel по HTTP и не держит собственного
// состояния флота.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент реестра.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListMExs возвращает снапшот флота.
func (c *Client) ListMExs(ctx context.Context) ([]domain.MobileExecutor, error) {
	var fleet []domain.MobileExecutor
	err := c.list(ctx, "/api/v1/mexs", &fleet)
	return fleet, err
}

// AssignJob назначает job исполнителю. Реестр проверяет STANDBY
// атомарно: проигранная гонка за исполнителя возвращается ошибкой.
func (c *Client) AssignJob(ctx context.Context, mexID, jobID string) error {
	body := map[string]string{"job_id": jobID}
	return c.post(ctx, "/api/v1/mexs/"+mexID+"/assign", body, nil)
}

// ChangeStatus меняет статус исполнителя в реестре.
func (c *Client) ChangeStatus(ctx context.Context, mexID string, status domain.MExStatus) error {
	body := map[string]string{"status": string(status)}
	return c.put(ctx, "/api/v1/mexs/"+mexID+"/status", body, nil)
}

// Register регистрирует исполнителя. Используется агентом при старте.
func (c *Client) Register(ctx context.Context, id string, pose domain.Pose) (*domain.MobileExecutor, error) {
	body := RegisterMExRequest{ID: id, Pose: pose}
	var mex domain.MobileExecutor
	err := c.post(ctx, "/api/v1/mexs", body, &mex)
	return &mex, err
}

// UpdatePose обновляет позу исполнителя.
func (c *Client) UpdatePose(ctx context.Context, id string, pose domain.Pose) error {
	body := UpdatePoseRequest{Pose: pose}
	return c.put(ctx, "/api/v1/mexs/"+id+"/pose", body, nil)
}

// GetMEx возвращает исполнителя по ID.
func (c *Client) GetMEx(ctx context.Context, id string) (*domain.MobileExecutor, error) {
	var mex domain.MobileExecutor
	err := c.get(ctx, "/api/v1/mexs/"+id, &mex)
	return &mex, err
}

// DeleteMEx снимает исполнителя с учёта.
func (c *Client) DeleteMEx(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/v1/mexs/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.doData(ctx, http.MethodPut, path, body, result)
}

func (c *Client) list(ctx context.Context, path string, result any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
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

func (c *Client) doData(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.do(ctx, method, path, body)
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

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(dr.Data, result)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
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
		return fmt.Errorf("registry error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
