package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
	"github.com/hyperjump/mixpad/pkg/utils"
)

// FitRequest is the body sent to a remote fitting service.
type FitRequest struct {
	Points [][2]float64 `json:"points"`
}

// FitResponse is the body a remote fitting service returns on success.
type FitResponse struct {
	Labels []int `json:"labels"`
}

// Remote delegates fitting to an external HTTP service.
type Remote struct {
	url    string
	client *http.Client
}

// NewRemote returns an oracle that POSTs points to url. A non-positive timeout means none.
func NewRemote(url string, timeout time.Duration) *Remote {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &Remote{url: url, client: client}
}

// Fit posts pts and returns the service's labels. Any transport, status, or
// decoding problem is a fit failure.
func (r *Remote) Fit(ctx context.Context, pts []models.Point) ([]int, error) {
	if len(pts) < clustering.MinFitPoints {
		return nil, clustering.ErrInsufficientPoints
	}
	req := FitRequest{Points: make([][2]float64, len(pts))}
	for i, p := range pts {
		req.Points[i] = [2]float64{p.X, p.Y}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", clustering.ErrFitFailure, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", clustering.ErrFitFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", clustering.ErrFitFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: server returned %d: %s", clustering.ErrFitFailure, resp.StatusCode,
			utils.Truncate(strings.TrimSpace(string(b)), 200))
	}
	var out FitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", clustering.ErrFitFailure, err)
	}
	if len(out.Labels) != len(pts) {
		return nil, fmt.Errorf("%w: got %d labels for %d points", clustering.ErrFitFailure, len(out.Labels), len(pts))
	}
	return out.Labels, nil
}
