package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
)

func TestRemote_Fit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req FitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		labels := make([]int, len(req.Points))
		for i, p := range req.Points {
			labels[i] = 1
			if p[0] > 2 {
				labels[i] = 2
			}
		}
		_ = json.NewEncoder(w).Encode(FitResponse{Labels: labels})
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, time.Second)
	labels, err := r.Fit(context.Background(), []models.Point{{X: 0, Y: 0}, {X: 5, Y: 5}})
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 2 || labels[0] != 1 || labels[1] != 2 {
		t.Errorf("labels = %v", labels)
	}
}

func TestRemote_AcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(FitResponse{Labels: []int{1, 1}})
	}))
	defer srv.Close()

	labels, err := NewRemote(srv.URL, time.Second).Fit(context.Background(),
		[]models.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		t.Fatalf("201 response: %v", err)
	}
	if len(labels) != 2 {
		t.Errorf("labels = %v", labels)
	}
}

func TestRemote_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "singular covariance", http.StatusUnprocessableEntity)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
		{"label count mismatch", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(FitResponse{Labels: []int{1}})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewRemote(srv.URL, time.Second).Fit(context.Background(),
				[]models.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
			if !errors.Is(err, clustering.ErrFitFailure) {
				t.Errorf("err = %v, want fit failure", err)
			}
		})
	}
}
