package oracle

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
)

func TestKMeans_SeparatesTwoGroups(t *testing.T) {
	km := NewKMeans(2, 0, 0)
	pts := []models.Point{
		{X: 0, Y: 0}, {X: 0.1, Y: 0.1}, {X: 5, Y: 5}, {X: 5.1, Y: 4.9}, {X: 0.05, Y: 0},
	}
	labels, err := km.Fit(context.Background(), pts)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 1, 2, 2, 1}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}
}

func TestKMeans_Deterministic(t *testing.T) {
	km := NewKMeans(3, 0, 0)
	pts := []models.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0.2, Y: 0.9}, {X: 0.8, Y: 0.1}, {X: 0.5, Y: 0.5}}
	a, err := km.Fit(context.Background(), pts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := km.Fit(context.Background(), pts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic: %v vs %v", a, b)
		}
	}
}

func TestKMeans_ClustersCappedByDistinctPoints(t *testing.T) {
	km := NewKMeans(5, 0, 0)
	pts := []models.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 1}}
	labels, err := km.Fit(context.Background(), pts)
	if err != nil {
		t.Fatal(err)
	}
	if labels[0] != 1 || labels[1] != 1 || labels[2] != 2 {
		t.Errorf("labels = %v, want [1 1 2]", labels)
	}
}

func TestKMeans_Failures(t *testing.T) {
	km := NewKMeans(2, 0, 0)
	tests := []struct {
		name string
		pts  []models.Point
		want error
	}{
		{"single point", []models.Point{{X: 1, Y: 1}}, clustering.ErrInsufficientPoints},
		{"identical points", []models.Point{{X: 1, Y: 1}, {X: 1, Y: 1}}, clustering.ErrFitFailure},
		{"nan", []models.Point{{X: math.NaN(), Y: 1}, {X: 1, Y: 1}}, clustering.ErrFitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := km.Fit(context.Background(), tt.pts)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKMeans_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewKMeans(2, 0, 0).Fit(ctx, []models.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if !errors.Is(err, clustering.ErrFitFailure) {
		t.Errorf("err = %v, want fit failure", err)
	}
}
