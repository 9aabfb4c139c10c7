package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/vinylo/internal/domain/model"
)

func benchStore(b *testing.B, n int) (*AlbumStore, []Album) {
	b.Helper()
	albums := make([]Album, 0, n)
	for i := 0; i < n; i++ {
		albums = append(albums, Album{Username: "bench", Source: model.SourceLastFM, Name: fmt.Sprintf("Album %d", i), Playcount: 100, Score: 1500})
	}
	s := NewAlbumStore()
	added, err := s.Add(context.Background(), albums...)
	if err != nil {
		b.Fatal(err)
	}
	return s, added
}

func BenchmarkSetScores(b *testing.B) {
	for _, n := range []int{100, 10_000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			s, added := benchStore(b, n)
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				x, y := added[i%n], added[(i+1)%n]
				_ = s.SetScores(ctx, x.ID, float64(1500+i%100), y.ID, float64(1500-i%100))
			}
		})
	}
}

func BenchmarkRandomPair(b *testing.B) {
	for _, n := range []int{100, 10_000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			s, _ := benchStore(b, n)
			ctx := context.Background()
			f := Filter{Username: "bench", Source: model.SourceLastFM, Threshold: DefaultThreshold}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := s.RandomPair(ctx, f); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
