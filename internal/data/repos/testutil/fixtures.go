package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
)

func SeedProgram(tb testing.TB, ctx context.Context, tx *gorm.DB, name, specialization string, fee float64) *types.Program {
	tb.Helper()
	p := &types.Program{
		Name:            name,
		Specialization:  specialization,
		FeesPerSemester: fee,
		Accreditations:  "UGC, AICTE",
		Website:         "https://example.edu/" + name,
		AlumniStatus:    true,
		ReviewSource:    "Not Available",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed program: %v", err)
	}
	return p
}

func SeedContent(tb testing.TB, ctx context.Context, tx *gorm.DB, p *types.Program, contentType string, vec []float32) *types.ContentEmbedding {
	tb.Helper()
	c := &types.ContentEmbedding{
		ProgramID:     p.ID,
		ContentType:   contentType,
		ContentSource: "test",
		ContentText:   p.Name + " " + contentType,
		Embedding:     types.Vector(vec),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	return c
}
