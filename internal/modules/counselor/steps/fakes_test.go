package steps

import (
	"context"
	"errors"

	"github.com/google/uuid"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/platform/openai"
)

type fakeGenerator struct {
	content string
	err     error
	calls   int
	last    openai.CompletionRequest
}

func (f *fakeGenerator) Complete(ctx context.Context, req openai.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.content, f.err
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeSearcher struct {
	matches        []ContentMatch
	err            error
	calls          int
	lastCategories []string
}

func (f *fakeSearcher) Search(ctx context.Context, q []float32, limit int, categories []string) ([]ContentMatch, error) {
	f.calls++
	f.lastCategories = categories
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

var errDown = errors.New("down")

func program(name, spec string, fee float64) *types.Program {
	return &types.Program{ID: uuid.New(), Name: name, Specialization: spec, FeesPerSemester: fee, AlumniStatus: true}
}

func match(p *types.Program, contentType string, sim float64) ContentMatch {
	return ContentMatch{Program: p, ContentID: uuid.New(), ContentType: contentType, Similarity: sim, Score: sim}
}
