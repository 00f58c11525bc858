// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/research-assistant/internal/evaluate"
	"github.com/pdiddy/research-assistant/internal/source"
	"github.com/pdiddy/research-assistant/internal/synthesize"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// recordingSink captures the persisted exchange on a channel so tests can
// wait for the background persist.
type recordingSink struct {
	persisted chan types.AskRequest
	err       error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{persisted: make(chan types.AskRequest, 1)}
}

func (s *recordingSink) Persist(_ context.Context, req types.AskRequest, _ types.StructuredAnswer) error {
	s.persisted <- req
	return s.err
}

func newPipeline(adapters []source.Adapter, sink Sink) *Pipeline {
	return New(
		NewOrchestrator(adapters, fastConfig(), nil),
		evaluate.New(types.EvaluationConfig{}),
		synthesize.New(types.SynthesisConfig{}, nil, nil),
		sink, nil,
	)
}

func TestAnswerEndToEnd(t *testing.T) {
	sink := newRecordingSink()
	p := newPipeline(allAdapters(), sink)

	req := types.AskRequest{QuestionText: "what is consensus", UserID: "u1", SessionID: "s1"}
	answer := p.Answer(context.Background(), req)

	assert.NotEmpty(t, answer.MainAnswer)
	assert.NotEmpty(t, answer.KeyClaims)
	assert.Greater(t, answer.OverallConfidence, 0.0)
	assert.False(t, answer.Degraded)
	assert.Len(t, answer.SourceAvailability, 4)

	select {
	case persisted := <-sink.persisted:
		assert.Equal(t, req, persisted)
	case <-time.After(2 * time.Second):
		t.Fatal("exchange was not persisted")
	}
}

func TestAnswerNoEvidence(t *testing.T) {
	adapters := []source.Adapter{
		&fakeAdapter{kind: types.SourceVectorIndex},
		&fakeAdapter{kind: types.SourceWebSearch},
		&fakeAdapter{kind: types.SourceAcademicIndex},
		&fakeAdapter{kind: types.SourceMemory},
	}
	p := newPipeline(adapters, nil)

	answer := p.Answer(context.Background(), types.AskRequest{
		QuestionText: "anything", UserID: "u1", SessionID: "s1",
	})

	assert.Equal(t, synthesize.NoEvidenceAnswer, answer.MainAnswer)
	assert.Equal(t, 0.0, answer.OverallConfidence)
	assert.True(t, answer.Degraded)
	assert.Empty(t, answer.KeyClaims)
}

func TestAnswerSurvivesFailingSources(t *testing.T) {
	adapters := []source.Adapter{
		&fakeAdapter{kind: types.SourceVectorIndex, fragments: fragments(types.SourceVectorIndex, 2)},
		&fakeAdapter{kind: types.SourceWebSearch, err: errors.New("search backend down")},
		&fakeAdapter{kind: types.SourceAcademicIndex, delay: time.Second},
		&fakeAdapter{kind: types.SourceMemory},
	}
	p := newPipeline(adapters, nil)

	answer := p.Answer(context.Background(), types.AskRequest{
		QuestionText: "partial availability", UserID: "u1", SessionID: "s1",
	})

	assert.NotEmpty(t, answer.KeyClaims)
	assert.Equal(t, types.StatusFailed, answer.SourceAvailability[types.SourceWebSearch])
	assert.Equal(t, types.StatusTimedOut, answer.SourceAvailability[types.SourceAcademicIndex])
	assert.Equal(t, types.StatusSucceeded, answer.SourceAvailability[types.SourceVectorIndex])
}

func TestAnswerSinkErrorDoesNotSurface(t *testing.T) {
	sink := newRecordingSink()
	sink.err = errors.New("disk full")
	p := newPipeline(allAdapters(), sink)

	answer := p.Answer(context.Background(), types.AskRequest{
		QuestionText: "q", UserID: "u1", SessionID: "s1",
	})

	assert.NotEmpty(t, answer.MainAnswer)

	select {
	case <-sink.persisted:
	case <-time.After(2 * time.Second):
		t.Fatal("persist was not attempted")
	}
}
