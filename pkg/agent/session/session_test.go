package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// drain reads until the subscription closes or the timeout hits.
func drain(t *testing.T, sub *Subscription) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("subscription did not close, got %d events", len(events))
			return events
		}
	}
}

func mustReplace(t *testing.T, path string, value interface{}) Patch {
	t.Helper()
	p, err := Replace(path, value)
	require.NoError(t, err)
	return p
}

func TestUpdateBlock_PatchOrderWithInterleavedBlocks(t *testing.T) {
	s := New("s1")
	sub := s.Subscribe()
	defer sub.Detach()

	require.NoError(t, s.EmitBlock(NewTextBlock("text-1", "")))
	require.NoError(t, s.EmitBlock(NewResearchBlock("research-1")))
	require.NoError(t, s.UpdateBlock("text-1", []Patch{mustReplace(t, "/data", "A")}))
	require.NoError(t, s.UpsertSubStep("research-1", SubStep{ID: "q", Type: SubStepSearching, Searching: []string{"bag"}}))
	require.NoError(t, s.UpdateBlock("text-1", []Patch{mustReplace(t, "/data", "AB")}))
	require.NoError(t, s.End())

	b, ok := s.GetBlock("text-1")
	require.True(t, ok)
	text, err := b.Text()
	require.NoError(t, err)
	assert.Equal(t, "AB", text)

	events := drain(t, sub)
	var textUpdates []string
	for _, ev := range events {
		if ev.Type == EventUpdateBlock && ev.BlockID == "text-1" {
			var v string
			require.NoError(t, json.Unmarshal(ev.Patch[0].Value, &v))
			textUpdates = append(textUpdates, v)
		}
	}
	assert.Equal(t, []string{"A", "AB"}, textUpdates)
	assert.Equal(t, EventMessageEnd, events[len(events)-1].Type)
}

func TestSession_AccumulatesWithoutSubscribers(t *testing.T) {
	s := New("s2")
	require.NoError(t, s.EmitBlock(NewTextBlock("early", "hello")))
	require.NoError(t, s.UpdateBlock("early", []Patch{mustReplace(t, "/data", "hello world")}))

	late := s.Subscribe()
	defer late.Detach()

	require.NoError(t, s.EmitBlock(NewTextBlock("late", "x")))
	require.NoError(t, s.End())

	events := drain(t, late)
	require.Len(t, events, 2)
	assert.Equal(t, EventBlock, events[0].Type)
	assert.Equal(t, "late", events[0].Block.ID)
	assert.Equal(t, EventMessageEnd, events[1].Type)

	blocks := s.AllBlocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "early", blocks[0].ID)
	text, _ := blocks[0].Text()
	assert.Equal(t, "hello world", text)
}

func TestSession_TerminalRejectsWritesAndReleasesSubscribers(t *testing.T) {
	tests := []struct {
		name     string
		finish   func(s *Session) error
		wantType EventType
	}{
		{name: "end", finish: func(s *Session) error { return s.End() }, wantType: EventMessageEnd},
		{name: "fail", finish: func(s *Session) error { return s.Fail(errors.New("boom")) }, wantType: EventError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.name)
			sub := s.Subscribe()
			defer sub.Detach()
			require.NoError(t, s.EmitBlock(NewTextBlock("t", "a")))
			require.NoError(t, tt.finish(s))

			assert.True(t, s.Terminated())
			assert.ErrorIs(t, s.EmitBlock(NewTextBlock("t2", "b")), ErrSessionClosed)
			assert.ErrorIs(t, s.UpdateBlock("t", []Patch{mustReplace(t, "/data", "z")}), ErrSessionClosed)
			assert.ErrorIs(t, s.MarkResearchComplete(), ErrSessionClosed)
			assert.ErrorIs(t, s.End(), ErrSessionClosed)

			events := drain(t, sub)
			require.NotEmpty(t, events)
			assert.Equal(t, tt.wantType, events[len(events)-1].Type)
			assert.Equal(t, 0, s.SubscriberCount())

			select {
			case <-s.Done():
			default:
				t.Fatal("done channel not closed")
			}
		})
	}
}

func TestSession_FailCarriesPayload(t *testing.T) {
	s := New("fail")
	sub := s.Subscribe()
	defer sub.Detach()
	require.NoError(t, s.Fail(errors.New("classifier unavailable")))

	events := drain(t, sub)
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"message":"classifier unavailable"}`, string(events[0].Data))
}

func TestSession_SubscribeAfterEnd(t *testing.T) {
	s := New("done")
	require.NoError(t, s.End())

	sub := s.Subscribe()
	defer sub.Detach()
	events := drain(t, sub)
	require.Len(t, events, 1)
	assert.Equal(t, EventMessageEnd, events[0].Type)
	assert.Equal(t, 0, s.SubscriberCount())
}

func TestSession_SubscribeWithSnapshot(t *testing.T) {
	s := New("snap")
	require.NoError(t, s.EmitBlock(NewTextBlock("t1", "hel")))

	blocks, sub := s.SubscribeWithSnapshot()
	defer sub.Detach()
	require.Len(t, blocks, 1)
	text, err := blocks[0].Text()
	require.NoError(t, err)
	assert.Equal(t, "hel", text)

	require.NoError(t, s.UpdateBlock("t1", []Patch{mustReplace(t, "/data", "hello")}))
	require.NoError(t, s.End())

	events := drain(t, sub)
	require.Len(t, events, 2)
	assert.Equal(t, EventUpdateBlock, events[0].Type)
	assert.Equal(t, "t1", events[0].BlockID)
	assert.Equal(t, EventMessageEnd, events[1].Type)
}

func TestSession_DetachDoesNotStopTurn(t *testing.T) {
	s := New("detach")
	sub := s.Subscribe()
	require.Equal(t, 1, s.SubscriberCount())

	sub.Detach()
	sub.Detach()
	assert.Equal(t, 0, s.SubscriberCount())

	require.NoError(t, s.EmitBlock(NewTextBlock("t", "still running")))
	require.NoError(t, s.End())
	assert.Len(t, s.AllBlocks(), 1)
}

func TestUpdateBlock_Errors(t *testing.T) {
	s := New("errors")
	require.NoError(t, s.EmitBlock(NewTextBlock("t", "orig")))

	assert.ErrorIs(t, s.UpdateBlock("missing", []Patch{mustReplace(t, "/data", "x")}), ErrBlockNotFound)
	assert.ErrorIs(t, s.UpdateBlock("t", []Patch{mustReplace(t, "/id", "x")}), ErrInvalidPatch)
	assert.ErrorIs(t, s.UpdateBlock("t", []Patch{{Op: "move", Path: "/data", Value: json.RawMessage(`"x"`)}}), ErrInvalidPatch)
	assert.ErrorIs(t, s.EmitBlock(NewTextBlock("t", "dup")), ErrDuplicateBlock)

	// a failing patch list leaves the block untouched
	err := s.UpdateBlock("t", []Patch{
		mustReplace(t, "/data", "changed"),
		mustReplace(t, "/data/nope", "x"),
	})
	require.Error(t, err)
	b, _ := s.GetBlock("t")
	text, _ := b.Text()
	assert.Equal(t, "orig", text)
}

func TestUpsertSubStep_ReplacesInPlace(t *testing.T) {
	s := New("upsert")
	require.NoError(t, s.EmitBlock(NewResearchBlock("r")))

	require.NoError(t, s.UpsertSubStep("r", SubStep{ID: "a", Type: SubStepSearching, Searching: []string{"one"}}))
	require.NoError(t, s.UpsertSubStep("r", SubStep{ID: "b", Type: SubStepReasoning, Reasoning: "thinking"}))
	require.NoError(t, s.UpsertSubStep("r", SubStep{ID: "a", Type: SubStepSearching, Searching: []string{"one", "two"}}))

	b, _ := s.GetBlock("r")
	steps, err := b.SubSteps()
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].ID)
	assert.Equal(t, []string{"one", "two"}, steps[0].Searching)
	assert.Equal(t, "b", steps[1].ID)
}

func TestAppendSubStepResults_ConcurrentBatchesShareOneStep(t *testing.T) {
	s := New("append")
	require.NoError(t, s.EmitBlock(NewResearchBlock("r")))
	require.NoError(t, s.UpsertSubStep("r", SubStep{ID: "search", Type: SubStepSearching, Searching: []string{"q"}}))

	const batches = 20
	var wg sync.WaitGroup
	for i := 0; i < batches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := map[string]string{"content": fmt.Sprintf("item-%d", i)}
			assert.NoError(t, s.AppendSubStepResults("r", "results", []interface{}{item}))
		}(i)
	}
	wg.Wait()

	b, _ := s.GetBlock("r")
	steps, err := b.SubSteps()
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, SubStepSearchResults, steps[1].Type)

	var reading []map[string]string
	require.NoError(t, json.Unmarshal(steps[1].Reading, &reading))
	assert.Len(t, reading, batches)
}

func TestAppendSubStepResults_RejectsNonArray(t *testing.T) {
	s := New("nonarray")
	require.NoError(t, s.EmitBlock(NewResearchBlock("r")))
	assert.ErrorIs(t, s.AppendSubStepResults("r", "x", map[string]string{"a": "b"}), ErrInvalidPatch)

	require.NoError(t, s.EmitBlock(NewTextBlock("t", "")))
	assert.Error(t, s.AppendSubStepResults("t", "x", []string{"a"}))
}

func TestPointerToPath(t *testing.T) {
	tests := []struct {
		pointer string
		want    string
		wantErr bool
	}{
		{pointer: "/data", want: "data"},
		{pointer: "/data/subSteps/0/reading/-", want: "data.subSteps.0.reading.-1"},
		{pointer: "/data/a~1b/c.d", want: `data.a/b.c\.d`},
		{pointer: "/type", wantErr: true},
		{pointer: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pointer, func(t *testing.T) {
			got, err := pointerToPath(tt.pointer)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
