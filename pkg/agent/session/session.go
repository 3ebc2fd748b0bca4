package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrSessionClosed  = errors.New("session closed")
	ErrBlockNotFound  = errors.New("block not found")
	ErrDuplicateBlock = errors.New("block already exists")
)

// Session is the block store and event bus of one turn. Every write mutates
// the store and publishes under the same lock, so subscribers observe
// events in exactly the order the store applied them.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	order    []string
	docs     map[string][]byte
	subs     map[uint64]*Subscription
	nextSub  uint64
	terminal *Event
	done     chan struct{}
}

func New(id string) *Session {
	return &Session{
		id:        id,
		createdAt: time.Now(),
		docs:      make(map[string][]byte),
		subs:      make(map[uint64]*Subscription),
		done:      make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Done is closed once a terminal event has been published.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal != nil
}

func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscribe attaches a listener that receives events published from now on.
// Blocks stored before the call are not replayed; read them with AllBlocks.
// Subscribing to a finished session yields only its terminal event.
func (s *Session) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := newSubscription(s.nextSub, s)
	if s.terminal != nil {
		sub.push(*s.terminal)
		return sub
	}
	s.subs[sub.id] = sub
	return sub
}

func (s *Session) removeSubscription(id uint64) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

// publishLocked must be called with s.mu held.
func (s *Session) publishLocked(ev Event) {
	for _, sub := range s.subs {
		sub.push(ev)
	}
}

func (s *Session) EmitBlock(b Block) error {
	if b.ID == "" {
		return fmt.Errorf("%w: block id is empty", ErrInvalidPatch)
	}
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal block: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != nil {
		return ErrSessionClosed
	}
	if _, ok := s.docs[b.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, b.ID)
	}

	s.docs[b.ID] = doc
	s.order = append(s.order, b.ID)

	snapshot := b.clone()
	s.publishLocked(Event{Type: EventBlock, Block: &snapshot})
	return nil
}

// UpdateBlock applies the patches in order. Either all of them apply or none.
func (s *Session) UpdateBlock(id string, patches []Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, patches)
}

func (s *Session) updateLocked(id string, patches []Patch) error {
	if s.terminal != nil {
		return ErrSessionClosed
	}
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	next, err := applyPatches(doc, patches)
	if err != nil {
		return err
	}
	s.docs[id] = next

	published := make([]Patch, len(patches))
	copy(published, patches)
	s.publishLocked(Event{Type: EventUpdateBlock, BlockID: id, Patch: published})
	return nil
}

func (s *Session) GetBlock(id string) (Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Block{}, false
	}
	var b Block
	if err := json.Unmarshal(doc, &b); err != nil {
		return Block{}, false
	}
	return b, true
}

// AllBlocks returns an ordered snapshot of every stored block.
func (s *Session) AllBlocks() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SubscribeWithSnapshot returns the stored blocks and a subscription taken
// under one lock: every event on the subscription applies on top of the
// snapshot, with nothing missed or seen twice.
func (s *Session) SubscribeWithSnapshot() ([]Block, *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := s.snapshotLocked()
	s.nextSub++
	sub := newSubscription(s.nextSub, s)
	if s.terminal != nil {
		sub.push(*s.terminal)
		return blocks, sub
	}
	s.subs[sub.id] = sub
	return blocks, sub
}

func (s *Session) snapshotLocked() []Block {
	blocks := make([]Block, 0, len(s.order))
	for _, id := range s.order {
		var b Block
		if err := json.Unmarshal(s.docs[id], &b); err != nil {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// UpsertSubStep adds step to a research block, or replaces the sub-step with
// the same id in place.
func (s *Session) UpsertSubStep(blockID string, step SubStep) error {
	raw, err := json.Marshal(step)
	if err != nil {
		return fmt.Errorf("marshal sub-step: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, err := s.subStepsLocked(blockID)
	if err != nil {
		return err
	}

	next := make([]json.RawMessage, 0, len(steps)+1)
	replaced := false
	for _, st := range steps {
		if st.Get("id").String() == step.ID {
			next = append(next, raw)
			replaced = true
			continue
		}
		next = append(next, json.RawMessage(st.Raw))
	}
	if !replaced {
		next = append(next, raw)
	}

	return s.replaceSubStepsLocked(blockID, next)
}

// AppendSubStepResults appends items (anything marshalling to a JSON array)
// to the reading list of the search_results sub-step stepID, creating that
// sub-step on first use. Concurrent callers never lose each other's items.
func (s *Session) AppendSubStepResults(blockID, stepID string, items interface{}) error {
	rawItems, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	parsed := gjson.ParseBytes(rawItems)
	if !parsed.IsArray() {
		return fmt.Errorf("%w: results must be a JSON array", ErrInvalidPatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, err := s.subStepsLocked(blockID)
	if err != nil {
		return err
	}

	next := make([]json.RawMessage, 0, len(steps)+1)
	found := false
	for _, st := range steps {
		if st.Get("id").String() != stepID {
			next = append(next, json.RawMessage(st.Raw))
			continue
		}
		found = true

		var existing SubStep
		if err := json.Unmarshal([]byte(st.Raw), &existing); err != nil {
			return fmt.Errorf("decode sub-step %s: %w", stepID, err)
		}
		merged := make([]json.RawMessage, 0)
		for _, r := range gjson.ParseBytes(existing.Reading).Array() {
			merged = append(merged, json.RawMessage(r.Raw))
		}
		for _, r := range parsed.Array() {
			merged = append(merged, json.RawMessage(r.Raw))
		}
		existing.Reading, err = json.Marshal(merged)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		next = append(next, raw)
	}

	if !found {
		raw, err := json.Marshal(SubStep{ID: stepID, Type: SubStepSearchResults, Reading: rawItems})
		if err != nil {
			return err
		}
		next = append(next, raw)
	}

	return s.replaceSubStepsLocked(blockID, next)
}

func (s *Session) subStepsLocked(blockID string) ([]gjson.Result, error) {
	if s.terminal != nil {
		return nil, ErrSessionClosed
	}
	doc, ok := s.docs[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	if gjson.GetBytes(doc, "type").String() != string(BlockResearch) {
		return nil, fmt.Errorf("block %s is not a research block", blockID)
	}
	return gjson.GetBytes(doc, "data.subSteps").Array(), nil
}

func (s *Session) replaceSubStepsLocked(blockID string, steps []json.RawMessage) error {
	p, err := Replace("/data/subSteps", steps)
	if err != nil {
		return err
	}
	return s.updateLocked(blockID, []Patch{p})
}

// MarkResearchComplete tells listeners that every action has reported.
func (s *Session) MarkResearchComplete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != nil {
		return ErrSessionClosed
	}
	s.publishLocked(Event{Type: EventResearchComplete})
	return nil
}

// End publishes messageEnd and releases all listeners.
func (s *Session) End() error {
	return s.finish(Event{Type: EventMessageEnd})
}

// Fail publishes an error event and releases all listeners.
func (s *Session) Fail(cause error) error {
	return s.finish(errorEvent(cause))
}

func (s *Session) finish(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != nil {
		return ErrSessionClosed
	}
	s.terminal = &ev
	s.publishLocked(ev)

	// Each subscription leaves s.subs once it has delivered the terminal
	// event or its listener detaches.
	close(s.done)
	return nil
}
