package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/composer/internal/notify"
)

type fakeRedis struct {
	published []string
	err       error
	handlers  map[uuid.UUID]func(string, []byte)
	cancelled int
}

func (f *fakeRedis) PublishDraftEvent(draftID uuid.UUID, event string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakeRedis) SubscribeDraft(draftID uuid.UUID, handler func(string, []byte)) (func(), error) {
	if f.handlers == nil {
		f.handlers = map[uuid.UUID]func(string, []byte){}
	}
	f.handlers[draftID] = handler
	return func() { f.cancelled++ }, nil
}

func newTestClient(h *Hub, draftID uuid.UUID) *Client {
	return &Client{ID: uuid.NewString(), DraftID: draftID, hub: h, send: make(chan WSMessage, 8)}
}

func TestHub_BroadcastReachesOnlyDraftEditors(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), nil, nil)
	d1, d2 := uuid.New(), uuid.New()
	a, b := newTestClient(h, d1), newTestClient(h, d2)
	h.Register(a)
	h.Register(b)

	h.Broadcast(d1, EventEditors, map[string]int{"count": 1})

	require.Len(t, a.send, 1)
	assert.Empty(t, b.send)
	msg := <-a.send
	assert.Equal(t, EventEditors, msg.Event)
	assert.JSONEq(t, `{"count":1}`, string(msg.Data))
	assert.Equal(t, 1, h.EditorCount(d1))
}

func TestHub_UnregisterCancelsSubscription(t *testing.T) {
	r := &fakeRedis{}
	h := NewHub(zaptest.NewLogger(t), r, r)
	d := uuid.New()
	a, b := newTestClient(h, d), newTestClient(h, d)
	h.Register(a)
	h.Register(b)
	require.Contains(t, r.handlers, d)

	h.Unregister(a)
	assert.Equal(t, 0, r.cancelled)
	require.Len(t, b.send, 1, "remaining editor gets the new count")

	h.Unregister(b)
	assert.Equal(t, 1, r.cancelled)
	assert.Equal(t, 0, h.EditorCount(d))
}

func TestHub_RemoteEventsAreHandledAndBroadcast(t *testing.T) {
	r := &fakeRedis{}
	h := NewHub(zaptest.NewLogger(t), r, r)
	d := uuid.New()
	a := newTestClient(h, d)
	h.Register(a)

	var got string
	h.SetRemoteEventHandler(func(draftID uuid.UUID, event string, payload []byte) {
		assert.Equal(t, d, draftID)
		got = event
	})
	r.handlers[d](EventCoverImageReady, []byte(`{"url":"https://cdn/x.png"}`))

	assert.Equal(t, EventCoverImageReady, got)
	require.Len(t, a.send, 1)
	msg := <-a.send
	assert.JSONEq(t, `{"url":"https://cdn/x.png"}`, string(msg.Data))
}

func TestHub_PublishFallsBackToLocal(t *testing.T) {
	r := &fakeRedis{err: errors.New("down")}
	h := NewHub(zaptest.NewLogger(t), r, nil)
	d := uuid.New()
	a := newTestClient(h, d)
	h.Register(a)

	NewDraftNotifier(h, d).Notify(notify.Notification{Message: "Saved", Kind: notify.KindSuccess})

	require.Len(t, a.send, 1)
	msg := <-a.send
	assert.Equal(t, EventNotification, msg.Event)
	var n map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Data, &n))
	assert.Equal(t, "Saved", n["message"])
	assert.EqualValues(t, 3000, n["duration_ms"])
}

func TestClient_InvokeActionExpired(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), nil, nil)
	d := uuid.New()
	a := newTestClient(h, d)
	h.Register(a)

	calls := 0
	h.SetActionInvoker(func(draftID uuid.UUID, actionID string) bool {
		calls++
		return actionID == "live"
	})

	a.handle(WSMessage{Event: EventInvokeAction, Data: json.RawMessage(`{"action_id":"live"}`)})
	assert.Empty(t, a.send)

	a.handle(WSMessage{Event: EventInvokeAction, Data: json.RawMessage(`{"action_id":"gone"}`)})
	require.Len(t, a.send, 1)
	assert.Equal(t, EventActionExpired, (<-a.send).Event)
	assert.Equal(t, 2, calls)
}
