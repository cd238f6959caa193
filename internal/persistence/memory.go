package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/models"
)

// Operation names used by Memory.Fail and Memory.Calls.
const (
	OpListTemplates          = "ListTemplates"
	OpGetTemplate            = "GetTemplate"
	OpCreateTemplate         = "CreateTemplate"
	OpUpdateTemplate         = "UpdateTemplate"
	OpDeleteTemplate         = "DeleteTemplate"
	OpListPreferredPayments  = "ListPreferredPayments"
	OpUpdatePreferredPayment = "UpdatePreferredPayment"
	OpDeletePreferredPayment = "DeletePreferredPayment"
	OpSaveEvent              = "SaveEvent"
	OpGetEvent               = "GetEvent"
)

type templateRow struct {
	seq      int
	template models.Template
}

type preferredRow struct {
	seq       int
	accountID string
	item      models.PreferPaymentItem
}

// Memory is an in-process store used for local runs and tests.
// Records are copied on the way in and out; lists keep insertion order.
type Memory struct {
	mu            sync.Mutex
	templateLimit int
	now           func() time.Time
	seq           int
	templates     map[string]templateRow
	preferred     map[string]preferredRow
	events        map[string][]byte
	failures      map[string][]error
	calls         map[string]int
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		templateLimit: models.MaxTemplatesPerAccount,
		now:           time.Now,
		templates:     make(map[string]templateRow),
		preferred:     make(map[string]preferredRow),
		events:        make(map[string][]byte),
		failures:      make(map[string][]error),
		calls:         make(map[string]int),
	}
}

// Fail makes the next call of op return err. Repeated calls queue up.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter counts the call and pops an injected failure. Caller holds mu.
func (m *Memory) enter(op string) error {
	m.calls[op]++
	if q := m.failures[op]; len(q) > 0 {
		m.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (m *Memory) ListTemplates(ctx context.Context, accountID string) ([]models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListTemplates); err != nil {
		return nil, err
	}
	rows := make([]templateRow, 0, len(m.templates))
	for _, r := range m.templates {
		if r.template.AccountID == accountID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	list := make([]models.Template, 0, len(rows))
	for _, r := range rows {
		list = append(list, copyTemplate(r.template))
	}
	return list, nil
}

func (m *Memory) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpGetTemplate); err != nil {
		return nil, err
	}
	r, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	c := copyTemplate(r.template)
	return &c, nil
}

func (m *Memory) CreateTemplate(ctx context.Context, t *models.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreateTemplate); err != nil {
		return err
	}
	count := 0
	for _, r := range m.templates {
		if r.template.AccountID == t.AccountID {
			count++
		}
	}
	if count >= m.templateLimit {
		return ErrTemplateLimit
	}
	now := m.now()
	t.ID = uuid.New().String()
	t.CreatedAt, t.UpdatedAt = now, now
	m.seq++
	m.templates[t.ID] = templateRow{seq: m.seq, template: copyTemplate(*t)}
	return nil
}

func (m *Memory) UpdateTemplate(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpdateTemplate); err != nil {
		return nil, err
	}
	r, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	t := r.template
	if patch.FormName != nil {
		t.FormName = *patch.FormName
	}
	if patch.Fields != nil {
		t.Fields = patch.Fields
	}
	t.UpdatedAt = m.now()
	r.template = copyTemplate(t)
	m.templates[id] = r
	c := copyTemplate(t)
	return &c, nil
}

func (m *Memory) DeleteTemplate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDeleteTemplate); err != nil {
		return err
	}
	delete(m.templates, id)
	return nil
}

func (m *Memory) ListPreferredPayments(ctx context.Context, accountID string) ([]models.PreferPaymentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListPreferredPayments); err != nil {
		return nil, err
	}
	rows := make([]preferredRow, 0, len(m.preferred))
	for _, r := range m.preferred {
		if r.accountID == accountID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	list := make([]models.PreferPaymentItem, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.item)
	}
	return list, nil
}

func (m *Memory) UpdatePreferredPayment(ctx context.Context, accountID, id string, patch models.PreferPaymentPatch) (*models.PreferPaymentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpdatePreferredPayment); err != nil {
		return nil, err
	}
	r, ok := m.preferred[id]
	if ok && r.accountID != accountID {
		return nil, fmt.Errorf("preferred payment %s: %w", id, ErrNotFound)
	}
	if !ok {
		m.seq++
		r = preferredRow{seq: m.seq, accountID: accountID, item: models.PreferPaymentItem{ID: id, Type: models.PaymentTypeATM}}
	}
	r.item = patch.Apply(r.item)
	m.preferred[id] = r
	item := r.item
	return &item, nil
}

func (m *Memory) DeletePreferredPayment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDeletePreferredPayment); err != nil {
		return err
	}
	delete(m.preferred, id)
	return nil
}

func (m *Memory) SaveEvent(ctx context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpSaveEvent); err != nil {
		return err
	}
	now := m.now()
	e.SavedAt = &now
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	m.events[e.ID.String()] = raw
	return nil
}

// GetEvent returns a saved draft.
func (m *Memory) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpGetEvent); err != nil {
		return nil, err
	}
	raw, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	var e models.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

func copyTemplate(t models.Template) models.Template {
	fields := make([]models.FormField, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = f.Clone()
	}
	t.Fields = fields
	return t
}
