package composer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/saletime"
	"github.com/aura-events/composer/pkg/validation"
)

var readOnlyRoots = map[string]bool{"id": true, "account_id": true, "created_at": true, "saved_at": true}

// Value reads the draft value at a dotted json path such as "sessions.0.name".
// Unset optional members of an object read as nil.
func (c *Composer) Value(path string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.document()
	if err != nil {
		return nil, err
	}
	segs := splitPath(path)
	node := doc
	for i, seg := range segs {
		next, ok := child(node, seg)
		if !ok {
			if _, isObject := node.(map[string]interface{}); isObject && i == len(segs)-1 {
				return nil, nil
			}
			return nil, fmt.Errorf("%s: %w", path, ErrInvalidPath)
		}
		node = next
	}
	return node, nil
}

// SetValue writes v at a dotted json path. Sale windows are derived state and
// cannot be written; every accepted write re-derives per-offset windows and
// drops windows of sessions that no longer exist.
func (c *Composer) SetValue(path string, v interface{}) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	if readOnlyRoots[segs[0]] {
		return fmt.Errorf("%s: %w", path, ErrReadOnlyField)
	}
	if segs[0] == "tickets" && len(segs) >= 3 && segs[2] == "sale_time" {
		return fmt.Errorf("%s: %w", path, ErrDerivedField)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.document()
	if err != nil {
		return err
	}
	parent := doc
	for _, seg := range segs[:len(segs)-1] {
		var ok bool
		if parent, ok = child(parent, seg); !ok {
			return fmt.Errorf("%s: %w", path, ErrInvalidPath)
		}
	}
	if !setChild(parent, segs[len(segs)-1], v) {
		return fmt.Errorf("%s: %w", path, ErrInvalidPath)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var e models.Event
	if err := dec.Decode(&e); err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ErrInvalidValue)
	}
	if err := c.checkSaleTimes(e); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	c.load(e)
	if err := c.tickets.Reconcile(c.sessions.All()); err != nil {
		c.logger.Debug("reconcile sale times", zap.String("path", path), zap.Error(err))
	}
	return nil
}

// checkSaleTimes rejects a written document whose uniform tickets carry sale
// windows no calculator path produced. Each entry must keep its stored times or
// equal the ticket's shared window. Per-offset windows are re-derived after the
// write and need no check. Caller holds mu.
func (c *Composer) checkSaleTimes(e models.Event) error {
	sessions := make(map[string]models.Session, len(e.Sessions))
	for _, s := range e.Sessions {
		sessions[s.ID] = s
	}
	for _, t := range e.Tickets {
		if t.SaleTimeType != models.SaleTimeUniform {
			continue
		}
		stored := map[string]models.SaleTime{}
		if prev, _, ok := c.tickets.Get(t.ID); ok {
			for _, st := range prev.SaleTime {
				stored[st.SessionID] = st
			}
		}
		for _, st := range t.SaleTime {
			if old, ok := stored[st.SessionID]; ok && old == st {
				continue
			}
			sess, ok := sessions[st.SessionID]
			if !ok {
				continue
			}
			want, err := saletime.Uniform(sess, t.GlobalTime)
			if err != nil || want != st {
				return ErrDerivedField
			}
		}
	}
	return nil
}

// Error returns the first validation message for the control at path, or "".
func (c *Composer) Error(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, is := range c.issues() {
		if is.Path == path {
			return is.Message
		}
	}
	return ""
}

// Trigger validates the draft and returns the issues at or below prefix.
// An empty prefix returns every issue.
func (c *Composer) Trigger(prefix string) []validation.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.issues()
	if prefix == "" {
		return all
	}
	var out []validation.Issue
	for _, is := range all {
		if validation.HasPrefix([]validation.Issue{is}, prefix) {
			out = append(out, is)
		}
	}
	return out
}

// Focus moves the input focus to the control at path.
func (c *Composer) Focus(path string) error {
	if _, err := c.Value(path); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = path
	return nil
}

// Focused returns the path of the focused control.
func (c *Composer) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// issues validates the whole draft with paths relative to the event. Caller holds mu.
func (c *Composer) issues() []validation.Issue {
	var issues []validation.Issue
	if strings.TrimSpace(c.event.EventName) == "" {
		issues = append(issues, validation.Issue{Path: "event_name", Tag: "required", Message: "is required"})
	}
	for i, b := range c.event.FAQBlocks {
		issues = append(issues, validation.StructWithPrefix(b, fmt.Sprintf("faq_blocks.%d", i))...)
	}
	issues = append(issues, c.sessions.Validate()...)
	issues = append(issues, c.tickets.Validate(c.sessions.All())...)
	issues = append(issues, formIssues(c.forms.Validate())...)
	issues = append(issues, c.payments.ValidateBank()...)
	return issues
}

// document renders the draft as generic json. Caller holds mu.
func (c *Composer) document() (interface{}, error) {
	raw, err := json.Marshal(c.draft())
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return doc, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func child(node interface{}, seg string) (interface{}, bool) {
	switch n := node.(type) {
	case map[string]interface{}:
		v, ok := n[seg]
		return v, ok
	case []interface{}:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], true
	}
	return nil, false
}

func setChild(node interface{}, seg string, v interface{}) bool {
	switch n := node.(type) {
	case map[string]interface{}:
		n[seg] = v
		return true
	case []interface{}:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(n) {
			return false
		}
		n[i] = v
		return true
	}
	return false
}
