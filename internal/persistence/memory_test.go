package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/composer/internal/models"
)

func strp(s string) *string { return &s }

func TestMemory_TemplateLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, name := range []string{"a", "b", "c"} {
		tpl := &models.Template{AccountID: "acc", FormName: name, Fields: []models.FormField{{ID: "f", Label: "Name"}}}
		require.NoError(t, m.CreateTemplate(ctx, tpl))
		assert.NotEmpty(t, tpl.ID)
	}
	err := m.CreateTemplate(ctx, &models.Template{AccountID: "acc", FormName: "d"})
	assert.ErrorIs(t, err, ErrTemplateLimit)
	require.NoError(t, m.CreateTemplate(ctx, &models.Template{AccountID: "other", FormName: "x"}))

	list, err := m.ListTemplates(ctx, "acc")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].FormName, list[1].FormName, list[2].FormName})

	list[0].Fields[0].Label = "mutated"
	got, err := m.GetTemplate(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Name", got.Fields[0].Label)

	updated, err := m.UpdateTemplate(ctx, got.ID, models.TemplatePatch{FormName: strp("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.FormName)
	assert.Len(t, updated.Fields, 1)

	require.NoError(t, m.DeleteTemplate(ctx, got.ID))
	_, err = m.GetTemplate(ctx, got.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.UpdateTemplate(ctx, got.ID, models.TemplatePatch{FormName: strp("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_PreferredPaymentUpsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	item, err := m.UpdatePreferredPayment(ctx, "acc", "p1", models.PreferPaymentPatch{BankName: strp("Bank"), Account: strp("12345678")})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTypeATM, item.Type)
	assert.Equal(t, "Bank", item.BankName)

	item, err = m.UpdatePreferredPayment(ctx, "acc", "p1", models.PreferPaymentPatch{BranchName: strp("Main")})
	require.NoError(t, err)
	assert.Equal(t, "Bank", item.BankName)
	assert.Equal(t, "Main", item.BranchName)

	_, err = m.UpdatePreferredPayment(ctx, "acc", "p2", models.PreferPaymentPatch{BankName: strp("Second")})
	require.NoError(t, err)
	_, err = m.UpdatePreferredPayment(ctx, "intruder", "p1", models.PreferPaymentPatch{BankName: strp("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := m.ListPreferredPayments(ctx, "acc")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID, "newest first")

	require.NoError(t, m.DeletePreferredPayment(ctx, "p2"))
	list, err = m.ListPreferredPayments(ctx, "acc")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemory_FailureInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")
	m.Fail(OpDeleteTemplate, boom)

	assert.ErrorIs(t, m.DeleteTemplate(ctx, "x"), boom)
	assert.NoError(t, m.DeleteTemplate(ctx, "x"))
	assert.Equal(t, 2, m.Calls(OpDeleteTemplate))
}

func TestMemory_SaveAndGetEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	e := &models.Event{ID: uuid.New(), AccountID: "acc", EventName: "Launch"}

	require.NoError(t, m.SaveEvent(ctx, e))
	require.NotNil(t, e.SavedAt)

	got, err := m.GetEvent(ctx, e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.EventName)

	_, err = m.GetEvent(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
