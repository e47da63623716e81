package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftsign/draftsign-api/internal/models"
)

func contract(status string) *models.Document {
	return &models.Document{Type: models.DocTypeContract, Status: status}
}

func TestContractFSM_HappyPath(t *testing.T) {
	ctx := context.Background()
	doc := contract(models.StatusDraft)
	m := NewContractFSM(doc)

	require.NoError(t, m.Send(ctx))
	assert.Equal(t, models.StatusSent, doc.Status)

	require.NoError(t, m.View(ctx))
	assert.Equal(t, models.StatusViewed, doc.Status)

	require.NoError(t, m.Sign(ctx))
	assert.Equal(t, models.StatusSigned, doc.Status)
	assert.True(t, doc.IsTerminal())
}

func TestContractFSM_Decline(t *testing.T) {
	ctx := context.Background()

	for _, from := range []string{models.StatusSent, models.StatusViewed} {
		doc := contract(from)
		m := NewContractFSM(doc)
		require.NoError(t, m.Decline(ctx), "decline from %s", from)
		assert.Equal(t, models.StatusDeclined, doc.Status)
	}
}

func TestContractFSM_Expire(t *testing.T) {
	ctx := context.Background()
	doc := contract(models.StatusViewed)
	m := NewContractFSM(doc)

	require.NoError(t, m.Expire(ctx))
	assert.Equal(t, models.StatusExpired, doc.Status)
}

func TestContractFSM_Cancel(t *testing.T) {
	ctx := context.Background()

	for _, from := range []string{models.StatusDraft, models.StatusSent, models.StatusViewed} {
		doc := contract(from)
		m := NewContractFSM(doc)
		require.NoError(t, m.Cancel(ctx), "cancel from %s", from)
		assert.Equal(t, models.StatusCancelled, doc.Status)
	}
}

func TestContractFSM_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		from string
		call func(*ContractFSM) error
	}{
		{"send from sent", models.StatusSent, func(m *ContractFSM) error { return m.Send(ctx) }},
		{"sign from draft", models.StatusDraft, func(m *ContractFSM) error { return m.Sign(ctx) }},
		{"sign from sent", models.StatusSent, func(m *ContractFSM) error { return m.Sign(ctx) }},
		{"view from draft", models.StatusDraft, func(m *ContractFSM) error { return m.View(ctx) }},
		{"view from signed", models.StatusSigned, func(m *ContractFSM) error { return m.View(ctx) }},
		{"decline from draft", models.StatusDraft, func(m *ContractFSM) error { return m.Decline(ctx) }},
		{"cancel from signed", models.StatusSigned, func(m *ContractFSM) error { return m.Cancel(ctx) }},
		{"cancel from declined", models.StatusDeclined, func(m *ContractFSM) error { return m.Cancel(ctx) }},
		{"expire from draft", models.StatusDraft, func(m *ContractFSM) error { return m.Expire(ctx) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := contract(tt.from)
			m := NewContractFSM(doc)
			assert.Error(t, tt.call(m))
			// A rejected event leaves the status where it was.
			assert.Equal(t, tt.from, doc.Status)
		})
	}
}

func TestContractFSM_Can(t *testing.T) {
	m := NewContractFSM(contract(models.StatusSent))
	assert.True(t, m.Can("view"))
	assert.True(t, m.Can("decline"))
	assert.False(t, m.Can("sign"))
	assert.Equal(t, models.StatusSent, m.Current())
}
