package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickActionService_CRUD(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuickActionService(db, nil)
	owner := uuid.New()

	action, err := svc.CreateQuickAction(owner, &QuickActionInput{Name: " Greet ", Content: "Hello {{customerName}}!"})
	require.NoError(t, err)
	assert.Equal(t, "Greet", action.Name)

	updated, err := svc.UpdateQuickAction(owner, action.ID, &QuickActionInput{Name: "Hi", Content: "Hi {{customerName}}"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", updated.Name)
	assert.Equal(t, "Hi {{customerName}}", updated.Content)

	_, err = svc.UpdateQuickAction(uuid.New(), action.ID, &QuickActionInput{Name: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrQuickActionNotFound)

	_, err = svc.UpdateQuickAction(owner, action.ID, &QuickActionInput{Name: "x", Content: " "})
	assert.ErrorIs(t, err, ErrInvalidQuickAction)

	require.NoError(t, svc.DeleteQuickAction(owner, action.ID))
	assert.ErrorIs(t, svc.DeleteQuickAction(owner, action.ID), ErrQuickActionNotFound)

	actions, err := svc.ListQuickActions(owner)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestQuickActionService_Personalize(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuickActionService(db, nil)
	owner := uuid.New()

	action, err := svc.CreateQuickAction(owner, &QuickActionInput{
		Name:    "Order Follow-up",
		Content: "I'm following up on your order #{{orderNumber}} placed on {{date}}. {{customMessage}}",
	})
	require.NoError(t, err)

	content, err := svc.Personalize(owner, action.ID, map[string]string{"orderNumber": "A-17", "date": "May 1"})
	require.NoError(t, err)
	assert.Equal(t, "I'm following up on your order #A-17 placed on May 1. [Custom Message]", content)

	_, err = svc.Personalize(owner, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrQuickActionNotFound)
}

func TestQuickActionService_InitDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuickActionService(db, nil)
	owner := uuid.New()

	created, err := svc.InitDefaultQuickActions(owner)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	created, err = svc.InitDefaultQuickActions(owner)
	require.NoError(t, err)
	assert.Zero(t, created)

	actions, err := svc.ListQuickActions(owner)
	require.NoError(t, err)
	require.Len(t, actions, 6)
	assert.Equal(t, "Personalized Greeting", actions[0].Name)
	assert.Equal(t, "Follow Up", actions[5].Name)
}

func TestQuickActionService_PublishesOnMutation(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuickActionService(db, newTestSettings(t, db))
	notifier := &fakeNotifier{online: true}
	svc.SetChangeNotifier(notifier)
	owner := uuid.New()

	_, err := svc.InitDefaultQuickActions(owner)
	require.NoError(t, err)

	calls := notifier.Calls()
	require.Len(t, calls, 1, "batch init publishes once")
	assert.Equal(t, CollectionQuickActions, calls[0].Collection)
}
