package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox-copilot/internal/model"
)

type memPrefs struct {
	p       model.Preferences
	saveErr error
	saved   int
}

func (s *memPrefs) GetPreferences(_ context.Context) (model.Preferences, error) {
	return s.p, nil
}

func (s *memPrefs) SavePreferences(_ context.Context, p model.Preferences) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.p = p
	s.saved++
	return nil
}

func TestStartBindsPreferences(t *testing.T) {
	m := New(&memPrefs{}, 100, 40)
	p := model.DefaultPreferences()
	p.Tone = model.ToneWarm
	p.ReplyLength = 80
	p.Signature = "Prof. Kim"
	p.WellbeingAlerts = false

	m.Start(p)

	got := m.Preferences()
	assert.Equal(t, model.ToneWarm, got.Tone)
	assert.Equal(t, 80, got.ReplyLength)
	assert.Equal(t, "Prof. Kim", got.Signature)
	assert.False(t, got.WellbeingAlerts)
	assert.Equal(t, p.LatePolicy, got.LatePolicy)
}

func TestPreferencesTrimsText(t *testing.T) {
	m := New(&memPrefs{}, 100, 40)
	m.Start(model.DefaultPreferences())
	m.fb.signature = "  Dr. Lee \n"
	m.fb.replyLength = " 30 "

	got := m.Preferences()
	assert.Equal(t, "Dr. Lee", got.Signature)
	assert.Equal(t, 30, got.ReplyLength)
}

func TestLoadFailureFallsBackToDefaults(t *testing.T) {
	m := New(&memPrefs{}, 100, 40)
	m, _ = m.Update(LoadedMsg{Err: errors.New("db locked")})

	require.NotNil(t, m.form)
	assert.Error(t, m.err)
	assert.Equal(t, model.DefaultPreferences().Tone, m.Preferences().Tone)
	assert.Contains(t, m.View(), "showing defaults")
}

func TestSaveWritesThroughStore(t *testing.T) {
	s := &memPrefs{}
	m := New(s, 100, 40)
	m.Start(model.DefaultPreferences())
	m.fb.tone = model.ToneBrief

	msg := m.save()().(SavedMsg)
	require.NoError(t, msg.Err)
	assert.Equal(t, 1, s.saved)
	assert.Equal(t, model.ToneBrief, s.p.Tone)
}

func TestSaveReportsStoreError(t *testing.T) {
	m := New(&memPrefs{saveErr: errors.New("read-only")}, 100, 40)
	m.Start(model.DefaultPreferences())

	msg := m.save()().(SavedMsg)
	assert.EqualError(t, msg.Err, "read-only")
}

func TestValidateLength(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0", false},
		{"100", false},
		{" 42 ", false},
		{"-1", true},
		{"101", true},
		{"lots", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := validateLength(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
