package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want CommandMsg
	}{
		{"sync", CommandMsg{Name: "sync"}},
		{"  :Category   Extension  ", CommandMsg{Name: "category", Arg: "Extension"}},
		{"category honor code", CommandMsg{Name: "category", Arg: "honor code"}},
		{"", CommandMsg{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestMatching(t *testing.T) {
	names := func(entries []Entry) []string {
		var out []string
		for _, s := range entries {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"sync", "settings"}, names(Matching("s")))
	assert.Equal(t, []string{"classify-all"}, names(Matching("CL")))
	assert.Len(t, Matching(""), len(Commands))
	assert.Empty(t, Matching("zzz"))
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 20)
	m.input.SetValue("category grades")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "category", Arg: "grades"}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestEnterOnEmptyInputDoesNothing(t *testing.T) {
	m := New(80, 20)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
