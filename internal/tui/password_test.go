package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestPasswordViewShowsPrompt(t *testing.T) {
	m := newPasswordModel(false, "")
	view := m.View()

	if !strings.Contains(view, "master password") {
		t.Error("view should show master password prompt")
	}
	if strings.Contains(view, "create") {
		t.Error("unlock view should not contain 'create'")
	}
	if !strings.Contains(view, "zbook") {
		t.Error("view should show tool name")
	}
}

func TestPasswordFirstRunShowsCreate(t *testing.T) {
	m := newPasswordModel(true, "")

	if !strings.Contains(m.View(), "create master password") {
		t.Error("first-run view should show 'create master password'")
	}
}

func TestPasswordFirstRunConfirm(t *testing.T) {
	m := newPasswordModel(true, "")

	m.input.SetValue("secret")
	m, cmd := m.Update(enterKey())

	if cmd != nil {
		t.Error("first entry should not submit")
	}
	if !m.confirming {
		t.Error("should be confirming after first entry")
	}
	if m.input.Value() != "" {
		t.Error("input should be cleared for confirmation")
	}
	if !strings.Contains(m.View(), "confirm password") {
		t.Error("view should show confirm prompt")
	}
}

func TestPasswordFirstRunMismatch(t *testing.T) {
	m := newPasswordModel(true, "")

	m.input.SetValue("secret1")
	m, _ = m.Update(enterKey())
	m.input.SetValue("secret2")
	m, cmd := m.Update(enterKey())

	if cmd != nil {
		t.Error("mismatch should not submit")
	}
	if !strings.Contains(m.View(), "passwords do not match") {
		t.Error("should show mismatch error")
	}
	if m.confirming {
		t.Error("should reset confirming state")
	}
}

func TestPasswordFirstRunMatch(t *testing.T) {
	m := newPasswordModel(true, "")

	m.input.SetValue("secret")
	m, _ = m.Update(enterKey())
	m.input.SetValue("secret")
	_, cmd := m.Update(enterKey())

	if cmd == nil {
		t.Fatal("should emit command on matching passwords")
	}
	submit, ok := cmd().(passwordSubmitMsg)
	if !ok {
		t.Fatal("should emit passwordSubmitMsg")
	}
	if submit.password != "secret" {
		t.Errorf("password = %q, want %q", submit.password, "secret")
	}
}

func TestPasswordUnlockSubmitsImmediately(t *testing.T) {
	m := newPasswordModel(false, "")
	m.input.SetValue("secret")

	_, cmd := m.Update(enterKey())
	if cmd == nil {
		t.Fatal("should emit command on unlock submit")
	}
	if submit, ok := cmd().(passwordSubmitMsg); !ok || submit.password != "secret" {
		t.Errorf("got %#v, want passwordSubmitMsg{secret}", submit)
	}
}

func TestPasswordSubmitEmptyIgnored(t *testing.T) {
	m := newPasswordModel(false, "")

	_, cmd := m.Update(enterKey())
	if cmd != nil {
		t.Error("empty password should not emit command")
	}
}

func TestPasswordQKeyReachesInput(t *testing.T) {
	m := newPasswordModel(false, "")

	m, cmd := m.Update(keyMsg('q'))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("pressing 'q' should not quit the password view")
		}
	}
	if m.input.Value() != "q" {
		t.Errorf("input = %q, want %q", m.input.Value(), "q")
	}
}

func TestPasswordCtrlCQuits(t *testing.T) {
	m := newPasswordModel(false, "")

	_, cmd := m.Update(specialKey(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatal("ctrl+c should produce a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c should produce QuitMsg")
	}
}

func TestPasswordErrMsgClearsInput(t *testing.T) {
	m := newPasswordModel(true, "")
	m.confirming = true
	m.firstPass = "secret"
	m.input.SetValue("secret")

	m, _ = m.Update(passwordErrMsg{err: errors.New("bad password")})

	if m.input.Value() != "" {
		t.Error("input should be cleared on error")
	}
	if m.confirming || m.firstPass != "" {
		t.Error("confirmation state should be reset on error")
	}
	if !strings.Contains(m.View(), "bad password") {
		t.Error("should display error message")
	}
}

func TestPasswordShowsVaultDir(t *testing.T) {
	tests := []struct {
		name     string
		firstRun bool
		want     string
	}{
		{"existing", false, "vault in /data/zbook"},
		{"first run", true, "new vault in /data/zbook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newPasswordModel(tt.firstRun, "/data/zbook")
			if !strings.Contains(m.View(), tt.want) {
				t.Errorf("view should contain %q", tt.want)
			}
		})
	}
}

func TestPasswordCountsWrongAttempts(t *testing.T) {
	m := newPasswordModel(false, "")

	m, _ = m.Update(passwordErrMsg{err: errWrongPassword})
	if m.errMsg != "wrong password" {
		t.Errorf("first failure = %q, want %q", m.errMsg, "wrong password")
	}

	m, _ = m.Update(passwordErrMsg{err: errWrongPassword})
	if !strings.Contains(m.View(), "wrong password (2 attempts)") {
		t.Errorf("second failure = %q, want attempt count", m.errMsg)
	}

	m, _ = m.Update(passwordErrMsg{err: errors.New("disk full")})
	if m.errMsg != "disk full" || m.failures != 2 {
		t.Errorf("other errors should not count: %q, failures %d", m.errMsg, m.failures)
	}
}
