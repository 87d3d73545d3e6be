package tts_test

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/document"
	"github.com/dgnsrekt/readaloud/tts/engines/mock"
)

func TestCommandGenerators(t *testing.T) {
	f := newFixture(t, "Hello world.")
	c := f.c

	if msg := tts.PlayCmd(c, -1)(); msg != nil {
		t.Fatalf("PlayCmd() = %v, want nil", msg)
	}
	if c.State() != tts.StateSpeaking {
		t.Fatalf("State() = %v, want speaking", c.State())
	}

	tts.PauseCmd(c)()
	if c.State() != tts.StatePaused {
		t.Errorf("State() after PauseCmd = %v, want paused", c.State())
	}
	tts.ResumeCmd(c)()
	if c.State() != tts.StateSpeaking {
		t.Errorf("State() after ResumeCmd = %v, want speaking", c.State())
	}
	tts.ToggleCmd(c, -1)()
	if c.State() != tts.StatePaused {
		t.Errorf("State() after ToggleCmd = %v, want paused", c.State())
	}
	tts.StopCmd(c)()
	if c.State() != tts.StateIdle {
		t.Errorf("State() after StopCmd = %v, want idle", c.State())
	}
}

func TestCommandNotices(t *testing.T) {
	f := newFixture(t, "Hello world.")

	tests := []struct {
		name    string
		cmd     func() any
		wantErr error
	}{
		{
			name:    "unknown parameter",
			cmd:     func() any { return tts.SetParameterCmd(f.c, "tone", "1")() },
			wantErr: tts.ErrUnknownParameter,
		},
		{
			name:    "invalid rate",
			cmd:     func() any { return tts.SetParameterCmd(f.c, "rate", "fast")() },
			wantErr: tts.ErrInvalidParameter,
		},
		{
			name:    "adjust unknown",
			cmd:     func() any { return tts.AdjustCmd(f.c, "voice", 1)() },
			wantErr: tts.ErrUnknownParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notice, ok := tt.cmd().(tts.NoticeMsg)
			if !ok {
				t.Fatalf("command returned %T, want NoticeMsg", tt.cmd())
			}
			if !errors.Is(notice.Err, tt.wantErr) {
				t.Errorf("NoticeMsg.Err = %v, want %v", notice.Err, tt.wantErr)
			}
			if !notice.Recoverable {
				t.Error("NoticeMsg.Recoverable = false, want true")
			}
		})
	}

	if msg := tts.SetParameterCmd(f.c, "rate", "1.5")(); msg != nil {
		t.Errorf("SetParameterCmd(rate, 1.5) = %v, want nil", msg)
	}
}

func TestUnavailableEngineNoticedOnce(t *testing.T) {
	engine := mock.New()
	engine.SetUnavailable(errors.New("no speech service"))
	c := tts.NewController(engine, document.New([]string{"text"}), tts.DefaultControllerConfig())
	in := &inbox{}
	c.OnNotify(in.add)
	t.Cleanup(c.Dispose)

	if err := c.Init(context.Background()); !errors.Is(err, tts.ErrEngineUnavailable) {
		t.Fatalf("Init() error = %v, want ErrEngineUnavailable", err)
	}

	cmds := []tea.Cmd{tts.PlayCmd(c, 0), tts.ToggleCmd(c, 0), tts.ToggleCmd(c, 0)}
	for i, cmd := range cmds {
		if msg := cmd(); msg != nil {
			t.Errorf("command %d returned %v, want nil", i, msg)
		}
	}
	notices := in.notices()
	if len(notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(notices))
	}
	if notices[0].Recoverable || !errors.Is(notices[0].Err, tts.ErrEngineUnavailable) {
		t.Errorf("notice = %+v, want unrecoverable ErrEngineUnavailable", notices[0])
	}
}
