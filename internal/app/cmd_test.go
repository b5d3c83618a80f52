package app

import (
	"testing"
)

func TestParseCommand_DefaultsToServe(t *testing.T) {
	cmd := ParseCommand([]string{})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([]) = %q, want %q", cmd, CommandServe)
	}
}

func TestParseCommand_Serve(t *testing.T) {
	cmd := ParseCommand([]string{"serve"})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([serve]) = %q, want %q", cmd, CommandServe)
	}
}

func TestParseCommand_Bot(t *testing.T) {
	cmd := ParseCommand([]string{"bot"})
	if cmd != CommandBot {
		t.Errorf("ParseCommand([bot]) = %q, want %q", cmd, CommandBot)
	}
}

func TestParseCommand_Migrate(t *testing.T) {
	cmd := ParseCommand([]string{"migrate"})
	if cmd != CommandMigrate {
		t.Errorf("ParseCommand([migrate]) = %q, want %q", cmd, CommandMigrate)
	}
}

func TestParseCommand_Healthcheck(t *testing.T) {
	cmd := ParseCommand([]string{"healthcheck"})
	if cmd != CommandHealthcheck {
		t.Errorf("ParseCommand([healthcheck]) = %q, want %q", cmd, CommandHealthcheck)
	}
}

func TestParseCommand_UnknownDefaultsToServe(t *testing.T) {
	cmd := ParseCommand([]string{"unknown"})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([unknown]) = %q, want %q", cmd, CommandServe)
	}
}

func TestParseCommand_IgnoresExtraArgs(t *testing.T) {
	cmd := ParseCommand([]string{"bot", "--flag", "value"})
	if cmd != CommandBot {
		t.Errorf("ParseCommand([bot --flag value]) = %q, want %q", cmd, CommandBot)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandServe, "serve"},
		{CommandBot, "bot"},
		{CommandMigrate, "migrate"},
		{CommandHealthcheck, "healthcheck"},
	}

	for _, tt := range tests {
		if got := string(tt.cmd); got != tt.want {
			t.Errorf("Command(%q) string = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestParseMigrateArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantAction MigrateAction
		wantSteps  int
		wantErr    bool
	}{
		{"引数なしはup", nil, MigrateUp, 0, false},
		{"up", []string{"up"}, MigrateUp, 0, false},
		{"version", []string{"version"}, MigrateVersion, 0, false},
		{"downのデフォルトは1段階", []string{"down"}, MigrateDown, 1, false},
		{"down 3", []string{"down", "3"}, MigrateDown, 3, false},
		{"down 0はエラー", []string{"down", "0"}, "", 0, true},
		{"down 数値以外はエラー", []string{"down", "all"}, "", 0, true},
		{"未知の操作はエラー", []string{"force"}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, steps, err := ParseMigrateArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMigrateArgs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if action != tt.wantAction {
				t.Errorf("action = %q, want %q", action, tt.wantAction)
			}
			if steps != tt.wantSteps {
				t.Errorf("steps = %d, want %d", steps, tt.wantSteps)
			}
		})
	}
}
