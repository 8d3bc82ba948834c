package gpib

import "testing"

func TestCommandRender(t *testing.T) {
	tests := []struct {
		name string
		text string
		args []any
		want string
	}{
		{
			name: "no args renders text alone",
			text: "*RST",
			args: nil,
			want: "*RST",
		},
		{
			name: "single string arg",
			text: "*SRE",
			args: []any{"48"},
			want: "*SRE 48",
		},
		{
			name: "single int arg",
			text: "*ESE",
			args: []any{32},
			want: "*ESE 32",
		},
		{
			name: "multiple args space separated",
			text: "APPL:SIN",
			args: []any{100, 0.5, "0.0"},
			want: "APPL:SIN 100 0.5 0.0",
		},
		{
			name: "empty args slice renders text alone",
			text: "*CLS",
			args: []any{},
			want: "*CLS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCommand("test", tt.text)
			got := cmd.Render(tt.args...)
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryRenderIgnoresArgs(t *testing.T) {
	q := NewQuery("ident", "*IDN")

	tests := []struct {
		name string
		args []any
	}{
		{name: "no args"},
		{name: "one arg", args: []any{"ignored"}},
		{name: "many args", args: []any{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.Render(tt.args...); got != "*IDN?" {
				t.Errorf("Render() = %q, want %q", got, "*IDN?")
			}
		})
	}
}

func TestQueryReadBytes(t *testing.T) {
	if got := NewQuery("ident", "*IDN").ReadBytes(); got != DefaultQueryRead {
		t.Errorf("NewQuery().ReadBytes() = %d, want %d", got, DefaultQueryRead)
	}

	if got := NewQueryN("status", "*STB", 10).ReadBytes(); got != 10 {
		t.Errorf("NewQueryN(10).ReadBytes() = %d, want 10", got)
	}

	if got := NewQueryN("ident", "*IDN", ReadUntilTerminator).ReadBytes(); got >= 0 {
		t.Errorf("NewQueryN(ReadUntilTerminator).ReadBytes() = %d, want negative", got)
	}
}

func TestCommandAccessors(t *testing.T) {
	cmd := NewCommand("reset", "*RST")
	if cmd.Name() != "reset" {
		t.Errorf("Name() = %q, want %q", cmd.Name(), "reset")
	}
	if cmd.Text() != "*RST" {
		t.Errorf("Text() = %q, want %q", cmd.Text(), "*RST")
	}
}
