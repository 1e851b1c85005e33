package llm

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`, wantOK: true},
		{name: "fenced", input: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`, wantOK: true},
		{name: "prose around", input: `Sure! {"answer":"ok"} hope that helps {"x":1}`, want: `{"answer":"ok"}`, wantOK: true},
		{name: "brace in string", input: `{"answer":"use } carefully"}`, want: `{"answer":"use } carefully"}`, wantOK: true},
		{name: "escaped quote", input: `{"answer":"say \"}\" now"} tail`, want: `{"answer":"say \"}\" now"}`, wantOK: true},
		{name: "unbalanced", input: `{"answer":"x"`, wantOK: false},
		{name: "none", input: "no json here", wantOK: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
