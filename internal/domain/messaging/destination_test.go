package messaging

import "testing"

func TestResolveDestination(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		isGroup bool
		want    string
		wantErr bool
	}{
		{name: "bare number", to: "15551234567", want: "15551234567@c.us"},
		{name: "formatted number", to: "+1 (555) 123-4567", want: "15551234567@c.us"},
		{name: "group id", to: "120363041234567890", isGroup: true, want: "120363041234567890@g.us"},
		{name: "already suffixed user", to: "15551234567@c.us", want: "15551234567@c.us"},
		{name: "already suffixed group", to: "120363041234567890@g.us", want: "120363041234567890@g.us"},
		{name: "empty", to: "", wantErr: true},
		{name: "no digits", to: "not-a-number", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDestination(tt.to, tt.isGroup)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
