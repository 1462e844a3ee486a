package rag

import "testing"

func uintPtr(v uint) *uint {
	return &v
}

func TestResolveScope(t *testing.T) {
	tests := []struct {
		name      string
		requested *uint
		session   *uint
		want      *uint
	}{
		{
			name:      "explicit folder wins over session folder",
			requested: uintPtr(3),
			session:   uintPtr(7),
			want:      uintPtr(3),
		},
		{
			name:      "session folder used when request has none",
			requested: nil,
			session:   uintPtr(7),
			want:      uintPtr(7),
		},
		{
			name:      "global scope when neither is set",
			requested: nil,
			session:   nil,
			want:      nil,
		},
		{
			name:      "explicit folder used without session folder",
			requested: uintPtr(3),
			session:   nil,
			want:      uintPtr(3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveScope(tt.requested, tt.session)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ResolveScope() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("ResolveScope() = %d, want %d", *got, *tt.want)
			}
		})
	}
}
