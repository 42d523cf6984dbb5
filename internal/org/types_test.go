package org

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMaskedToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"00Dxx0000001gPL!AQ4AQFnAbCd", "********AbCd"},
		{"abcd", "****"},
		{"", ""},
	}
	for _, tt := range tests {
		creds := Credentials{AccessToken: tt.token}
		if got := creds.MaskedToken(); got != tt.want {
			t.Errorf("MaskedToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestObjectNames(t *testing.T) {
	objs := []ObjectDescriptor{{Name: "Account"}, {Name: "Contact", Label: "Contact"}, {Name: "Case"}}
	if diff := cmp.Diff([]string{"Account", "Contact", "Case"}, ObjectNames(objs)); diff != "" {
		t.Errorf("ObjectNames() mismatch (-want +got):\n%s", diff)
	}
	if got := ObjectNames(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
