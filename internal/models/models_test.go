package models

import "testing"

func intPtr(v int) *int { return &v }

func TestIdentityKey(t *testing.T) {
	t.Run("trims title and artist", func(t *testing.T) {
		a := KeyOf("  Currents ", "Tame Impala\t", intPtr(2015))
		b := KeyOf("Currents", "Tame Impala", intPtr(2015))
		if a != b {
			t.Errorf("expected %v == %v", a, b)
		}
	})

	t.Run("case is significant", func(t *testing.T) {
		if KeyOf("currents", "Tame Impala", intPtr(2015)) == KeyOf("Currents", "Tame Impala", intPtr(2015)) {
			t.Error("expected case-different titles to be distinct")
		}
	})

	t.Run("unknown year never equals a concrete year", func(t *testing.T) {
		unknown := KeyOf("Currents", "Tame Impala", nil)
		if unknown == KeyOf("Currents", "Tame Impala", intPtr(0)) {
			t.Error("nil year must not equal year zero")
		}
		if unknown != KeyOf("Currents", "Tame Impala", nil) {
			t.Error("two unknown years should match")
		}
	})

	t.Run("usable as map key", func(t *testing.T) {
		seen := map[IdentityKey]bool{KeyOf("A", "B", intPtr(1999)): true}
		if !seen[KeyOf(" A", "B ", intPtr(1999))] {
			t.Error("expected lookup by equivalent key to succeed")
		}
	})

	t.Run("String", func(t *testing.T) {
		if got := KeyOf("Currents", "Tame Impala", nil).String(); got != "Tame Impala - Currents (????)" {
			t.Errorf("unexpected %q", got)
		}
	})
}

func TestValidate(t *testing.T) {
	tc := []struct {
		name    string
		model   Model
		wantErr bool
	}{
		{name: "valid album", model: &Album{ID: "a", Title: "T", Artist: "A"}},
		{name: "album without artist", model: &Album{ID: "a", Title: "T", Artist: " "}, wantErr: true},
		{name: "album without id", model: &Album{Title: "T", Artist: "A"}, wantErr: true},
		{name: "valid track", model: &Track{AlbumID: "a", Number: 1, Title: "Let It Happen"}},
		{name: "track number zero", model: &Track{AlbumID: "a", Number: 0, Title: "x"}, wantErr: true},
		{name: "log entry without user", model: &LogEntry{AlbumID: "a"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
