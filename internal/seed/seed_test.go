package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harborline/slipway/internal/card"
)

const validFixture = `
[[lanes]]
id = "L1"
name = "Bay 1"
kind = "mechanical"
active = true

[[lanes]]
id = "L2"
name = "Bay 2"
kind = "electrical"
active = true

[[tasks]]
number = "M4"
kind = "mechanical"
duration_hours = 4.0
lane = "L1"
position = 0

[[tasks]]
number = "M5"
kind = "mechanical"
duration_hours = 6.0
lane = "L1"
position = 4
depends_on = ["M4"]
needs_crane = true
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadValidFixture(t *testing.T) {
	t.Parallel()

	b, err := Load(writeFixture(t, validFixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Lanes) != 2 || len(b.Tasks) != 2 {
		t.Fatalf("loaded %d lanes, %d tasks; want 2, 2", len(b.Lanes), len(b.Tasks))
	}

	cards := b.Cards()
	m5 := cards[1]
	if m5.Number != "M5" || !m5.NeedsCrane || len(m5.Dependencies) != 1 {
		t.Errorf("M5 parsed wrong: %+v", m5)
	}
	if m5.Status != card.StatusScheduled {
		t.Errorf("unset status = %s, want scheduled default", m5.Status)
	}
	if m5.ID != "M5" {
		t.Errorf("unset id = %s, want card number", m5.ID)
	}

	lanes := b.LaneSet()
	if lanes[0].Kind != card.LaneMechanical || !lanes[0].Active {
		t.Errorf("L1 parsed wrong: %+v", lanes[0])
	}
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		fixture string
		wantErr error
	}{
		{
			"unknown card kind",
			"[[tasks]]\nnumber = \"X\"\nkind = \"welding\"\nduration_hours = 1.0\n",
			ErrUnknownKind,
		},
		{
			"unknown lane kind",
			"[[lanes]]\nid = \"L1\"\nname = \"Bay\"\nkind = \"paint\"\n",
			ErrUnknownKind,
		},
		{
			"duplicate number",
			"[[tasks]]\nnumber = \"X\"\nkind = \"kanban\"\nduration_hours = 1.0\n" +
				"[[tasks]]\nnumber = \"X\"\nkind = \"kanban\"\nduration_hours = 1.0\n",
			ErrDuplicateNumber,
		},
		{
			"zero duration",
			"[[tasks]]\nnumber = \"X\"\nkind = \"kanban\"\nduration_hours = 0.0\n",
			ErrBadDuration,
		},
		{
			"bad status",
			"[[tasks]]\nnumber = \"X\"\nkind = \"kanban\"\nduration_hours = 1.0\nstatus = \"lost\"\n",
			ErrUnknownStatus,
		},
		{
			"missing number",
			"[[tasks]]\nkind = \"kanban\"\nduration_hours = 1.0\n",
			ErrMissingField,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeFixture(t, tc.fixture))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Load error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load on a missing file succeeded")
	}
}
