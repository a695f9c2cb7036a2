package model

import "time"

// MaxLabelNameLength bounds label names, matching the input limit in the UI.
const MaxLabelNameLength = 20

// LabelColors is the fixed palette a label color must come from.
var LabelColors = []string{
	"#dc2626", // red
	"#ea580c", // orange
	"#ca8a04", // yellow
	"#059669", // green
	"#0891b2", // cyan
	"#2563eb", // blue
	"#7c3aed", // purple
	"#be185d", // pink
	"#6b7280", // gray
}

type Label struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValidLabelColor reports whether color is in the fixed palette.
func IsValidLabelColor(color string) bool {
	for _, c := range LabelColors {
		if c == color {
			return true
		}
	}
	return false
}
