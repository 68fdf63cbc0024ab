package model

// Capacity limits enforced when entities are created.
const (
	MaxCourses         = 20
	MaxUnitsPerCourse  = 30
	MaxTasksPerUnit    = 100
	MaxExamsPerCourse  = 20
	MaxHabits          = 50
	MaxPersonalTasks   = 200
	MaxUndoSnapshots   = 15
	MaxTitleLength     = 200
	MaxTextLength      = 500
	MaxEmojiLength     = 4
	DefaultHabitEmoji  = "✨"
	DefaultUnitTitle   = "Bölüm 1"
	DateLayout         = "2006-01-02"
	DefaultNoteMaxSize = 10 << 20
)

// Palette is assigned round-robin to new courses and habits.
var Palette = []string{
	"#6366f1",
	"#ec4899",
	"#f59e0b",
	"#10b981",
	"#3b82f6",
	"#8b5cf6",
	"#ef4444",
	"#14b8a6",
}

// PaletteColor returns the color for the n-th created entity.
func PaletteColor(n int) string {
	if n < 0 {
		n = -n
	}
	return Palette[n%len(Palette)]
}
