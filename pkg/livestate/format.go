package livestate

import "fmt"

const noTime = "--:--.---"

// FormatLapTime renders milliseconds as m:ss.mmm, zero as a placeholder.
func FormatLapTime(ms uint32) string {
	if ms == 0 {
		return noTime
	}
	minutes := ms / 60000
	seconds := float64(ms%60000) / 1000.0
	return fmt.Sprintf("%d:%06.3f", minutes, seconds)
}

// FormatGap renders a gap in milliseconds as +S.sss.
// Zero means no gap data and negative values are treated the same way.
func FormatGap(ms int64) string {
	if ms <= 0 {
		return "+0.000"
	}
	return fmt.Sprintf("+%.3f", float64(ms)/1000.0)
}

func CompoundName(visual uint8) string {
	switch visual {
	case 16:
		return "Soft"
	case 17:
		return "Medium"
	case 18:
		return "Hard"
	case 7:
		return "Inter"
	case 8:
		return "Wet"
	default:
		return "Unknown"
	}
}

func ERSModeName(mode uint8) string {
	switch mode {
	case 0:
		return "None"
	case 1:
		return "Medium"
	case 2:
		return "Hotlap"
	case 3:
		return "Overtake"
	default:
		return "Unknown"
	}
}
