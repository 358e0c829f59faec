package madcow

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatWeight renders a weight without trailing zeros.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func joinWeights(ws []float64, sep string) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = FormatWeight(w)
	}
	return strings.Join(parts, sep)
}

// WriteText renders a week plan as plain text, one block per card.
func WriteText(w io.Writer, p *WeekPlan) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Workout: %s (Week %d)\n", p.Lifter, p.Week)
	for _, day := range p.Days {
		fmt.Fprintf(bw, "\n== %s (%s) ==\n", day.Name, day.Kind)
		for _, c := range day.Cards {
			writeCard(bw, day.Kind, c)
		}
	}
	return bw.Flush()
}

func writeCard(w io.Writer, kind DayKind, c Card) {
	fmt.Fprintf(w, "%s\n", c.Name)
	if c.Failed() {
		fmt.Fprintf(w, "  missing data: %s\n", c.Error)
		return
	}
	switch kind {
	case DayIntensity:
		fmt.Fprintf(w, "  Ramp (x5): %s\n", joinWeights(c.Ramps, ", "))
		fmt.Fprintf(w, "  Triple (x3): %s lbs  [%s]\n", FormatWeight(c.Triple.Weight), c.Triple.PlateText)
		fmt.Fprintf(w, "  Back (x8): %s lbs  [%s]\n", FormatWeight(c.BackOff.Weight), c.BackOff.PlateText)
	default:
		fmt.Fprintf(w, "  Ramps (x5): %s\n", joinWeights(c.Ramps, " -> "))
		fmt.Fprintf(w, "  TOP SET: %s lbs x 5\n", FormatWeight(c.Top.Weight))
		fmt.Fprintf(w, "  Plates per side: %s\n", c.Top.PlateText)
	}
}
