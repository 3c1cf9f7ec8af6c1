package complete

import (
	"sort"

	"github.com/Yeint-herp/rex/internal/debug"
	"github.com/Yeint-herp/rex/internal/fs"
	"github.com/Yeint-herp/rex/internal/store"
)

// Source says where a candidate was drawn from.
type Source int

const (
	SourceCurrentDir Source = iota
	SourcePin
)

// Candidate is one ranked completion.
type Candidate struct {
	Display string
	Target  string
	Score   float64
	Source  Source
}

// Suggest ranks completions for partial against the current directory's
// immediate children and the pin list. It is a pure function of its inputs:
// no filesystem access, no hidden state, same inputs same output.
//
// Children are matched on their base name, pins on their full path (a pin is
// reached by its path, so every segment is fair game). Results are sorted by
// score descending; ties prefer directory children over pins, then shorter
// display text, then lexicographic order. limit <= 0 means no cap.
func Suggest(partial string, listing []fs.Entry, pins []store.Pin, limit int) []Candidate {
	candidates := make([]Candidate, 0, len(listing)+len(pins))

	for _, e := range listing {
		score, ok := Score(partial, e.Name)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Display: e.Name,
			Target:  e.Path,
			Score:   score,
			Source:  SourceCurrentDir,
		})
	}

	for _, p := range pins {
		score, ok := Score(partial, p.Path)
		if !ok {
			continue
		}
		display := p.Path
		if p.Label != "" {
			display = p.Label
		}
		candidates = append(candidates, Candidate{
			Display: display,
			Target:  p.Path,
			Score:   score,
			Source:  SourcePin,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		// Locality bias: current-directory hits before pins
		if a.Source != b.Source {
			return a.Source == SourceCurrentDir
		}
		if len(a.Display) != len(b.Display) {
			return len(a.Display) < len(b.Display)
		}
		return a.Display < b.Display
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	debug.Log(debug.COMPLETE, "Suggest: %q -> %d candidates", partial, len(candidates))
	return candidates
}
