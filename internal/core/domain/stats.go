package domain

import (
	"sort"
	"strings"
)

// MinFolderSuggestions is how many suggestions a folder needs before its
// acceptance rate is reported as an insight.
const MinFolderSuggestions = 3

// FolderStats counts how the user answered suggestions of one folder.
type FolderStats struct {
	Folder    string `json:"folder"`
	Accepted  int    `json:"accepted"`
	Corrected int    `json:"corrected"`
}

// Total returns the number of suggestions of the folder.
func (f FolderStats) Total() int {
	return f.Accepted + f.Corrected
}

// AcceptRate returns the share of suggestions the user kept, in [0,1].
func (f FolderStats) AcceptRate() float64 {
	if f.Total() == 0 {
		return 0
	}
	return float64(f.Accepted) / float64(f.Total())
}

// HistoryStats summarises the retained ledger.
type HistoryStats struct {
	Accepted  int           `json:"accepted"`
	Corrected int           `json:"corrected"`
	Moves     int           `json:"moves"`
	Undone    int           `json:"undone"`
	Folders   []FolderStats `json:"folders"`
}

// Accuracy returns the share of suggestions accepted, or 0 with no
// corrections recorded.
func (s HistoryStats) Accuracy() float64 {
	total := s.Accepted + s.Corrected
	if total == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(total)
}

// TopFolders returns folders with at least MinFolderSuggestions
// suggestions, highest acceptance rate first.
func (s HistoryStats) TopFolders() []FolderStats {
	out := s.eligible()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AcceptRate() > out[j].AcceptRate()
	})
	return out
}

// ProblemFolders returns eligible folders the user corrected at least
// once, lowest acceptance rate first.
func (s HistoryStats) ProblemFolders() []FolderStats {
	var out []FolderStats
	for _, f := range s.eligible() {
		if f.Corrected > 0 {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AcceptRate() < out[j].AcceptRate()
	})
	return out
}

func (s HistoryStats) eligible() []FolderStats {
	var out []FolderStats
	for _, f := range s.Folders {
		if f.Total() >= MinFolderSuggestions {
			out = append(out, f)
		}
	}
	return out
}

// ComputeStats aggregates corrections and activity. Folders are keyed
// case-insensitively on the AI suggestion and ordered by suggestion count,
// then name.
func ComputeStats(corrections []Correction, activity []ActivityEntry) *HistoryStats {
	stats := &HistoryStats{Moves: len(activity), Folders: []FolderStats{}}
	for _, a := range activity {
		if a.Undone {
			stats.Undone++
		}
	}

	index := make(map[string]int)
	for _, c := range corrections {
		folder := strings.TrimSpace(c.AISuggested)
		if folder == "" {
			continue
		}
		key := strings.ToLower(folder)
		i, ok := index[key]
		if !ok {
			i = len(stats.Folders)
			index[key] = i
			stats.Folders = append(stats.Folders, FolderStats{Folder: folder})
		}
		switch c.Type {
		case CorrectionAccepted:
			stats.Accepted++
			stats.Folders[i].Accepted++
		case CorrectionCorrected:
			stats.Corrected++
			stats.Folders[i].Corrected++
		}
	}

	sort.SliceStable(stats.Folders, func(i, j int) bool {
		a, b := stats.Folders[i], stats.Folders[j]
		if a.Total() != b.Total() {
			return a.Total() > b.Total()
		}
		return a.Folder < b.Folder
	})
	return stats
}
