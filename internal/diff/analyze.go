package diff

// FileStat records one file's added/removed line counts.
type FileStat struct {
	Path      string
	Added     int
	Removed   int
	IsNew     bool
	IsDeleted bool
	IsBinary  bool
}

// Stats aggregates change counts across a parsed diff.
type Stats struct {
	TotalFiles   int
	TotalAdded   int
	TotalRemoved int

	// Files preserves the input order of the parsed changes.
	Files []FileStat
}

// Analyze walks parsed file changes and produces aggregate and
// per-file statistics. Binary files and files without hunks (pure
// renames, mode changes) contribute zero lines; an empty input yields
// an all-zero result.
func Analyze(changes []FileChange) Stats {
	stats := Stats{
		TotalFiles: len(changes),
		Files:      make([]FileStat, 0, len(changes)),
	}

	for _, fc := range changes {
		fs := FileStat{
			Path:      fc.Path,
			IsNew:     fc.IsNew,
			IsDeleted: fc.IsDeleted,
			IsBinary:  fc.IsBinary,
		}
		if !fc.IsBinary {
			for _, hunk := range fc.Hunks {
				for _, line := range hunk.Lines {
					switch line.Kind {
					case LineAdded:
						fs.Added++
					case LineRemoved:
						fs.Removed++
					case LineContext:
					}
				}
			}
		}
		stats.TotalAdded += fs.Added
		stats.TotalRemoved += fs.Removed
		stats.Files = append(stats.Files, fs)
	}

	return stats
}
