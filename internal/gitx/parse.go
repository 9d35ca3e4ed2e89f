package gitx

import (
	"strings"

	"github.com/skaphos/devenv/internal/model"
)

// unmerged lists the porcelain v1 XY codes git uses for conflicted paths.
var unmerged = map[string]bool{
	"DD": true, "AU": true, "UD": true, "UA": true,
	"DU": true, "AA": true, "UU": true,
}

// ParsePorcelainStatus summarizes `git status --porcelain=v1` output.
// Conflicted paths are counted once and not as staged or unstaged.
func ParsePorcelainStatus(output string) *model.Worktree {
	wt := &model.Worktree{}
	for line := range strings.Lines(output) {
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 2 {
			continue
		}
		code := line[:2]
		switch {
		case code == "??":
			wt.Untracked++
		case unmerged[code]:
			wt.Conflicted++
		default:
			if code[0] != ' ' {
				wt.Staged++
			}
			if code[1] != ' ' {
				wt.Unstaged++
			}
		}
	}
	wt.Dirty = wt.Staged+wt.Unstaged+wt.Untracked+wt.Conflicted > 0
	return wt
}
