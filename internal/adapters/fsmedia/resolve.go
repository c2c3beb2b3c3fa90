package fsmedia

import (
	"path"
	"strings"
)

// localToRel maps a local id to a slash-separated path relative to the
// root. Ids normally carry real separators; a single-segment id may instead
// encode separators with the reserved '~' character, which the greedy walk
// below expands.
func (a *Adapter) localToRel(localID string) string {
	localID = strings.Trim(strings.TrimSpace(localID), "/")
	if localID == "" || localID == "." {
		return ""
	}
	if !strings.Contains(localID, "/") && strings.ContainsRune(localID, FlattenSeparator) {
		return a.expandFlattened(localID)
	}
	return path.Clean(localID)
}

// expandFlattened resolves a '~'-separated id by walking segments left to
// right, greedily treating each as a directory while the index confirms one
// exists at the cursor. The first non-directory segment and everything
// after it rejoin (reinserting '~') as the final filename.
//
// The greedy policy prefers existing subdirectories over filenames that
// happen to contain '~'. A filename whose leading segments mirror an
// existing directory chain therefore cannot be addressed in flattened form;
// that ambiguity is accepted rather than resolved heuristically, so a given
// reference always maps to the same path.
func (a *Adapter) expandFlattened(id string) string {
	segs := strings.Split(id, string(FlattenSeparator))
	var dir string
	for i := 0; i < len(segs)-1; i++ {
		candidate := path.Join(dir, segs[i])
		if !a.index.IsDir(candidate) {
			break
		}
		dir = candidate
	}
	consumed := strings.Count(dir, "/")
	if dir != "" {
		consumed++
	}
	file := strings.Join(segs[consumed:], string(FlattenSeparator))
	return path.Join(dir, file)
}
