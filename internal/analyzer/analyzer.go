// Package analyzer derives duplicate information from scan records. All
// functions are pure: they read the records, touch no filesystem and keep
// no state, so the same input always yields the same output.
package analyzer

import "github.com/jgivc/dupetracker/internal/entity"

// FindDuplicates groups records by digest and returns every group with two
// or more members. Groups appear in the order their digest was first seen
// in records, and paths inside a group keep the input order. Records with
// an empty digest or path never join a group.
func FindDuplicates(records []entity.FileRecord) []entity.DuplicateGroup {
	byDigest := make(map[string]*entity.DuplicateGroup)
	order := make([]string, 0)

	for _, rec := range records {
		if rec.Digest == "" || rec.Path == "" {
			continue
		}

		group, ok := byDigest[rec.Digest]
		if !ok {
			group = &entity.DuplicateGroup{Digest: rec.Digest, Size: rec.Size}
			byDigest[rec.Digest] = group
			order = append(order, rec.Digest)
		}

		group.Paths = append(group.Paths, rec.Path)
	}

	groups := make([]entity.DuplicateGroup, 0)
	for _, digest := range order {
		if group := byDigest[digest]; len(group.Paths) > 1 {
			groups = append(groups, *group)
		}
	}

	return groups
}

// CountDuplicates reports how many duplicate groups exist and how many
// records belong to them. Files counts every member, including the one
// copy that deduplication would keep.
func CountDuplicates(records []entity.FileRecord) entity.DuplicateStats {
	var stats entity.DuplicateStats

	for _, group := range FindDuplicates(records) {
		stats.Groups++
		stats.Files += len(group.Paths)
	}

	return stats
}

// WastedSpace estimates the bytes reclaimable by keeping one copy per
// group. Each group contributes (members-1) times the size recorded for
// its first-seen member; differing sizes under one digest are not
// reconciled here.
func WastedSpace(records []entity.FileRecord) int64 {
	var wasted int64

	for _, group := range FindDuplicates(records) {
		wasted += int64(len(group.Paths)-1) * group.Size
	}

	return wasted
}
