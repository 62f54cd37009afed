package service

import (
	"sort"

	"golang.org/x/text/collate"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

// orderVideosByCurriculum returns a copy of videos sorted by explicit sort order (missing last),
// then title, then video id. Titles and ids compare under Turkish collation.
func orderVideosByCurriculum(videos []models.Video) []models.Video {
	ordered := make([]models.Video, len(videos))
	copy(ordered, videos)

	col := newTurkishCollator()
	sort.SliceStable(ordered, func(i, j int) bool {
		return compareVideos(col, ordered[i], ordered[j]) < 0
	})
	return ordered
}

func compareVideos(col *collate.Collator, a, b models.Video) int {
	ka, kb := a.OrderKey(), b.OrderKey()
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	if cmp := col.CompareString(titleOf(a), titleOf(b)); cmp != 0 {
		return cmp
	}
	return col.CompareString(a.VideoID, b.VideoID)
}

func titleOf(v models.Video) string {
	if v.Title == nil {
		return ""
	}
	return *v.Title
}
