package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

func orderedIDs(videos []models.Video) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.VideoID)
	}
	return ids
}

func TestOrderVideosBySortOrderThenTitleThenID(t *testing.T) {
	mk := func(id, title string, order *float64) models.Video {
		return models.Video{VideoID: id, Title: strPtr(title), SortOrder: order}
	}
	videos := []models.Video{
		mk("z", "Limit", nil),
		mk("b", "türev", floatPtr(2)),
		mk("a", "Türev", floatPtr(2)),
		mk("c", "Çember", floatPtr(2)),
		mk("d", "Açı", floatPtr(1)),
		mk("e", "Nan", floatPtr(math.NaN())),
	}

	ordered := orderVideosByCurriculum(videos)

	assert.Equal(t, []string{"d", "c", "a", "b", "z", "e"}, orderedIDs(ordered))
	assert.Equal(t, "z", videos[0].VideoID, "input is not mutated")
}

func TestOrderVideosTurkishAlphabet(t *testing.T) {
	videos := []models.Video{
		{VideoID: "1", Title: strPtr("Işık")},
		{VideoID: "2", Title: strPtr("İnsan")},
		{VideoID: "3", Title: strPtr("Hız")},
	}

	ordered := orderVideosByCurriculum(videos)

	assert.Equal(t, []string{"3", "1", "2"}, orderedIDs(ordered))
}

func TestSameTeacherTurkishCase(t *testing.T) {
	col := newTurkishCollator()

	assert.True(t, sameTeacher(col, "İlker Hoca", "ilker hoca"))
	assert.True(t, sameTeacher(col, " Ahmet ", "AHMET"))
	assert.False(t, sameTeacher(col, "Ilgaz", "ilgaz"))
	assert.Equal(t, "ilker", teacherKey("İlker"))
	assert.Equal(t, "ılgaz", teacherKey("Ilgaz"))
}
