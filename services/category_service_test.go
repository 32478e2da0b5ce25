package services

import (
	"testing"

	"quizadmin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory(t *testing.T) {
	categories := NewCategoryService(newTestDB(t))

	t.Run("DerivesSlug", func(t *testing.T) {
		category, err := categories.Create(&CreateCategoryRequest{Name: "General Knowledge"})
		require.NoError(t, err)
		assert.Equal(t, "general-knowledge", category.Slug)
	})

	t.Run("ExplicitSlugWins", func(t *testing.T) {
		category, err := categories.Create(&CreateCategoryRequest{Name: "History of Science", Slug: "history"})
		require.NoError(t, err)
		assert.Equal(t, "history", category.Slug)
	})

	t.Run("DuplicateSlug", func(t *testing.T) {
		_, err := categories.Create(&CreateCategoryRequest{Name: "Science"})
		require.NoError(t, err)

		_, err = categories.Create(&CreateCategoryRequest{Name: "Anything", Slug: "science"})
		require.Error(t, err)
		assert.EqualError(t, err, `Category with slug "science" already exists`)
	})
}

func TestGetCategory(t *testing.T) {
	categories := NewCategoryService(newTestDB(t))
	_, err := categories.Create(&CreateCategoryRequest{Name: "Math"})
	require.NoError(t, err)

	bySlug, err := categories.GetBySlug("math")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, "Math", bySlug.Name)

	byName, err := categories.GetByName("Math")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, bySlug.ID, byName.ID)

	missing, err := categories.GetBySlug("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateCategory(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryService(db)
	quizzes := NewQuizService(db, categories)

	first, err := categories.Create(&CreateCategoryRequest{Name: "Math"})
	require.NoError(t, err)
	_, err = categories.Create(&CreateCategoryRequest{Name: "Science"})
	require.NoError(t, err)

	t.Run("SlugCollisionExcludesSelf", func(t *testing.T) {
		// re-submitting your own slug is not a collision
		slug := "math"
		updated, err := categories.Update(first.ID, &UpdateCategoryRequest{Slug: &slug})
		require.NoError(t, err)
		assert.Equal(t, "math", updated.Slug)

		taken := "science"
		_, err = categories.Update(first.ID, &UpdateCategoryRequest{Slug: &taken})
		require.Error(t, err)
		assert.EqualError(t, err, `Category with slug "science" already exists`)
	})

	t.Run("RenameRefreshesQuizzes", func(t *testing.T) {
		quiz, err := quizzes.Create(&QuizPayload{
			Title:      "Fractions",
			Category:   "Math",
			Difficulty: models.DifficultyEasy,
			Duration:   10,
			Questions:  []models.Question{{Question: "1/2 + 1/2?", Options: []string{"1", "2"}, CorrectAnswer: 0}},
		})
		require.NoError(t, err)

		name := "Mathematics"
		_, err = categories.Update(first.ID, &UpdateCategoryRequest{Name: &name})
		require.NoError(t, err)

		refreshed, err := quizzes.GetByQuizID(quiz.QuizID)
		require.NoError(t, err)
		require.NotNil(t, refreshed)
		assert.Equal(t, "Mathematics", refreshed.Category)
	})

	t.Run("NotFound", func(t *testing.T) {
		name := "Ghost"
		_, err := categories.Update(9999, &UpdateCategoryRequest{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteCategory(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryService(db)
	quizzes := NewQuizService(db, categories)

	category, err := categories.Create(&CreateCategoryRequest{Name: "Geography"})
	require.NoError(t, err)

	for _, title := range []string{"Capitals", "Rivers"} {
		_, err := quizzes.Create(&QuizPayload{
			Title:      title,
			Category:   "Geography",
			Difficulty: models.DifficultyMedium,
			Duration:   15,
			Questions:  []models.Question{{Question: "?", Options: []string{"a", "b"}, CorrectAnswer: 1}},
		})
		require.NoError(t, err)
	}

	err = categories.Delete(category.ID)
	require.Error(t, err)
	assert.EqualError(t, err, `Cannot delete category "Geography" because 2 quiz(zes) are using it`)

	empty, err := categories.Create(&CreateCategoryRequest{Name: "Unused"})
	require.NoError(t, err)
	require.NoError(t, categories.Delete(empty.ID))

	assert.ErrorIs(t, categories.Delete(empty.ID), ErrNotFound)
}

func TestBulkCreateCategories(t *testing.T) {
	categories := NewCategoryService(newTestDB(t))

	result, err := categories.BulkCreate([]CreateCategoryRequest{
		{Name: "Math"},
		{Name: "Other Math", Slug: "math"}, // collides with the first
		{Name: "Science"},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Category "Other Math" already exists`, result.Errors[0])
	assert.Len(t, result.IDs, 2)

	all, err := categories.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCategoryStats(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryService(db)
	quizzes := NewQuizService(db, categories)

	_, err := categories.Create(&CreateCategoryRequest{Name: "Empty"})
	require.NoError(t, err)
	_, err = quizzes.Create(&QuizPayload{
		Title:      "Sorting",
		Category:   "Programming",
		Difficulty: models.DifficultyHard,
		Duration:   20,
		Questions:  []models.Question{{Question: "?", Options: []string{"a", "b"}, CorrectAnswer: 0}},
	})
	require.NoError(t, err)

	stats, err := categories.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)

	byName := make(map[string]int64, len(stats.Categories))
	for _, c := range stats.Categories {
		byName[c.Name] = c.QuizCount
	}
	assert.EqualValues(t, 0, byName["Empty"])
	assert.EqualValues(t, 1, byName["Programming"])
}
