package services

import (
	"strings"
	"testing"

	"quizadmin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Question: "2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: 1},
	}
}

func testQuizPayload(title, category string) QuizPayload {
	return QuizPayload{
		Title:      title,
		Category:   category,
		Difficulty: models.DifficultyEasy,
		Duration:   10,
		Questions:  validQuestions(),
	}
}

func newQuizService(t *testing.T) *QuizService {
	t.Helper()
	db := newTestDB(t)
	return NewQuizService(db, NewCategoryService(db))
}

func TestCreateQuiz(t *testing.T) {
	quizzes := newQuizService(t)

	t.Run("GeneratesQuizID", func(t *testing.T) {
		quiz, err := quizzes.Create(&QuizPayload{
			Title:      "Basics",
			Category:   "Math",
			Difficulty: models.DifficultyEasy,
			Duration:   5,
			Questions:  validQuestions(),
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(quiz.QuizID, "quiz_"))
		assert.Equal(t, "Math", quiz.Category)
		assert.NotZero(t, quiz.CategoryID)
	})

	t.Run("MaterializesCategory", func(t *testing.T) {
		categories := NewCategoryService(quizzes.db)
		category, err := categories.GetByName("Math")
		require.NoError(t, err)
		require.NotNil(t, category)
		assert.Equal(t, "math", category.Slug)
	})

	t.Run("DuplicateQuizID", func(t *testing.T) {
		payload := testQuizPayload("First", "Math")
		payload.ID = "quiz_dup"
		_, err := quizzes.Create(&payload)
		require.NoError(t, err)

		again := testQuizPayload("Second", "Math")
		again.ID = "quiz_dup"
		_, err = quizzes.Create(&again)
		require.Error(t, err)
		assert.EqualError(t, err, "Quiz with ID quiz_dup already exists")
	})

	t.Run("InvalidDifficulty", func(t *testing.T) {
		payload := testQuizPayload("Bad", "Math")
		payload.Difficulty = "extreme"
		_, err := quizzes.Create(&payload)
		assert.Error(t, err)
	})

	t.Run("CorrectAnswerOutOfRange", func(t *testing.T) {
		payload := testQuizPayload("Bad", "Math")
		payload.Questions = []models.Question{
			{Question: "?", Options: []string{"a", "b"}, CorrectAnswer: 2},
		}
		_, err := quizzes.Create(&payload)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "correctAnswer 2")
	})

	t.Run("NoOptions", func(t *testing.T) {
		payload := testQuizPayload("Bad", "Math")
		payload.Questions = []models.Question{{Question: "?", CorrectAnswer: 0}}
		_, err := quizzes.Create(&payload)
		assert.Error(t, err)
	})
}

func TestUpdateQuiz(t *testing.T) {
	quizzes := newQuizService(t)

	created, err := quizzes.Create(&QuizPayload{
		Title:      "Algebra",
		Category:   "Math",
		Difficulty: models.DifficultyEasy,
		Duration:   10,
		Questions:  validQuestions(),
	})
	require.NoError(t, err)

	title := "Linear Algebra"
	category := "Advanced Math"
	duration := 30
	updated, err := quizzes.Update(created.ID, &UpdateQuizRequest{
		Title:    &title,
		Category: &category,
		Duration: &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", updated.Title)
	assert.Equal(t, "Advanced Math", updated.Category)
	assert.NotEqual(t, created.CategoryID, updated.CategoryID)
	assert.Equal(t, 30, updated.Duration)

	badDuration := 0
	_, err = quizzes.Update(created.ID, &UpdateQuizRequest{Duration: &badDuration})
	assert.Error(t, err)

	_, err = quizzes.Update(9999, &UpdateQuizRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteQuiz(t *testing.T) {
	quizzes := newQuizService(t)

	created, err := quizzes.Create(&QuizPayload{
		Title:      "Doomed",
		Category:   "Math",
		Difficulty: models.DifficultyMedium,
		Duration:   10,
		Questions:  validQuestions(),
	})
	require.NoError(t, err)

	deleted, err := quizzes.Delete(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doomed", deleted.Title)

	gone, err := quizzes.GetByQuizID(created.QuizID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = quizzes.Delete(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizQueries(t *testing.T) {
	quizzes := newQuizService(t)

	seed := []QuizPayload{
		{Title: "World Capitals", Description: "Cities of the world", Category: "Geography", Difficulty: models.DifficultyEasy, Duration: 10, Questions: validQuestions()},
		{Title: "Rivers", Description: "Long rivers", Category: "Geography", Difficulty: models.DifficultyHard, Duration: 15, Questions: validQuestions()},
		{Title: "Fractions", Description: "Basic math", Category: "Math", Difficulty: models.DifficultyEasy, Duration: 5, Questions: validQuestions()},
	}
	for i := range seed {
		_, err := quizzes.Create(&seed[i])
		require.NoError(t, err)
	}

	byCategory, err := quizzes.ListByCategory("Geography")
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	byDifficulty, err := quizzes.ListByDifficulty(models.DifficultyEasy)
	require.NoError(t, err)
	assert.Len(t, byDifficulty, 2)

	matched, err := quizzes.Search("WORLD")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "World Capitals", matched[0].Title)

	// description matches too
	matched, err = quizzes.Search("math")
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	stats, err := quizzes.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalQuizzes)
	assert.EqualValues(t, 2, stats.ByCategory["Geography"])
	assert.EqualValues(t, 2, stats.ByDifficulty[models.DifficultyEasy])
}

func TestBulkCreateQuizzes(t *testing.T) {
	quizzes := newQuizService(t)

	bad := testQuizPayload("Broken", "Math")
	bad.Difficulty = "impossible"

	result, err := quizzes.BulkCreate([]QuizPayload{
		testQuizPayload("One", "Math"),
		bad,
		testQuizPayload("Two", "Math"),
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `Error creating "Broken"`)
}

func TestBulkCreateWithCategories(t *testing.T) {
	quizzes := newQuizService(t)
	categories := NewCategoryService(quizzes.db)

	// pre-existing category must not be duplicated by the import
	_, err := categories.Create(&CreateCategoryRequest{Name: "Math"})
	require.NoError(t, err)

	result, err := quizzes.BulkCreateWithCategories([]QuizPayload{
		testQuizPayload("One", "Math"),
		testQuizPayload("Two", "Science"),
		testQuizPayload("Three", "Math"),
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.QuizCount)
	assert.Equal(t, 2, result.CategoryCount)
	assert.ElementsMatch(t, []string{"Math", "Science"}, result.Categories)

	all, err := categories.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeed(t *testing.T) {
	quizzes := newQuizService(t)

	result, err := quizzes.Seed([]QuizPayload{testQuizPayload("Seeded", "Math")})
	require.NoError(t, err)
	assert.Equal(t, 1, result.QuizCount)

	_, err = quizzes.Seed([]QuizPayload{testQuizPayload("Again", "Math")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has 1 quizzes")
}

func TestClearAll(t *testing.T) {
	quizzes := newQuizService(t)

	_, err := quizzes.BulkCreateWithCategories([]QuizPayload{
		testQuizPayload("One", "Math"),
		testQuizPayload("Two", "Science"),
	})
	require.NoError(t, err)

	result, err := quizzes.ClearAll()
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.EqualValues(t, 2, result.QuizCount)
	assert.EqualValues(t, 2, result.CategoryCount)

	remaining, err := quizzes.List()
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
