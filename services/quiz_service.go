package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quizadmin/config"
	"quizadmin/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizService struct {
	db         *gorm.DB
	categories *CategoryService
}

func NewQuizService(db *gorm.DB, categories *CategoryService) *QuizService {
	return &QuizService{db: db, categories: categories}
}

// QuizPayload is the wire shape shared by create, bulk create and the import
// file format. ID is the external quiz id; when empty one is generated.
type QuizPayload struct {
	ID          string            `json:"id"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Category    string            `json:"category" binding:"required"`
	Difficulty  string            `json:"difficulty" binding:"required"`
	Duration    int               `json:"duration" binding:"required"`
	Questions   []models.Question `json:"questions" binding:"required,min=1"`
}

type UpdateQuizRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Difficulty  *string           `json:"difficulty"`
	Duration    *int              `json:"duration"`
	Questions   []models.Question `json:"questions"`
}

func validateQuestions(questions []models.Question) error {
	for i := range questions {
		q := &questions[i]
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q has no options", q.Question)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("question %q: correctAnswer %d is not a valid option index", q.Question, q.CorrectAnswer)
		}
	}
	return nil
}

// ensureCategory resolves a category by display name, creating it with a
// derived slug when missing. Losing the slug race falls back to the winner.
func (s *QuizService) ensureCategory(name string) (*models.Category, error) {
	category, err := s.categories.GetByName(name)
	if err != nil {
		return nil, err
	}
	if category != nil {
		return category, nil
	}

	created, err := s.categories.Create(&CreateCategoryRequest{Name: name})
	if err == nil {
		return created, nil
	}

	// someone else inserted the same slug first
	if existing, lookupErr := s.categories.GetBySlug(Slugify(name)); lookupErr == nil && existing != nil {
		return existing, nil
	}
	return nil, err
}

func (s *QuizService) Create(req *QuizPayload) (*models.Quiz, error) {
	if !models.ValidDifficulty(req.Difficulty) {
		return nil, fmt.Errorf("invalid difficulty %q", req.Difficulty)
	}
	if req.Duration <= 0 {
		return nil, errors.New("duration must be positive")
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	quizID := req.ID
	if quizID == "" {
		quizID = "quiz_" + uuid.NewString()
	}

	category, err := s.ensureCategory(req.Category)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quiz := models.Quiz{
		QuizID:      quizID,
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  category.ID,
		Category:    category.Name,
		Difficulty:  req.Difficulty,
		Duration:    req.Duration,
		Questions:   datatypes.NewJSONSlice(req.Questions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Create(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("Quiz with ID %s already exists", quizID)
		}
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) Update(id uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.First(&quiz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Title != nil && *req.Title != "" {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Difficulty != nil {
		if !models.ValidDifficulty(*req.Difficulty) {
			return nil, fmt.Errorf("invalid difficulty %q", *req.Difficulty)
		}
		quiz.Difficulty = *req.Difficulty
	}
	if req.Duration != nil {
		if *req.Duration <= 0 {
			return nil, errors.New("duration must be positive")
		}
		quiz.Duration = *req.Duration
	}
	if req.Category != nil && *req.Category != "" && *req.Category != quiz.Category {
		category, err := s.ensureCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		quiz.CategoryID = category.ID
		quiz.Category = category.Name
	}
	if req.Questions != nil {
		if err := validateQuestions(req.Questions); err != nil {
			return nil, err
		}
		quiz.Questions = datatypes.NewJSONSlice(req.Questions)
	}
	quiz.UpdatedAt = time.Now()

	if err := s.db.Save(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Delete removes a quiz by internal id and returns the deleted record so
// callers can reference its title afterwards.
func (s *QuizService) Delete(id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.First(&quiz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Delete(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) List() ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Order("created_at DESC, id DESC").Find(&quizzes).Error
	return quizzes, err
}

func (s *QuizService) GetByQuizID(quizID string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.First(&quiz, "quiz_id = ?", quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) ListByCategory(name string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("category = ?", name).Find(&quizzes).Error
	return quizzes, err
}

func (s *QuizService) ListByDifficulty(difficulty string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("difficulty = ?", difficulty).Find(&quizzes).Error
	return quizzes, err
}

// Search filters quizzes by title or description, case-insensitively. The
// store offers no text index, so this is a scan plus in-memory filter.
func (s *QuizService) Search(term string) ([]models.Quiz, error) {
	quizzes, err := s.List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	matched := make([]models.Quiz, 0)
	for _, quiz := range quizzes {
		if strings.Contains(strings.ToLower(quiz.Title), needle) ||
			strings.Contains(strings.ToLower(quiz.Description), needle) {
			matched = append(matched, quiz)
		}
	}
	return matched, nil
}

type QuizStats struct {
	TotalQuizzes int64            `json:"total_quizzes"`
	ByCategory   map[string]int64 `json:"by_category"`
	ByDifficulty map[string]int64 `json:"by_difficulty"`
}

func (s *QuizService) Stats() (*QuizStats, error) {
	quizzes, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &QuizStats{
		TotalQuizzes: int64(len(quizzes)),
		ByCategory:   make(map[string]int64),
		ByDifficulty: make(map[string]int64),
	}
	for _, quiz := range quizzes {
		stats.ByCategory[quiz.Category]++
		stats.ByDifficulty[quiz.Difficulty]++
	}
	return stats, nil
}

func (s *QuizService) CountByCategory() (map[string]int64, error) {
	stats, err := s.Stats()
	if err != nil {
		return nil, err
	}
	return stats.ByCategory, nil
}

type BulkQuizResult struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
	IDs     []uint   `json:"ids"`
}

// BulkCreate inserts quizzes one by one, collecting per-element failures
// instead of aborting the batch.
func (s *QuizService) BulkCreate(payloads []QuizPayload) (*BulkQuizResult, error) {
	log := config.Logger()
	result := &BulkQuizResult{Errors: []string{}, IDs: []uint{}}

	for i := range payloads {
		quiz, err := s.Create(&payloads[i])
		if err != nil {
			log.WithField("quiz", payloads[i].Title).WithError(err).Warn("Bulk quiz insert failed")
			result.Errors = append(result.Errors, fmt.Sprintf("Error creating %q: %v", payloads[i].Title, err))
			continue
		}
		result.IDs = append(result.IDs, quiz.ID)
	}

	result.Count = len(result.IDs)
	result.Failed = len(result.Errors)
	result.Success = result.Failed == 0
	return result, nil
}

type ImportResult struct {
	Success       bool     `json:"success"`
	QuizCount     int      `json:"quizCount"`
	CategoryCount int      `json:"categoryCount"`
	Categories    []string `json:"categories"`
	Errors        []string `json:"errors"`
	IDs           []uint   `json:"ids"`
}

// BulkCreateWithCategories materializes every category the incoming quizzes
// reference before inserting them, so quiz import keeps the category table
// populated as a side effect. The two phases are deliberately not coupled in
// one transaction.
func (s *QuizService) BulkCreateWithCategories(payloads []QuizPayload) (*ImportResult, error) {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for i := range payloads {
		if name := payloads[i].Category; name != "" && !seen[name] {
			seen[name] = true
			categories = append(categories, name)
		}
	}

	for _, name := range categories {
		if _, err := s.ensureCategory(name); err != nil {
			return nil, fmt.Errorf("failed to materialize category %q: %w", name, err)
		}
	}

	bulk, err := s.BulkCreate(payloads)
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Success:       bulk.Success,
		QuizCount:     bulk.Count,
		CategoryCount: len(categories),
		Categories:    categories,
		Errors:        bulk.Errors,
		IDs:           bulk.IDs,
	}, nil
}

// Seed refuses to run against a store that already has quizzes.
func (s *QuizService) Seed(payloads []QuizPayload) (*ImportResult, error) {
	var existing int64
	if err := s.db.Model(&models.Quiz{}).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("database already has %d quizzes; clear it first to reseed", existing)
	}
	return s.BulkCreateWithCategories(payloads)
}

type ClearResult struct {
	Success       bool  `json:"success"`
	QuizCount     int64 `json:"quizCount"`
	CategoryCount int64 `json:"categoryCount"`
}

// ClearAll wipes quizzes and categories. Development reset, not exposed to
// non-admins.
func (s *QuizService) ClearAll() (*ClearResult, error) {
	result := &ClearResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("1 = 1").Delete(&models.Quiz{})
		if res.Error != nil {
			return res.Error
		}
		result.QuizCount = res.RowsAffected

		res = tx.Where("1 = 1").Delete(&models.Category{})
		if res.Error != nil {
			return res.Error
		}
		result.CategoryCount = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Success = true
	return result, nil
}
