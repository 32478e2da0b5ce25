package services

import (
	"errors"
	"fmt"
	"time"

	"quizadmin/config"
	"quizadmin/models"

	"gorm.io/gorm"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
}

func (s *CategoryService) List() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Order("created_at DESC, id DESC").Find(&categories).Error
	return categories, err
}

func (s *CategoryService) GetBySlug(slug string) (*models.Category, error) {
	return s.getBy("slug = ?", slug)
}

func (s *CategoryService) GetByName(name string) (*models.Category, error) {
	return s.getBy("name = ?", name)
}

func (s *CategoryService) getBy(query string, arg string) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// Create inserts a category. Slug uniqueness rides on the unique index; a
// constraint violation is reported as a duplicate rather than pre-checked.
func (s *CategoryService) Create(req *CreateCategoryRequest) (*models.Category, error) {
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}

	now := time.Now()
	category := models.Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("Category with slug %q already exists", slug)
		}
		return nil, err
	}
	return &category, nil
}

// Update applies a partial patch. The slug collision check only runs when the
// patch carries a non-empty slug, and excludes the record being updated.
func (s *CategoryService) Update(id uint, req *UpdateCategoryRequest) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Slug != nil && *req.Slug != "" {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("slug = ? AND id <> ?", *req.Slug, id).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("Category with slug %q already exists", *req.Slug)
		}
		category.Slug = *req.Slug
	}

	oldName := category.Name
	if req.Name != nil && *req.Name != "" {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.Icon != nil {
		category.Icon = req.Icon
	}
	if req.Color != nil {
		category.Color = req.Color
	}
	category.UpdatedAt = time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("Category with slug %q already exists", category.Slug)
			}
			return err
		}
		if category.Name != oldName {
			// keep the denormalized quiz column in step with the rename
			return tx.Model(&models.Quiz{}).
				Where("category_id = ?", category.ID).
				Update("category", category.Name).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete refuses to remove a category that quizzes still reference; the error
// carries the exact count of blocking quizzes.
func (s *CategoryService) Delete(id uint) error {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.Quiz{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return fmt.Errorf("Cannot delete category %q because %d quiz(zes) are using it", category.Name, inUse)
	}

	return s.db.Delete(&category).Error
}

type BulkCategoryResult struct {
	Success bool     `json:"success"`
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
	IDs     []uint   `json:"ids"`
}

// BulkCreate is a best-effort batch load: each element is inserted
// independently and failures are collected instead of aborting the batch.
func (s *CategoryService) BulkCreate(reqs []CreateCategoryRequest) (*BulkCategoryResult, error) {
	log := config.Logger()
	result := &BulkCategoryResult{Errors: []string{}, IDs: []uint{}}

	for i := range reqs {
		slug := reqs[i].Slug
		if slug == "" {
			slug = Slugify(reqs[i].Name)
		}

		// A taken slug is reported plainly; anything else gets the wrapped form.
		existing, err := s.GetBySlug(slug)
		if err == nil && existing != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Category %q already exists", reqs[i].Name))
			continue
		}
		if err == nil {
			var category *models.Category
			if category, err = s.Create(&reqs[i]); err == nil {
				result.IDs = append(result.IDs, category.ID)
				continue
			}
		}

		log.WithField("category", reqs[i].Name).WithError(err).Warn("Bulk category insert failed")
		result.Errors = append(result.Errors, fmt.Sprintf("Error creating %q: %v", reqs[i].Name, err))
	}

	result.Created = len(result.IDs)
	result.Failed = len(result.Errors)
	result.Success = result.Failed == 0
	return result, nil
}

type CategoryWithCount struct {
	models.Category
	QuizCount int64 `json:"quiz_count"`
}

type CategoryStats struct {
	Total      int                 `json:"total"`
	Categories []CategoryWithCount `json:"categories"`
}

func (s *CategoryService) Stats() (*CategoryStats, error) {
	categories, err := s.List()
	if err != nil {
		return nil, err
	}

	type row struct {
		CategoryID uint
		N          int64
	}
	var rows []row
	if err := s.db.Model(&models.Quiz{}).
		Select("category_id, count(*) as n").
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.N
	}

	stats := &CategoryStats{Total: len(categories), Categories: make([]CategoryWithCount, 0, len(categories))}
	for _, c := range categories {
		stats.Categories = append(stats.Categories, CategoryWithCount{Category: c, QuizCount: counts[c.ID]})
	}
	return stats, nil
}
