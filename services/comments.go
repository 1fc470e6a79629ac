package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/utils"
)

// CommentService implements the comment resource.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// CommentQuery filters a comment listing.
type CommentQuery struct {
	PostID *uint
}

// CommentInput is accepted on create. The author always comes from the actor.
type CommentInput struct {
	PostID  uint   `json:"post" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// CommentPatch carries the fields of a partial update.
type CommentPatch struct {
	Content *string
}

// List returns comments newest first.
func (s *CommentService) List(ctx context.Context, q CommentQuery) ([]models.Comment, error) {
	query := s.db.WithContext(ctx).Preload("Author").Order("created_at DESC, id DESC")
	if q.PostID != nil {
		query = query.Where("post_id = ?", *q.PostID)
	}
	comments := []models.Comment{}
	if err := query.Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// ForPost returns the comments of one post, oldest first.
func (s *CommentService) ForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list post comments: %w", err)
	}
	return comments, nil
}

// Get loads a comment with its author.
func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *CommentService) load(tx *gorm.DB, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := tx.Preload("Author").First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("comment")
	}
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return &comment, nil
}

// Create attaches a comment by the actor to an existing post.
func (s *CommentService) Create(ctx context.Context, actor Actor, in CommentInput) (*models.Comment, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(utils.Sanitize(in.Content))
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Post{}).Where("id = ?", in.PostID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check post: %w", err)
	}
	if count == 0 {
		return nil, notFound("post")
	}

	comment := models.Comment{AuthorID: actor.UserID, PostID: in.PostID, Content: in.Content}
	if err := db.Omit(clause.Associations).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.load(db, comment.ID)
}

// Update changes the content of a comment. The author is never reassigned.
func (s *CommentService) Update(ctx context.Context, actor Actor, id uint, patch CommentPatch) (*models.Comment, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	comment, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeWrite(actor, comment); err != nil {
		return nil, err
	}
	if patch.Content == nil {
		return comment, nil
	}

	content := strings.TrimSpace(utils.Sanitize(*patch.Content))
	if content == "" {
		return nil, fieldError("content", "this field may not be blank")
	}
	err = db.Model(&models.Comment{}).Where("id = ?", comment.ID).
		Updates(map[string]interface{}{"content": content, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return s.load(db, comment.ID)
}

// Delete removes a comment after the ownership check.
func (s *CommentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := RequireIdentity(actor); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	comment, err := s.load(db, id)
	if err != nil {
		return err
	}
	if err := AuthorizeWrite(actor, comment); err != nil {
		return err
	}
	if err := db.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
