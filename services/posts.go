package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/utils"
)

const (
	postListCachePrefix   = "cache:posts:list:"
	postDetailCachePrefix = "cache:post:detail:"
)

// PostService implements the post resource for every surface.
type PostService struct {
	db          *gorm.DB
	cache       *utils.Cache
	pageSize    int
	maxPageSize int
}

// NewPostService creates a PostService. cache may be nil.
func NewPostService(db *gorm.DB, cache *utils.Cache, pageSize, maxPageSize int) *PostService {
	if pageSize <= 0 {
		pageSize = 10
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &PostService{db: db, cache: cache, pageSize: pageSize, maxPageSize: maxPageSize}
}

// PostQuery filters a post listing.
type PostQuery struct {
	IsPublished *bool
	Search      string
	Ordering    string
	// Mine restricts the listing to the actor's posts; ignored for anonymous callers.
	Mine     bool
	Page     int
	PageSize int
}

// PostPage is one page of a listing.
type PostPage struct {
	Count    int64         `json:"count"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Results  []models.Post `json:"results"`
}

// HasNext reports whether another page follows.
func (p PostPage) HasNext() bool {
	return int64(p.Page*p.PageSize) < p.Count
}

// PostInput is the full representation accepted on create and replace.
type PostInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Body        string `json:"body" validate:"required"`
	IsPublished bool   `json:"is_published"`
}

// PostPatch carries the fields of a partial update. Nil means unchanged.
type PostPatch struct {
	Title       *string
	Body        *string
	IsPublished *bool
}

// List returns one page of posts.
func (s *PostService) List(ctx context.Context, actor Actor, q PostQuery) (PostPage, error) {
	page, size := s.pagination(q.Page, q.PageSize)
	search := strings.TrimSpace(q.Search)
	mine := q.Mine && !actor.IsAnonymous()
	order := orderClause(q.Ordering)

	// only actor-independent listings are cached
	cacheKey := ""
	if search == "" && !mine {
		cacheKey = fmt.Sprintf("%spub=%s:ord=%s:page=%d:size=%d", postListCachePrefix, boolKey(q.IsPublished), order, page, size)
		var cached PostPage
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	query := s.filtered(ctx, actor, q.IsPublished, search, mine)
	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.Post{}).Count(&total).Error; err != nil {
		return PostPage{}, fmt.Errorf("count posts: %w", err)
	}

	offset := (page - 1) * size
	if page > 1 && int64(offset) >= total {
		return PostPage{}, notFound("invalid page")
	}

	posts := []models.Post{}
	if err := query.Preload("User").Order(order).Offset(offset).Limit(size).Find(&posts).Error; err != nil {
		return PostPage{}, fmt.Errorf("list posts: %w", err)
	}

	result := PostPage{Count: total, Page: page, PageSize: size, Results: posts}
	if cacheKey != "" {
		s.cache.SetJSON(ctx, cacheKey, result)
	}
	return result, nil
}

// All returns every matching post without pagination.
func (s *PostService) All(ctx context.Context, actor Actor, q PostQuery) ([]models.Post, error) {
	mine := q.Mine && !actor.IsAnonymous()
	posts := []models.Post{}
	err := s.filtered(ctx, actor, q.IsPublished, strings.TrimSpace(q.Search), mine).
		Preload("User").
		Order(orderClause(q.Ordering)).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) filtered(ctx context.Context, actor Actor, published *bool, search string, mine bool) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if published != nil {
		query = query.Where("is_published = ?", *published)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(s.db.Where("LOWER(title) LIKE ?", like).Or("LOWER(body) LIKE ?", like))
	}
	if mine {
		query = query.Where("user_id = ?", actor.UserID)
	}
	return query
}

// Get loads a single post with its owner.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	key := postDetailCachePrefix + strconv.FormatUint(uint64(id), 10)
	var cached models.Post
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	post, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, post)
	return post, nil
}

func (s *PostService) load(tx *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	err := tx.Preload("User").First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("post")
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	return &post, nil
}

// Create stores a post owned by the actor. Any owner in the input is ignored.
func (s *PostService) Create(ctx context.Context, actor Actor, in PostInput) (*models.Post, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	in.Title = utils.SanitizeLine(in.Title)
	in.Body = utils.Sanitize(in.Body)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	post := models.Post{
		UserID:      actor.UserID,
		Title:       in.Title,
		Body:        in.Body,
		IsPublished: in.IsPublished,
	}
	db := s.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.invalidate(ctx)
	return s.load(db, post.ID)
}

// Update applies a partial update after the ownership check.
func (s *PostService) Update(ctx context.Context, actor Actor, id uint, patch PostPatch) (*models.Post, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	post, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeWrite(actor, post); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	fields := map[string]string{}
	if patch.Title != nil {
		title := utils.SanitizeLine(*patch.Title)
		switch {
		case title == "":
			fields["title"] = "this field may not be blank"
		case utf8.RuneCountInString(title) > 255:
			fields["title"] = "ensure this field has no more than 255 characters"
		default:
			updates["title"] = title
		}
	}
	if patch.Body != nil {
		body := utils.Sanitize(*patch.Body)
		if strings.TrimSpace(body) == "" {
			fields["body"] = "this field may not be blank"
		} else {
			updates["body"] = body
		}
	}
	if patch.IsPublished != nil {
		updates["is_published"] = *patch.IsPublished
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if len(updates) == 0 {
		return post, nil
	}

	updates["updated_at"] = time.Now()
	if err := db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	s.invalidate(ctx, post.ID)
	return s.load(db, post.ID)
}

// Delete removes the post and its comments in one transaction.
func (s *PostService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := RequireIdentity(actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if err := AuthorizeWrite(actor, post); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Delete(&models.Post{}, post.ID).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	utils.Sugar.Infow("post deleted", "post_id", id, "by", actor.UserID)
	s.invalidate(ctx, id)
	return nil
}

// Publish marks a post published. Staff only, regardless of ownership.
// Publishing an already published post succeeds.
func (s *PostService) Publish(ctx context.Context, actor Actor, id uint) error {
	if err := AuthorizeStaff(actor); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	post, err := s.load(db, id)
	if err != nil {
		return err
	}
	if err := db.Model(post).UpdateColumn("is_published", true).Error; err != nil {
		return fmt.Errorf("publish post: %w", err)
	}
	utils.Sugar.Infow("post published", "post_id", id, "by", actor.UserID)
	s.invalidate(ctx, id)
	return nil
}

// SetPublished is the bulk publish/unpublish action. Unknown ids are
// skipped. Returns the number of rows matched.
func (s *PostService) SetPublished(ctx context.Context, actor Actor, ids []uint, published bool) (int64, error) {
	if err := AuthorizeStaff(actor); err != nil {
		return 0, err
	}
	ids = utils.DedupeIDs(ids)
	if len(ids) == 0 {
		return 0, fieldError("ids", "this field is required")
	}
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id IN ?", ids).UpdateColumn("is_published", published)
	if res.Error != nil {
		return 0, fmt.Errorf("set published: %w", res.Error)
	}
	utils.Sugar.Infow("posts publish state changed", "published", published, "count", res.RowsAffected, "by", actor.UserID)
	s.invalidate(ctx, ids...)
	return res.RowsAffected, nil
}

func (s *PostService) invalidate(ctx context.Context, ids ...uint) {
	s.cache.InvalidatePrefix(ctx, postListCachePrefix)
	for _, id := range ids {
		if id != 0 {
			s.cache.InvalidatePrefix(ctx, postDetailCachePrefix+strconv.FormatUint(uint64(id), 10))
		}
	}
}

func (s *PostService) pagination(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > s.maxPageSize {
		size = s.pageSize
	}
	return page, size
}

// orderClause maps an ordering parameter to SQL. Unknown values fall back to
// newest first.
func orderClause(ordering string) string {
	switch strings.TrimSpace(ordering) {
	case "created_at":
		return "created_at ASC, id ASC"
	case "updated_at":
		return "updated_at ASC, id ASC"
	case "-updated_at":
		return "updated_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func boolKey(b *bool) string {
	if b == nil {
		return "any"
	}
	return strconv.FormatBool(*b)
}
