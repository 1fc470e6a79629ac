package graph

import (
	"context"
	"strconv"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/cppla/multiplex/models"
)

func toID(id uint) graphql.ID {
	return graphql.ID(strconv.FormatUint(uint64(id), 10))
}

type userResolver struct {
	u *models.User
}

func (r *userResolver) ID() graphql.ID { return toID(r.u.ID) }
func (r *userResolver) Username() string { return r.u.Username }

type postResolver struct {
	root *Resolver
	p    *models.Post
}

func (r *postResolver) ID() graphql.ID { return toID(r.p.ID) }
func (r *postResolver) Title() string { return r.p.Title }
func (r *postResolver) Body() string { return r.p.Body }
func (r *postResolver) Author() *userResolver { return &userResolver{u: &r.p.User} }
func (r *postResolver) IsPublished() bool { return r.p.IsPublished }
func (r *postResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.p.CreatedAt} }
func (r *postResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: r.p.UpdatedAt} }

func (r *postResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := r.root.comments.ForPost(ctx, r.p.ID)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]*commentResolver, 0, len(comments))
	for i := range comments {
		out = append(out, &commentResolver{c: &comments[i]})
	}
	return out, nil
}

type commentResolver struct {
	c *models.Comment
}

func (r *commentResolver) ID() graphql.ID { return toID(r.c.ID) }
func (r *commentResolver) PostID() graphql.ID { return toID(r.c.PostID) }
func (r *commentResolver) Author() *userResolver { return &userResolver{u: &r.c.Author} }
func (r *commentResolver) Content() string { return r.c.Content }
func (r *commentResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.c.CreatedAt} }
func (r *commentResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: r.c.UpdatedAt} }

type meResolver struct {
	username string
	email    string
	level    *int
}

func (r *meResolver) Username() string { return r.username }
func (r *meResolver) Email() string { return r.email }

func (r *meResolver) Level() *int32 {
	if r.level == nil {
		return nil
	}
	v := int32(*r.level)
	return &v
}

type postPayload struct{ post *postResolver }

func (p *postPayload) Post() *postResolver { return p.post }

type commentPayload struct{ comment *commentResolver }

func (p *commentPayload) Comment() *commentResolver { return p.comment }

type deletePayload struct{}

func (*deletePayload) Ok() bool { return true }

type tokenPair struct{ access, refresh string }

func (t *tokenPair) Access() string { return t.access }
func (t *tokenPair) Refresh() string { return t.refresh }

type accessToken struct{ access string }

func (t *accessToken) Access() string { return t.access }
