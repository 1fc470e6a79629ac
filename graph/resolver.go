package graph

import (
	"context"
	"strconv"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/cppla/multiplex/services"
)

// Resolver is the root query and mutation resolver. Every operation goes
// through the same services, and the policy checks inside them, as REST.
type Resolver struct {
	auth     *services.AuthService
	posts    *services.PostService
	comments *services.CommentService
	users    *services.UserService
}

func parseID(id graphql.ID) (uint, error) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || n == 0 {
		return 0, wrapError(services.ErrNotFound)
	}
	return uint(n), nil
}

func (r *Resolver) Posts(ctx context.Context, args struct {
	IsPublished *bool
	Search      *string
	Ordering    *string
	Mine        *bool
}) ([]*postResolver, error) {
	q := services.PostQuery{IsPublished: args.IsPublished}
	if args.Search != nil {
		q.Search = *args.Search
	}
	if args.Ordering != nil {
		q.Ordering = *args.Ordering
	}
	if args.Mine != nil {
		q.Mine = *args.Mine
	}
	posts, err := r.posts.All(ctx, services.ActorFromContext(ctx), q)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]*postResolver, 0, len(posts))
	for i := range posts {
		out = append(out, &postResolver{root: r, p: &posts[i]})
	}
	return out, nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	post, err := r.posts.Get(ctx, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &postResolver{root: r, p: post}, nil
}

func (r *Resolver) Comments(ctx context.Context, args struct{ PostID *graphql.ID }) ([]*commentResolver, error) {
	var q services.CommentQuery
	if args.PostID != nil {
		id, err := parseID(*args.PostID)
		if err != nil {
			return nil, err
		}
		q.PostID = &id
	}
	comments, err := r.comments.List(ctx, q)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]*commentResolver, 0, len(comments))
	for i := range comments {
		out = append(out, &commentResolver{c: &comments[i]})
	}
	return out, nil
}

func (r *Resolver) Comment(ctx context.Context, args struct{ ID graphql.ID }) (*commentResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	comment, err := r.comments.Get(ctx, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &commentResolver{c: comment}, nil
}

func (r *Resolver) Me(ctx context.Context) (*meResolver, error) {
	me, err := r.users.Me(ctx, services.ActorFromContext(ctx))
	if err != nil {
		return nil, wrapError(err)
	}
	return &meResolver{username: me.Username, email: me.Email, level: me.Level}, nil
}

func (r *Resolver) CreatePost(ctx context.Context, args struct {
	Title       string
	Body        string
	IsPublished *bool
}) (*postPayload, error) {
	in := services.PostInput{Title: args.Title, Body: args.Body}
	if args.IsPublished != nil {
		in.IsPublished = *args.IsPublished
	}
	post, err := r.posts.Create(ctx, services.ActorFromContext(ctx), in)
	if err != nil {
		return nil, wrapError(err)
	}
	return &postPayload{post: &postResolver{root: r, p: post}}, nil
}

func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID          graphql.ID
	Title       *string
	Body        *string
	IsPublished *bool
}) (*postPayload, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	post, err := r.posts.Update(ctx, services.ActorFromContext(ctx), id, services.PostPatch{
		Title:       args.Title,
		Body:        args.Body,
		IsPublished: args.IsPublished,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &postPayload{post: &postResolver{root: r, p: post}}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID graphql.ID }) (*deletePayload, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	if err := r.posts.Delete(ctx, services.ActorFromContext(ctx), id); err != nil {
		return nil, wrapError(err)
	}
	return &deletePayload{}, nil
}

func (r *Resolver) CreateComment(ctx context.Context, args struct {
	PostID  graphql.ID
	Content string
}) (*commentPayload, error) {
	postID, err := parseID(args.PostID)
	if err != nil {
		return nil, err
	}
	comment, err := r.comments.Create(ctx, services.ActorFromContext(ctx), services.CommentInput{PostID: postID, Content: args.Content})
	if err != nil {
		return nil, wrapError(err)
	}
	return &commentPayload{comment: &commentResolver{c: comment}}, nil
}

func (r *Resolver) UpdateComment(ctx context.Context, args struct {
	ID      graphql.ID
	Content string
}) (*commentPayload, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	comment, err := r.comments.Update(ctx, services.ActorFromContext(ctx), id, services.CommentPatch{Content: &args.Content})
	if err != nil {
		return nil, wrapError(err)
	}
	return &commentPayload{comment: &commentResolver{c: comment}}, nil
}

func (r *Resolver) DeleteComment(ctx context.Context, args struct{ ID graphql.ID }) (*deletePayload, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, err
	}
	if err := r.comments.Delete(ctx, services.ActorFromContext(ctx), id); err != nil {
		return nil, wrapError(err)
	}
	return &deletePayload{}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*tokenPair, error) {
	pair, err := r.auth.Login(ctx, args.Username, args.Password)
	if err != nil {
		return nil, wrapError(err)
	}
	return &tokenPair{access: pair.Access, refresh: pair.Refresh}, nil
}

func (r *Resolver) RefreshToken(ctx context.Context, args struct{ Refresh string }) (*accessToken, error) {
	access, err := r.auth.Refresh(ctx, args.Refresh)
	if err != nil {
		return nil, wrapError(err)
	}
	return &accessToken{access: access}, nil
}
