package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hanpama/membergraph/internal/model"
)

// Call is one recorded store invocation.
type Call struct {
	Method  string
	Keys    []string
	Include model.UserInclude
}

// Recorder decorates a Store, keeping an ordered log of every call and
// optionally writing each call to a logger at debug level.
type Recorder struct {
	next   Store
	logger *slog.Logger

	mu    sync.Mutex
	calls []Call
}

var _ Store = (*Recorder)(nil)

// NewRecorder wraps next. logger may be nil.
func NewRecorder(next Store, logger *slog.Logger) *Recorder {
	return &Recorder{next: next, logger: logger}
}

// Calls returns a copy of the call log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many times method was called.
func (r *Recorder) Count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *Recorder) record(ctx context.Context, c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.DebugContext(ctx, "store call", "method", c.Method, "keys", c.Keys)
	}
}

func (r *Recorder) MemberTypes(ctx context.Context) ([]*model.MemberType, error) {
	r.record(ctx, Call{Method: "MemberTypes"})
	return r.next.MemberTypes(ctx)
}

func (r *Recorder) MemberType(ctx context.Context, id model.MemberTypeID) (*model.MemberType, error) {
	r.record(ctx, Call{Method: "MemberType", Keys: []string{string(id)}})
	return r.next.MemberType(ctx, id)
}

func (r *Recorder) MemberTypesByIDs(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	r.record(ctx, Call{Method: "MemberTypesByIDs", Keys: keys})
	return r.next.MemberTypesByIDs(ctx, ids)
}

func (r *Recorder) Users(ctx context.Context, include model.UserInclude) ([]*model.User, error) {
	r.record(ctx, Call{Method: "Users", Include: include})
	return r.next.Users(ctx, include)
}

func (r *Recorder) User(ctx context.Context, id string) (*model.User, error) {
	r.record(ctx, Call{Method: "User", Keys: []string{id}})
	return r.next.User(ctx, id)
}

func (r *Recorder) CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	r.record(ctx, Call{Method: "CreateUser"})
	return r.next.CreateUser(ctx, in)
}

func (r *Recorder) UpdateUser(ctx context.Context, id string, in model.ChangeUserInput) (*model.User, error) {
	r.record(ctx, Call{Method: "UpdateUser", Keys: []string{id}})
	return r.next.UpdateUser(ctx, id, in)
}

func (r *Recorder) DeleteUser(ctx context.Context, id string) error {
	r.record(ctx, Call{Method: "DeleteUser", Keys: []string{id}})
	return r.next.DeleteUser(ctx, id)
}

func (r *Recorder) SubscribedTo(ctx context.Context, subscriberIDs []string) ([]Related, error) {
	r.record(ctx, Call{Method: "SubscribedTo", Keys: append([]string(nil), subscriberIDs...)})
	return r.next.SubscribedTo(ctx, subscriberIDs)
}

func (r *Recorder) Subscribers(ctx context.Context, authorIDs []string) ([]Related, error) {
	r.record(ctx, Call{Method: "Subscribers", Keys: append([]string(nil), authorIDs...)})
	return r.next.Subscribers(ctx, authorIDs)
}

func (r *Recorder) Subscribe(ctx context.Context, sub model.Subscription) error {
	r.record(ctx, Call{Method: "Subscribe", Keys: []string{sub.SubscriberID, sub.AuthorID}})
	return r.next.Subscribe(ctx, sub)
}

func (r *Recorder) Unsubscribe(ctx context.Context, sub model.Subscription) error {
	r.record(ctx, Call{Method: "Unsubscribe", Keys: []string{sub.SubscriberID, sub.AuthorID}})
	return r.next.Unsubscribe(ctx, sub)
}

func (r *Recorder) Profiles(ctx context.Context) ([]*model.Profile, error) {
	r.record(ctx, Call{Method: "Profiles"})
	return r.next.Profiles(ctx)
}

func (r *Recorder) Profile(ctx context.Context, id string) (*model.Profile, error) {
	r.record(ctx, Call{Method: "Profile", Keys: []string{id}})
	return r.next.Profile(ctx, id)
}

func (r *Recorder) ProfilesByUsers(ctx context.Context, userIDs []string) ([]*model.Profile, error) {
	r.record(ctx, Call{Method: "ProfilesByUsers", Keys: append([]string(nil), userIDs...)})
	return r.next.ProfilesByUsers(ctx, userIDs)
}

func (r *Recorder) CreateProfile(ctx context.Context, in model.CreateProfileInput) (*model.Profile, error) {
	r.record(ctx, Call{Method: "CreateProfile"})
	return r.next.CreateProfile(ctx, in)
}

func (r *Recorder) UpdateProfile(ctx context.Context, id string, in model.ChangeProfileInput) (*model.Profile, error) {
	r.record(ctx, Call{Method: "UpdateProfile", Keys: []string{id}})
	return r.next.UpdateProfile(ctx, id, in)
}

func (r *Recorder) DeleteProfile(ctx context.Context, id string) error {
	r.record(ctx, Call{Method: "DeleteProfile", Keys: []string{id}})
	return r.next.DeleteProfile(ctx, id)
}

func (r *Recorder) Posts(ctx context.Context) ([]*model.Post, error) {
	r.record(ctx, Call{Method: "Posts"})
	return r.next.Posts(ctx)
}

func (r *Recorder) Post(ctx context.Context, id string) (*model.Post, error) {
	r.record(ctx, Call{Method: "Post", Keys: []string{id}})
	return r.next.Post(ctx, id)
}

func (r *Recorder) PostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	r.record(ctx, Call{Method: "PostsByAuthors", Keys: append([]string(nil), authorIDs...)})
	return r.next.PostsByAuthors(ctx, authorIDs)
}

func (r *Recorder) CreatePost(ctx context.Context, in model.CreatePostInput) (*model.Post, error) {
	r.record(ctx, Call{Method: "CreatePost"})
	return r.next.CreatePost(ctx, in)
}

func (r *Recorder) UpdatePost(ctx context.Context, id string, in model.ChangePostInput) (*model.Post, error) {
	r.record(ctx, Call{Method: "UpdatePost", Keys: []string{id}})
	return r.next.UpdatePost(ctx, id, in)
}

func (r *Recorder) DeletePost(ctx context.Context, id string) error {
	r.record(ctx, Call{Method: "DeletePost", Keys: []string{id}})
	return r.next.DeletePost(ctx, id)
}
