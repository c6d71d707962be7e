// Package model defines the entity records exchanged between the store, the
// loaders and the field resolvers.
package model

// MemberTypeID names a membership tier.
type MemberTypeID string

const (
	MemberTypeBasic    MemberTypeID = "BASIC"
	MemberTypeBusiness MemberTypeID = "BUSINESS"
)

// MemberTypeIDs lists every tier in declaration order.
var MemberTypeIDs = []MemberTypeID{MemberTypeBasic, MemberTypeBusiness}

// Valid reports whether id is a known tier.
func (id MemberTypeID) Valid() bool {
	switch id {
	case MemberTypeBasic, MemberTypeBusiness:
		return true
	}
	return false
}

// MemberType is immutable reference data seeded by the migration.
type MemberType struct {
	ID                 MemberTypeID
	Discount           float64
	PostsLimitPerMonth int
}

// User is an account. Edges holds relations eager-loaded by the store when
// the caller asked for them.
type User struct {
	ID      string
	Name    string
	Balance float64

	Edges UserEdges
}

// Relation names on User, shared by the projection pass and the store
// include set.
const (
	EdgeProfile          = "profile"
	EdgePosts            = "posts"
	EdgeUserSubscribedTo = "userSubscribedTo"
	EdgeSubscribedToUser = "subscribedToUser"
)

// UserEdges holds the relations of a User. A relation that was not requested
// reports a NotLoadedError rather than an empty value.
type UserEdges struct {
	Profile          *Profile
	Posts            []*Post
	UserSubscribedTo []*User
	SubscribedToUser []*User

	loadedTypes [4]bool
}

// ProfileOrErr returns the profile, nil when the user has none, or an error
// when the edge was not loaded.
func (e UserEdges) ProfileOrErr() (*Profile, error) {
	if e.loadedTypes[0] {
		return e.Profile, nil
	}
	return nil, &NotLoadedError{edge: EdgeProfile}
}

// PostsOrErr returns the posts or an error when the edge was not loaded.
func (e UserEdges) PostsOrErr() ([]*Post, error) {
	if e.loadedTypes[1] {
		return e.Posts, nil
	}
	return nil, &NotLoadedError{edge: EdgePosts}
}

// UserSubscribedToOrErr returns the authors this user follows or an error
// when the edge was not loaded.
func (e UserEdges) UserSubscribedToOrErr() ([]*User, error) {
	if e.loadedTypes[2] {
		return e.UserSubscribedTo, nil
	}
	return nil, &NotLoadedError{edge: EdgeUserSubscribedTo}
}

// SubscribedToUserOrErr returns the followers of this user or an error when
// the edge was not loaded.
func (e UserEdges) SubscribedToUserOrErr() ([]*User, error) {
	if e.loadedTypes[3] {
		return e.SubscribedToUser, nil
	}
	return nil, &NotLoadedError{edge: EdgeSubscribedToUser}
}

// SetProfile records the eager-loaded profile (nil when absent).
func (e *UserEdges) SetProfile(p *Profile) {
	e.Profile = p
	e.loadedTypes[0] = true
}

// SetPosts records the eager-loaded posts.
func (e *UserEdges) SetPosts(posts []*Post) {
	if posts == nil {
		posts = []*Post{}
	}
	e.Posts = posts
	e.loadedTypes[1] = true
}

// SetUserSubscribedTo records the eager-loaded followed authors.
func (e *UserEdges) SetUserSubscribedTo(users []*User) {
	if users == nil {
		users = []*User{}
	}
	e.UserSubscribedTo = users
	e.loadedTypes[2] = true
}

// SetSubscribedToUser records the eager-loaded followers.
func (e *UserEdges) SetSubscribedToUser(users []*User) {
	if users == nil {
		users = []*User{}
	}
	e.SubscribedToUser = users
	e.loadedTypes[3] = true
}

// Profile belongs to exactly one user.
type Profile struct {
	ID           string
	IsMale       bool
	YearOfBirth  int
	UserID       string
	MemberTypeID MemberTypeID
}

type Post struct {
	ID       string
	Title    string
	Content  string
	AuthorID string
}

// Subscription is a directed follow edge from a subscriber to an author.
type Subscription struct {
	SubscriberID string
	AuthorID     string
}

// UserInclude selects which User relations a bulk fetch joins eagerly.
type UserInclude struct {
	Posts            bool
	Profile          bool
	UserSubscribedTo bool
	SubscribedToUser bool
}

// IncludeFor builds the include set from selected relation names. Unknown
// names are ignored.
func IncludeFor(relations []string) UserInclude {
	var inc UserInclude
	for _, name := range relations {
		switch name {
		case EdgePosts:
			inc.Posts = true
		case EdgeProfile:
			inc.Profile = true
		case EdgeUserSubscribedTo:
			inc.UserSubscribedTo = true
		case EdgeSubscribedToUser:
			inc.SubscribedToUser = true
		}
	}
	return inc
}

// Any reports whether at least one relation is requested.
func (i UserInclude) Any() bool {
	return i.Posts || i.Profile || i.UserSubscribedTo || i.SubscribedToUser
}
