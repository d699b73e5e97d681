// Package model defines the data types used throughout the console.
package model

import "time"

// User rings.
const (
	RingAdmin      = "ADMIN"
	RingMaintainer = "MAINTAINER"
	RingUser       = "USER"
)

// User represents an authenticated user.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname,omitempty"`
	Email    string `json:"email,omitempty"`
	Ring     string `json:"ring"`
}

// IsAdmin reports whether the user has the administrative ring.
func (u *User) IsAdmin() bool {
	return u != nil && u.Ring == RingAdmin
}

// AuthConsumer is the principal that issued the credentials in use
// (builtin API key, local signin, OAuth link...).
type AuthConsumer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	SupportMFA  bool      `json:"support_mfa"`
	Created     time.Time `json:"created,omitempty"`
}

// AuthSession is an active login session.
type AuthSession struct {
	ID         string    `json:"id"`
	ConsumerID string    `json:"consumer_id"`
	ExpireAt   time.Time `json:"expire_at,omitempty"`
	Created    time.Time `json:"created,omitempty"`
	MFA        bool      `json:"mfa"`
}

// Expired reports whether the session expiry is known and passed.
func (s *AuthSession) Expired(now time.Time) bool {
	return s != nil && !s.ExpireAt.IsZero() && now.After(s.ExpireAt)
}

// Identity is the persisted description of who is logged in.
type Identity struct {
	User     *User         `json:"user"`
	Consumer *AuthConsumer `json:"consumer,omitempty"`
	Session  *AuthSession  `json:"session,omitempty"`
	// Password is only kept for consumers that authenticate with Basic
	// credentials instead of a session token.
	Password string `json:"password,omitempty"`
}

// SigninResponse is returned after a successful signin.
type SigninResponse struct {
	Token    string        `json:"token"`
	User     *User         `json:"user"`
	Consumer *AuthConsumer `json:"consumer,omitempty"`
	Session  *AuthSession  `json:"session,omitempty"`
}

// AuthCurrentConsumerResponse describes the credentials of the caller.
type AuthCurrentConsumerResponse struct {
	User     *User         `json:"user"`
	Consumer *AuthConsumer `json:"consumer"`
	Session  *AuthSession  `json:"session"`
}

// Permission levels on a project.
const (
	PermissionRead        = 4
	PermissionReadExecute = 5
	PermissionReadWrite   = 7
)

// IDName is a light reference to a named entity.
type IDName struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Variable is a key/value attached to a project, environment or application.
type Variable struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Environment is a named set of variables inside a project.
type Environment struct {
	ID           int64      `json:"id,omitempty"`
	Name         string     `json:"name"`
	ProjectKey   string     `json:"project_key,omitempty"`
	LastModified int64      `json:"last_modified,omitempty"`
	Variables    []Variable `json:"variables,omitempty"`
}

// Group is a set of users sharing permissions.
type Group struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name"`
	Admins  []User `json:"admins,omitempty"`
	Members []User `json:"members,omitempty"`
}

// Clone returns a copy of g that shares no slices with it.
func (g Group) Clone() Group {
	g.Admins = cloneSlice(g.Admins)
	g.Members = cloneSlice(g.Members)
	return g
}

// GroupPermission grants a group a permission level on a project.
type GroupPermission struct {
	Group      Group `json:"group"`
	Permission int   `json:"permission"`
}

// ProjectVCSServer links a project to a repositories manager.
type ProjectVCSServer struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// Project is the client-side projection of a project.
//
// Sub-collections are optional: a nil slice means "not loaded" only when
// the owning store says so; the store tracks loaded fields separately.
type Project struct {
	ID               int64              `json:"id,omitempty"`
	Key              string             `json:"key"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	LastModified     time.Time          `json:"last_modified,omitempty"`
	Favorite         bool               `json:"favorite,omitempty"`
	Variables        []Variable         `json:"variables,omitempty"`
	Environments     []Environment      `json:"environments,omitempty"`
	ApplicationNames []IDName           `json:"application_names,omitempty"`
	PipelineNames    []IDName           `json:"pipeline_names,omitempty"`
	Groups           []GroupPermission  `json:"groups,omitempty"`
	VCSServers       []ProjectVCSServer `json:"vcs_servers,omitempty"`
	// ExternalChange is set when the push channel reported a change made
	// elsewhere since the project was last fetched.
	ExternalChange bool `json:"-"`
}

// Clone returns a copy of p that shares no slices with it.
func (p Project) Clone() Project {
	c := p
	c.Variables = cloneSlice(p.Variables)
	if p.Environments != nil {
		c.Environments = make([]Environment, len(p.Environments))
		for i, e := range p.Environments {
			e.Variables = cloneSlice(e.Variables)
			c.Environments[i] = e
		}
	}
	c.ApplicationNames = cloneSlice(p.ApplicationNames)
	c.PipelineNames = cloneSlice(p.PipelineNames)
	c.Groups = cloneSlice(p.Groups)
	c.VCSServers = cloneSlice(p.VCSServers)
	return c
}

// Nav returns the navigation row of p.
func (p Project) Nav() NavProject {
	n := NavProject{Key: p.Key, Name: p.Name, Description: p.Description, Favorite: p.Favorite}
	for _, a := range p.ApplicationNames {
		n.ApplicationNames = append(n.ApplicationNames, a.Name)
	}
	for _, pip := range p.PipelineNames {
		n.PipelineNames = append(n.PipelineNames, pip.Name)
	}
	return n
}

// NavProject is one row of the navigation list.
type NavProject struct {
	Key              string   `json:"key"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Favorite         bool     `json:"favorite,omitempty"`
	ApplicationNames []string `json:"application_names,omitempty"`
	PipelineNames    []string `json:"pipeline_names,omitempty"`
}

// Clone returns a copy of n that shares no slices with it.
func (n NavProject) Clone() NavProject {
	n.ApplicationNames = cloneSlice(n.ApplicationNames)
	n.PipelineNames = cloneSlice(n.PipelineNames)
	return n
}

// Application belongs to a project.
type Application struct {
	ID                 int64      `json:"id,omitempty"`
	Name               string     `json:"name"`
	ProjectKey         string     `json:"project_key"`
	Description        string     `json:"description,omitempty"`
	LastModified       time.Time  `json:"last_modified,omitempty"`
	RepositoryFullname string     `json:"repository_fullname,omitempty"`
	VCSServer          string     `json:"vcs_server,omitempty"`
	Variables          []Variable `json:"variables,omitempty"`
}

// Clone returns a copy of a that shares no slices with it.
func (a Application) Clone() Application {
	a.Variables = cloneSlice(a.Variables)
	return a
}

// Stage is a step of a pipeline.
type Stage struct {
	ID         int64    `json:"id,omitempty"`
	Name       string   `json:"name"`
	BuildOrder int      `json:"build_order"`
	Enabled    bool     `json:"enabled"`
	Jobs       []IDName `json:"jobs,omitempty"`
}

// Parameter is a typed pipeline or action parameter.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Pipeline belongs to a project.
type Pipeline struct {
	ID           int64       `json:"id,omitempty"`
	Name         string      `json:"name"`
	ProjectKey   string      `json:"project_key"`
	Description  string      `json:"description,omitempty"`
	LastModified int64       `json:"last_modified,omitempty"`
	Stages       []Stage     `json:"stages,omitempty"`
	Parameters   []Parameter `json:"parameters,omitempty"`
}

// Clone returns a copy of p that shares no slices with it.
func (p Pipeline) Clone() Pipeline {
	if p.Stages != nil {
		stages := make([]Stage, len(p.Stages))
		for i, st := range p.Stages {
			st.Jobs = cloneSlice(st.Jobs)
			stages[i] = st
		}
		p.Stages = stages
	}
	p.Parameters = cloneSlice(p.Parameters)
	return p
}

// Requirement is a constraint a worker must satisfy to run an action.
type Requirement struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Action is a reusable job step.
type Action struct {
	ID           int64         `json:"id,omitempty"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Description  string        `json:"description,omitempty"`
	Requirements []Requirement `json:"requirements,omitempty"`
	Parameters   []Parameter   `json:"parameters,omitempty"`
	Enabled      bool          `json:"enabled"`
	Deprecated   bool          `json:"deprecated,omitempty"`
}

// Clone returns a copy of a that shares no slices with it.
func (a Action) Clone() Action {
	a.Requirements = cloneSlice(a.Requirements)
	a.Parameters = cloneSlice(a.Parameters)
	return a
}

// Broadcast levels.
const (
	BroadcastInfo    = "info"
	BroadcastWarning = "warning"
)

// Broadcast is an announcement shown to users.
type Broadcast struct {
	ID         int64     `json:"id,omitempty"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Level      string    `json:"level"`
	ProjectKey string    `json:"project_key,omitempty"`
	Created    time.Time `json:"created,omitempty"`
	Updated    time.Time `json:"updated,omitempty"`
	Archived   bool      `json:"archived"`
	Read       bool      `json:"read"`
}

// Token is a group worker token.
type Token struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	GroupName   string    `json:"group_name,omitempty"`
	Description string    `json:"description,omitempty"`
	Expiration  string    `json:"expiration"`
	Creator     string    `json:"creator,omitempty"`
	Created     time.Time `json:"created,omitempty"`
	// Token is only returned once, at creation.
	Token string `json:"token,omitempty"`
}

// WorkerModel describes how workers are spawned.
type WorkerModel struct {
	ID               int64  `json:"id,omitempty"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	GroupID          int64  `json:"group_id"`
	Description      string `json:"description,omitempty"`
	Image            string `json:"image,omitempty"`
	Disabled         bool   `json:"disabled"`
	Restricted       bool   `json:"restricted"`
	NeedRegistration bool   `json:"need_registration,omitempty"`
}

// Migration is a server-side data migration visible to administrators.
type Migration struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Progress  string    `json:"progress,omitempty"`
	Error     string    `json:"error,omitempty"`
	Release   string    `json:"release,omitempty"`
	Blocker   bool      `json:"blocker"`
	Mandatory bool      `json:"mandatory"`
	Started   time.Time `json:"started,omitempty"`
	Done      time.Time `json:"done,omitempty"`
}

func cloneSlice[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return append(S(nil), s...)
}
