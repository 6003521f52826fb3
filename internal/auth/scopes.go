package auth

// Known OAuth scopes used by the zenscape API.
const (
	ScopeActivitiesWrite = "activities:write"
	ScopeActivitiesRead  = "activities:read"
	ScopeJournalWrite    = "journal:write"
	ScopeJournalRead     = "journal:read"
	ScopeChatUse         = "chat:use"
)

// DefaultScopes are granted to every signed-in user.
var DefaultScopes = []string{
	ScopeActivitiesRead,
	ScopeActivitiesWrite,
	ScopeJournalRead,
	ScopeJournalWrite,
	ScopeChatUse,
}
