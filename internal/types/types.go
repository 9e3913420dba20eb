package types

// Role represents an account role on the platform.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleAdAgent         Role = "AD_AGENT"
	RoleInfluencerAgent Role = "INFLUENCER_AGENT"
	RoleInfluencer      Role = "INFLUENCER"
)

// Principal represents the authenticated account.
type Principal struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Role         Role   `json:"role"`
	CompanyAdmin bool   `json:"company_admin,omitempty"`
	Token        string `json:"token"`
}

// NotificationKind identifies what a notification refers to.
type NotificationKind string

const (
	NotificationCampaignInvite  NotificationKind = "campaign_invite"
	NotificationFinalizeRequest NotificationKind = "finalize_request"
	NotificationGeneric         NotificationKind = "generic"
)

// NotificationItem represents a single feed entry.
type NotificationItem struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Subtitle   string           `json:"subtitle,omitempty"`
	CreatedAt  int64            `json:"created_at"`
	RelatedID  string           `json:"related_id,omitempty"`
	Kind       NotificationKind `json:"kind"`
	CampaignID string           `json:"campaign_id,omitempty"`
	Read       bool             `json:"read,omitempty"`
}

// UserRef identifies a conversation participant.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role,omitempty"`
}

// LastMessage is the most recent message of a conversation.
type LastMessage struct {
	Text      string `json:"text"`
	SenderID  string `json:"sender_id"`
	CreatedAt int64  `json:"created_at"`
}

// ConversationSummary represents a two-party conversation in the feed.
type ConversationSummary struct {
	ID           string      `json:"id"`
	Participants [2]UserRef  `json:"participants"`
	LastMessage  LastMessage `json:"last_message"`
}

// Other returns the participant that is not the given user.
func (c ConversationSummary) Other(userID string) UserRef {
	if c.Participants[0].ID == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// Message represents one chat message. Messages are append-only.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Text           string `json:"text"`
	CreatedAt      int64  `json:"created_at"`
}

// CampaignStatus represents campaign lifecycle state.
type CampaignStatus string

const (
	CampaignStatusOpen      CampaignStatus = "open"
	CampaignStatusFinalized CampaignStatus = "finalized"
	CampaignStatusRejected  CampaignStatus = "rejected"
)

// Campaign represents a campaign as returned by the backend.
type Campaign struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	CreatorID   string         `json:"creator_id"`
	Budget      float64        `json:"budget,omitempty"`
	Status      CampaignStatus `json:"status"`
}

// InviteStatus is sent when responding to a campaign invitation.
type InviteStatus string

const (
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)
