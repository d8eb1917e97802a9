// Package model defines the tagged item variants of spec.md §9: a closed
// sum type replacing the teacher's BaseItem/subclass-with-bean-mapping
// hierarchy (legacy/models.go + legacy/interfaces.go). Each variant owns
// the subset of attributes its item type carries (spec.md §6.2); the store
// layer only ever sees PK/SK/GSI1PK/startTimestamp/version plus an
// attribute bag, and these (de)serializers are the explicit mapping layer
// spec.md §9 asks for in place of annotation-driven ORM.
package model

import "encoding/json"

// ToAttrs encodes v (a variant struct) into the heterogeneous attribute
// map a store.Item carries, via its json tags — the explicit serializer
// spec.md §9 calls for in place of annotation-driven ORM reflection.
func ToAttrs(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromAttrs decodes a store.Item's attribute map back into a variant
// struct, failing Internal (via the caller) on shape mismatch.
func FromAttrs(m map[string]any, v any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// TimeInfo is the fuzzy-time display payload preserved verbatim
// (spec.md §3.3).
type TimeInfo map[string]any

// Location is the freeform place payload a hangout/place carries.
type Location struct {
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
	Lat       float64 `json:"lat,omitempty"`
	Lng       float64 `json:"lng,omitempty"`
	PlaceID   string  `json:"placeId,omitempty"`
}

// Visibility mirrors a hangout's sharing scope.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Role is a group membership role.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ---- Group ----

// Group is the canonical GROUP#{gid}/METADATA record (spec.md §6.2).
type Group struct {
	GroupID            string `json:"groupId"`
	GroupName          string `json:"groupName"`
	IsPublic           bool   `json:"isPublic"`
	MainImagePath      string `json:"mainImagePath,omitempty"`
	LastHangoutModified int64 `json:"lastHangoutModified"`
	Version            int64  `json:"version"`
}

// Membership is the GROUP#{gid}/USER#{uid} record.
type Membership struct {
	GroupID   string `json:"groupId"`
	UserID    string `json:"userId"`
	GroupName string `json:"groupName"`
	Role      Role   `json:"role"`
	JoinedAt  int64  `json:"joinedAt"`
}

// ---- Hangout ----

// Hangout is the canonical EVENT#{hid}/METADATA record.
type Hangout struct {
	HangoutID         string     `json:"hangoutId"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	TimeInfo          TimeInfo   `json:"timeInfo"`
	StartTimestamp    int64      `json:"startTimestamp"`
	EndTimestamp      int64      `json:"endTimestamp"`
	Location          Location   `json:"location"`
	Visibility        Visibility `json:"visibility"`
	MainImagePath     string     `json:"mainImagePath,omitempty"`
	AssociatedGroups  []string   `json:"associatedGroups"`
	InvitedUsers      []string   `json:"invitedUsers"`
	CarpoolEnabled    bool       `json:"carpoolEnabled"`
	TicketLink        string     `json:"ticketLink,omitempty"`
	TicketsRequired   bool       `json:"ticketsRequired,omitempty"`
	DiscountCode      string     `json:"discountCode,omitempty"`
	ExternalID        string     `json:"externalId,omitempty"`
	ExternalSource    string     `json:"externalSource,omitempty"`
	IsGeneratedTitle  bool       `json:"isGeneratedTitle,omitempty"`
	SeriesID          string     `json:"seriesId,omitempty"`
	Version           int64      `json:"version"`
}

// HangoutPointer is the denormalized per-group/per-user projection
// (spec.md §3.2/§6.2). Every field here must track the canonical record
// after any write that touches it.
type HangoutPointer struct {
	HangoutID            string              `json:"hangoutId"`
	Title                string              `json:"title"`
	Status               string              `json:"status"`
	TimeInfo             TimeInfo            `json:"timeInfo"`
	StartTimestamp       int64               `json:"startTimestamp"`
	EndTimestamp         int64               `json:"endTimestamp"`
	Location             Location            `json:"location"`
	ParticipantCount     int                 `json:"participantCount"`
	MainImagePath        string              `json:"mainImagePath,omitempty"`
	PollsSummary         []PollSummary       `json:"pollsSummary,omitempty"`
	CarsSummary          []CarSummary        `json:"carsSummary,omitempty"`
	Attributes           map[string]string   `json:"attributes,omitempty"`
	ParticipationSummary ParticipationSummary `json:"participationSummary"`
	ExternalID           string              `json:"externalId,omitempty"`
	ExternalSource       string              `json:"externalSource,omitempty"`
	IsGeneratedTitle     bool                `json:"isGeneratedTitle,omitempty"`
	SeriesID             string              `json:"seriesId,omitempty"`
}

// PollSummary is the denormalized poll digest carried on a pointer.
type PollSummary struct {
	PollID        string `json:"pollId"`
	Title         string `json:"title"`
	OptionCount   int    `json:"optionCount"`
	VoteCount     int    `json:"voteCount"`
	MultipleChoice bool  `json:"multipleChoice"`
}

// CarSummary is the denormalized carpool digest carried on a pointer.
type CarSummary struct {
	DriverID       string `json:"driverId"`
	DriverName     string `json:"driverName"`
	TotalCapacity  int    `json:"totalCapacity"`
	AvailableSeats int    `json:"availableSeats"`
}

// ---- Series ----

// Series is the canonical SERIES#{sid}/METADATA record.
type Series struct {
	SeriesID string   `json:"seriesId"`
	Title    string   `json:"title"`
	Groups   []string `json:"groups"`
	Members  []string `json:"members"`
	Version  int64    `json:"version"`
}

// SeriesPointer is the GROUP#{gid}/SERIES#{sid} projection.
type SeriesPointer struct {
	SeriesID       string `json:"seriesId"`
	Title          string `json:"title"`
	StartTimestamp int64  `json:"startTimestamp"`
}

// ---- Poll ----

// Poll is the EVENT#{hid}/POLL#{pid} record.
type Poll struct {
	PollID         string `json:"pollId"`
	Title          string `json:"title"`
	MultipleChoice bool   `json:"multipleChoice"`
}

// PollOption is the EVENT#{hid}/POLL#{pid}#OPTION#{oid} record.
type PollOption struct {
	PollID   string `json:"pollId"`
	OptionID string `json:"optionId"`
	Text     string `json:"text"`
}

// VoteType enumerates the vote kinds spec.md §6.2 defines.
type VoteType string

const (
	VotePreference VoteType = "PREFERENCE"
	VoteYes        VoteType = "YES"
	VoteNo         VoteType = "NO"
	VoteMaybe      VoteType = "MAYBE"
)

// Vote is the EVENT#{hid}/POLL#{pid}#VOTE#{uid}#OPTION#{oid} record.
type Vote struct {
	PollID   string   `json:"pollId"`
	UserID   string   `json:"userId"`
	OptionID string   `json:"optionId"`
	VoteType VoteType `json:"voteType"`
}

// ---- Carpool ----

// Car is the EVENT#{hid}/CAR#{driverId} record.
type Car struct {
	DriverID       string `json:"driverId"`
	DriverName     string `json:"driverName"`
	TotalCapacity  int    `json:"totalCapacity"`
	AvailableSeats int    `json:"availableSeats"`
	Notes          string `json:"notes,omitempty"`
}

// CarRider is the EVENT#{hid}/CAR#{driverId}#RIDER#{riderId} record.
type CarRider struct {
	DriverID      string `json:"driverId"`
	RiderID       string `json:"riderId"`
	RiderName     string `json:"riderName"`
	PlusOneCount  int    `json:"plusOneCount"`
	Notes         string `json:"notes,omitempty"`
}

// TotalSeatsOccupied is seat occupancy per rider (spec.md §3.2/GLOSSARY):
// 1 + plusOneCount.
func (r CarRider) TotalSeatsOccupied() int { return 1 + r.PlusOneCount }

// NeedsRide is the EVENT#{hid}/NEEDS_RIDE#{uid} record.
type NeedsRide struct {
	UserID string `json:"userId"`
}

// ---- Attribute ----

// Attribute is the EVENT#{hid}/ATTRIBUTE#{aid} record (spec.md §4.9).
type Attribute struct {
	AttributeID string `json:"attributeId"`
	Name        string `json:"name"`
	Value       string `json:"value"`
}

// ---- Interest ----

// Interest is the EVENT#{hid}/INTEREST#{uid} record.
type Interest struct {
	UserID string `json:"userId"`
}

// ---- Participation & reservation offers ----

// ParticipationType enumerates the bucket types spec.md §4.8 defines.
type ParticipationType string

const (
	ParticipationTicketNeeded    ParticipationType = "TICKET_NEEDED"
	ParticipationTicketPurchased ParticipationType = "TICKET_PURCHASED"
	ParticipationTicketExtra     ParticipationType = "TICKET_EXTRA"
	ParticipationSection         ParticipationType = "SECTION"
	ParticipationClaimedSpot     ParticipationType = "CLAIMED_SPOT"
)

// Participation is the EVENT#{hid}/PARTICIPATION#{pid} record.
type Participation struct {
	ParticipationID string            `json:"participationId"`
	UserID          string            `json:"userId"`
	Type            ParticipationType `json:"type"`
	Section         string            `json:"section,omitempty"`
}

// UserSummary is the denormalized per-user entry in a
// ParticipationSummary bucket.
type UserSummary struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// ReservationOffer is the EVENT#{hid}/OFFER#{oid} record (spec.md §4.8).
type ReservationOffer struct {
	OfferID      string `json:"offerId"`
	HostID       string `json:"hostId"`
	Capacity     int    `json:"capacity"`
	ClaimedSpots int    `json:"claimedSpots"`
	Notes        string `json:"notes,omitempty"`
}

// ParticipationSummary is the denormalized DTO maintained on every
// HangoutPointer (spec.md §4.8).
type ParticipationSummary struct {
	NeedingTicket []UserSummary      `json:"needingTicket,omitempty"`
	WithTicket    []UserSummary      `json:"withTicket,omitempty"`
	ClaimedSpot   []UserSummary      `json:"claimedSpot,omitempty"`
	ExtraCount    int                `json:"extraCount"`
	Offers        []ReservationOffer `json:"offers,omitempty"`
}

// ---- Place & idea lists ----

// Place is a USER#{uid}/PLACE#{pid} or GROUP#{gid}/PLACE#{pid} record.
type Place struct {
	PlaceID  string   `json:"placeId"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// IdeaList is the GROUP#{gid}/LIST#{lid} record.
type IdeaList struct {
	ListID string `json:"listId"`
	Title  string `json:"title"`
}

// Idea is the GROUP#{gid}/LIST#{lid}#IDEA#{id} record.
type Idea struct {
	ListID      string `json:"listId"`
	IdeaID      string `json:"ideaId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VoteCount   int    `json:"voteCount"`
}

// ---- Invite codes, devices, refresh tokens ----

// InviteMapping is the INVITE#{code}/GROUP#{gid} record.
type InviteMapping struct {
	Code    string `json:"code"`
	GroupID string `json:"groupId"`
}

// Device is the DEVICE#{token}/METADATA record.
type Device struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	SubscriptionToken string `json:"subscriptionToken,omitempty"`
}

// RefreshToken is the REFRESH#{deviceId}/METADATA record (spec.md
// §4.11/§6.2): one active refresh token per device, keyed by device
// rather than by hash, since a legacy bcrypt digest cannot be recomputed
// from the raw token to serve as a lookup key the way the current
// SHA-256 scheme's digest can.
type RefreshToken struct {
	HashSchemeVersion int    `json:"hashSchemeVersion"`
	TokenHash         string `json:"tokenHash"`
	UserID            string `json:"userId"`
	DeviceID          string `json:"deviceId"`
	IssuedAt          int64  `json:"issuedAt"`
	RotatedFrom       string `json:"rotatedFrom,omitempty"`
	Version           int64  `json:"version"`
}

// HashScheme enumerates the dual-scheme validation path of spec.md §4.11.
const (
	HashSchemeSHA256 = 1
	HashSchemeBcryptLegacy = 0
)
