// Package keys is the deterministic key factory of spec.md §4.1. It builds
// and parses the composite partition/sort keys that give every stored item
// its type — the sort-key shape is the type contract; no item carries a
// discriminator field.
package keys

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
)

// ItemKind is the classification of a stored item's sort key (spec.md §4.1).
type ItemKind string

const (
	KindHangoutCanonical ItemKind = "HANGOUT_CANONICAL"
	KindHangoutPointer   ItemKind = "HANGOUT_POINTER"
	KindSeriesCanonical  ItemKind = "SERIES_CANONICAL"
	KindSeriesPointer    ItemKind = "SERIES_POINTER"
	KindGroupCanonical   ItemKind = "GROUP_CANONICAL"
	KindMembership       ItemKind = "MEMBERSHIP"
	KindPoll             ItemKind = "POLL"
	KindPollOption       ItemKind = "POLL_OPTION"
	KindVote             ItemKind = "VOTE"
	KindCar              ItemKind = "CAR"
	KindRider            ItemKind = "RIDER"
	KindNeedsRide        ItemKind = "NEEDS_RIDE"
	KindAttribute        ItemKind = "ATTRIBUTE"
	KindInterest         ItemKind = "INTEREST"
	KindParticipation    ItemKind = "PARTICIPATION"
	KindOffer            ItemKind = "OFFER"
	KindPlace            ItemKind = "PLACE"
	KindIdea             ItemKind = "IDEA"
	KindIdeaList         ItemKind = "IDEA_LIST"
	KindInviteMapping    ItemKind = "INVITE_MAPPING"
	KindDevice           ItemKind = "DEVICE"
	KindRefreshToken     ItemKind = "REFRESH_TOKEN"
	KindOther            ItemKind = "OTHER"
)

const SKMetadata = "METADATA"

// NewID returns a fresh UUIDv4. Sequential identifiers are forbidden
// (spec.md §5 "Hot-partition avoidance").
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s parses as a UUID of any RFC-4122 version; the
// key factory rejects malformed identifiers at construction time.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func requireID(kind, field, id string) error {
	if !ValidID(id) {
		return domainerr.Invalid(field, kind+" id must be a valid UUID")
	}
	return nil
}

// ---- Partition keys ----

func GroupPK(gid string) string  { return "GROUP#" + gid }
func EventPK(hid string) string  { return "EVENT#" + hid }
func SeriesPK(sid string) string { return "SERIES#" + sid }
func UserPK(uid string) string   { return "USER#" + uid }
func InvitePK(code string) string { return "INVITE#" + code }
func DevicePK(token string) string { return "DEVICE#" + token }
func RefreshPK(hash string) string { return "REFRESH#" + hash }

// ---- Sort keys ----

func MemberSK(uid string) string { return "USER#" + uid }
func HangoutPointerSK(hid string) string { return "HANGOUT#" + hid }
func SeriesPointerSK(sid string) string  { return "SERIES#" + sid }
func PollSK(pid string) string           { return "POLL#" + pid }
func PollOptionSK(pid, oid string) string { return "POLL#" + pid + "#OPTION#" + oid }
func VoteSK(pid, uid, oid string) string {
	return "POLL#" + pid + "#VOTE#" + uid + "#OPTION#" + oid
}
func CarSK(driverID string) string { return "CAR#" + driverID }
func RiderSK(driverID, riderID string) string {
	return "CAR#" + driverID + "#RIDER#" + riderID
}
func NeedsRideSK(uid string) string     { return "NEEDS_RIDE#" + uid }
func AttributeSK(aid string) string     { return "ATTRIBUTE#" + aid }
func InterestSK(uid string) string      { return "INTEREST#" + uid }
func ParticipationSK(pid string) string { return "PARTICIPATION#" + pid }
func OfferSK(oid string) string         { return "OFFER#" + oid }
func IdeaListSK(lid string) string      { return "LIST#" + lid }
func IdeaSK(lid, id string) string      { return "LIST#" + lid + "#IDEA#" + id }
func PlaceSK(pid string) string         { return "PLACE#" + pid }
func InviteGroupSK(gid string) string   { return "GROUP#" + gid }
func InviteGSI1SK(code string) string   { return "INVITE#" + code }

// ---- Parsers ----

type VoteKey struct{ PollID, UserID, OptionID string }

// ParseVoteSK parses "POLL#{pid}#VOTE#{uid}#OPTION#{oid}".
func ParseVoteSK(sk string) (VoteKey, error) {
	parts := strings.Split(sk, "#")
	if len(parts) != 6 || parts[0] != "POLL" || parts[2] != "VOTE" || parts[4] != "OPTION" {
		return VoteKey{}, domainerr.Invalid("sk", "not a vote key")
	}
	return VoteKey{PollID: parts[1], UserID: parts[3], OptionID: parts[5]}, nil
}

type PollOptionKey struct{ PollID, OptionID string }

// ParsePollOptionSK parses "POLL#{pid}#OPTION#{oid}".
func ParsePollOptionSK(sk string) (PollOptionKey, error) {
	if strings.Contains(sk, "#VOTE#") {
		return PollOptionKey{}, domainerr.Invalid("sk", "not a poll-option key")
	}
	parts := strings.Split(sk, "#")
	if len(parts) != 4 || parts[0] != "POLL" || parts[2] != "OPTION" {
		return PollOptionKey{}, domainerr.Invalid("sk", "not a poll-option key")
	}
	return PollOptionKey{PollID: parts[1], OptionID: parts[3]}, nil
}

type RiderKey struct{ DriverID, RiderID string }

// ParseRiderSK parses "CAR#{driverId}#RIDER#{riderId}".
func ParseRiderSK(sk string) (RiderKey, error) {
	parts := strings.Split(sk, "#")
	if len(parts) != 4 || parts[0] != "CAR" || parts[2] != "RIDER" {
		return RiderKey{}, domainerr.Invalid("sk", "not a rider key")
	}
	return RiderKey{DriverID: parts[1], RiderID: parts[3]}, nil
}

type IdeaKey struct{ ListID, IdeaID string }

// ParseIdeaSK parses "LIST#{lid}#IDEA#{id}".
func ParseIdeaSK(sk string) (IdeaKey, error) {
	parts := strings.Split(sk, "#")
	if len(parts) != 4 || parts[0] != "LIST" || parts[2] != "IDEA" {
		return IdeaKey{}, domainerr.Invalid("sk", "not an idea key")
	}
	return IdeaKey{ListID: parts[1], IdeaID: parts[3]}, nil
}

// Classify returns the ItemKind implied by a sort key's shape (spec.md
// §4.1). Nested-substring checks ensure e.g. a bare "CAR#x" is only
// classified as Car when it does NOT contain "#RIDER#".
func Classify(sk string) ItemKind {
	switch {
	case sk == SKMetadata:
		// caller must disambiguate Group vs Hangout vs Series canonical by PK prefix
		return KindOther
	case strings.HasPrefix(sk, "USER#"):
		return KindMembership
	case strings.HasPrefix(sk, "HANGOUT#"):
		return KindHangoutPointer
	case strings.HasPrefix(sk, "SERIES#"):
		return KindSeriesPointer
	case strings.HasPrefix(sk, "POLL#") && strings.Contains(sk, "#VOTE#"):
		return KindVote
	case strings.HasPrefix(sk, "POLL#") && strings.Contains(sk, "#OPTION#"):
		return KindPollOption
	case strings.HasPrefix(sk, "POLL#"):
		return KindPoll
	case strings.HasPrefix(sk, "CAR#") && strings.Contains(sk, "#RIDER#"):
		return KindRider
	case strings.HasPrefix(sk, "CAR#"):
		return KindCar
	case strings.HasPrefix(sk, "NEEDS_RIDE#"):
		return KindNeedsRide
	case strings.HasPrefix(sk, "ATTRIBUTE#"):
		return KindAttribute
	case strings.HasPrefix(sk, "INTEREST#"):
		return KindInterest
	case strings.HasPrefix(sk, "PARTICIPATION#"):
		return KindParticipation
	case strings.HasPrefix(sk, "OFFER#"):
		return KindOffer
	case strings.HasPrefix(sk, "PLACE#"):
		return KindPlace
	case strings.HasPrefix(sk, "LIST#") && strings.Contains(sk, "#IDEA#"):
		return KindIdea
	case strings.HasPrefix(sk, "LIST#"):
		return KindIdeaList
	case strings.HasPrefix(sk, "GROUP#"):
		return KindInviteMapping
	case strings.HasPrefix(sk, "INVITE#"):
		return KindInviteMapping
	default:
		return KindOther
	}
}

// ClassifyCanonical disambiguates a METADATA sort key using the partition
// key prefix, since METADATA alone is shared by Group/Hangout/Series.
func ClassifyCanonical(pk string) ItemKind {
	switch {
	case strings.HasPrefix(pk, "GROUP#"):
		return KindGroupCanonical
	case strings.HasPrefix(pk, "EVENT#"):
		return KindHangoutCanonical
	case strings.HasPrefix(pk, "SERIES#"):
		return KindSeriesCanonical
	case strings.HasPrefix(pk, "DEVICE#"):
		return KindDevice
	case strings.HasPrefix(pk, "REFRESH#"):
		return KindRefreshToken
	default:
		return KindOther
	}
}

// RequireGroupID validates a group identifier at construction time.
func RequireGroupID(id string) error { return requireID("group", "groupId", id) }

// RequireHangoutID validates a hangout identifier at construction time.
func RequireHangoutID(id string) error { return requireID("hangout", "hangoutId", id) }

// RequireUserID validates a user identifier at construction time.
func RequireUserID(id string) error { return requireID("user", "userId", id) }

// RequireSeriesID validates a series identifier at construction time.
func RequireSeriesID(id string) error { return requireID("series", "seriesId", id) }
